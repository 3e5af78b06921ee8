package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/model"
	log "github.com/sirupsen/logrus"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService notifies the shop owner of new orders. It is a no-op unless
// SMTP_HOST and ORDER_NOTIFY_EMAIL are set.
type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	notifyEmail  string

	templates map[string]*template.Template
	sendMail  sendMailFunc
}

const EMAIL_SVC = "email_svc"

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	svc.smtpHost = os.Getenv("SMTP_HOST")
	svc.smtpPort = os.Getenv("SMTP_PORT")
	svc.smtpUsername = os.Getenv("SMTP_USERNAME")
	svc.smtpPassword = os.Getenv("SMTP_PASSWORD")
	svc.fromEmail = os.Getenv("FROM_EMAIL")
	svc.fromName = os.Getenv("FROM_NAME")
	svc.notifyEmail = os.Getenv("ORDER_NOTIFY_EMAIL")

	if svc.smtpPort == "" {
		svc.smtpPort = "587"
	}
	if svc.fromName == "" {
		svc.fromName = "Crystal Ball Store"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	if err := svc.loadTemplates(); err != nil {
		log.WithError(err).Error("Failed to load email templates")
	}
	if !svc.Enabled() {
		log.Info("SMTP or ORDER_NOTIFY_EMAIL not configured, order emails disabled")
	}
	return nil
}

func (svc *EmailService) Enabled() bool {
	return svc.smtpHost != "" && svc.notifyEmail != ""
}

const newOrderEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New order {{.ID}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4F46E5; color: white; padding: 20px; text-align: center; }
        td { padding: 4px 12px 4px 0; vertical-align: top; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New order</h1>
        </div>
        <table>
            <tr><td>Order</td><td>{{.ID}}</td></tr>
            <tr><td>Customer</td><td>{{.Name}}</td></tr>
            <tr><td>Phone</td><td>{{.Phone}}</td></tr>
            <tr><td>Delivery</td><td>{{.Wilaya}}, {{.Baladia}}{{if .Address}}, {{.Address}}{{end}}</td></tr>
            <tr><td>Child</td><td>{{.ChildName}}</td></tr>
            <tr><td>Product</td><td>{{.ProductName}} × {{.Quantity}}</td></tr>
            <tr><td>Total</td><td>{{.TotalPrice}} {{.Currency}}{{if .DiscountPercent}} (-{{.DiscountPercent}}%){{end}}</td></tr>
            {{if .ImageURL}}<tr><td>Image</td><td><a href="{{.ImageURL}}">{{.ImageURL}}</a></td></tr>{{end}}
            <tr><td>Placed</td><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td></tr>
        </table>
    </div>
</body>
</html>
`

func (svc *EmailService) loadTemplates() error {
	svc.templates = make(map[string]*template.Template)

	tmpl, err := template.New("new_order").Parse(newOrderEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse new order email template: %v", err)
	}
	svc.templates["new_order"] = tmpl
	return nil
}

func (svc *EmailService) NotifyNewOrder(order *model.Order) error {
	if !svc.Enabled() {
		return nil
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	subject := fmt.Sprintf("New order: %s × %d (%d %s)", order.ProductName, order.Quantity, order.TotalPrice, order.Currency)
	return svc.sendTemplateEmail(svc.notifyEmail, subject, "new_order", order)
}

func (svc *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	tmpl, exists := svc.templates[templateName]
	if !exists {
		return fmt.Errorf("template %s not found", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute template: %v", err)
	}

	return svc.sendEmail(to, subject, body.String())
}

func (svc *EmailService) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		svc.fromName, svc.fromEmail, to, subject, body))

	send := svc.sendMail
	if send == nil {
		send = smtp.SendMail
	}

	if err := send(svc.smtpHost+":"+svc.smtpPort, auth, svc.fromEmail, []string{to}, msg); err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email sent successfully")
	return nil
}
