package services

import (
	"net/smtp"
	"testing"
	"time"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail_NotifyNewOrder(t *testing.T) {
	svc := &EmailService{
		smtpHost:    "smtp.example.com",
		smtpPort:    "587",
		fromEmail:   "shop@example.com",
		fromName:    "Shop",
		notifyEmail: "owner@example.com",
	}
	require.NoError(t, svc.loadTemplates())

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	svc.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	order := &model.Order{
		ID:              "ord-1",
		Name:            "Amine",
		Phone:           "0551234567",
		Wilaya:          "Alger",
		Baladia:         "Bab Ezzouar",
		ChildName:       "Yasmine",
		ProductName:     "Crystal Ball",
		Quantity:        2,
		DiscountPercent: 10,
		TotalPrice:      9900,
		Currency:        "DZD",
		CreatedAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.NotifyNewOrder(order))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: New order: Crystal Ball × 2 (9900 DZD)")
	assert.Contains(t, gotMsg, "Yasmine")
	assert.Contains(t, gotMsg, "2025-03-01 10:00")
}

func TestEmail_DisabledIsNoop(t *testing.T) {
	svc := &EmailService{}
	called := false
	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.NotifyNewOrder(&model.Order{}))
	assert.False(t, called)
}
