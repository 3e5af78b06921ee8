package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/middleware"
	"github.com/crystal-dz/storefront_api/services/handlers"
	"github.com/crystal-dz/storefront_api/shared"
)

type HttpService struct {
	context.DefaultService

	port     int
	throttle middleware.ThrottleConfig
	origins  string

	app       *fiber.App
	throttles []*middleware.Throttle
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	svc.throttle = middleware.DefaultThrottleConfig()
	if v, err := strconv.ParseFloat(os.Getenv("TRACKING_RPS"), 64); err == nil && v > 0 {
		svc.throttle.RPS = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRACKING_BURST")); err == nil && v > 0 {
		svc.throttle.Burst = v
	}

	svc.origins = envOr("CORS_ALLOW_ORIGINS", "*")

	return svc.DefaultService.Configure(ctx)
}

// Routes holds the handler dependencies of the public API.
type Routes struct {
	Orders   handlers.OrderServiceInterface
	Auth     handlers.AdminAuthServiceInterface
	IPAdmin  handlers.IPAdminServiceInterface
	Tracking handlers.TrackingServiceInterface
	Uploads  handlers.UploadServiceInterface
	Cache    handlers.CacheAdminInterface
	Tokens   middleware.TokenVerifier
	Monitor  *MonitoringService
}

func (svc *HttpService) Start() error {
	routes := Routes{
		Orders:   svc.Service(ORDER_SVC).(*OrderService),
		Auth:     svc.Service(ADMIN_AUTH_SVC).(*AdminAuthService),
		IPAdmin:  svc.Service(IP_ADMIN_SVC).(*IPAdminService),
		Tracking: svc.Service(TRACKING_SVC).(*TrackingService),
		Uploads:  svc.Service(MINIO_SVC).(*MinIOService),
		Cache:    svc.Service(CACHE_SVC).(*CacheService).Cache(),
		Tokens:   svc.Service(JWT_SVC).(*JWTService),
	}
	if mon, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		routes.Monitor = mon
	}

	svc.app = svc.NewApp(routes)

	log.WithField("port", svc.port).Info("HTTP server starting")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

// NewApp builds the fiber application with every route mounted.
func (svc *HttpService) NewApp(r Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               SERVICE_NAME,
		DisableStartupMessage: os.Getenv("LOG_LEVEL") != "TRACE",
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          handlers.ErrorHandler,
		BodyLimit:             6 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: svc.origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodOptions}, ","),
	}))
	if r.Monitor != nil {
		app.Use(MonitoringMiddleware(r.Monitor))
	}
	app.Use(clientInfoMiddleware)

	trackThrottle := svc.newThrottle(svc.throttle)
	uploadThrottle := svc.newThrottle(middleware.ThrottleConfig{RPS: 0.5, Burst: 5})
	loginThrottle := svc.newThrottle(middleware.ThrottleConfig{RPS: 0.2, Burst: 5})

	orderHandler := handlers.NewOrderHandler(r.Orders)
	adminHandler := handlers.NewAdminHandler(r.Auth, r.Orders)
	ipHandler := handlers.NewIPHandler(r.IPAdmin)
	trackingHandler := handlers.NewTrackingHandler(r.Tracking)
	mediaHandler := handlers.NewMediaHandler(r.Uploads)
	cacheHandler := handlers.NewCacheHandler(r.Cache)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)
	v1.Get("/product", orderHandler.Product)
	v1.Post("/orders", orderHandler.CreateOrder)
	v1.Post("/uploads/image", uploadThrottle, mediaHandler.UploadImage)
	v1.Post("/track", trackThrottle, trackingHandler.Track)
	v1.Post("/admin/auth", loginThrottle, adminHandler.Login)

	admin := v1.Group("/admin", middleware.RequireRole(r.Tokens, AdminRole))
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Get("/orders/:id", adminHandler.GetOrder)
	admin.Patch("/orders/:id/status", adminHandler.UpdateOrderStatus)
	admin.Get("/ip", ipHandler.Get)
	admin.Post("/ip", ipHandler.Post)
	admin.Get("/cache/stats", cacheHandler.Stats)
	admin.Post("/cache/invalidate", cacheHandler.Invalidate)

	app.Use(func(c *fiber.Ctx) error {
		return shared.NewNotFoundError(nil, "Not Found")
	})

	return app
}

func (svc *HttpService) newThrottle(config middleware.ThrottleConfig) fiber.Handler {
	t := middleware.NewThrottle(config, func(c *fiber.Ctx) string {
		if info, ok := c.Locals(shared.ClientInfo).(dto.ClientInfo); ok {
			return info.IP
		}
		return c.IP()
	})
	svc.throttles = append(svc.throttles, t)
	return t.Handler()
}

func (svc *HttpService) Shutdown() {
	for _, t := range svc.throttles {
		t.Stop()
	}
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

func clientInfoMiddleware(c *fiber.Ctx) error {
	c.Locals(shared.ClientInfo, ExtractClientInfo(c))
	return c.Next()
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}
