package main

import (
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"

	"github.com/crystal-dz/storefront_api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file, using the process environment")
	}

	setLogLevel(os.Getenv("LOG_LEVEL"))

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.PostgresService{},
		&services.RedisService{},
		&services.CacheService{},
		&services.EmailService{},
		&services.GeolocationService{},
		&services.JWTService{},
		&services.AdminAuthService{},
		&services.RateLimitService{},
		&services.FirewallService{},
		&services.OrderService{},
		&services.TrackingService{},
		&services.MinIOService{},
		&services.IPAdminService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service context stopped")
		return
	}
}

func setLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		logrus.SetLevel(logrus.TraceLevel)
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logrus.SetLevel(logrus.DebugLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		logrus.SetLevel(logrus.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logrus.SetLevel(logrus.InfoLevel)
	}
}
