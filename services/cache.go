package services

import (
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/services/cache"
	log "github.com/sirupsen/logrus"
)

const CACHE_SVC = "cache_svc"

// CacheService owns the tiered cache shared by orders, IP admin and geolocation.
type CacheService struct {
	context.DefaultService
	tiered *cache.Tiered

	capacity      int
	defaultTTL    time.Duration
	sweepInterval time.Duration
}

func (svc CacheService) Id() string {
	return CACHE_SVC
}

func (svc *CacheService) Configure(ctx *context.Context) error {
	svc.capacity = cache.DefaultCapacity
	if v, err := strconv.Atoi(os.Getenv("CACHE_FALLBACK_CAPACITY")); err == nil && v > 0 {
		svc.capacity = v
	}

	svc.defaultTTL = envDuration("CACHE_DEFAULT_TTL", cache.DefaultTTL)
	svc.sweepInterval = envDuration("CACHE_SWEEP_INTERVAL", cache.DefaultSweepInterval)

	return svc.DefaultService.Configure(ctx)
}

func (svc *CacheService) Start() error {
	var remote cache.Backend
	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok && redisSvc.GetClient() != nil {
		remote = cache.NewRedisBackend(redisSvc.GetClient())
	}

	svc.tiered = cache.NewTiered(remote, cache.NewMemoryBackend(svc.capacity, svc.sweepInterval), svc.defaultTTL)
	svc.tiered.SetObserver(recordCacheRequest)

	log.WithFields(log.Fields{
		"remote":   remote != nil,
		"capacity": svc.capacity,
		"ttl":      svc.defaultTTL,
	}).Info("Cache initialized")
	return nil
}

func (svc *CacheService) Cache() *cache.Tiered {
	return svc.tiered
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.WithField(key, raw).Warn("Invalid duration, using default")
		return def
	}
	return d
}
