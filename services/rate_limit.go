package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/repositories"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
)

const RATE_LIMIT_SVC = "rate_limit_svc"

const (
	RateLimitMaxOrders = shared.RateLimitMaxOrders
	RateLimitWindow    = shared.RateLimitWindowSeconds * time.Second
)

var (
	ErrRateLimited        = errors.New("order rate limit exceeded")
	ErrLimiterUnavailable = errors.New("rate limiter unavailable")
)

// LimitStore performs the per-IP order check as one atomic operation on the
// store side. The IP is its only input.
type LimitStore interface {
	Name() string
	Check(ctx context.Context, ip string) (repositories.LimitDecision, error)
	Reset(ctx context.Context, ip string) error
	Counts(ctx context.Context) (tracked, limited int64, err error)
	List(ctx context.Context, limit, offset int) ([]model.IPTracking, int64, error)
}

type RateLimitService struct {
	appContext.DefaultService

	backend string
	store   LimitStore
}

func NewRateLimitService(store LimitStore) *RateLimitService {
	return &RateLimitService{store: store, backend: store.Name()}
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.backend = strings.ToLower(os.Getenv("RATE_LIMIT_BACKEND"))
	if svc.backend == "" {
		svc.backend = "postgres"
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	if svc.backend == "redis" {
		redisSvc := svc.Service(REDIS_SVC).(*RedisService)
		if client := redisSvc.GetClient(); client != nil {
			svc.store = NewRedisLimitStore(client, RateLimitMaxOrders, RateLimitWindow)
		} else {
			log.Warn("RATE_LIMIT_BACKEND=redis but Redis is disabled, using postgres")
		}
	}
	if svc.store == nil {
		pgSvc := svc.Service(POSTGRES_SVC).(*PostgresService)
		svc.store = repositories.NewPostgresLimitStore(pgSvc.Db(), RateLimitMaxOrders, RateLimitWindow)
	}

	log.WithField("backend", svc.store.Name()).Info("Order rate limiter ready")
	return nil
}

// CheckLimit consumes one order slot for ip if the policy allows it. Any
// store failure denies the order.
func (svc *RateLimitService) CheckLimit(ctx context.Context, ip string) dto.RateLimitInfo {
	decision, err := svc.store.Check(ctx, ip)
	if err != nil {
		log.WithFields(log.Fields{
			"ip":      ip,
			"backend": svc.store.Name(),
		}).WithError(err).Error("Rate limit check failed")
		recordRateLimitDecision("error")
		return dto.RateLimitInfo{Allowed: false, Remaining: 0, Reason: shared.ReasonDatabaseError}
	}

	resetTime := decision.ResetTime
	info := dto.RateLimitInfo{
		Allowed:   decision.Allowed,
		Remaining: decision.Remaining,
		ResetTime: &resetTime,
	}
	if !decision.Allowed {
		info.Reason = shared.ReasonRateLimitExceeded
		recordRateLimitDecision("exceeded")
	} else {
		recordRateLimitDecision("allowed")
	}
	return info
}

func (svc *RateLimitService) ResetLimits(ctx context.Context, ip string) error {
	if err := svc.store.Reset(ctx, ip); err != nil {
		log.WithField("ip", ip).WithError(err).Error("Failed to reset rate limit")
		return errors.Join(ErrLimiterUnavailable, err)
	}
	log.WithField("ip", ip).Info("Rate limit reset")
	return nil
}

// Stats returns the number of tracked IPs and of IPs currently at the cap.
func (svc *RateLimitService) Stats(ctx context.Context) (tracked, limited int64, err error) {
	return svc.store.Counts(ctx)
}

func (svc *RateLimitService) Tracking(ctx context.Context, limit, offset int) ([]model.IPTracking, int64, error) {
	return svc.store.List(ctx, limit, offset)
}
