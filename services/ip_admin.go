package services

import (
	"context"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	IP_ADMIN_SVC = "ip_admin_svc"

	ipStatsTTL = 30 * time.Second

	IPActionResetLimits = "reset_limits"
	IPActionUnblock     = "unblock"
	IPActionBlock       = "block"
)

// IPAdminService backs the admin IP endpoints: counters, block list and
// manual block, unblock and limit reset.
type IPAdminService struct {
	appContext.DefaultService

	limiter  *RateLimitService
	firewall *FirewallService
	cache    Cache
}

func NewIPAdminService(limiter *RateLimitService, firewall *FirewallService, cache Cache) *IPAdminService {
	return &IPAdminService{limiter: limiter, firewall: firewall, cache: cache}
}

func (svc IPAdminService) Id() string {
	return IP_ADMIN_SVC
}

func (svc *IPAdminService) Start() error {
	svc.limiter = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.firewall = svc.Service(FIREWALL_SVC).(*FirewallService)
	svc.cache = svc.Service(CACHE_SVC).(*CacheService).Cache()
	return nil
}

func (svc *IPAdminService) Stats(ctx context.Context) (*dto.IPStats, error) {
	var cached dto.IPStats
	if found, err := svc.cache.Get(ctx, shared.CacheKeyIPStats, &cached); err == nil && found {
		return &cached, nil
	}

	tracked, limited, err := svc.limiter.Stats(ctx)
	if err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}
	active, total, err := svc.firewall.Counts(ctx)
	if err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}

	stats := &dto.IPStats{
		TrackedIPs:   tracked,
		LimitedIPs:   limited,
		ActiveBlocks: active,
		TotalBlocks:  total,
		GeneratedAt:  time.Now().UTC(),
	}
	_ = svc.cache.Set(ctx, shared.CacheKeyIPStats, stats, ipStatsTTL)
	return stats, nil
}

func (svc *IPAdminService) Blocked(ctx context.Context, activeOnly bool, limit, offset int) (*dto.PageResponse, error) {
	rows, total, err := svc.firewall.ListBlocked(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}
	return &dto.PageResponse{Items: rows, Total: total, Limit: limit, Offset: offset}, nil
}

func (svc *IPAdminService) Tracking(ctx context.Context, limit, offset int) (*dto.PageResponse, error) {
	rows, total, err := svc.limiter.Tracking(ctx, limit, offset)
	if err != nil {
		return nil, shared.NewInternalError(HandleDBError(err), shared.ReasonDatabaseError)
	}
	return &dto.PageResponse{Items: rows, Total: total, Limit: limit, Offset: offset}, nil
}

// Apply runs a manual admin action on one IP.
func (svc *IPAdminService) Apply(ctx context.Context, req dto.IPActionRequest) (*dto.IPActionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp := &dto.IPActionResponse{Action: req.Action, IP: req.IP}

	switch req.Action {
	case IPActionResetLimits:
		if err := svc.limiter.ResetLimits(ctx, req.IP); err != nil {
			return nil, shared.NewInternalError(err, shared.ReasonDatabaseError)
		}
		svc.cache.InvalidatePattern(ctx, shared.CacheKeyIPPrefix)
		resp.Success = true

	case IPActionUnblock:
		resp.Success = svc.firewall.UnblockIP(ctx, req.IP)

	case IPActionBlock:
		reason := req.Reason
		if reason == "" {
			reason = "Manual block"
		}
		resp.Success = svc.firewall.BlockIP(ctx, req.IP, reason)
	}

	log.WithFields(log.Fields{
		"action":  req.Action,
		"ip":      req.IP,
		"success": resp.Success,
	}).Info("Admin IP action")
	return resp, nil
}
