package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services/repositories"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	FIREWALL_SVC = "firewall_svc"

	defaultCloudflareAPI = "https://api.cloudflare.com/client/v4"
)

var (
	ErrFirewallNotConfigured = errors.New("firewall API credentials not configured")
	ErrNoActiveBlock         = errors.New("no active block for ip")
)

type BlockStore interface {
	FindActive(ctx context.Context, ip string) (*model.BlockedIP, error)
	Create(ctx context.Context, block *model.BlockedIP) error
	Deactivate(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.BlockedIP, int64, error)
	Counts(ctx context.Context) (active, total int64, err error)
}

// FirewallService blocks abusive IPs with an edge firewall rule and keeps a
// local record of every block. The two are not reconciled: a rule created at
// the edge whose record failed to persist stays at the edge.
type FirewallService struct {
	appContext.DefaultService

	apiURL   string
	apiToken string
	zoneID   string

	client *http.Client
	blocks BlockStore
	cache  Cache

	// one block in flight per IP
	inflight singleflight.Group
}

func NewFirewallService(apiURL, apiToken, zoneID string, blocks BlockStore, cache Cache, client *http.Client) *FirewallService {
	if apiURL == "" {
		apiURL = defaultCloudflareAPI
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FirewallService{
		apiURL:   strings.TrimRight(apiURL, "/"),
		apiToken: apiToken,
		zoneID:   zoneID,
		client:   client,
		blocks:   blocks,
		cache:    cache,
	}
}

func (svc *FirewallService) Id() string {
	return FIREWALL_SVC
}

func (svc *FirewallService) Configure(ctx *appContext.Context) error {
	svc.apiURL = os.Getenv("CLOUDFLARE_API_URL")
	if svc.apiURL == "" {
		svc.apiURL = defaultCloudflareAPI
	}
	svc.apiURL = strings.TrimRight(svc.apiURL, "/")
	svc.apiToken = os.Getenv("CLOUDFLARE_API_TOKEN")
	svc.zoneID = os.Getenv("CLOUDFLARE_ZONE_ID")
	svc.client = &http.Client{Timeout: 10 * time.Second}

	return svc.DefaultService.Configure(ctx)
}

func (svc *FirewallService) Start() error {
	pgSvc := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.blocks = repositories.NewBlockedIPRepository(pgSvc.Db())
	svc.cache = svc.Service(CACHE_SVC).(*CacheService).Cache()

	if !svc.configured() {
		log.Warn("CLOUDFLARE_API_TOKEN or CLOUDFLARE_ZONE_ID not set, IP blocking disabled")
	}
	return nil
}

func (svc *FirewallService) configured() bool {
	return svc.apiToken != "" && svc.zoneID != ""
}

type firewallRuleRequest struct {
	Filter      firewallFilter `json:"filter"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
}

type firewallFilter struct {
	Expression string `json:"expression"`
}

// Result is a list for create and a single object for delete.
type firewallAPIResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

type firewallRule struct {
	ID string `json:"id"`
}

// BlockIP creates an edge rule for ip and records it. It reports true when
// the IP ends up with exactly one active block record. Concurrent calls for
// the same IP share a single lookup, rule and record.
func (svc *FirewallService) BlockIP(ctx context.Context, ip, reason string) bool {
	if !svc.configured() {
		log.WithFields(log.Fields{"ip": ip, "reason": reason}).
			WithError(ErrFirewallNotConfigured).Warn("Skipping IP block")
		recordFirewallCall("block", "not_configured")
		return false
	}

	v, _, _ := svc.inflight.Do(ip, func() (interface{}, error) {
		return svc.blockOnce(ctx, ip, reason), nil
	})
	return v.(bool)
}

func (svc *FirewallService) blockOnce(ctx context.Context, ip, reason string) bool {
	logger := log.WithFields(log.Fields{"ip": ip, "reason": reason})

	existing, err := svc.blocks.FindActive(ctx, ip)
	if err == nil && existing != nil {
		logger.Debug("IP already blocked")
		return true
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.WithError(err).Error("Failed to look up active block")
		return false
	}

	ruleID, err := svc.createRule(ctx, ip, reason)
	if err != nil {
		logger.WithError(err).Error("Failed to create firewall rule")
		recordFirewallCall("block", "error")
		return false
	}
	recordFirewallCall("block", "success")

	block := &model.BlockedIP{
		IPAddress:      ip,
		Reason:         reason,
		BlockedAt:      time.Now(),
		ExternalRuleID: ruleID,
		IsActive:       true,
	}
	if err := svc.blocks.Create(ctx, block); err != nil {
		logger.WithError(err).Error("Firewall rule created but block record not stored")
		return false
	}

	svc.cache.InvalidatePattern(ctx, shared.CacheKeyIPPrefix)
	logger.Info("IP blocked")
	return true
}

// UnblockIP removes the edge rule of the active block, if any, and marks the
// record inactive. An edge failure is logged and does not stop the unblock.
func (svc *FirewallService) UnblockIP(ctx context.Context, ip string) bool {
	logger := log.WithField("ip", ip)

	block, err := svc.blocks.FindActive(ctx, ip)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithError(ErrNoActiveBlock).Info("Nothing to unblock")
		} else {
			logger.WithError(err).Error("Failed to look up active block")
		}
		return false
	}

	hasRule := block.ExternalRuleID != nil && *block.ExternalRuleID != ""
	if hasRule && !svc.configured() {
		logger.WithError(ErrFirewallNotConfigured).Warn("Edge rule left in place")
		recordFirewallCall("unblock", "not_configured")
	} else if hasRule {
		if err := svc.deleteRule(ctx, *block.ExternalRuleID); err != nil {
			logger.WithError(err).Warn("Failed to delete firewall rule")
			recordFirewallCall("unblock", "error")
		} else {
			recordFirewallCall("unblock", "success")
		}
	}

	if err := svc.blocks.Deactivate(ctx, block.ID, time.Now()); err != nil {
		logger.WithError(err).Error("Failed to deactivate block record")
		return false
	}

	svc.cache.InvalidatePattern(ctx, shared.CacheKeyIPPrefix)
	logger.Info("IP unblocked")
	return true
}

func (svc *FirewallService) ListBlocked(ctx context.Context, activeOnly bool, limit, offset int) ([]model.BlockedIP, int64, error) {
	return svc.blocks.List(ctx, activeOnly, limit, offset)
}

func (svc *FirewallService) Counts(ctx context.Context) (active, total int64, err error) {
	return svc.blocks.Counts(ctx)
}

// createRule returns the rule id, or nil when the API accepted the rule
// without returning one.
func (svc *FirewallService) createRule(ctx context.Context, ip, reason string) (*string, error) {
	body, err := sonic.Marshal([]firewallRuleRequest{{
		Filter:      firewallFilter{Expression: "ip.src eq " + ip},
		Action:      "block",
		Description: fmt.Sprintf("Auto-blocked: %s (%s)", reason, time.Now().UTC().Format(time.RFC3339)),
	}})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/zones/%s/firewall/rules", svc.apiURL, svc.zoneID)
	resp, err := svc.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}

	var rules []firewallRule
	if len(resp.Result) > 0 {
		if err := sonic.Unmarshal(resp.Result, &rules); err != nil {
			return nil, fmt.Errorf("decode firewall rules: %w", err)
		}
	}
	if len(rules) == 0 || rules[0].ID == "" {
		return nil, nil
	}
	id := rules[0].ID
	return &id, nil
}

func (svc *FirewallService) deleteRule(ctx context.Context, ruleID string) error {
	url := fmt.Sprintf("%s/zones/%s/firewall/rules/%s", svc.apiURL, svc.zoneID, ruleID)
	_, err := svc.do(ctx, http.MethodDelete, url, nil)
	return err
}

func (svc *FirewallService) do(ctx context.Context, method, url string, body []byte) (*firewallAPIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+svc.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := svc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed firewallAPIResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("firewall API returned %d: %w", resp.StatusCode, err)
	}
	if !parsed.Success {
		msg := "unknown error"
		if len(parsed.Errors) > 0 {
			msg = parsed.Errors[0].Message
		}
		return nil, fmt.Errorf("firewall API returned %d: %s", resp.StatusCode, msg)
	}
	return &parsed, nil
}
