package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/crystal-dz/storefront_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	GEOLOCATION_SVC = "geolocation_svc"

	CountryLocal   = "Local"
	CountryUnknown = "Unknown"
)

// GeolocationService resolves an IP to an ISO country code through ip-api.
// Results are cached for a day.
type GeolocationService struct {
	appContext.DefaultService
	httpClient  *http.Client
	apiURL      string
	cache       Cache
	cacheExpiry time.Duration
}

func NewGeolocationService(apiURL string, cache Cache, client *http.Client) *GeolocationService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GeolocationService{
		httpClient:  client,
		apiURL:      strings.TrimRight(apiURL, "/"),
		cache:       cache,
		cacheExpiry: 24 * time.Hour,
	}
}

func (svc GeolocationService) Id() string {
	return GEOLOCATION_SVC
}

func (svc *GeolocationService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}
	svc.apiURL = strings.TrimRight(envOr("GEOLOCATION_API_URL", "http://ip-api.com/json"), "/")
	svc.cacheExpiry = 24 * time.Hour
	return svc.DefaultService.Configure(ctx)
}

func (svc *GeolocationService) Start() error {
	svc.cache = svc.Service(CACHE_SVC).(*CacheService).Cache()
	return nil
}

// CountryByIP never fails: loopback addresses resolve to "Local" and lookup
// errors to "Unknown".
func (svc *GeolocationService) CountryByIP(ctx context.Context, ip string) string {
	if parsed := net.ParseIP(ip); ip == "" || (parsed != nil && parsed.IsLoopback()) {
		return CountryLocal
	}

	cacheKey := shared.CacheKeyGeo + ip

	var cached string
	if found, err := svc.cache.Get(ctx, cacheKey, &cached); err == nil && found && cached != "" {
		log.WithField("ip", ip).Debug("Geolocation cache hit")
		return cached
	}

	url := fmt.Sprintf("%s/%s?fields=status,countryCode", svc.apiURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CountryUnknown
	}

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to get geolocation")
		return CountryUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).WithField("ip", ip).Error("Geolocation API returned non-200 status")
		return CountryUnknown
	}

	var result struct {
		Status      string `json:"status"`
		CountryCode string `json:"countryCode"`
	}
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to decode geolocation response")
		return CountryUnknown
	}

	if result.Status != "success" || result.CountryCode == "" {
		log.WithField("status", result.Status).WithField("ip", ip).Warn("Geolocation lookup failed")
		return CountryUnknown
	}

	if err := svc.cache.Set(ctx, cacheKey, result.CountryCode, svc.cacheExpiry); err != nil {
		log.WithError(err).WithField("ip", ip).Warn("Failed to cache geolocation result")
	}
	return result.CountryCode
}
