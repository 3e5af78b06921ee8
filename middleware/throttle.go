package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/crystal-dz/storefront_api/shared"
)

type ThrottleConfig struct {
	// RPS is the sustained request rate allowed per key.
	RPS float64
	// Burst is the token bucket capacity per key.
	Burst int
	// CleanupInterval is how often idle keys are dropped.
	CleanupInterval time.Duration
	// IdleTimeout is how long a key may stay unused before it is dropped.
	IdleTimeout time.Duration
}

func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		RPS:             5,
		Burst:           20,
		CleanupInterval: 10 * time.Minute,
		IdleTimeout:     time.Hour,
	}
}

type visitor struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle is a per-key token bucket limiter for cheap, high-volume endpoints.
// It is unrelated to the daily order limit, which is persisted.
type Throttle struct {
	config   ThrottleConfig
	keyFunc  func(c *fiber.Ctx) string
	mu       sync.Mutex
	visitors map[string]*visitor
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewThrottle starts a throttle keyed by keyFunc. Call Stop to end its janitor.
func NewThrottle(config ThrottleConfig, keyFunc func(c *fiber.Ctx) string) *Throttle {
	defaults := DefaultThrottleConfig()
	if config.RPS <= 0 {
		config.RPS = defaults.RPS
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if keyFunc == nil {
		keyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}

	t := &Throttle{
		config:   config,
		keyFunc:  keyFunc,
		visitors: make(map[string]*visitor),
		stopCh:   make(chan struct{}),
	}
	go t.cleanupLoop()

	log.WithFields(log.Fields{"rps": config.RPS, "burst": config.Burst}).Debug("Throttle initialised")
	return t
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(t.config.RPS), t.config.Burst)}
		t.visitors[key] = v
	}
	v.lastAccess = time.Now()
	return v.limiter
}

// Allow reports whether key may make a request now.
func (t *Throttle) Allow(key string) bool {
	return t.limiter(key).Allow()
}

func (t *Throttle) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := t.keyFunc(c)
		if key == "" {
			return c.Next()
		}

		if !t.Allow(key) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(1/t.config.RPS))))
			return shared.NewTooManyRequestsError(nil, "Too many requests", nil)
		}
		return c.Next()
	}
}

func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.visitors)
}

func (t *Throttle) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *Throttle) cleanupLoop() {
	ticker := time.NewTicker(t.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup(time.Now())
		case <-t.stopCh:
			return
		}
	}
}

func (t *Throttle) cleanup(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, v := range t.visitors {
		if now.Sub(v.lastAccess) > t.config.IdleTimeout {
			delete(t.visitors, key)
		}
	}
}
