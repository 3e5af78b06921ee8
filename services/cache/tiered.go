package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const DefaultTTL = 5 * time.Minute

// Observer receives one call per tier lookup, e.g. ("redis", "hit").
type Observer func(tier, result string)

// Tiered reads from the remote tier first and falls back to the in-process
// tier on a remote miss or error. Writes always land in memory too, so the
// fallback is warm when the remote tier goes away. The tiers are not kept
// consistent with each other.
type Tiered struct {
	remote     Backend
	memory     *MemoryBackend
	defaultTTL time.Duration
	observe    Observer
}

// NewTiered builds the cache. remote may be nil when Redis is disabled.
func NewTiered(remote Backend, memory *MemoryBackend, defaultTTL time.Duration) *Tiered {
	if memory == nil {
		memory = NewMemoryBackend(DefaultCapacity, DefaultSweepInterval)
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Tiered{
		remote:     remote,
		memory:     memory,
		defaultTTL: defaultTTL,
		observe:    func(string, string) {},
	}
}

func (t *Tiered) SetObserver(o Observer) {
	if o != nil {
		t.observe = o
	}
}

func (t *Tiered) Memory() *MemoryBackend {
	return t.memory
}

// Get decodes the cached value for key into dest and reports whether it was found.
func (t *Tiered) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, found := t.lookup(ctx, key)
	if !found {
		return false, nil
	}
	if err := sonic.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (t *Tiered) lookup(ctx context.Context, key string) ([]byte, bool) {
	if t.remote != nil {
		raw, found, err := t.remote.Get(ctx, key)
		switch {
		case err != nil:
			t.observe(t.remote.Name(), "error")
			log.WithField("key", key).WithError(err).Debug("Remote cache read failed, using memory tier")
		case found:
			t.observe(t.remote.Name(), "hit")
			return raw, true
		default:
			t.observe(t.remote.Name(), "miss")
		}
	}

	raw, found, _ := t.memory.Get(ctx, key)
	if found {
		t.observe(t.memory.Name(), "hit")
	} else {
		t.observe(t.memory.Name(), "miss")
	}
	return raw, found
}

// Set stores value under key. ttl <= 0 uses the default TTL.
func (t *Tiered) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = t.defaultTTL
	}

	if t.remote != nil {
		if err := t.remote.Set(ctx, key, raw, ttl); err != nil {
			log.WithField("key", key).WithError(err).Warn("Remote cache write failed")
		}
	}
	return t.memory.Set(ctx, key, raw, ttl)
}

func (t *Tiered) Delete(ctx context.Context, keys ...string) error {
	if t.remote != nil {
		if err := t.remote.Delete(ctx, keys...); err != nil {
			log.WithField("keys", keys).WithError(err).Warn("Remote cache delete failed")
		}
	}
	return t.memory.Delete(ctx, keys...)
}

// InvalidatePattern removes every key starting with prefix from both tiers
// and returns the number of keys removed.
func (t *Tiered) InvalidatePattern(ctx context.Context, prefix string) int {
	total := 0
	if t.remote != nil {
		n, err := t.remote.DeletePrefix(ctx, prefix)
		if err != nil {
			log.WithField("prefix", prefix).WithError(err).Warn("Remote cache invalidation failed")
		}
		total += n
	}
	n, _ := t.memory.DeletePrefix(ctx, prefix)
	return total + n
}

type Stats struct {
	RemoteEnabled bool        `json:"remote_enabled"`
	RemoteBackend string      `json:"remote_backend,omitempty"`
	DefaultTTL    string      `json:"default_ttl"`
	Memory        MemoryStats `json:"memory"`
}

func (t *Tiered) Stats() Stats {
	s := Stats{
		RemoteEnabled: t.remote != nil,
		DefaultTTL:    t.defaultTTL.String(),
		Memory:        t.memory.Stats(),
	}
	if t.remote != nil {
		s.RemoteBackend = t.remote.Name()
	}
	return s
}
