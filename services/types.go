package services

import (
	"context"
	"time"
)

// Cache is the subset of the tiered cache the services depend on.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, prefix string) int
}
