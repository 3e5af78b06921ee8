package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by a backend that cannot serve requests right now.
var ErrUnavailable = errors.New("cache backend unavailable")

// Backend is a single cache tier storing serialized values.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
