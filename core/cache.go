package core

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is a TTL response cache. It is a correctness-non-critical performance
// optimization: entries expire on their own, are dropped eagerly on writes and
// on realtime change notifications, and are never consulted inside the
// write-read sequence of a single action.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error) // ErrCacheMiss when absent
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
