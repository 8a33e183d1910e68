package domain

import (
	"context"
	"time"
)

// CacheRepository is a JSON key/value cache with TTLs.
// Get returns ErrCacheMiss when the key is absent.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
