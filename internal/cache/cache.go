// Package cache holds short-lived, non-durable lookups such as acknowledgement status.
package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a key to value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New selects the backend named by cfg. The redis backend falls back to memory
// when no redis client is configured.
func New(cfg config.CacheConfig, rdb *persistence.Redis, logger *zap.Logger) Cache {
	if cfg.Backend == "redis" {
		if rdb.Enabled() {
			return NewRedis(rdb.Client, "portal:")
		}
		logger.Warn("CACHE_BACKEND=redis but redis is disabled; using memory cache")
	}
	return NewMemory(cfg.TTL)
}
