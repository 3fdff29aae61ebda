package cache

import (
	"context"
	"time"
)

// NoopCache is a Cache that stores nothing. It is used when no Redis URL is
// configured: rate limiting and token revocation silently degrade to off.
type NoopCache struct{}

// NewNoopCache creates a NoopCache.
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (c *NoopCache) Ping(ctx context.Context) error { return nil }

func (c *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (c *NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NoopCache) Delete(ctx context.Context, key string) error { return nil }

func (c *NoopCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	// Always under any sensible limit.
	return 0, nil
}
