package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dodam/internal/domain"
)

const keyPrefix = "dodam:advice:"

// AdviceCache stores finished advice in redis, keyed by the request
// identity (category, section, summary). Entries expire after the
// configured TTL so stale guidance ages out.
type AdviceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New parses a redis URL and builds the cache.
func New(url string, ttl time.Duration) (*AdviceCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AdviceCache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *AdviceCache {
	return &AdviceCache{rdb: rdb, ttl: ttl}
}

func (c *AdviceCache) Get(ctx context.Context, category, section, summary string) (domain.Advice, bool, error) {
	data, err := c.rdb.Get(ctx, cacheKey(category, section, summary)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Advice{}, false, nil
	}
	if err != nil {
		return domain.Advice{}, false, fmt.Errorf("cache get: %w", err)
	}
	var adv domain.Advice
	if err := json.Unmarshal(data, &adv); err != nil {
		return domain.Advice{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return adv, true, nil
}

func (c *AdviceCache) Set(ctx context.Context, category, section, summary string, adv domain.Advice) error {
	data, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(category, section, summary), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *AdviceCache) Close() error { return c.rdb.Close() }

func cacheKey(category, section, summary string) string {
	sum := sha256.Sum256([]byte(category + "|" + section + "|" + summary))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}
