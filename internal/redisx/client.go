package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// ResultCache is a byte cache over redis. The database stays the source of
// truth; a miss or a redis outage only costs a slower path.
type ResultCache struct {
	rdb redis.Cmdable
}

func NewResultCache(rdb redis.Cmdable) *ResultCache {
	return &ResultCache{rdb: rdb}
}

func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Claim marks key as seen for ttl. It reports false when the key was
// already claimed, the way the event consumers skip redelivered events.
func (c *ResultCache) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim so a failed handler can be retried.
func (c *ResultCache) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
