// Package cache keeps rendered pages in Redis so repeat requests skip the
// database and template work.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Minute

// PageCache stores rendered HTML keyed by service slug.
type PageCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPageCache connects to redisURL and checks the connection.
func NewPageCache(redisURL string, ttl time.Duration) (*PageCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewPageCacheWithClient(client, ttl), nil
}

// NewPageCacheWithClient wraps an existing client.
func NewPageCacheWithClient(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PageCache{
		client: client,
		prefix: "page:",
		ttl:    ttl,
	}
}

func (c *PageCache) key(slug string) string {
	return c.prefix + slug
}

// Get returns the cached page for slug. ok is false on a miss.
func (c *PageCache) Get(ctx context.Context, slug string) (page []byte, ok bool, err error) {
	data, err := c.client.Get(ctx, c.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached page %q: %w", slug, err)
	}
	return data, true, nil
}

func (c *PageCache) Set(ctx context.Context, slug string, page []byte) error {
	if err := c.client.Set(ctx, c.key(slug), page, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache page %q: %w", slug, err)
	}
	return nil
}

// Invalidate drops the given slugs. With no slugs every cached page is dropped.
func (c *PageCache) Invalidate(ctx context.Context, slugs ...string) error {
	if len(slugs) > 0 {
		keys := make([]string, len(slugs))
		for i, slug := range slugs {
			keys[i] = c.key(slug)
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("invalidate pages: %w", err)
		}
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("invalidate pages: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached pages: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("invalidate pages: %w", err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (c *PageCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable
func (c *PageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
