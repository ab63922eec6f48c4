// Package cache keeps short code to original URL mappings in Redis so that
// redirects avoid a store lookup and survive a store outage.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the code is not cached.
var ErrCacheMiss = errors.New("cache miss")

// DefaultTTL bounds how long a mapping stays cached. Links never change, so
// the TTL only limits memory use.
const DefaultTTL = 24 * time.Hour

// RedisCache implements the resolve cache on top of a Redis client.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache connects to addr and verifies the server answers PING.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewFromClient(client), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:    client,
		keyPrefix: "link:",
		ttl:       DefaultTTL,
	}
}

func (c *RedisCache) key(code string) string {
	return c.keyPrefix + code
}

// Get returns the original URL cached for code.
func (c *RedisCache) Get(ctx context.Context, code string) (string, error) {
	val, err := c.client.Get(ctx, c.key(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("cache get failed: %w", err)
	}
	return val, nil
}

// Set caches the original URL for code.
func (c *RedisCache) Set(ctx context.Context, code, original string) error {
	if err := c.client.Set(ctx, c.key(code), original, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
