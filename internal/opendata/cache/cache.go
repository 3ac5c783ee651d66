// Package cache stores successful open-data response bodies in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "govdash:resp:"

// ResponseCache is a cache-aside store for raw response bodies.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// Key identifies a request by dataset and query parameters. The api-key
// parameter never takes part in the key.
func Key(datasetID string, params url.Values) string {
	clean := url.Values{}
	for k, v := range params {
		if k == "api-key" {
			continue
		}
		clean[k] = v
	}
	sum := sha256.Sum256([]byte(clean.Encode()))
	return keyPrefix + datasetID + ":" + hex.EncodeToString(sum[:16])
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte) error {
	return c.client.Set(ctx, key, body, c.ttl).Err()
}
