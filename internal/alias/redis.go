package alias

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "atelier:alias:"

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisCounter keeps alias counters in Redis so several servers share one
// namespace.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter creates a counter backed by client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// NextAlias implements Counter with INCR.
func (c *RedisCounter) NextAlias(ctx context.Context, packageID, key string) (int64, error) {
	return c.client.Incr(ctx, redisKey(packageID, key)).Result()
}

// NewRedisResolver creates a resolver backed by Redis.
func NewRedisResolver(client *redis.Client) *CounterResolver {
	return NewCounterResolver(NewRedisCounter(client))
}

func redisKey(packageID, key string) string {
	return redisKeyPrefix + packageID + ":" + key
}
