package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisAliasMissCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisAliasMissCache(client redis.UniversalClient, prefix string) *RedisAliasMissCache {
	if prefix == "" {
		prefix = "shortlink"
	}
	return &RedisAliasMissCache{client: client, prefix: prefix}
}

func (c *RedisAliasMissCache) IsMissing(ctx context.Context, alias string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	_, err := c.client.Get(ctx, c.key(alias)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisAliasMissCache) MarkMissing(ctx context.Context, alias string, ttl time.Duration) error {
	if c.client == nil || ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.key(alias), "1", ttl).Err()
}

func (c *RedisAliasMissCache) Forget(ctx context.Context, alias string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(alias)).Err()
}

func (c *RedisAliasMissCache) key(alias string) string {
	return fmt.Sprintf("%s:alias_miss:%s", c.prefix, hashToken(alias))
}
