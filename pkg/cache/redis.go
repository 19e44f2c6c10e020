package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Service backed by Redis, for deployments where
// several tools on one host share parsed artifacts.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return rc.client.Set(ctx, key, raw, expiration).Err()
}

func (rc *RedisCache) Get(ctx context.Context, key string, dest any) error {
	raw, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	return decode(raw, dest)
}

func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

func (rc *RedisCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	n, err := rc.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n == int64(len(keys)), nil
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

var _ Service = (*RedisCache)(nil)
