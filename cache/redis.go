package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketbrief/config"
)

const opTimeout = 5 * time.Second

// Redis implements Cache on a shared Redis instance.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis cache and verifies connectivity. A connection
// failure here is not fatal to the caller: the history store degrades to an
// in-process map when the cache tier is unusable.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Redis{client: client}, nil
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return r.client.Del(ctx, key).Err()
}

// AcquireLock uses SET NX with expiry so a crashed holder cannot wedge the
// lock past the TTL.
func (r *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

func (r *Redis) ReleaseLock(ctx context.Context, key string) error {
	return r.Del(ctx, key)
}
