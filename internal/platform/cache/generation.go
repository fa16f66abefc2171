package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Generation versions a family of cache keys. Bumping it orphans every key
// built from the previous value.
type Generation interface {
	Current(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
}

type LocalGeneration struct {
	value atomic.Int64
}

func NewLocalGeneration() *LocalGeneration {
	return &LocalGeneration{}
}

func (g *LocalGeneration) Current(context.Context) (int64, error) {
	return g.value.Load(), nil
}

func (g *LocalGeneration) Bump(context.Context) (int64, error) {
	return g.value.Add(1), nil
}

// RedisGeneration shares the generation counter across processes.
type RedisGeneration struct {
	client *redis.Client
	key    string
}

func NewRedisGeneration(client *redis.Client, key string) *RedisGeneration {
	return &RedisGeneration{client: client, key: key}
}

func (g *RedisGeneration) Current(ctx context.Context) (int64, error) {
	value, err := g.client.Get(ctx, g.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get cache generation %s: %w", g.key, err)
	}
	return value, nil
}

func (g *RedisGeneration) Bump(ctx context.Context) (int64, error) {
	value, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return 0, fmt.Errorf("bump cache generation %s: %w", g.key, err)
	}
	return value, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// GenerationKey prefixes key with the generation so stale entries are never read.
func GenerationKey(generation int64, key string) string {
	return "g" + strconv.FormatInt(generation, 10) + ":" + key
}
