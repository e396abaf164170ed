package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "parkcore:fact:"

// Redis is the shared dedup store over a Redis instance, letting
// multiple consumer processes agree on which facts were already
// processed.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Seen(
	ctx context.Context, factID string, retention time.Duration,
) (bool, error) {
	set, err := r.client.SetNX(
		ctx, keyPrefix+factID, 1, retention,
	).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX: %w", err)
	}
	return !set, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
