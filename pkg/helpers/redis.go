package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheConn is the narrow key-value surface the cache-aside service needs.
// Connections are bounded-lifetime: one per service call, closed when the call
// returns, so one bad connection never outlives the request that hit it.
type CacheConn interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// CacheDialer opens a fresh cache connection. Dial failure means the backend
// is unavailable, which callers surface as a distinct failure class.
type CacheDialer func(ctx context.Context) (CacheConn, error)

type redisConn struct {
	client *redis.Client
}

func (c *redisConn) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *redisConn) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisConn) Close() error { return c.client.Close() }

// NewRedisDialer builds a CacheDialer against a redis backend. Each dial pings
// the server so an unreachable backend fails at connect time, not mid-call.
func NewRedisDialer(addr, password string, db int) CacheDialer {
	return func(ctx context.Context) (CacheConn, error) {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &redisConn{client: client}, nil
	}
}
