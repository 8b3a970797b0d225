package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"userinfo-service/internal/resilience"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache miss")

type Client struct {
	rdb     *redis.Client
	breaker *resilience.CircuitBreaker
}

// NewClient connects to Redis, retrying the initial ping a few times.
func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	err := resilience.Retry(ctx, 3, 500*time.Millisecond, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return newClient(rdb), nil
}

func newClient(rdb *redis.Client) *Client {
	return &Client{
		rdb:     rdb,
		breaker: resilience.NewCircuitBreaker("redis", 3, 10*time.Second),
	}
}

// IsRateLimited counts a hit for key in the current window and reports
// whether the limit has been exceeded. It fails open.
func (c *Client) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) bool {
	var incr *redis.IntCmd
	err := c.breaker.Do(func() error {
		pipe := c.rdb.Pipeline()
		incr = pipe.Incr(ctx, "ratelimit:"+key)
		pipe.Expire(ctx, "ratelimit:"+key, window)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		return false
	}
	return incr.Val() > int64(limit)
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// a miss is not a fault of the backend
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrMiss
	}
	return data, nil
}

func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.breaker.Do(func() error {
		return c.rdb.Set(ctx, key, data, ttl).Err()
	})
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
