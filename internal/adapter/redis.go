package adapter

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the Redis seam used by the relay throttle.
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	// NewRateLimiter builds a distributed limiter backed by this connection.
	NewRateLimiter() RedisRateLimiter
	Close() error
}

// RedisRateLimiter wraps the GCRA limiter so throttle tests can drive
// Allow results directly.
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisRateLimiter=MockRedisRateLimiter
type RedisRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

type goRedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to the given Redis instance. The connection is
// lazy; callers probe reachability with Ping.
func NewRedisClient(addr, password string, db int) RedisClient {
	return &goRedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *goRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	return c.client.Ping(ctx)
}

func (c *goRedisClient) NewRateLimiter() RedisRateLimiter {
	return NewRateLimiter(redis_rate.NewLimiter(c.client))
}

func (c *goRedisClient) Close() error {
	return c.client.Close()
}

type gcraLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRateLimiter wraps an existing redis_rate.Limiter.
func NewRateLimiter(limiter *redis_rate.Limiter) RedisRateLimiter {
	return &gcraLimiter{limiter: limiter}
}

func (l *gcraLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	return l.limiter.Allow(ctx, key, limit)
}
