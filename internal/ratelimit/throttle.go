package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/adapter"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/config"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
)

// Throttle defines the interface for per-signer submission throttling.
// Every relayed instruction is sponsor-funded, so signers are held to a
// configured submission rate before any envelope validation runs.
//
//go:generate mockgen -source=throttle.go -destination=../mocks/throttle.go -package=mocks -mock_names=Throttle=MockThrottle
type Throttle interface {
	// Acquire blocks until the signer may submit, the queue time lapses,
	// or the context is canceled. Returns domain.ErrRateLimited when the
	// signer stays over the limit for the whole queue window.
	Acquire(ctx context.Context, signerAddress string) error

	// Close gracefully shuts down the throttle
	Close() error
}

// throttle is the concrete implementation of the per-signer throttle
type throttle struct {
	config             config.ThrottleConfig
	redis              adapter.RedisClient
	distributedLimiter adapter.RedisRateLimiter
	localLimiter       *rate.Limiter
	preFilterLimiter   *rate.Limiter
	clock              adapter.Clock
	closed             atomic.Bool
	closeOnce          sync.Once
	redisAvailable     atomic.Bool
}

// NewThrottle creates a new per-signer throttle backed by Redis, with an
// optional process-local fallback limiter when Redis is unreachable.
func NewThrottle(cfg config.ThrottleConfig, rc adapter.RedisClient, clock adapter.Clock) (Throttle, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Test Redis connectivity
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisAvailable := true
	if err := rc.Ping(ctx).Err(); err != nil {
		redisAvailable = false
		if !cfg.EnableLocalFallback {
			return nil, fmt.Errorf("redis unavailable and fallback disabled: %w", err)
		}
		logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
	}

	// The local fallback is a single process-wide limiter: without Redis
	// there is no per-signer state, so the aggregate rate is reduced by the
	// fallback multiplier instead.
	// Minimum rate of 1.0
	localRate := max(float64(cfg.RequestsPerSecond)*cfg.LocalFallbackMultiplier, 1.0)
	localLimiter := rate.NewLimiter(rate.Limit(localRate), cfg.Burst)

	// Pre-filter limiter caps the aggregate Redis call rate
	// This reduces Redis pressure while maintaining full throughput
	preFilterLimiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond*10), cfg.Burst*10)

	t := &throttle{
		config:             cfg,
		redis:              rc,
		distributedLimiter: rc.NewRateLimiter(),
		localLimiter:       localLimiter,
		preFilterLimiter:   preFilterLimiter,
		clock:              clock,
	}
	t.redisAvailable.Store(redisAvailable)

	// Start Redis health check goroutine
	go t.monitorRedisHealth()

	logger.Info("Relay throttle initialized",
		zap.Int("requests_per_second", cfg.RequestsPerSecond),
		zap.Int("burst", cfg.Burst),
		zap.Duration("max_queue_time", cfg.MaxQueueTime),
		zap.Bool("local_fallback", cfg.EnableLocalFallback),
	)

	return t, nil
}

// Acquire blocks until the signer may submit.
// The function returns when:
// 1. A token is acquired for the signer
// 2. The context is canceled
// 3. The maximum queue time is exceeded
func (t *throttle) Acquire(ctx context.Context, signerAddress string) error {
	if t.closed.Load() {
		return fmt.Errorf("throttle is closed")
	}

	queueCtx, cancel := context.WithTimeout(ctx, t.config.MaxQueueTime)
	defer cancel()

	if err := t.acquireToken(queueCtx, signerAddress); err != nil {
		if queueCtx.Err() != nil && ctx.Err() == nil {
			// The queue window lapsed, not the caller's context
			return domain.ErrRateLimited
		}
		return err
	}
	return nil
}

// acquireToken acquires a rate limit token, blocking until one is available
func (t *throttle) acquireToken(ctx context.Context, signerAddress string) error {
	// Retry loop for token acquisition
	for {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Try distributed limiter first if Redis is available
		if t.redisAvailable.Load() {
			allowed, retryAfter, err := t.tryDistributedLimit(ctx, signerAddress)
			if err != nil {
				// Check if this is a context error (from pre-filter or Redis call)
				if ctx.Err() != nil {
					return ctx.Err()
				}

				// Redis error - mark as unavailable and fall back to local if enabled
				t.redisAvailable.Store(false)

				if !t.config.EnableLocalFallback {
					return fmt.Errorf("redis rate limiter unavailable: %w", err)
				}

				logger.Warn("Redis rate limiter error, falling back to local",
					zap.String("signer", signerAddress),
					zap.Error(err),
				)
				// Continue to local limiter
			} else if allowed {
				// Token acquired successfully
				return nil
			} else if retryAfter > 0 {
				// Rate limited - sleep with jitter and retry
				// Add jitter to spread out retry attempts (50-150% of retryAfter)
				jitter := time.Duration(float64(retryAfter) * (0.5 + rand.Float64())) //nolint:gosec,G404
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-t.clock.After(jitter):
					// Retry
					continue
				}
			}
		}

		// Use local limiter as fallback or when Redis is unavailable
		if !t.redisAvailable.Load() && t.config.EnableLocalFallback {
			// Block until token is available
			if err := t.localLimiter.Wait(ctx); err != nil {
				return err
			}
			return nil
		}

		// If we get here without acquiring a token, sleep briefly and retry
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.clock.After(100 * time.Millisecond):
			// Retry
		}
	}
}

// tryDistributedLimit attempts to acquire a token from the distributed limiter
// Returns: (allowed bool, retryAfter duration, error)
func (t *throttle) tryDistributedLimit(ctx context.Context, signerAddress string) (bool, time.Duration, error) {
	if t.distributedLimiter == nil {
		return false, 0, fmt.Errorf("distributed limiter not available")
	}

	// Pre-filter requests to reduce Redis pressure
	if err := t.preFilterLimiter.Wait(ctx); err != nil {
		// Context error during pre-filter - not a Redis error
		return false, 0, err
	}

	redisKey := fmt.Sprintf("%s%s", t.config.RedisKeyPrefix, signerAddress)

	// Use redis_rate's Allow method with per-second limiting keyed per signer
	res, err := t.distributedLimiter.Allow(ctx, redisKey, redis_rate.PerSecond(t.config.RequestsPerSecond))
	if err != nil {
		return false, 0, err
	}

	if res.Allowed == 0 {
		// Rate limit exceeded
		logger.Debug("Throttle token unavailable, waiting",
			zap.String("signer", signerAddress),
			zap.Duration("retry_after", res.RetryAfter),
			zap.Int("remaining", res.Remaining),
		)
		return false, res.RetryAfter, nil
	}

	// Token acquired successfully
	return true, 0, nil
}

// monitorRedisHealth periodically checks Redis health and updates availability status
func (t *throttle) monitorRedisHealth() {
	ticker := t.clock.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		if t.closed.Load() {
			return
		}

		<-ticker.C

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := t.redis.Ping(ctx).Err()
		cancel()

		redisAvailable := err == nil
		wasAvailable := t.redisAvailable.Load()
		t.redisAvailable.Store(redisAvailable)

		if !wasAvailable && redisAvailable {
			logger.Info("Redis connection restored")
		}
	}
}

// Close gracefully shuts down the throttle
func (t *throttle) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closed.Store(true)

		if closeErr := t.redis.Close(); closeErr != nil {
			logger.Warn("Error closing Redis connection", zap.Error(closeErr))
			err = closeErr
		}
	})
	return err
}

// validateConfig validates and sets defaults for the configuration
func validateConfig(cfg *config.ThrottleConfig) error {
	if cfg.RedisAddr == "" {
		return fmt.Errorf("redis_addr is required")
	}

	if cfg.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}

	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerSecond
	}

	if cfg.MaxQueueTime <= 0 {
		cfg.MaxQueueTime = 10 * time.Second
	}

	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = "health:relay:limiter:"
	}

	if cfg.LocalFallbackMultiplier <= 0 {
		cfg.LocalFallbackMultiplier = 0.5
	}

	return nil
}
