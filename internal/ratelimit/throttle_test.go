package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/config"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/mocks"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ratelimit"
)

const testSigner = "0x1111111111111111111111111111111111111111"

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testThrottleMocks contains all the mocks needed for testing the throttle
type testThrottleMocks struct {
	ctrl             *gomock.Controller
	redisClient      *mocks.MockRedisClient
	redisRateLimiter *mocks.MockRedisRateLimiter
	clock            *mocks.MockClock
}

// setupTestThrottle creates all the mocks for testing
func setupTestThrottle(t *testing.T) *testThrottleMocks {
	ctrl := gomock.NewController(t)

	return &testThrottleMocks{
		ctrl:             ctrl,
		redisClient:      mocks.NewMockRedisClient(ctrl),
		redisRateLimiter: mocks.NewMockRedisRateLimiter(ctrl),
		clock:            mocks.NewMockClock(ctrl),
	}
}

// tearDownTestThrottle cleans up the test mocks
func tearDownTestThrottle(tm *testThrottleMocks) {
	tm.ctrl.Finish()
}

func testConfig() config.ThrottleConfig {
	return config.ThrottleConfig{
		RedisAddr:               "localhost:6379",
		RedisKeyPrefix:          "test:limiter:",
		RequestsPerSecond:       10,
		Burst:                   20,
		MaxQueueTime:            5 * time.Second,
		EnableLocalFallback:     true,
		LocalFallbackMultiplier: 0.5,
	}
}

// setupThrottleWithMocks creates a throttle with common mock expectations
func setupThrottleWithMocks(t *testing.T, tm *testThrottleMocks, cfg config.ThrottleConfig, redisAvailable bool) (ratelimit.Throttle, *time.Ticker) {
	// Mock Redis ping
	statusCmd := redis.NewStatusCmd(context.Background())
	if redisAvailable {
		statusCmd.SetVal("PONG")
	} else {
		statusCmd.SetErr(errors.New("connection refused"))
	}
	tm.redisClient.EXPECT().
		Ping(gomock.Any()).
		Return(statusCmd)

	// Mock rate limiter creation
	tm.redisClient.EXPECT().
		NewRateLimiter().
		Return(tm.redisRateLimiter)

	// Mock ticker for health monitoring goroutine
	ticker := time.NewTicker(10 * time.Second)
	tm.clock.EXPECT().
		NewTicker(10 * time.Second).
		Return(ticker)

	throttle, err := ratelimit.NewThrottle(cfg, tm.redisClient, tm.clock)
	assert.NoError(t, err)

	// Give the monitoring goroutine time to start
	time.Sleep(15 * time.Millisecond)

	return throttle, ticker
}

func TestNewThrottle_Success(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	assert.NotNil(t, throttle)

	ticker.Stop()
	tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
	_ = throttle.Close()
}

func TestNewThrottle_RedisUnavailable_FallbackEnabled(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), false)

	// Should succeed with fallback enabled
	assert.NotNil(t, throttle)

	ticker.Stop()
	tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
	_ = throttle.Close()
}

func TestNewThrottle_RedisUnavailable_FallbackDisabled(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	cfg := testConfig()
	cfg.EnableLocalFallback = false

	// Mock Redis ping failure
	statusCmd := redis.NewStatusCmd(context.Background())
	statusCmd.SetErr(errors.New("connection refused"))
	tm.redisClient.EXPECT().
		Ping(gomock.Any()).
		Return(statusCmd)

	throttle, err := ratelimit.NewThrottle(cfg, tm.redisClient, tm.clock)

	// Should fail without fallback
	assert.Error(t, err)
	assert.Nil(t, throttle)
	assert.Contains(t, err.Error(), "redis unavailable and fallback disabled")
}

func TestNewThrottle_InvalidConfig_NoRedisAddr(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	cfg := testConfig()
	cfg.RedisAddr = ""

	throttle, err := ratelimit.NewThrottle(cfg, tm.redisClient, tm.clock)
	assert.Error(t, err)
	assert.Nil(t, throttle)
	assert.Contains(t, err.Error(), "redis_addr is required")
}

func TestNewThrottle_InvalidConfig_InvalidRPS(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	cfg := testConfig()
	cfg.RequestsPerSecond = 0

	throttle, err := ratelimit.NewThrottle(cfg, tm.redisClient, tm.clock)
	assert.Error(t, err)
	assert.Nil(t, throttle)
	assert.Contains(t, err.Error(), "requests_per_second must be positive")
}

func TestThrottle_Acquire_Allowed(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	defer ticker.Stop()

	// Distributed limiter admits the signer
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "test:limiter:"+testSigner, gomock.Any()).
		Return(&redis_rate.Result{Allowed: 1, Remaining: 9}, nil)

	err := throttle.Acquire(context.Background(), testSigner)
	assert.NoError(t, err)

	tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
	_ = throttle.Close()
}

func TestThrottle_Acquire_RateLimited(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	cfg := testConfig()
	cfg.MaxQueueTime = 100 * time.Millisecond

	throttle, ticker := setupThrottleWithMocks(t, tm, cfg, true)
	defer ticker.Stop()

	// The signer is over limit for the whole queue window
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&redis_rate.Result{Allowed: 0, RetryAfter: time.Second}, nil).
		AnyTimes()
	tm.clock.EXPECT().
		After(gomock.Any()).
		DoAndReturn(func(d time.Duration) <-chan time.Time {
			return time.After(d)
		}).
		AnyTimes()

	err := throttle.Acquire(context.Background(), testSigner)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
	_ = throttle.Close()
}

func TestThrottle_Acquire_ContextCanceled(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := throttle.Acquire(ctx, testSigner)
	assert.ErrorIs(t, err, context.Canceled)

	tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
	_ = throttle.Close()
}

func TestThrottle_Acquire_RedisFailure_FallbackToLocal(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	defer ticker.Stop()

	// Redis errors mid-flight; the local limiter admits the signer instead
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	err := throttle.Acquire(context.Background(), testSigner)
	assert.NoError(t, err)

	tm.redisClient.EXPECT().Close().Return(nil).AnyTimes()
	_ = throttle.Close()
}

func TestThrottle_Acquire_Closed(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	defer ticker.Stop()

	tm.redisClient.EXPECT().Close().Return(nil)
	assert.NoError(t, throttle.Close())

	err := throttle.Acquire(context.Background(), testSigner)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "throttle is closed")
}

func TestThrottle_Close_Multiple(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	defer ticker.Stop()

	tm.redisClient.EXPECT().Close().Return(nil)

	assert.NoError(t, throttle.Close())
	// Close is idempotent
	assert.NoError(t, throttle.Close())
}

func TestThrottle_Close_WithRedisError(t *testing.T) {
	tm := setupTestThrottle(t)
	defer tearDownTestThrottle(tm)

	throttle, ticker := setupThrottleWithMocks(t, tm, testConfig(), true)
	defer ticker.Stop()

	tm.redisClient.EXPECT().Close().Return(errors.New("already closed"))

	err := throttle.Close()
	assert.Error(t, err)
}
