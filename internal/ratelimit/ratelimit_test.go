package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCheckoutLimiterAllows(t *testing.T) {
	limiter, err := NewCheckoutLimiter(config.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNilClientDisablesPrimitives(t *testing.T) {
	assert.Nil(t, NewTokenBucket(nil))
	assert.Nil(t, NewLocker(nil))

	var bucket *TokenBucket
	res, err := bucket.Allow(context.Background(), "k", Policy{Rate: 1, Burst: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, res.Allowed)

	var locker *Locker
	lease, err := locker.Acquire(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.Nil(t, lease)

	var none *Lease
	assert.NoError(t, none.Release(context.Background()))
}

func TestLockerReportsUnreachableBackend(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewLocker(client)

	_, err := locker.Acquire(context.Background(), "scheduler:reconcile", time.Second)
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.NotErrorIs(t, err, ErrLockHeld)

	_, err = locker.Acquire(context.Background(), " ", time.Second)
	assert.Error(t, err)
	_, err = locker.Acquire(context.Background(), "job", 0)
	assert.Error(t, err)

	assert.Equal(t, "storefront:lock:job", lockKey(" job "))
}

func TestInvalidCheckoutPolicy(t *testing.T) {
	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, CheckoutRate: 0, CheckoutBurst: 5}}
	_, err := NewCheckoutLimiter(cfg, redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestPolicyTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, Policy{Rate: 1, Burst: 5}.ttl())
	assert.Equal(t, time.Second, Policy{Rate: 100, Burst: 1}.ttl())
	assert.Equal(t, time.Second, Policy{}.ttl())
}

func TestPolicyRetryAfter(t *testing.T) {
	p := Policy{Rate: 2, Burst: 5}
	assert.Equal(t, time.Duration(0), p.retryAfter(true, 0))
	assert.Equal(t, 500*time.Millisecond, p.retryAfter(false, 0))
	assert.Equal(t, 250*time.Millisecond, p.retryAfter(false, 0.5))
}

func TestParseReply(t *testing.T) {
	allowed, tokens, ts, err := parseReply([]any{int64(1), "2.75", int64(1700000000000)})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2.75, tokens)
	assert.Equal(t, int64(1700000000000), ts)

	_, _, _, err = parseReply([]any{int64(0)})
	assert.Error(t, err)

	assert.Equal(t, int64(0), replyInt("x"))
	assert.Equal(t, 4.0, replyFloat(int64(4)))
}
