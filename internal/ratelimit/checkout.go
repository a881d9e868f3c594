package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
)

const keyCheckoutClient = "checkout:client:%s"

// CheckoutLimiter throttles order creation per client address. A nil or disabled
// limiter allows everything.
type CheckoutLimiter struct {
	enabled bool
	bucket  *TokenBucket
	policy  Policy
}

func NewCheckoutLimiter(cfg config.Config, client *redis.Client) (*CheckoutLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled || client == nil {
		return nil, nil
	}
	policy := Policy{Rate: limitCfg.CheckoutRate, Burst: limitCfg.CheckoutBurst}
	if !policy.valid() {
		return nil, ErrInvalidPolicy
	}
	return &CheckoutLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		policy:  policy,
	}, nil
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CheckoutLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutClient, clientKey), l.policy)
}
