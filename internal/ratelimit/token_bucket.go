package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "storefront:rl:"

// Tokens come back as a string so fractional refills survive the Lua to redis
// integer conversion.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local clock = redis.call("TIME")
local now = (clock[1] * 1000) + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local last = tonumber(state[2])

if tokens == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - last)
  tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), now}
`

var (
	ErrNotConfigured = errors.New("rate limiter not configured")
	ErrEmptyKey      = errors.New("rate limiter key is empty")
	ErrInvalidPolicy = errors.New("rate limiter policy must be positive")
)

// Policy refills Rate tokens per second up to Burst.
type Policy struct {
	Rate  float64
	Burst int
}

func (p Policy) valid() bool {
	return p.Rate > 0 && p.Burst > 0
}

// ttl keeps an idle bucket around for twice the time it takes to refill completely.
func (p Policy) ttl() time.Duration {
	if !p.valid() {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(p.Burst)/p.Rate*2))
	return time.Duration(seconds) * time.Second
}

// retryAfter is the time until the next whole token is available.
func (p Policy) retryAfter(allowed bool, tokens float64) time.Duration {
	if allowed || p.Rate <= 0 || tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / p.Rate * float64(time.Second))
}

type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

func (t *TokenBucket) Allow(ctx context.Context, key string, policy Policy) (*RateLimitResult, error) {
	denied := &RateLimitResult{Limit: policy.Burst}
	switch {
	case t == nil || t.client == nil:
		return denied, ErrNotConfigured
	case key == "":
		return denied, ErrEmptyKey
	case !policy.valid():
		return denied, ErrInvalidPolicy
	}

	reply, err := t.script.Run(ctx, t.client, []string{keyPrefix + key},
		policy.Rate,
		policy.Burst,
		policy.ttl().Milliseconds(),
	).Slice()
	if err != nil {
		return denied, err
	}

	allowed, tokens, ts, err := parseReply(reply)
	if err != nil {
		return denied, err
	}

	return &RateLimitResult{
		Allowed:    allowed,
		Limit:      policy.Burst,
		Remaining:  int(tokens),
		ResetTime:  time.UnixMilli(ts),
		RetryAfter: policy.retryAfter(allowed, tokens),
	}, nil
}

func parseReply(reply []any) (allowed bool, tokens float64, ts int64, err error) {
	if len(reply) < 3 {
		return false, 0, 0, errors.New("invalid rate limit script reply")
	}
	return replyInt(reply[0]) == 1, replyFloat(reply[1]), replyInt(reply[2]), nil
}

func replyInt(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}

func replyFloat(v any) float64 {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	case int64:
		return float64(val)
	default:
		return 0
	}
}
