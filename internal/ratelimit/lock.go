package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "storefront:lock:"

// Deletes the key only while it still holds the caller's token, so an expired lease
// cannot release a lock another replica has since taken.
const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockHeld = errors.New("lock held by another holder")
	// ErrLockUnavailable wraps redis failures. Callers whose work is idempotent treat
	// it like CheckoutLimiter treats limiter errors and proceed without the lock.
	ErrLockUnavailable = errors.New("lock backend unavailable")
)

// Locker hands out single-holder leases on named jobs.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

// Lease is a held lock. Release is safe to call more than once.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func lockKey(name string) string {
	return lockKeyPrefix + strings.TrimSpace(name)
}

// Acquire returns ErrLockHeld when another holder has the lease and
// ErrLockUnavailable when redis could not be asked.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	switch {
	case l == nil || l.client == nil:
		return nil, fmt.Errorf("%w: not configured", ErrLockUnavailable)
	case strings.TrimSpace(name) == "":
		return nil, errors.New("lock name is empty")
	case ttl <= 0:
		return nil, errors.New("lock ttl must be positive")
	}

	key := lockKey(name)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lease{locker: l, key: key, token: token}, nil
}

func (le *Lease) Release(ctx context.Context) error {
	if le == nil || le.token == "" {
		return nil
	}
	token := le.token
	le.token = ""
	return le.locker.script.Run(ctx, le.locker.client, []string{le.key}, token).Err()
}
