package scheduler

import (
	"context"
	"errors"

	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.uber.org/zap"
)

// withJobLock runs fn only on the replica holding the job's lease. Without a locker, or
// when redis cannot be reached, every replica runs the job; reconciliation is
// idempotent so that is safe.
func (s *Scheduler) withJobLock(ctx context.Context, job string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}

	lease, err := s.locker.Acquire(ctx, "scheduler:"+job, s.cfg.LockTTL)
	switch {
	case errors.Is(err, ratelimit.ErrLockHeld):
		s.metrics.IncSkipped(job, obsmetrics.JobSkipReasonLockHeld)
		s.logger(ctx).Debug("scheduler.job.skipped", zap.String("job", job), zap.String("reason", obsmetrics.JobSkipReasonLockHeld))
		return nil
	case errors.Is(err, ratelimit.ErrLockUnavailable):
		s.logger(ctx).Warn("scheduler.job.lock_unavailable", zap.String("job", job), zap.Error(err))
		return fn(ctx)
	case err != nil:
		return err
	}
	defer func() {
		// The parent context may already be cancelled; release on a fresh one.
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger(ctx).Warn("scheduler.job.lock_release_failed", zap.String("job", job), zap.Error(err))
		}
	}()
	return fn(ctx)
}
