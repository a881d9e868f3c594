package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobReconcilePoints = "reconcile_points"

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log     *zap.Logger
	Loyalty loyaltydomain.Service
	Clock   clock.Clock
	Config  Config                 `optional:"true"`
	Locker  *ratelimit.Locker      `optional:"true"`
	Metrics *obsmetrics.JobMetrics `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	loyalty loyaltydomain.Service
	locker  *ratelimit.Locker
	metrics *obsmetrics.JobMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Loyalty == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		loyalty: p.Loyalty,
		locker:  p.Locker,
		metrics: p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	s.metrics.IncRun(name)

	err := fn(ctx)
	s.metrics.ObserveDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	s.metrics.IncError(name, err)
	// Deadline is a soft timeout; the next tick resumes from the start.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, JobReconcilePoints, s.cfg.BatchSize, s.cfg.JobTimeout, func(ctx context.Context) error {
		return s.withJobLock(ctx, JobReconcilePoints, s.ReconcilePointsJob)
	})
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ReconcilePointsJob walks every customer in id order and rewrites balance caches that
// drifted from their ledger sum.
func (s *Scheduler) ReconcilePointsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobReconcilePoints, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	var afterID int64
	for {
		batch, err := s.loyalty.ReconcileBatch(ctx, afterID, s.cfg.BatchSize)
		run.AddProcessed(batch.Processed)
		run.AddCorrected(batch.Corrected)
		s.metrics.AddProcessed(JobReconcilePoints, batch.Processed)
		s.metrics.AddCorrected(JobReconcilePoints, batch.Corrected)
		if err != nil {
			run.IncError()
			return err
		}
		if batch.Processed < s.cfg.BatchSize {
			return nil
		}
		afterID = batch.LastID
	}
}
