package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/clock"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type loyaltyMock struct {
	loyaltydomain.Service
	mock.Mock
}

func (m *loyaltyMock) ReconcileBatch(ctx context.Context, afterID int64, limit int) (loyaltydomain.ReconcileBatchResult, error) {
	args := m.Called(ctx, afterID, limit)
	return args.Get(0).(loyaltydomain.ReconcileBatchResult), args.Error(1)
}

func newTestScheduler(t *testing.T, loyalty loyaltydomain.Service, cfg Config) *Scheduler {
	t.Helper()
	s, err := New(Params{
		Log:     zap.NewNop(),
		Loyalty: loyalty,
		Clock:   clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Config:  cfg,
	})
	require.NoError(t, err)
	return s
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReconcileJobWalksAllBatches(t *testing.T) {
	loyalty := &loyaltyMock{}
	loyalty.On("ReconcileBatch", mock.Anything, int64(0), 2).
		Return(loyaltydomain.ReconcileBatchResult{LastID: 5, Processed: 2, Corrected: 1}, nil).Once()
	loyalty.On("ReconcileBatch", mock.Anything, int64(5), 2).
		Return(loyaltydomain.ReconcileBatchResult{LastID: 7, Processed: 1}, nil).Once()

	s := newTestScheduler(t, loyalty, Config{BatchSize: 2})
	require.NoError(t, s.RunOnce(context.Background()))
	loyalty.AssertExpectations(t)
}

func TestReconcileJobReturnsWrappedError(t *testing.T) {
	boom := errors.New("boom")
	loyalty := &loyaltyMock{}
	loyalty.On("ReconcileBatch", mock.Anything, int64(0), 200).
		Return(loyaltydomain.ReconcileBatchResult{}, boom)

	s := newTestScheduler(t, loyalty, Config{})
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), JobReconcilePoints)
}

func TestReconcileRunsWhenLockBackendIsDown(t *testing.T) {
	loyalty := &loyaltyMock{}
	loyalty.On("ReconcileBatch", mock.Anything, int64(0), 200).
		Return(loyaltydomain.ReconcileBatchResult{}, nil).Once()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	s := newTestScheduler(t, loyalty, Config{})
	s.locker = ratelimit.NewLocker(client)

	require.NoError(t, s.RunOnce(context.Background()))
	loyalty.AssertExpectations(t)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	s := newTestScheduler(t, &loyaltyMock{}, Config{})

	err := s.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.GreaterOrEqual(t, cfg.LockTTL, cfg.JobTimeout)
}

func TestJobRunIDsAreUnique(t *testing.T) {
	s := newTestScheduler(t, &loyaltyMock{}, Config{})

	_, first, owner := s.ensureJobRun(context.Background(), "a", 1)
	require.True(t, owner)
	ctx, second, _ := s.ensureJobRun(context.Background(), "a", 1)
	assert.NotEqual(t, first.runID, second.runID)

	_, nested, owner := s.ensureJobRun(ctx, "a", 1)
	assert.False(t, owner)
	assert.Same(t, second, nested)
}
