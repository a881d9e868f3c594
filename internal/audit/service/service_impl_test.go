package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/audit/repository"
	"github.com/smallbiznis/storefront/internal/audit/service"
	"github.com/smallbiznis/storefront/internal/clock"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return service.NewService(service.Params{
		DB:    testutil.OpenDB(t),
		Log:   zap.NewNop(),
		GenID: testutil.Node(t),
		Repo:  repository.Provide(),
		Clock: fc,
	}), fc
}

func TestRecordMasksContactDetails(t *testing.T) {
	svc, _ := newService(t)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithClientIP(ctx, "10.0.0.7")

	require.NoError(t, svc.Record(ctx, domain.Entry{
		ActorType:  domain.ActorTypeAdmin,
		Action:     "order.status_update",
		TargetType: "order",
		TargetID:   "1001",
		Metadata: map[string]any{
			"status": "delivered",
			"phone":  "081200001111",
		},
	}))

	resp, err := svc.List(context.Background(), domain.ListAuditLogRequest{TargetType: "order"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, domain.ActorTypeAdmin, entry.ActorType)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "1001", *entry.TargetID)
	require.NotNil(t, entry.RequestID)
	assert.Equal(t, "req-1", *entry.RequestID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.7", *entry.IPAddress)
	assert.Equal(t, "delivered", entry.Metadata["status"])
	assert.Equal(t, "****1111", entry.Metadata["phone"])
}

func TestRecordRequiresAction(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Record(context.Background(), domain.Entry{Action: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, fc := newService(t)
	ctx := context.Background()

	for _, action := range []string{"product.create", "product.restock", "price_window.create"} {
		require.NoError(t, svc.Record(ctx, domain.Entry{Action: action, TargetType: "catalog"}))
		fc.Advance(time.Minute)
	}

	first, err := svc.List(ctx, domain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "price_window.create", first.AuditLogs[0].Action)
	assert.Equal(t, domain.ActorTypeSystem, first.AuditLogs[0].ActorType)

	second, err := svc.List(ctx, domain.ListAuditLogRequest{Pagination: pagination.Pagination{
		PageSize:  2,
		PageToken: first.NextPageToken,
	}})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "product.create", second.AuditLogs[0].Action)

	_, err = svc.List(ctx, domain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
