package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"gorm.io/gorm"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("reason", "redeem"),
		attribute.String("customer_id", "456"),
		attribute.String("order_id", "789"),
		attribute.String("effect", "award"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("reason"), attrs[0].Key)
	assert.Equal(t, attribute.Key("effect"), attrs[1].Key)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOrderCreated(context.Background(), "transfer", true)
		m.RecordSideEffectFailure(context.Background(), "award")
	})
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)
	assert.NotPanics(t, func() {
		m.RecordLedgerEntry(context.Background(), "order_delivered")
		m.RecordTotalMismatch(context.Background())
	})
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hm, err := NewHTTPMetrics(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(hm))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestClassifyJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), JobReasonDeadlineExceeded},
		{"lock_timeout", &pgconn.PgError{Code: "55P03"}, JobReasonDBLockTimeout},
		{"serialization", &pgconn.PgError{Code: "40001"}, JobReasonSerializationFailure},
		{"unique", gorm.ErrDuplicatedKey, JobReasonUniqueViolation},
		{"unknown", errors.New("boom"), JobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyJobReason(tc.err))
		})
	}
}

func TestJobMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newJobMetrics(registry, Config{ServiceName: "storefront", Environment: "test"})

	m.AddProcessed("reconcile_points", 3)
	m.AddCorrected("reconcile_points", 1)
	m.IncError("reconcile_points", errors.New("boom"))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.processed.WithLabelValues("reconcile_points")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.corrected.WithLabelValues("reconcile_points")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues("reconcile_points", JobReasonUnknown)))
}
