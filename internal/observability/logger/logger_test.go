package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestZapConfig(t *testing.T) {
	cfg, err := zapConfig(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, "json", cfg.Encoding)
	require.NotNil(t, cfg.Sampling)

	cfg, err = zapConfig(Config{Debug: true})
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	assert.Equal(t, "console", cfg.Encoding)

	cfg, err = zapConfig(Config{Debug: true, Format: "JSON"})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Encoding)

	_, err = zapConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestWithContextAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithClientIP(ctx, "10.0.0.7")
	WithOrder(WithContext(ctx, base), 42).Info("order created")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "10.0.0.7", fields["client_ip"])
	assert.Equal(t, int64(42), fields["order_id"])
}

func TestSQLClassification(t *testing.T) {
	tests := []struct {
		sql       string
		operation string
		table     string
	}{
		{`UPDATE products SET stock = CASE WHEN stock > ? THEN stock - ? ELSE 0 END WHERE id = ? RETURNING stock`, "UPDATE", "products"},
		{`INSERT INTO "points_ledger" (id, customer_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, "INSERT", "points_ledger"},
		{`WITH recent AS (SELECT * FROM orders) SELECT * FROM recent`, "SELECT", "orders"},
		{``, "UNKNOWN", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.operation, operationFromSQL(tt.sql), tt.sql)
		assert.Equal(t, tt.table, tableFromSQL(tt.sql), tt.sql)
	}
}

func TestGormLoggerQuietsDuplicateKeys(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	l := NewGormLogger(DefaultGormLoggerConfig())
	query := func() (string, int64) { return "INSERT INTO products (slug) VALUES (?)", 0 }

	l.Trace(context.Background(), time.Now(), query, gorm.ErrDuplicatedKey)
	assert.Zero(t, logs.Len())

	l.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "products", logs.All()[0].ContextMap()["table"])
}
