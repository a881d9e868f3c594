package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := LoadConfig(config.Config{AppName: "", Environment: "production", OTLPEndpoint: "collector:4317"})

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "collector:4317", cfg.OtelExporterEndpoint)
	assert.False(t, cfg.Debug())
}

func TestDebugInDevelopment(t *testing.T) {
	cfg := LoadConfig(config.Config{AppName: "storefront", Environment: "development"})
	assert.True(t, cfg.Debug())
}

func TestLoadConfigNormalizesExporterSettings(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "HTTP/Protobuf")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "4")
	t.Setenv("DB_SLOW_QUERY_MS", "-5")

	cfg := LoadConfig(config.Config{AppName: "storefront", Environment: "production"})
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "carrier-pigeon")
	t.Setenv("DB_SLOW_QUERY_MS", "50")
	cfg = LoadConfig(config.Config{AppName: "storefront", Environment: "production"})
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 50*time.Millisecond, cfg.SlowQueryThreshold)
}

func TestGormLoggerConfigFollowsObservability(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	cfg := LoadConfig(config.Config{Environment: "production"})
	cfg.SlowQueryThreshold = 75 * time.Millisecond

	gormCfg := provideGormLoggerConfig(cfg)
	assert.Equal(t, 75*time.Millisecond, gormCfg.SlowThreshold)
	assert.Equal(t, gormlogger.Warn, gormCfg.Level)

	cfg.Environment = "development"
	assert.Equal(t, gormlogger.Info, provideGormLoggerConfig(cfg).Level)
}
