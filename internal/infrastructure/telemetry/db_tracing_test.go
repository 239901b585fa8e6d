package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type quoteRow struct {
	ID    uint   `gorm:"primaryKey"`
	Tier  string `gorm:"size:20"`
	Price string `gorm:"size:32"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&quoteRow{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := telemetry.DefaultDBTracingConfig()

	assert.False(t, cfg.TracingEnabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "pricing", cfg.DBName)
}

func TestDBPlugin_RecordsQueryMetrics(t *testing.T) {
	ctx := context.Background()
	mp, reader := newManualMeterProvider(t)
	metrics, err := telemetry.NewDBMetrics(mp.Meter("db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = metrics.Stop() })

	db := openTestDB(t)
	plugin := telemetry.NewDBPlugin(telemetry.DefaultDBTracingConfig(), metrics, zaptest.NewLogger(t))
	require.NoError(t, db.Use(plugin))

	require.NoError(t, db.WithContext(ctx).Create(&quoteRow{Tier: "RETAIL", Price: "250"}).Error)
	var rows []quoteRow
	require.NoError(t, db.WithContext(ctx).Where("tier = ?", "RETAIL").Find(&rows).Error)
	require.Len(t, rows, 1)

	var missing quoteRow
	err = db.WithContext(ctx).First(&missing, 999).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, rm, "db_query_total",
		telemetry.AttrDBOperation.String("INSERT"), attribute.String("status", "ok")))
	assert.Equal(t, int64(2), sumValue(t, rm, "db_query_total",
		telemetry.AttrDBOperation.String("SELECT"), attribute.String("status", "ok")))
	assert.Equal(t, int64(0), sumValue(t, rm, "db_query_total", attribute.String("status", "error")))
	assert.Equal(t, uint64(3), histogramCount(t, rm, "db_query_duration_seconds"))

	v, ok := gaugeValue(t, rm, "db_pool_connections", telemetry.AttrDBState.String("idle"))
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, int64(0))
}

func TestDBPlugin_SlowQueryFlag(t *testing.T) {
	sr := setupTestTracer(t)
	mp, reader := newManualMeterProvider(t)
	metrics, err := telemetry.NewDBMetrics(mp.Meter("db"))
	require.NoError(t, err)

	db := openTestDB(t)
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.SlowQueryThresh = time.Nanosecond
	require.NoError(t, db.Use(telemetry.NewDBPlugin(cfg, metrics, nil)))

	ctx, span := telemetry.StartSpan(context.Background(), "repo.find")
	var rows []quoteRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, rm, "db_slow_query_total", telemetry.AttrDBTable.String("quote_rows")))

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("db.slow_query", true))
	require.NotEmpty(t, ended[0].Events())
	assert.Equal(t, "slow_query", ended[0].Events()[0].Name)
}

func TestDBPlugin_OtelGormSpans(t *testing.T) {
	sr := setupTestTracer(t)

	db := openTestDB(t)
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.TracingEnabled = true
	require.NoError(t, db.Use(telemetry.NewDBPlugin(cfg, nil, nil)))

	require.NoError(t, db.WithContext(context.Background()).Create(&quoteRow{Tier: "GUEST"}).Error)

	assert.NotEmpty(t, sr.Ended())
}

func TestDBPlugin_DoubleRegistration(t *testing.T) {
	db := openTestDB(t)
	plugin := telemetry.NewDBPlugin(telemetry.DefaultDBTracingConfig(), nil, nil)

	require.NoError(t, db.Use(plugin))
	assert.Error(t, db.Use(plugin))
}

func TestDBMetrics_Stop(t *testing.T) {
	mp, _ := newManualMeterProvider(t)
	metrics, err := telemetry.NewDBMetrics(mp.Meter("db"))
	require.NoError(t, err)

	sqlDB, err := openTestDB(t).DB()
	require.NoError(t, err)

	require.NoError(t, metrics.ObservePool(sqlDB))
	require.NoError(t, metrics.ObservePool(sqlDB))
	assert.NoError(t, metrics.Stop())
	assert.NoError(t, metrics.Stop())
}

func TestNewDBMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewDBMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}
