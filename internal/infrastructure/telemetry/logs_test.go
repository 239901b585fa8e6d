package telemetry_test

import (
	"context"
	"testing"

	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZapOTELCore_NoProvider(t *testing.T) {
	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{ServiceName: "test"})

	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_DisabledProvider(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    "test",
		LoggerProvider: lp,
		Level:          zapcore.InfoLevel,
	})

	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_TeeKeepsPrimaryOutput(t *testing.T) {
	primary, logs := observer.New(zapcore.InfoLevel)
	bridge := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{ServiceName: "test"})

	log := zap.New(zapcore.NewTee(primary, bridge))
	log.Info("quoted", zap.String("tier", "RETAIL"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "RETAIL", logs.All()[0].ContextMap()["tier"])
}

func TestNewZapOTELCore_EnabledProviderFiltersLevel(t *testing.T) {
	// needs an OTLP collector on localhost:14317
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "test-service",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lp.Shutdown(ctx) })

	core := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    "test-service",
		LoggerProvider: lp,
		Level:          zapcore.WarnLevel,
	})

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.False(t, core.With([]zapcore.Field{zap.String("k", "v")}).Enabled(zapcore.InfoLevel))
}
