package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLogConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultLogConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  LogConfig
		wantErr bool
	}{
		{
			name:   "default config",
			config: DefaultLogConfig(),
		},
		{
			name:   "console format",
			config: LogConfig{Level: "debug", Format: "console", Output: "stdout"},
		},
		{
			name:   "stderr output",
			config: LogConfig{Level: "info", Format: "json", Output: "stderr"},
		},
		{
			name:    "invalid level",
			config:  LogConfig{Level: "invalid", Format: "json", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tt.config)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, logger)
			}
		})
	}
}

func TestZapLogger_SetLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(LogConfig{Level: "info", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	setter, ok := logger.(LevelSetter)
	require.True(t, ok)
	assert.Equal(t, "info", setter.Level())

	require.NoError(t, setter.SetLevel("debug"))
	assert.Equal(t, "debug", setter.Level())

	assert.Error(t, setter.SetLevel("verbose"))
	assert.Equal(t, "debug", setter.Level())
}

func TestZapLogger_WithSharesLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	child := logger.With(String("component", "test"))
	require.NoError(t, logger.(LevelSetter).SetLevel("error"))

	assert.Equal(t, "error", child.(LevelSetter).Level())
}

func TestZapLogger_WithContext(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	logger := NewLoggerFromZap(zap.New(core))

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithTraceID(ctx, "trace-1")

	logger.WithContext(ctx).Info("dispatched")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "trace-1", fields["trace_id"])
}

func TestZapLogger_WithContext_Empty(t *testing.T) {
	t.Parallel()

	logger := NopLogger()

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "abc")
	ctx = ContextWithTraceID(ctx, "def")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
	assert.Equal(t, "def", TraceIDFromContext(ctx))
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NopLogger()

	assert.NotPanics(t, func() {
		logger.Debug("debug")
		logger.Info("info", String("k", "v"))
		logger.Warn("warn", Int("n", 1))
		logger.Error("error", Bool("b", true))
		_ = logger.Sync()
	})
}

func TestGlobalLogger(t *testing.T) {
	// Not parallel: mutates the global logger.
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	nop := NopLogger()
	SetGlobalLogger(nop)

	assert.Same(t, nop, L())
}
