package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{ServiceName: "test-service"})

	require.NoError(t, err)
	assert.NotNil(t, tracer)
	assert.Nil(t, tracer.provider)
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_DefaultServiceName(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{})

	require.NoError(t, err)
	assert.Equal(t, "avroute", tracer.config.ServiceName)
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rate float64
		want string
	}{
		{name: "always", rate: 1.0, want: "AlwaysOnSampler"},
		{name: "never", rate: 0, want: "AlwaysOffSampler"},
		{name: "ratio", rate: 0.5, want: "TraceIDRatioBased{0.5}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, createSampler(tt.rate).Description())
		})
	}
}

func TestTracerFromProvider_RecordsSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	tracer := NewTracerFromProvider(provider, "test")

	ctx, span := tracer.StartSpan(context.Background(), "op",
		trace.WithSpanKind(trace.SpanKindServer))
	assert.True(t, SpanFromContext(ctx).SpanContext().IsValid())

	ctx = ContextWithSpan(ctx, span)
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "op", ended[0].Name())
	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestExtractTraceContext_NilHeader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	assert.Equal(t, ctx, ExtractTraceContext(ctx, nil))
	assert.NotNil(t, ExtractTraceContext(ctx, http.Header{}))
}
