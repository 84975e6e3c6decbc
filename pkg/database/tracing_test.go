package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(span.Attributes))
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func TestQueryTracer_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := NewQueryTracer("postgresql", 0, nil).Trace(context.Background(), "GetUserByEmail", "SELECT id FROM users WHERE email = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.GetUserByEmail", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetUserByEmail", attrs["db.operation"])
	assert.Equal(t, "SELECT id FROM users WHERE email = $1", attrs["db.statement"])
}

func TestQueryTracer_ErrorRecorded(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := NewQueryTracer("redis", 0, nil).Trace(context.Background(), "BlacklistToken", "SET")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
	assert.Equal(t, "redis", spanAttrs(spans[0])["db.system"])
}

func TestQueryTracer_NilTracerDefaultsToPostgres(t *testing.T) {
	exporter := setupTestTracer(t)

	var tracer *QueryTracer
	_, end := tracer.Trace(context.Background(), "Ping", "SELECT 1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "postgresql", spanAttrs(spans[0])["db.system"])
}

func TestQueryTracer_ChildOfCallerSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "Login")
	_, end := NewQueryTracer("", 0, nil).Trace(ctx, "GetUserByEmail", "SELECT 1")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestQueryTracer_SlowQueryLogged(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	_, end := NewQueryTracer("postgresql", time.Nanosecond, logger).Trace(context.Background(), "InsertAudit", "INSERT INTO login_audit_logs")
	time.Sleep(time.Millisecond)
	end(errors.New("unique constraint violation"))

	out := buf.String()
	assert.Contains(t, out, "slow query detected")
	assert.Contains(t, out, "InsertAudit")
	assert.Contains(t, out, "unique constraint violation")
}

func TestQueryTracer_FastQueryNotLogged(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	_, end := NewQueryTracer("postgresql", time.Hour, logger).Trace(context.Background(), "Ping", "SELECT 1")
	end(nil)

	assert.Empty(t, buf.String())
}
