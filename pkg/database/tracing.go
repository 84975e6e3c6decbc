package database

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Joseph-VJ/houlnd-realty/pkg/database"

// QueryTracer opens a client span per database operation and, when a
// threshold is set, logs operations slower than it. The zero value and a
// nil *QueryTracer both trace without slow query logging.
type QueryTracer struct {
	system        string
	slowThreshold time.Duration
	logger        *slog.Logger
}

// NewQueryTracer returns a tracer for the given db.system ("postgresql",
// "redis"). A zero slowThreshold disables slow query logging.
func NewQueryTracer(system string, slowThreshold time.Duration, logger *slog.Logger) *QueryTracer {
	return &QueryTracer{system: system, slowThreshold: slowThreshold, logger: logger}
}

// Trace starts a span named "db.<operation>". The returned function must be
// called with the operation's error once it completes:
//
//	ctx, end := r.tracer.Trace(ctx, "GetUserByEmail", q)
//	defer func() { end(err) }()
func (t *QueryTracer) Trace(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	system := "postgresql"
	var threshold time.Duration
	var logger *slog.Logger
	if t != nil {
		if t.system != "" {
			system = t.system
		}
		threshold, logger = t.slowThreshold, t.logger
	}

	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if threshold <= 0 || logger == nil {
			return
		}
		if elapsed := time.Since(start); elapsed >= threshold {
			attrs := []any{
				slog.String("operation", operation),
				slog.String("statement", statement),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			logger.WarnContext(ctx, "slow query detected", attrs...)
		}
	}
}
