package logging

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service-wide JSON logger. Level defaults to info and can be
// lowered with LOG_LEVEL=debug for local runs.
func New(service string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.Set(v); err != nil {
			return nil, err
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)
	return zap.New(core).With(zap.String("service", service)), nil
}

type ctxKey struct{}

// With stores a logger in context for request-scoped logging.
func With(ctx context.Context, l *zap.Logger) context.Context {
	if l == nil {
		l = zap.NewNop()
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the context logger, the fallback, or a nop logger in that order.
func From(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

// WithTrace attaches trace_id/span_id fields when the context carries an
// active span, so log lines can be correlated with traces.
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
