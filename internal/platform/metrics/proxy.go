package metrics

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProxyMetrics records the upstream side of each proxied request, keyed by
// backend name (seven values, so cardinality stays flat).
type ProxyMetrics struct {
	latency     metric.Float64Histogram
	unavailable metric.Int64Counter
}

func NewProxyMetrics() (*ProxyMetrics, error) {
	m := otel.Meter("marketplace-gateway/proxy")

	latency, err := m.Float64Histogram(
		"gateway.upstream.duration",
		metric.WithDescription("Upstream round-trip duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	unavailable, err := m.Int64Counter(
		"gateway.upstream.unavailable",
		metric.WithDescription("Requests answered with a 503 because the upstream was unreachable"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProxyMetrics{latency: latency, unavailable: unavailable}, nil
}

// RecordUpstream records a completed upstream round trip.
func (p *ProxyMetrics) RecordUpstream(ctx context.Context, upstream string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.latency.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("upstream", upstream),
		attribute.String("http.status_code", strconv.Itoa(status)),
	))
}

// RecordUnavailable counts a synthesized 503 for an unreachable upstream.
func (p *ProxyMetrics) RecordUnavailable(ctx context.Context, upstream string) {
	if p == nil {
		return
	}
	p.unavailable.Add(ctx, 1, metric.WithAttributes(
		attribute.String("upstream", upstream),
	))
}
