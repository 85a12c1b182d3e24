// Package observe wires Lexora's telemetry: OpenTelemetry metrics exported
// to Prometheus, tracing with correlation IDs, trace-aware slog loggers and
// the HTTP middleware that ties them together.
//
// Tests should build their own [Metrics] with [NewMetrics] over a private
// MeterProvider; [DefaultMetrics] records on the global one.
package observe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/MrWong99/lexora"

// Seconds. Pattern runs take milliseconds, enrichment takes seconds.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics records every Lexora instrument. Its methods are safe for
// concurrent use.
type Metrics struct {
	stageDuration  metric.Float64Histogram
	enrichDuration metric.Float64Histogram
	httpDuration   metric.Float64Histogram

	items            metric.Int64Counter
	cacheLookups     metric.Int64Counter
	batchItems       metric.Int64Counter
	providerRequests metric.Int64Counter
	providerErrors   metric.Int64Counter
	rateLimited      metric.Int64Counter

	activeExtractions metric.Int64UpDownCounter
	streams           metric.Int64UpDownCounter
}

// instruments creates instruments on one meter and keeps the first error.
type instruments struct {
	m   metric.Meter
	err error
}

func (b *instruments) latency(name, desc string, buckets ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(desc), metric.WithUnit("s")}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := b.m.Float64Histogram(name, opts...)
	b.err = errors.Join(b.err, err)
	return h
}

func (b *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := b.m.Int64Counter(name, metric.WithDescription(desc))
	b.err = errors.Join(b.err, err)
	return c
}

func (b *instruments) gauge(name, desc string) metric.Int64UpDownCounter {
	g, err := b.m.Int64UpDownCounter(name, metric.WithDescription(desc))
	b.err = errors.Join(b.err, err)
	return g
}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	b := &instruments{m: mp.Meter(meterName)}
	m := &Metrics{
		stageDuration:  b.latency("lexora.extract.duration", "Latency of extraction stages.", latencyBuckets...),
		enrichDuration: b.latency("lexora.enrich.duration", "Latency of one LLM enrichment attempt.", latencyBuckets...),
		httpDuration:   b.latency("lexora.http.request.duration", "HTTP request latency by method and route."),

		items:            b.counter("lexora.extract.items", "Vocabulary items returned, by language and method."),
		cacheLookups:     b.counter("lexora.cache.lookups", "Extraction cache lookups, by backend and result."),
		batchItems:       b.counter("lexora.batch.items", "Batch entries, by outcome."),
		providerRequests: b.counter("lexora.provider.requests", "LLM provider calls, by provider, kind and status."),
		providerErrors:   b.counter("lexora.provider.errors", "LLM provider failures, by provider and kind."),
		rateLimited:      b.counter("lexora.http.rate_limited", "Requests rejected by the rate limiter, by scope."),

		activeExtractions: b.gauge("lexora.active_extractions", "Extraction runs in flight."),
		streams:           b.gauge("lexora.stream.connections", "Open WebSocket streams."),
	}
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a shared [Metrics] on otel.GetMeterProvider,
// created on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: default metrics: " + err.Error())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

func attrs(kv ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(kv...)
}

// RecordStage records one extraction stage (detect, pattern, nlp, classify,
// rank, enrich, total).
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.stageDuration.Record(ctx, d.Seconds(), attrs(attribute.String("stage", stage)))
}

// RecordEnrich records one enrichment attempt against a single provider.
func (m *Metrics) RecordEnrich(ctx context.Context, d time.Duration) {
	m.enrichDuration.Record(ctx, d.Seconds())
}

// RecordHTTPRequest records a served request under its route pattern.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, d time.Duration) {
	m.httpDuration.Record(ctx, d.Seconds(), attrs(
		attribute.String("method", method),
		attribute.String("path", route),
	))
}

// RecordItems adds n returned items. Non-positive n is ignored.
func (m *Metrics) RecordItems(ctx context.Context, language, method string, n int) {
	if n <= 0 {
		return
	}
	m.items.Add(ctx, int64(n), attrs(
		attribute.String("language", language),
		attribute.String("method", method),
	))
}

// RecordCacheLookup records a lookup result: hit, miss, corrupt or error.
func (m *Metrics) RecordCacheLookup(ctx context.Context, backend, result string) {
	m.cacheLookups.Add(ctx, 1, attrs(
		attribute.String("backend", backend),
		attribute.String("result", result),
	))
}

// RecordBatchItem records one batch entry as ok or error.
func (m *Metrics) RecordBatchItem(ctx context.Context, status string) {
	m.batchItems.Add(ctx, 1, attrs(attribute.String("status", status)))
}

// RecordProviderRequest counts one provider call.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.providerRequests.Add(ctx, 1, attrs(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordProviderError counts one failed provider call.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.providerErrors.Add(ctx, 1, attrs(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}

// RecordRateLimited counts a request rejected by the client or global
// limiter.
func (m *Metrics) RecordRateLimited(ctx context.Context, scope string) {
	m.rateLimited.Add(ctx, 1, attrs(attribute.String("scope", scope)))
}

// TrackExtraction marks an extraction run as started. Call the returned
// function when it ends.
func (m *Metrics) TrackExtraction(ctx context.Context) (done func()) {
	return track(ctx, m.activeExtractions)
}

// TrackStream marks a WebSocket stream as open. Call the returned function
// when it closes.
func (m *Metrics) TrackStream(ctx context.Context) (done func()) {
	return track(ctx, m.streams)
}

func track(ctx context.Context, g metric.Int64UpDownCounter) func() {
	g.Add(ctx, 1)
	var once sync.Once
	return func() {
		once.Do(func() { g.Add(context.WithoutCancel(ctx), -1) })
	}
}
