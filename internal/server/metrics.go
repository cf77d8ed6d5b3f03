package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName is the instrumentation scope for every server metric.
const meterName = "github.com/example/go-kokoro-g2p/internal/server"

// Metrics holds the OpenTelemetry instruments recorded by the handler.
type Metrics struct {
	// RequestDuration is recorded per request with method, path and status.
	RequestDuration metric.Float64Histogram

	// PhonemizeDuration tracks text-to-phoneme latency per language.
	PhonemizeDuration metric.Float64Histogram

	// SynthesisDuration tracks end-to-end /tts latency.
	SynthesisDuration metric.Float64Histogram

	// PhonemesProduced counts output phoneme symbols per language.
	PhonemesProduced metric.Int64Counter

	// Errors counts failed requests by path and status.
	Errors metric.Int64Counter

	// InFlight is the number of requests holding a worker slot.
	InFlight metric.Int64UpDownCounter
}

var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RequestDuration, err = m.Float64Histogram("kokorog2p.http.request.duration",
		metric.WithDescription("HTTP request latency by method, path and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PhonemizeDuration, err = m.Float64Histogram("kokorog2p.phonemize.duration",
		metric.WithDescription("Latency of text-to-phoneme conversion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("kokorog2p.tts.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PhonemesProduced, err = m.Int64Counter("kokorog2p.phonemes",
		metric.WithDescription("Total phoneme symbols produced by language."),
	); err != nil {
		return nil, err
	}
	if met.Errors, err = m.Int64Counter("kokorog2p.http.errors",
		metric.WithDescription("Total failed requests by path and status."),
	); err != nil {
		return nil, err
	}
	if met.InFlight, err = m.Int64UpDownCounter("kokorog2p.http.inflight",
		metric.WithDescription("Requests currently holding a worker slot."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func noopMetrics() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic(fmt.Sprintf("noop metrics: %v", err))
	}
	return m
}

// NewPrometheusProvider returns a MeterProvider exporting into a private
// Prometheus registry and the handler that serves that registry.
func NewPrometheusProvider() (*sdkmetric.MeterProvider, http.Handler, error) {
	reg := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records duration and error metrics for every request and logs
// its completion.
func instrument(m *Metrics, log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		attrs := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("path", r.URL.Path),
			attribute.String("status", strconv.Itoa(rec.statusCode)),
		)
		m.RequestDuration.Record(r.Context(), elapsed.Seconds(), attrs)
		if rec.statusCode >= http.StatusBadRequest {
			m.Errors.Add(r.Context(), 1, metric.WithAttributes(
				attribute.String("path", r.URL.Path),
				attribute.String("status", strconv.Itoa(rec.statusCode)),
			))
		}

		log.LogAttrs(r.Context(), slog.LevelDebug, "request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.statusCode),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
		)
	})
}

// observeDuration returns a func that records the time since the call on h.
func observeDuration(ctx context.Context, h metric.Float64Histogram, attrs ...attribute.KeyValue) func() {
	start := time.Now()
	return func() {
		h.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	}
}
