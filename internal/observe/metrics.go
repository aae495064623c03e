// Package observe provides application-wide observability primitives for
// Protokoll: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Protokoll metrics.
const meterName = "github.com/MrWong99/protokoll"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per engine ---

	// STTDuration tracks speech-to-text transcription latency. Use with
	// attribute: attribute.String("mode", "batch"|"live").
	STTDuration metric.Float64Histogram

	// LLMDuration tracks completion latency. Use with attribute:
	//   attribute.String("kind", "draft"|"translate")
	LLMDuration metric.Float64Histogram

	// EmbeddingDuration tracks embedding call latency.
	EmbeddingDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// SegmentsAccepted counts transcript segments that survived
	// reconciliation. Use with attribute: attribute.String("mode", ...).
	SegmentsAccepted metric.Int64Counter

	// SegmentsDeduplicated counts candidates dropped by reconciliation.
	SegmentsDeduplicated metric.Int64Counter

	// SilenceSkips counts uploads short-circuited by the silence gate.
	SilenceSkips metric.Int64Counter

	// SummariesGenerated counts finished summary generations. Use with
	// attributes: attribute.String("template", ...), attribute.String("status", ...).
	SummariesGenerated metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveCaptureSessions tracks the number of live capture sessions.
	ActiveCaptureSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The tail
// is long because batch transcription of full recordings takes minutes.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180, 600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("protokoll.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("protokoll.llm.duration",
		metric.WithDescription("Latency of summary drafting and translation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EmbeddingDuration, err = m.Float64Histogram("protokoll.embedding.duration",
		metric.WithDescription("Latency of embedding calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("protokoll.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsAccepted, err = m.Int64Counter("protokoll.segments.accepted",
		metric.WithDescription("Transcript segments accepted by reconciliation, by mode."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsDeduplicated, err = m.Int64Counter("protokoll.segments.deduplicated",
		metric.WithDescription("Candidate segments dropped by reconciliation, by mode."),
	); err != nil {
		return nil, err
	}
	if met.SilenceSkips, err = m.Int64Counter("protokoll.silence.skips",
		metric.WithDescription("Uploads short-circuited by the silence gate."),
	); err != nil {
		return nil, err
	}
	if met.SummariesGenerated, err = m.Int64Counter("protokoll.summaries.generated",
		metric.WithDescription("Finished summary generations by template and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("protokoll.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveCaptureSessions, err = m.Int64UpDownCounter("protokoll.active_capture_sessions",
		metric.WithDescription("Number of live capture sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("protokoll.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// ObserveSTT records one transcription call: the latency histogram by mode
// plus the request counter with its outcome. A non-nil err also increments
// the provider error counter.
func (m *Metrics) ObserveSTT(ctx context.Context, mode string, elapsed time.Duration, err error) {
	m.STTDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("mode", mode)))
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, "stt", mode)
	}
	m.RecordProviderRequest(ctx, "stt", mode, status)
}

// ObserveLLM records one completion call; kind is "draft" or "translate".
func (m *Metrics) ObserveLLM(ctx context.Context, kind string, elapsed time.Duration, err error) {
	m.LLMDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("kind", kind)))
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, "llm", kind)
	}
	m.RecordProviderRequest(ctx, "llm", kind, status)
}

// ObserveEmbedding records one embedding call. provider is the model
// identifier reported by the embeddings backend.
func (m *Metrics) ObserveEmbedding(ctx context.Context, provider string, elapsed time.Duration, err error) {
	m.EmbeddingDuration.Record(ctx, elapsed.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, provider, "embeddings")
	}
	m.RecordProviderRequest(ctx, provider, "embeddings", status)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordReconciliation records the outcome of one reconciliation pass.
func (m *Metrics) RecordReconciliation(ctx context.Context, mode string, accepted, dropped int) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	if accepted > 0 {
		m.SegmentsAccepted.Add(ctx, int64(accepted), attrs)
	}
	if dropped > 0 {
		m.SegmentsDeduplicated.Add(ctx, int64(dropped), attrs)
	}
}

// RecordSummary records one finished summary generation.
func (m *Metrics) RecordSummary(ctx context.Context, template, status string) {
	m.SummariesGenerated.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("template", template),
			attribute.String("status", status),
		),
	)
}
