// Package observe provides application-wide observability primitives for
// Solace: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported for
// Prometheus scraping via [InitProvider]. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Solace metrics.
const meterName = "github.com/MrWong99/solace"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// LLMDuration tracks crisis analysis inference latency.
	LLMDuration metric.Float64Histogram

	// TTSFirstAudio tracks the time from a speak request to the first audio
	// chunk.
	TTSFirstAudio metric.Float64Histogram

	// --- Decision counters ---

	// Classifications counts emotional context decisions. Attributes:
	//   attribute.String("context", ...), attribute.String("source", ...)
	Classifications metric.Int64Counter

	// VoiceSelections counts chosen voices. Attributes:
	//   attribute.String("voice", ...), attribute.String("reason", ...)
	VoiceSelections metric.Int64Counter

	// CrisisPresentations counts gate decisions. Attribute:
	//   attribute.String("tier", ...)
	CrisisPresentations metric.Int64Counter

	// CheckInsScheduled counts stored follow-up check-ins.
	CheckInsScheduled metric.Int64Counter

	// ConfigReloads counts hot-reload attempts. Attribute:
	//   attribute.String("status", "ok"|"error")
	ConfigReloads metric.Int64Counter

	// --- Provider counters ---

	// ProviderRequests counts provider API calls. Attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveStreams tracks open speech WebSocket streams.
	ActiveStreams metric.Int64UpDownCounter

	// CheckInsDue is the number of pending check-ins past their due time at
	// the last sweep.
	CheckInsDue metric.Int64Gauge

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	//   attribute.String("method", ...), attribute.String("path", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// provider round trips.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.LLMDuration, err = m.Float64Histogram("solace.llm.duration",
		metric.WithDescription("Latency of crisis analysis inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSFirstAudio, err = m.Float64Histogram("solace.tts.first_audio",
		metric.WithDescription("Time from speak request to first synthesised audio chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Classifications, err = m.Int64Counter("solace.emotion.classifications",
		metric.WithDescription("Emotional context classifications by context and deciding source."),
	); err != nil {
		return nil, err
	}
	if met.VoiceSelections, err = m.Int64Counter("solace.voice.selections",
		metric.WithDescription("Voice selections by voice name and deciding rule."),
	); err != nil {
		return nil, err
	}
	if met.CrisisPresentations, err = m.Int64Counter("solace.crisis.presentations",
		metric.WithDescription("Crisis gate decisions by presentation tier."),
	); err != nil {
		return nil, err
	}
	if met.CheckInsScheduled, err = m.Int64Counter("solace.checkins.scheduled",
		metric.WithDescription("Follow-up check-ins stored."),
	); err != nil {
		return nil, err
	}
	if met.ConfigReloads, err = m.Int64Counter("solace.config.reloads",
		metric.WithDescription("Configuration hot-reload attempts by status."),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("solace.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("solace.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveStreams, err = m.Int64UpDownCounter("solace.active_streams",
		metric.WithDescription("Number of open speech streaming connections."),
	); err != nil {
		return nil, err
	}
	if met.CheckInsDue, err = m.Int64Gauge("solace.checkins.due",
		metric.WithDescription("Pending check-ins past their due time at the last sweep."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("solace.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route, and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
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

// RecordProviderRequest records a provider request with the standard
// attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordClassification records one emotional context decision.
func (m *Metrics) RecordClassification(ctx context.Context, emotionalContext, source string) {
	m.Classifications.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("context", emotionalContext),
			attribute.String("source", source),
		),
	)
}

// RecordVoiceSelection records one voice choice.
func (m *Metrics) RecordVoiceSelection(ctx context.Context, voice, reason string) {
	m.VoiceSelections.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("voice", voice),
			attribute.String("reason", reason),
		),
	)
}

// RecordCrisisPresentation records one gate decision.
func (m *Metrics) RecordCrisisPresentation(ctx context.Context, tier string) {
	m.CrisisPresentations.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordConfigReload records a reload attempt.
func (m *Metrics) RecordConfigReload(ctx context.Context, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ConfigReloads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
