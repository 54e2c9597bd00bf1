// Package observe provides application-wide observability primitives for a
// gatewire bot process: OpenTelemetry metrics, distributed tracing,
// structured logging, and HTTP middleware that ties them together.
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all gatewire metrics.
const meterName = "github.com/arcweave/gatewire"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// HeartbeatRoundTrip tracks the time between sending a gateway
	// heartbeat and receiving its ack.
	HeartbeatRoundTrip metric.Float64Histogram

	// VoiceConnectDuration tracks how long the voice-gateway handshake
	// takes end to end.
	VoiceConnectDuration metric.Float64Histogram

	// RESTRequestDuration tracks REST call latency. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...)
	RESTRequestDuration metric.Float64Histogram

	// --- Counters ---

	// GatewayReconnects counts gateway reconnect attempts. Use with
	// attribute: attribute.Bool("resumed", ...)
	GatewayReconnects metric.Int64Counter

	// GuildMailboxDrops counts events dropped because a guild's mailbox
	// was full. Use with attribute: attribute.String("guild_id", ...)
	GuildMailboxDrops metric.Int64Counter

	// VoicePacketsSent counts encrypted opus datagrams transmitted.
	VoicePacketsSent metric.Int64Counter

	// VoiceReconnects counts voice-gateway reconnect attempts.
	VoiceReconnects metric.Int64Counter

	// --- Error counters ---

	// RESTErrors counts REST call failures by classification. Use with
	// attributes: attribute.String("route", ...), attribute.String("kind", ...)
	RESTErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveGuilds tracks the number of guilds currently marked online.
	ActiveGuilds metric.Int64UpDownCounter

	// ActiveVoiceSessions tracks the number of live voice connections.
	ActiveVoiceSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for realtime-gateway and voice latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.HeartbeatRoundTrip, err = m.Float64Histogram("gatewire.gateway.heartbeat_round_trip",
		metric.WithDescription("Time between sending a gateway heartbeat and receiving its ack."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.VoiceConnectDuration, err = m.Float64Histogram("gatewire.voice.connect.duration",
		metric.WithDescription("Time to complete the voice-gateway handshake."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RESTRequestDuration, err = m.Float64Histogram("gatewire.rest.request.duration",
		metric.WithDescription("Latency of REST calls by method and route."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.GatewayReconnects, err = m.Int64Counter("gatewire.gateway.reconnects",
		metric.WithDescription("Total gateway reconnect attempts."),
	); err != nil {
		return nil, err
	}
	if met.GuildMailboxDrops, err = m.Int64Counter("gatewire.guild.mailbox_drops",
		metric.WithDescription("Total events dropped because a guild mailbox was full."),
	); err != nil {
		return nil, err
	}
	if met.VoicePacketsSent, err = m.Int64Counter("gatewire.voice.packets_sent",
		metric.WithDescription("Total encrypted opus datagrams transmitted."),
	); err != nil {
		return nil, err
	}
	if met.VoiceReconnects, err = m.Int64Counter("gatewire.voice.reconnects",
		metric.WithDescription("Total voice-gateway reconnect attempts."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.RESTErrors, err = m.Int64Counter("gatewire.rest.errors",
		metric.WithDescription("Total REST call failures by route and error kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveGuilds, err = m.Int64UpDownCounter("gatewire.guild.active",
		metric.WithDescription("Number of guilds currently marked online."),
	); err != nil {
		return nil, err
	}
	if met.ActiveVoiceSessions, err = m.Int64UpDownCounter("gatewire.voice.active_sessions",
		metric.WithDescription("Number of live voice connections."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("gatewire.http.request.duration",
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

// RecordGatewayReconnect is a convenience method that records a gateway
// reconnect attempt with the standard attribute set.
func (m *Metrics) RecordGatewayReconnect(ctx context.Context, resumed bool) {
	m.GatewayReconnects.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("resumed", resumed)),
	)
}

// RecordMailboxDrop is a convenience method that records a guild mailbox
// drop.
func (m *Metrics) RecordMailboxDrop(ctx context.Context, guildID string) {
	m.GuildMailboxDrops.Add(ctx, 1,
		metric.WithAttributes(attribute.String("guild_id", guildID)),
	)
}

// RecordRESTError is a convenience method that records a REST error counter
// increment.
func (m *Metrics) RecordRESTError(ctx context.Context, route, kind string) {
	m.RESTErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("route", route),
			attribute.String("kind", kind),
		),
	)
}
