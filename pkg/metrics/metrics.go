// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RoomsClosed tracks room closures by closer kind.
	RoomsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnichannel_rooms_closed_total",
			Help: "Total rooms closed",
		},
		[]string{"closer"},
	)

	// TagPolicyViolations tracks close attempts rejected by tag policy.
	TagPolicyViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnichannel_tag_policy_violations_total",
			Help: "Close attempts rejected because tags were required",
		},
	)

	// AvailabilityChecks tracks availability resolutions by outcome.
	AvailabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnichannel_availability_checks_total",
			Help: "Availability checks by outcome",
		},
		[]string{"outcome"},
	)

	// FallbackHops tracks how deep fallback chains are walked before an
	// online agent is found.
	FallbackHops = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omnichannel_fallback_hops",
			Help:    "Department fallback hops per successful availability check",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)

	// TranscriptsSent tracks transcript exports by outcome.
	TranscriptsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnichannel_transcripts_sent_total",
			Help: "Transcript exports by outcome",
		},
		[]string{"outcome"},
	)

	// SystemMessages tracks engine-generated messages by type.
	SystemMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnichannel_system_messages_total",
			Help: "System messages inserted by type",
		},
		[]string{"type"},
	)

	// BridgeEvents tracks lifecycle events handed to the automation bridge.
	BridgeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnichannel_bridge_events_total",
			Help: "Lifecycle events emitted to the automation bridge",
		},
		[]string{"event", "status"},
	)

	// BotReplies tracks automated bot responses.
	BotReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnichannel_bot_replies_total",
			Help: "Bot responder replies by provider and status",
		},
		[]string{"provider", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}
