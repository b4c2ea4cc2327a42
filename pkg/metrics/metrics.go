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

	// TurnDuration tracks end-to-end conversational turn duration.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "End-to-end conversational turn duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	// TurnsTotal tracks total conversational turns.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total conversational turns",
		},
		[]string{"status"},
	)

	// ToolInvocationsTotal tracks tool invocations requested by the model.
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_tool_invocations_total",
			Help: "Tool invocations requested by the model",
		},
		[]string{"tool", "status"},
	)

	// ContractViolationsTotal tracks unknown tool names returned by the model.
	ContractViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_contract_violations_total",
			Help: "Tool invocations naming a tool the client does not implement",
		},
	)

	// LLMRequestDuration tracks remote model call duration.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Remote model call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// SpeechSessionsActive tracks active speech capture sessions.
	SpeechSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speech_sessions_active",
			Help: "Number of active speech capture sessions",
		},
	)

	// SpeechRestartsTotal tracks continuous-mode capture re-arms.
	SpeechRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_restarts_total",
			Help: "Continuous-mode capture re-arms by end condition",
		},
		[]string{"reason"},
	)

	// VoiceStreamsActive tracks active voice SSE connections.
	VoiceStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voice_streams_active",
			Help: "Number of active voice SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTurn records metrics for a conversational turn.
func RecordTurn(status string, duration float64) {
	TurnDuration.WithLabelValues(status).Observe(duration)
	TurnsTotal.WithLabelValues(status).Inc()
}

// RecordLLMRequest records metrics for a remote model call.
func RecordLLMRequest(provider, status string, duration float64) {
	LLMRequestDuration.WithLabelValues(provider, status).Observe(duration)
}
