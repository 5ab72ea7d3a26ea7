// Package metrics provides Prometheus metrics for the realtime gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks the number of connected realtime sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchchat_active_sessions",
			Help: "Number of currently connected realtime sessions",
		},
	)

	// MessagesAccepted counts messages persisted by the send path.
	MessagesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchchat_messages_accepted_total",
			Help: "Total number of messages accepted by the conversation store",
		},
	)

	// SendFailures counts rejected sends by error code.
	SendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchchat_send_failures_total",
			Help: "Total number of sends that were not broadcast",
		},
		[]string{"code"},
	)

	// BroadcastDeliveries counts events handed to session outboxes by broadcasts.
	BroadcastDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchchat_broadcast_deliveries_total",
			Help: "Total number of broadcast events queued to sessions",
		},
	)

	// BroadcastDrops counts broadcast events skipped for closed or slow sessions.
	BroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchchat_broadcast_drops_total",
			Help: "Total number of broadcast events dropped for closed or slow sessions",
		},
	)

	// HistoryRequests counts history replays.
	HistoryRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchchat_history_requests_total",
			Help: "Total number of chat history requests",
		},
	)
)

// RecordSessionOpened increments session metrics on connect.
func RecordSessionOpened() {
	ActiveSessions.Inc()
}

// RecordSessionClosed decrements session metrics on disconnect.
func RecordSessionClosed() {
	ActiveSessions.Dec()
}

// RecordSendFailure increments the failure counter for code.
func RecordSendFailure(code string) {
	SendFailures.WithLabelValues(code).Inc()
}
