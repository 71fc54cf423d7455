package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trabajai_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trabajai_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Chat metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trabajai_ws_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trabajai_chat_messages_sent_total",
			Help: "Total chat messages sent",
		},
		[]string{"message_type"},
	)

	ReactionsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trabajai_chat_reactions_added_total",
			Help: "Total reactions added to messages",
		},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trabajai_chat_events_broadcast_total",
			Help: "Total events fanned out to rooms",
		},
		[]string{"event"},
	)

	EventErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trabajai_chat_event_errors_total",
			Help: "Total error events sent to clients",
		},
		[]string{"reason"},
	)

	// Matching metrics
	MatchesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trabajai_matches_generated_total",
			Help: "Total AI matches generated",
		},
	)

	MatchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trabajai_match_fallbacks_total",
			Help: "Total matches scored with the static fallback",
		},
	)
)
