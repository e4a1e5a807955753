package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collab_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	RealtimeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collab_realtime_sessions",
			Help: "Open realtime sessions",
		},
	)

	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_realtime_events_total",
			Help: "Inbound realtime events by outcome",
		},
		[]string{"event", "outcome"}, // ok, forbidden, rate_limited, invalid, failed
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collab_broadcast_dropped_total",
			Help: "Outbound events dropped because a session buffer was full",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"scope"}, // "http" or "chat"
	)

	// Cache metrics
	WhiteboardEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collab_whiteboard_evictions_total",
			Help: "Whiteboard entries removed by the sweeper",
		},
	)
)
