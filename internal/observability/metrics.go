package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "taxi_dispatch", Name: "connections_active", Help: "Live websocket connections by party kind"},
		[]string{"kind"},
	)
	ConnectionsReplaced = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "connections_replaced_total", Help: "Connections evicted by a re-register for the same party"})
	ConnectionsEvicted  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "connections_evicted_total", Help: "Connections removed by the idle sweeper"})
	SendFailures        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "send_failures_total", Help: "Outbound sends that failed and evicted their connection"})
	BroadcastsTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "broadcasts_total", Help: "Broadcast batches dispatched"})

	RidesRequested = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "rides_requested_total", Help: "Ride requests accepted into the ledger"})
	RidesSettled   = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "rides_settled_total", Help: "Rides leaving the pending state, by outcome"},
		[]string{"outcome"},
	)
	RejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "rejections_total", Help: "Driver rejections recorded against pending rides"})

	WSMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "ws_messages_total", Help: "Inbound websocket messages by type"},
		[]string{"type"},
	)

	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "taxi_dispatch", Name: "drivers_online", Help: "Simulated drivers currently online"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "taxi_dispatch", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxi_dispatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
