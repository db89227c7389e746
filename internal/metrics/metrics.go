package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baytna_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "baytna_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baytna_status_transitions_total",
		Help: "Order and trip status changes.",
	}, []string{"entity", "from", "to"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baytna_notifications_created_total",
		Help: "Stored notifications by section.",
	}, []string{"section"})

	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baytna_push_deliveries_total",
		Help: "Push delivery attempts by channel and outcome.",
	}, []string{"channel", "outcome"})

	CleanupDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baytna_cleanup_deleted_total",
		Help: "Rows removed by the cleanup sweep.",
	}, []string{"table"})
)
