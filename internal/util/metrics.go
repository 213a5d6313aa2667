package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_items_added_total",
		Help: "Total number of items added to the catalog",
	})

	ItemsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_items_deleted_total",
		Help: "Total number of items removed from the catalog",
	})

	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopping_sessions_started_total",
		Help: "Total number of shopping sessions started",
	})

	SessionStartRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopping_session_start_rejected_total",
		Help: "Total number of rejected session starts",
	}, []string{"reason"})

	StoresAdvancedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopping_stores_advanced_total",
		Help: "Total number of store advances",
	})

	SessionsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopping_sessions_completed_total",
		Help: "Total number of completed shopping sessions",
	})

	PurchaseTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_ledger_writes_total",
		Help: "Total number of purchase ledger writes",
	}, []string{"outcome"})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of push notifications dispatched",
	}, []string{"role"})

	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of push notifications that failed to dispatch",
	}, []string{"role"})

	EventPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "event_publish_failed_total",
		Help: "Total number of domain events that could not be published",
	}, []string{"type"})

	ViewRefetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "view_refetch_total",
		Help: "Total number of view re-fetches triggered by change events",
	}, []string{"result"})

	NotificationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_dispatch_latency_seconds",
		Help:    "Latency of push dispatch calls",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
