// Package metrics defines and registers all custom Prometheus metrics for the
// supplier console. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "supplier_console"

// ── Session metrics ───────────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "ok" or the error kind (e.g. "invalid_credentials", "network_error")
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// SignOutsTotal counts explicit sign-outs and forced sign-outs after an upstream 401.
// Label:
//   - reason: "user" or "unauthorized"
var SignOutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_outs_total",
		Help:      "Total number of terminated sessions, by reason.",
	},
	[]string{"reason"},
)

// GuardDecisionsTotal counts route guard evaluations.
// Label:
//   - state: "excluded", "unauthenticated", "authenticated_wrong_role", "authenticated_authorized"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by resulting state.",
	},
	[]string{"state"},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls to the marketplace API.
// Labels:
//   - method: HTTP method
//   - result: "ok" or the error kind
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests sent to the marketplace API.",
	},
	[]string{"method", "result"},
)

// UpstreamRequestDuration measures round-trip time of marketplace API calls.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of marketplace API round trips.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationCacheTotal counts notification page cache lookups.
// Label:
//   - result: "hit" or "miss"
var NotificationCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_cache_total",
		Help:      "Total number of notification cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// RealtimeConnections tracks currently open realtime channels.
var RealtimeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Current number of open realtime notification channels.",
	},
)

// RealtimeMessagesTotal counts messages received on realtime channels.
// Label:
//   - payload: "event" (notification object), "json" (other JSON value) or
//     "raw" (not JSON)
var RealtimeMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_messages_total",
		Help:      "Total number of realtime messages received, by payload kind.",
	},
	[]string{"payload"},
)

// InvalidationQueueDepth tracks pending cache invalidation jobs per worker.
// Label:
//   - worker_id: numeric worker index
var InvalidationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "invalidation_queue_depth",
		Help:      "Current number of invalidation jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
