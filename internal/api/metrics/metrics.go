// Package metrics defines the storefront's Prometheus metrics. Metrics are
// registered with the default registry on package initialisation through
// promauto and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Stock metrics ─────────────────────────────────────────────────────────────

// PurchasesTotal counts purchase attempts.
// Label:
//   - result: "ok", "insufficient_stock", "not_found", "duplicate", "rejected" or "error"
var PurchasesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Total number of purchase attempts, by result.",
	},
	[]string{"result"},
)

// UnitsSoldTotal counts units removed from stock by successful purchases.
var UnitsSoldTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_sold_total",
		Help:      "Total number of units sold.",
	},
)

// UnitsRestockedTotal counts units added by successful restocks.
var UnitsRestockedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_restocked_total",
		Help:      "Total number of units added by restocks.",
	},
)

// ── Catalogue metrics ─────────────────────────────────────────────────────────

// CatalogChangesTotal counts administrative catalogue mutations.
// Label:
//   - action: "create", "update" or "delete"
var CatalogChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_changes_total",
		Help:      "Total number of successful catalogue changes, by action.",
	},
	[]string{"action"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts registrations and logins.
// Labels:
//   - action: "register" or "login"
//   - result: "ok" or "failed"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by result.",
	},
	[]string{"action", "result"},
)

// ── Movement dispatcher metrics ───────────────────────────────────────────────

// MovementsQueueDepth tracks movements waiting in each dispatcher worker channel.
var MovementsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "movements_queue_depth",
		Help:      "Current number of stock movements pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MovementsDroppedTotal counts movements discarded because a queue was full
// or the dispatcher was shutting down.
var MovementsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_dropped_total",
		Help:      "Total number of stock movements dropped before delivery.",
	},
)

// MovementSinkErrorsTotal counts failed deliveries per sink type.
var MovementSinkErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movement_sink_errors_total",
		Help:      "Total number of failed stock movement deliveries, by sink.",
	},
	[]string{"sink"},
)
