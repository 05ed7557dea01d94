// Package metrics defines and registers the custom Prometheus metrics for the
// product catalog. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry on import; HTTP
// request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

// ── Catalog metrics ───────────────────────────────────────────────────────────

// MutationsTotal counts successful writes.
// Labels:
//   - entity: "product" or "category"
//   - operation: "create", "update" or "delete"
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of catalog writes, by entity and operation.",
	},
	[]string{"entity", "operation"},
)

// ListingSize observes how many products a listing returned.
// Label:
//   - view: "public" or "admin"
var ListingSize = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listing_products",
		Help:      "Number of products returned per catalog listing.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	},
	[]string{"view"},
)

// ── Access metrics ────────────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts policy evaluations.
// Labels:
//   - operation: the catalog operation (e.g. "delete")
//   - outcome: "allow", "challenge" (anonymous) or "forbid" (unprivileged)
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// LoginAttemptsTotal counts sign-in attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)
