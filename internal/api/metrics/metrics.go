// Package metrics defines and registers all custom Prometheus metrics for the
// CRM API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// via promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// SalesCreatedTotal counts newly recorded sales.
// Label:
//   - status: the initial sale status ("PENDING", "COMPLETED", "CANCELED")
var SalesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_created_total",
		Help:      "Total number of sales recorded, by initial status.",
	},
	[]string{"status"},
)

// LedgerAdjustmentsTotal counts operations that adjusted a customer's
// purchase total.
// Label:
//   - operation: "create", "update", or "delete"
var LedgerAdjustmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_adjustments_total",
		Help:      "Total number of sale operations that touched a customer purchase total.",
	},
	[]string{"operation"},
)

// ReportsGeneratedTotal counts report requests that completed successfully.
// Label:
//   - report: "dashboard", "customer_activity", or "sales_trends"
var ReportsGeneratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_generated_total",
		Help:      "Total number of reports generated, by report kind.",
	},
	[]string{"report"},
)

// InteractionsLoggedTotal counts newly logged customer interactions.
// Label:
//   - type: the interaction type ("CALL", "EMAIL", "MEETING", "SUPPORT_TICKET")
var InteractionsLoggedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interactions_logged_total",
		Help:      "Total number of customer interactions logged, by type.",
	},
	[]string{"type"},
)
