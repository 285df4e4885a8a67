package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// Customer-value classification buckets. Thresholds are fixed; the HIGH check
// runs first and short-circuits MEDIUM.
const (
	HighValue   = "HIGH_VALUE"
	MediumValue = "MEDIUM_VALUE"
	LowValue    = "LOW_VALUE"
)

// DashboardReport is the top-level analytics snapshot. AverageSaleValue is nil
// (and absent from the JSON body) when there are no sales at all.
type DashboardReport struct {
	TotalCustomers    int              `json:"total_customers"`
	TotalSales        int              `json:"total_sales"`
	TotalInteractions int              `json:"total_interactions"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	AverageSaleValue  *decimal.Decimal `json:"average_sale_value,omitempty"`
	RecentSales       []*domain.Sale   `json:"recent_sales"`
	ActiveCustomers   int              `json:"active_customers"`
}

// CustomerActivityReport aggregates a single customer's sales and interactions.
// LastActivity is the zero time when the customer has neither.
type CustomerActivityReport struct {
	Customer           *domain.Customer      `json:"customer"`
	TotalSales         int                   `json:"total_sales"`
	TotalRevenue       decimal.Decimal       `json:"total_revenue"`
	SalesHistory       []*domain.Sale        `json:"sales_history"`
	TotalInteractions  int                   `json:"total_interactions"`
	InteractionsByType map[string]int        `json:"interactions_by_type"`
	RecentInteractions []*domain.Interaction `json:"recent_interactions"`
	LastActivity       time.Time             `json:"last_activity"`
	CustomerValue      string                `json:"customer_value"`
}

// Dashboard kinds, one per staff role.
const (
	AdminOverview       = "ADMIN_OVERVIEW"
	ManagerOverview     = "MANAGER_OVERVIEW"
	SalesRepPerformance = "SALES_REP_PERFORMANCE"
	SupportOverview     = "SUPPORT_OVERVIEW"
)

// UserDashboard is the per-user landing snapshot. The metric set depends on
// the user's role: admins see system-wide totals and per-role staff counts,
// managers team-level totals, sales reps and support their own scoped counts.
type UserDashboard struct {
	UserID         string            `json:"user_id"`
	UserName       string            `json:"user_name"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Email          string            `json:"email"`
	Role           domain.UserRole   `json:"role"`
	Status         domain.UserStatus `json:"status"`
	DashboardType  string            `json:"dashboard_type"`
	WelcomeMessage string            `json:"welcome_message"`
	Metrics        map[string]int    `json:"metrics"`
}

// SalesTrendsReport breaks sales down by calendar month and ranks top sales.
type SalesTrendsReport struct {
	TotalSales         int             `json:"total_sales"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	SalesByMonth       map[string]int  `json:"sales_by_month"`
	TopPerformingSales []*domain.Sale  `json:"top_performing_sales"`
}

// ReportService computes derived, read-only aggregates. Reports are
// best-effort snapshots: they are not linearizable with concurrent writes.
type ReportService interface {
	DashboardReport(ctx context.Context) (*DashboardReport, error)
	CustomerActivityReport(ctx context.Context, customerID string) (*CustomerActivityReport, error)
	SalesTrendsReport(ctx context.Context) (*SalesTrendsReport, error)
	UserDashboard(ctx context.Context, userName string) (*UserDashboard, error)
}
