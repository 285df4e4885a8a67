package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

const (
	recentSalesLimit        = 5
	recentInteractionsLimit = 5
	supportRecentLimit      = 10
	topSalesLimit           = 10
	activityWindowMonths    = 3
)

// ReportCache abstracts the report snapshot cache (Redis). A cache failure is
// never fatal: reports fall through to recomputation.
type ReportCache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// ReportService is the read-side reporting engine. It never mutates entities;
// every report is a best-effort snapshot of the current store contents.
type ReportService struct {
	customers    ports.CustomerRepository
	sales        ports.SaleRepository
	interactions ports.InteractionRepository
	users        ports.UserRepository
	cache        ReportCache // optional
	log          zerolog.Logger
}

func NewReportService(
	customers ports.CustomerRepository,
	sales ports.SaleRepository,
	interactions ports.InteractionRepository,
	users ports.UserRepository,
	cache ReportCache,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{customers: customers, sales: sales, interactions: interactions, users: users, cache: cache, log: log}
}

// DashboardReport computes the top-level analytics snapshot. The average sale
// value is only present when at least one sale exists.
func (s *ReportService) DashboardReport(ctx context.Context) (*ports.DashboardReport, error) {
	if cached, ok := s.cacheGet(ctx, "report:dashboard", &ports.DashboardReport{}); ok {
		return cached.(*ports.DashboardReport), nil
	}

	customers, err := s.customers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard report: %w", err)
	}
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard report: %w", err)
	}
	interactions, err := s.interactions.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard report: %w", err)
	}

	report := &ports.DashboardReport{
		TotalCustomers:    len(customers),
		TotalSales:        len(sales),
		TotalInteractions: len(interactions),
		TotalRevenue:      totalRevenue(sales),
		RecentSales:       recentSales(sales, recentSalesLimit),
		ActiveCustomers:   s.countActiveCustomers(ctx, customers),
	}
	if len(sales) > 0 {
		avg := report.TotalRevenue.Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
		report.AverageSaleValue = &avg
	}

	s.cacheSet(ctx, "report:dashboard", report)
	s.log.Info().
		Int("customers", report.TotalCustomers).
		Str("total_revenue", report.TotalRevenue.String()).
		Msg("dashboard report generated")
	return report, nil
}

// CustomerActivityReport aggregates one customer's sales and interactions and
// classifies the customer's value.
func (s *ReportService) CustomerActivityReport(ctx context.Context, customerID string) (*ports.CustomerActivityReport, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer activity report: customer %s: %w", customerID, err)
	}

	sales, err := s.sales.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer activity report: %w", err)
	}
	interactions, err := s.interactions.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("customer activity report: %w", err)
	}

	revenue := totalRevenue(sales)
	report := &ports.CustomerActivityReport{
		Customer:           customer,
		TotalSales:         len(sales),
		TotalRevenue:       revenue,
		SalesHistory:       sales,
		TotalInteractions:  len(interactions),
		InteractionsByType: groupInteractionsByType(interactions),
		RecentInteractions: recentInteractions(interactions, recentInteractionsLimit),
		LastActivity:       lastActivityDate(sales, interactions),
		CustomerValue:      classifyCustomerValue(revenue, len(interactions)),
	}

	s.log.Info().
		Str("customer_id", customerID).
		Str("customer_value", report.CustomerValue).
		Msg("customer activity report generated")
	return report, nil
}

// SalesTrendsReport groups sales by calendar month and ranks the top sales by
// amount.
func (s *ReportService) SalesTrendsReport(ctx context.Context) (*ports.SalesTrendsReport, error) {
	if cached, ok := s.cacheGet(ctx, "report:sales-trends", &ports.SalesTrendsReport{}); ok {
		return cached.(*ports.SalesTrendsReport), nil
	}

	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales trends report: %w", err)
	}

	report := &ports.SalesTrendsReport{
		TotalSales:         len(sales),
		TotalRevenue:       totalRevenue(sales),
		SalesByMonth:       groupSalesByMonth(sales),
		TopPerformingSales: topSales(sales, topSalesLimit),
	}

	s.cacheSet(ctx, "report:sales-trends", report)
	s.log.Info().Int("months", len(report.SalesByMonth)).Msg("sales trends report generated")
	return report, nil
}

// UserDashboard builds the landing snapshot for one staff member, resolved by
// username. The metric set switches on the user's role. Admin and manager
// dashboards fail on a store error; the rep and support variants degrade the
// affected counters to zero so a single bad lookup does not blank the page.
func (s *ReportService) UserDashboard(ctx context.Context, userName string) (*ports.UserDashboard, error) {
	user, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("user dashboard: user %s: %w", userName, err)
	}

	dashboard := &ports.UserDashboard{
		UserID:    user.ID,
		UserName:  user.UserName,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		Status:    user.Status,
		Metrics:   make(map[string]int),
	}

	switch user.Role {
	case domain.RoleAdmin:
		err = s.adminDashboard(ctx, dashboard)
	case domain.RoleManager:
		err = s.managerDashboard(ctx, dashboard)
	case domain.RoleSalesRep:
		s.salesRepDashboard(ctx, user.ID, dashboard)
	case domain.RoleSupport:
		s.supportDashboard(ctx, user.ID, dashboard)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_name", userName).
		Str("dashboard_type", dashboard.DashboardType).
		Msg("user dashboard generated")
	return dashboard, nil
}

func (s *ReportService) adminDashboard(ctx context.Context, d *ports.UserDashboard) error {
	customers, err := s.customers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}
	staff, err := s.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}
	interactionCount, err := s.interactions.Count(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}

	d.DashboardType = ports.AdminOverview
	d.WelcomeMessage = "Welcome to the CRM Admin Dashboard! You have full system access."
	d.Metrics["total_customers"] = len(customers)
	d.Metrics["active_customers"] = countActiveStatus(customers)
	d.Metrics["total_sales"] = len(sales)
	d.Metrics["total_users"] = len(staff)
	d.Metrics["total_interactions"] = int(interactionCount)
	d.Metrics["admin_users"] = countRole(staff, domain.RoleAdmin)
	d.Metrics["manager_users"] = countRole(staff, domain.RoleManager)
	d.Metrics["sales_rep_users"] = countRole(staff, domain.RoleSalesRep)
	d.Metrics["support_users"] = countRole(staff, domain.RoleSupport)
	return nil
}

func (s *ReportService) managerDashboard(ctx context.Context, d *ports.UserDashboard) error {
	customers, err := s.customers.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}
	sales, err := s.sales.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}
	staff, err := s.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}
	interactions, err := s.interactions.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("user dashboard: %w", err)
	}

	d.DashboardType = ports.ManagerOverview
	d.WelcomeMessage = "Welcome to the CRM Manager Dashboard! Monitor your team's performance."
	d.Metrics["total_customers"] = len(customers)
	d.Metrics["active_customers"] = countActiveStatus(customers)
	d.Metrics["total_sales"] = len(sales)
	d.Metrics["total_sales_reps"] = countRole(staff, domain.RoleSalesRep)
	d.Metrics["total_interactions"] = len(interactions)
	d.Metrics["recent_interactions"] = len(recentInteractions(interactions, recentInteractionsLimit))
	return nil
}

func (s *ReportService) salesRepDashboard(ctx context.Context, userID string, d *ports.UserDashboard) {
	d.DashboardType = ports.SalesRepPerformance
	d.WelcomeMessage = "Welcome to your Sales Dashboard! Track your performance and manage your customers."
	d.Metrics["my_sales"] = 0
	d.Metrics["my_interactions"] = 0
	d.Metrics["total_customers"] = 0
	d.Metrics["recent_interactions"] = 0
	d.Metrics["sales_this_month"] = 0

	if sales, err := s.sales.FindBySalesRepID(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("rep sales lookup failed, zeroing counters")
	} else {
		d.Metrics["my_sales"] = len(sales)
		d.Metrics["sales_this_month"] = countSalesThisMonth(sales, time.Now().UTC())
	}
	if interactions, err := s.interactions.FindByPerformedByID(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("rep interactions lookup failed, zeroing counters")
	} else {
		d.Metrics["my_interactions"] = len(interactions)
	}
	if customers, err := s.customers.FindAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("customer lookup failed, zeroing counters")
	} else {
		d.Metrics["total_customers"] = len(customers)
	}
	if interactions, err := s.interactions.FindAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("interactions lookup failed, zeroing counters")
	} else {
		d.Metrics["recent_interactions"] = len(recentInteractions(interactions, recentInteractionsLimit))
	}
}

func (s *ReportService) supportDashboard(ctx context.Context, userID string, d *ports.UserDashboard) {
	d.DashboardType = ports.SupportOverview
	d.WelcomeMessage = "Welcome to the Support Dashboard! Manage customer interactions and provide excellent service."
	d.Metrics["my_interactions"] = 0
	d.Metrics["total_customers"] = 0
	d.Metrics["recent_interactions"] = 0
	d.Metrics["total_interactions"] = 0

	if interactions, err := s.interactions.FindByPerformedByID(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("support interactions lookup failed, zeroing counters")
	} else {
		d.Metrics["my_interactions"] = len(interactions)
	}
	if customers, err := s.customers.FindAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("customer lookup failed, zeroing counters")
	} else {
		d.Metrics["total_customers"] = len(customers)
	}
	if interactions, err := s.interactions.FindAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("interactions lookup failed, zeroing counters")
	} else {
		d.Metrics["recent_interactions"] = len(recentInteractions(interactions, supportRecentLimit))
		d.Metrics["total_interactions"] = len(interactions)
	}
}

// countActiveCustomers counts customers with at least one sale inside the
// activity window. A failed sales lookup for one customer degrades to "not
// active" for that customer instead of failing the whole count.
func (s *ReportService) countActiveCustomers(ctx context.Context, customers []*domain.Customer) int {
	since := time.Now().UTC().AddDate(0, -activityWindowMonths, 0)
	count := 0
	for _, c := range customers {
		sales, err := s.sales.FindByCustomerID(ctx, c.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("customer_id", c.ID).Msg("activity check failed, counting as inactive")
			continue
		}
		for _, sale := range sales {
			if sale.SaleDate.After(since) {
				count++
				break
			}
		}
	}
	return count
}

func (s *ReportService) cacheGet(ctx context.Context, key string, v any) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	ok, err := s.cache.Get(ctx, key, v)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache read failed, recomputing")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return v, true
}

func (s *ReportService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}

func totalRevenue(sales []*domain.Sale) decimal.Decimal {
	revenue := decimal.Zero
	for _, s := range sales {
		revenue = revenue.Add(s.Amount)
	}
	return revenue
}

// recentSales returns up to limit sales, newest sale date first. Ties keep
// the input order (stable sort, no secondary key).
func recentSales(sales []*domain.Sale, limit int) []*domain.Sale {
	recent := make([]*domain.Sale, len(sales))
	copy(recent, sales)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].SaleDate.After(recent[j].SaleDate)
	})
	if limit < len(recent) {
		recent = recent[:limit]
	}
	return recent
}

func recentInteractions(interactions []*domain.Interaction, limit int) []*domain.Interaction {
	recent := make([]*domain.Interaction, len(interactions))
	copy(recent, interactions)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].InteractionDate.After(recent[j].InteractionDate)
	})
	if limit < len(recent) {
		recent = recent[:limit]
	}
	return recent
}

// countActiveStatus counts customers whose status is ACTIVE. This is distinct
// from the dashboard report's sale-recency notion of active.
func countActiveStatus(customers []*domain.Customer) int {
	n := 0
	for _, c := range customers {
		if c.Status == domain.CustomerActive {
			n++
		}
	}
	return n
}

func countRole(users []*domain.User, role domain.UserRole) int {
	n := 0
	for _, u := range users {
		if u.Role == role {
			n++
		}
	}
	return n
}

// countSalesThisMonth counts sales dated in now's calendar month.
func countSalesThisMonth(sales []*domain.Sale, now time.Time) int {
	year, month, _ := now.Date()
	n := 0
	for _, s := range sales {
		y, m, _ := s.SaleDate.UTC().Date()
		if y == year && m == month {
			n++
		}
	}
	return n
}

func groupInteractionsByType(interactions []*domain.Interaction) map[string]int {
	grouped := make(map[string]int)
	for _, i := range interactions {
		grouped[string(i.Type)]++
	}
	return grouped
}

// lastActivityDate is the later of the newest sale date and the newest
// interaction date. Missing dates count as the zero time, so a customer with
// only interactions still yields a valid answer.
func lastActivityDate(sales []*domain.Sale, interactions []*domain.Interaction) time.Time {
	var last time.Time
	for _, s := range sales {
		if s.SaleDate.After(last) {
			last = s.SaleDate
		}
	}
	for _, i := range interactions {
		if i.InteractionDate.After(last) {
			last = i.InteractionDate
		}
	}
	return last
}

// classifyCustomerValue buckets a customer by revenue and engagement. The
// HIGH check runs first and short-circuits MEDIUM; thresholds are fixed.
func classifyCustomerValue(revenue decimal.Decimal, interactionCount int) string {
	switch {
	case revenue.GreaterThan(decimal.NewFromInt(10000)) && interactionCount > 5:
		return ports.HighValue
	case revenue.GreaterThan(decimal.NewFromInt(5000)) || interactionCount > 3:
		return ports.MediumValue
	default:
		return ports.LowValue
	}
}

// groupSalesByMonth counts sales per calendar month label ("JANUARY", ...).
func groupSalesByMonth(sales []*domain.Sale) map[string]int {
	byMonth := make(map[string]int)
	for _, s := range sales {
		byMonth[strings.ToUpper(s.SaleDate.Month().String())]++
	}
	return byMonth
}

// topSales ranks sales by amount descending; ties keep input order.
func topSales(sales []*domain.Sale, limit int) []*domain.Sale {
	top := make([]*domain.Sale, len(sales))
	copy(top, sales)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount.GreaterThan(top[j].Amount)
	})
	if limit < len(top) {
		top = top[:limit]
	}
	return top
}
