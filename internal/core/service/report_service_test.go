package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub cache
// ---------------------------------------------------------------------------

// stubReportCache stores JSON snapshots in memory and can be forced to fail.
type stubReportCache struct {
	entries map[string][]byte
	gets    int
	sets    int
	failAll bool
}

func newStubReportCache() *stubReportCache {
	return &stubReportCache{entries: make(map[string][]byte)}
}

func (c *stubReportCache) Get(_ context.Context, key string, v any) (bool, error) {
	c.gets++
	if c.failAll {
		return false, errors.New("cache unavailable")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (c *stubReportCache) Set(_ context.Context, key string, v any) error {
	c.sets++
	if c.failAll {
		return errors.New("cache unavailable")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type reportFixture struct {
	svc          *ReportService
	customers    *stubCustomerRepo
	sales        *stubSaleRepo
	interactions *stubInteractionRepo
	users        *stubUserRepo
	cache        *stubReportCache
}

func newReportFixture(t *testing.T, cache *stubReportCache) *reportFixture {
	t.Helper()
	f := &reportFixture{
		customers:    newStubCustomerRepo(),
		sales:        newStubSaleRepo(),
		interactions: newStubInteractionRepo(),
		users:        newStubUserRepo(),
		cache:        cache,
	}
	var rc ReportCache
	if cache != nil {
		rc = cache
	}
	f.svc = NewReportService(f.customers, f.sales, f.interactions, f.users, rc, discardLogger)
	return f
}

func (f *reportFixture) addCustomer(t *testing.T, email string) *domain.Customer {
	t.Helper()
	c, err := f.customers.Insert(context.Background(), &domain.Customer{
		Email:              email,
		Status:             domain.CustomerActive,
		TotalPurchaseValue: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func (f *reportFixture) addSale(t *testing.T, customerID, amount string, when time.Time) *domain.Sale {
	t.Helper()
	s, err := f.sales.Insert(context.Background(), &domain.Sale{
		Amount:     decimal.RequireFromString(amount),
		SaleDate:   when,
		Status:     domain.SaleCompleted,
		CustomerID: customerID,
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return s
}

func (f *reportFixture) addInteraction(t *testing.T, customerID string, typ domain.InteractionType, when time.Time) *domain.Interaction {
	t.Helper()
	i, err := f.interactions.Insert(context.Background(), &domain.Interaction{
		Type:            typ,
		InteractionDate: when,
		CustomerID:      customerID,
	})
	if err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	return i
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func TestReportService_Dashboard_AverageRounding(t *testing.T) {
	f := newReportFixture(t, nil)
	c := f.addCustomer(t, "ada@example.com")
	now := time.Now().UTC()

	f.addSale(t, c.ID, "10", now)
	f.addSale(t, c.ID, "21", now)

	report, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.TotalRevenue.Equal(decimal.RequireFromString("31")) {
		t.Errorf("total revenue = %s, want 31", report.TotalRevenue)
	}
	if report.AverageSaleValue == nil {
		t.Fatal("average must be present when sales exist")
	}
	if report.AverageSaleValue.String() != "15.5" {
		t.Errorf("average = %s, want 15.5", report.AverageSaleValue)
	}
}

func TestReportService_Dashboard_EmptyStore(t *testing.T) {
	f := newReportFixture(t, nil)

	report, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.AverageSaleValue != nil {
		t.Errorf("average = %s, want nil with no sales", report.AverageSaleValue)
	}
	if report.TotalCustomers != 0 || report.TotalSales != 0 || report.TotalInteractions != 0 {
		t.Errorf("counts must be zero: %+v", report)
	}
	if !report.TotalRevenue.IsZero() {
		t.Errorf("revenue = %s, want 0", report.TotalRevenue)
	}
}

func TestReportService_Dashboard_RecentSalesCappedNewestFirst(t *testing.T) {
	f := newReportFixture(t, nil)
	c := f.addCustomer(t, "ada@example.com")
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	var newest *domain.Sale
	for day := 0; day < 7; day++ {
		newest = f.addSale(t, c.ID, "10", base.AddDate(0, 0, day))
	}

	report, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.RecentSales) != 5 {
		t.Fatalf("recent sales = %d, want 5", len(report.RecentSales))
	}
	if report.RecentSales[0].ID != newest.ID {
		t.Errorf("first recent sale = %s, want newest %s", report.RecentSales[0].ID, newest.ID)
	}
	for i := 1; i < len(report.RecentSales); i++ {
		if report.RecentSales[i].SaleDate.After(report.RecentSales[i-1].SaleDate) {
			t.Fatalf("recent sales not in descending date order at index %d", i)
		}
	}
}

func TestReportService_Dashboard_ActiveCustomerWindow(t *testing.T) {
	f := newReportFixture(t, nil)
	now := time.Now().UTC()

	recent := f.addCustomer(t, "recent@example.com")
	stale := f.addCustomer(t, "stale@example.com")
	silent := f.addCustomer(t, "silent@example.com")

	f.addSale(t, recent.ID, "10", now.AddDate(0, -1, 0))
	f.addSale(t, stale.ID, "10", now.AddDate(0, -4, 0))
	_ = silent

	report, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ActiveCustomers != 1 {
		t.Errorf("active customers = %d, want 1 (three-month window)", report.ActiveCustomers)
	}
}

func TestReportService_Dashboard_ActivityLookupFailureDegrades(t *testing.T) {
	f := newReportFixture(t, nil)
	now := time.Now().UTC()

	healthy := f.addCustomer(t, "healthy@example.com")
	broken := f.addCustomer(t, "broken@example.com")

	f.addSale(t, healthy.ID, "10", now)
	f.addSale(t, broken.ID, "10", now)
	f.sales.findByCustomerErr[broken.ID] = errors.New("query timeout")

	report, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("one customer's failed lookup must not fail the report: %v", err)
	}
	// The broken customer counts as inactive, nothing more.
	if report.ActiveCustomers != 1 {
		t.Errorf("active customers = %d, want 1", report.ActiveCustomers)
	}
}

// ---------------------------------------------------------------------------
// Customer activity
// ---------------------------------------------------------------------------

func TestReportService_CustomerActivity_Classification(t *testing.T) {
	cases := []struct {
		name         string
		revenue      string
		interactions int
		want         string
	}{
		{"high revenue and engagement", "11000", 6, ports.HighValue},
		{"high revenue alone is medium", "11000", 1, ports.MediumValue},
		{"medium by revenue", "6000", 1, ports.MediumValue},
		{"medium by engagement", "2000", 4, ports.MediumValue},
		{"low", "1000", 1, ports.LowValue},
		{"boundary revenue is not high", "10000", 6, ports.MediumValue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newReportFixture(t, nil)
			c := f.addCustomer(t, "ada@example.com")
			now := time.Now().UTC()

			f.addSale(t, c.ID, tc.revenue, now)
			for i := 0; i < tc.interactions; i++ {
				f.addInteraction(t, c.ID, domain.InteractionCall, now)
			}

			report, err := f.svc.CustomerActivityReport(context.Background(), c.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if report.CustomerValue != tc.want {
				t.Errorf("customer value = %s, want %s", report.CustomerValue, tc.want)
			}
		})
	}
}

func TestReportService_CustomerActivity_Aggregates(t *testing.T) {
	f := newReportFixture(t, nil)
	c := f.addCustomer(t, "ada@example.com")

	saleDate := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	laterCall := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	f.addSale(t, c.ID, "120.50", saleDate)
	f.addSale(t, c.ID, "79.50", saleDate)
	f.addInteraction(t, c.ID, domain.InteractionCall, laterCall)
	f.addInteraction(t, c.ID, domain.InteractionEmail, saleDate)
	f.addInteraction(t, c.ID, domain.InteractionEmail, saleDate)

	report, err := f.svc.CustomerActivityReport(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.TotalRevenue.Equal(decimal.RequireFromString("200")) {
		t.Errorf("revenue = %s, want 200", report.TotalRevenue)
	}
	if report.TotalSales != 2 || report.TotalInteractions != 3 {
		t.Errorf("counts = %d sales / %d interactions, want 2/3", report.TotalSales, report.TotalInteractions)
	}
	if report.InteractionsByType["CALL"] != 1 || report.InteractionsByType["EMAIL"] != 2 {
		t.Errorf("interactions by type = %v", report.InteractionsByType)
	}
	// Last activity is the later of newest sale and newest interaction.
	if !report.LastActivity.Equal(laterCall) {
		t.Errorf("last activity = %s, want %s", report.LastActivity, laterCall)
	}
}

func TestReportService_CustomerActivity_UnknownCustomer(t *testing.T) {
	f := newReportFixture(t, nil)

	_, err := f.svc.CustomerActivityReport(context.Background(), "cust-missing")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Sales trends
// ---------------------------------------------------------------------------

func TestReportService_SalesTrends_MonthLabelsAndTopSales(t *testing.T) {
	f := newReportFixture(t, nil)
	c := f.addCustomer(t, "ada@example.com")

	jan := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)

	f.addSale(t, c.ID, "10", jan)
	f.addSale(t, c.ID, "300", jan)
	big := f.addSale(t, c.ID, "500", feb)

	report, err := f.svc.SalesTrendsReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.SalesByMonth["JANUARY"] != 2 || report.SalesByMonth["FEBRUARY"] != 1 {
		t.Errorf("sales by month = %v", report.SalesByMonth)
	}
	if len(report.TopPerformingSales) != 3 {
		t.Fatalf("top sales = %d, want 3", len(report.TopPerformingSales))
	}
	if report.TopPerformingSales[0].ID != big.ID {
		t.Errorf("top sale = %s, want %s", report.TopPerformingSales[0].ID, big.ID)
	}
	if !report.TotalRevenue.Equal(decimal.RequireFromString("810")) {
		t.Errorf("revenue = %s, want 810", report.TotalRevenue)
	}
}

func TestReportService_SalesTrends_EqualAmountsKeepStorageOrder(t *testing.T) {
	f := newReportFixture(t, nil)
	c := f.addCustomer(t, "ada@example.com")
	now := time.Now().UTC()

	first := f.addSale(t, c.ID, "100", now)
	second := f.addSale(t, c.ID, "100", now)

	report, err := f.svc.SalesTrendsReport(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TopPerformingSales[0].ID != first.ID || report.TopPerformingSales[1].ID != second.ID {
		t.Errorf("equal amounts must keep storage order, got [%s %s]",
			report.TopPerformingSales[0].ID, report.TopPerformingSales[1].ID)
	}
}

// ---------------------------------------------------------------------------
// User dashboard
// ---------------------------------------------------------------------------

func (f *reportFixture) addUser(t *testing.T, userName string, role domain.UserRole) *domain.User {
	t.Helper()
	u, err := f.users.Insert(context.Background(), &domain.User{
		UserName: userName,
		Role:     role,
		Status:   domain.UserActive,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestReportService_UserDashboard_Admin(t *testing.T) {
	f := newReportFixture(t, nil)
	now := time.Now().UTC()

	f.addUser(t, "admin", domain.RoleAdmin)
	f.addUser(t, "mgr", domain.RoleManager)
	f.addUser(t, "rep1", domain.RoleSalesRep)
	f.addUser(t, "rep2", domain.RoleSalesRep)

	active := f.addCustomer(t, "active@example.com")
	if _, err := f.customers.Insert(context.Background(), &domain.Customer{
		Email:  "inactive@example.com",
		Status: domain.CustomerInactive,
	}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	f.addSale(t, active.ID, "10", now)
	f.addInteraction(t, active.ID, domain.InteractionCall, now)

	d, err := f.svc.UserDashboard(context.Background(), "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.DashboardType != ports.AdminOverview {
		t.Errorf("dashboard type = %s, want ADMIN_OVERVIEW", d.DashboardType)
	}
	if d.UserName != "admin" || d.Role != domain.RoleAdmin {
		t.Errorf("user fields = %s/%s", d.UserName, d.Role)
	}
	want := map[string]int{
		"total_customers":    2,
		"active_customers":   1,
		"total_sales":        1,
		"total_users":        4,
		"total_interactions": 1,
		"admin_users":        1,
		"manager_users":      1,
		"sales_rep_users":    2,
		"support_users":      0,
	}
	for key, n := range want {
		if d.Metrics[key] != n {
			t.Errorf("metric %s = %d, want %d", key, d.Metrics[key], n)
		}
	}
}

func TestReportService_UserDashboard_Manager(t *testing.T) {
	f := newReportFixture(t, nil)
	now := time.Now().UTC()

	f.addUser(t, "mgr", domain.RoleManager)
	f.addUser(t, "rep1", domain.RoleSalesRep)
	c := f.addCustomer(t, "ada@example.com")
	f.addSale(t, c.ID, "10", now)
	for i := 0; i < 7; i++ {
		f.addInteraction(t, c.ID, domain.InteractionEmail, now)
	}

	d, err := f.svc.UserDashboard(context.Background(), "mgr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.DashboardType != ports.ManagerOverview {
		t.Errorf("dashboard type = %s, want MANAGER_OVERVIEW", d.DashboardType)
	}
	if d.Metrics["total_sales_reps"] != 1 {
		t.Errorf("total_sales_reps = %d, want 1", d.Metrics["total_sales_reps"])
	}
	if d.Metrics["total_interactions"] != 7 {
		t.Errorf("total_interactions = %d, want 7", d.Metrics["total_interactions"])
	}
	// Recent interactions cap at five.
	if d.Metrics["recent_interactions"] != 5 {
		t.Errorf("recent_interactions = %d, want 5", d.Metrics["recent_interactions"])
	}
}

func TestReportService_UserDashboard_SalesRepScoped(t *testing.T) {
	f := newReportFixture(t, nil)
	now := time.Now().UTC()

	rep := f.addUser(t, "rep1", domain.RoleSalesRep)
	other := f.addUser(t, "rep2", domain.RoleSalesRep)
	c := f.addCustomer(t, "ada@example.com")

	lastMonth := now.AddDate(0, -1, 0)
	for _, s := range []*domain.Sale{
		{Amount: decimal.RequireFromString("10"), SaleDate: now, CustomerID: c.ID, SalesRepID: rep.ID},
		{Amount: decimal.RequireFromString("20"), SaleDate: lastMonth, CustomerID: c.ID, SalesRepID: rep.ID},
		{Amount: decimal.RequireFromString("30"), SaleDate: now, CustomerID: c.ID, SalesRepID: other.ID},
	} {
		if _, err := f.sales.Insert(context.Background(), s); err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}
	if _, err := f.interactions.Insert(context.Background(), &domain.Interaction{
		Type: domain.InteractionCall, InteractionDate: now, CustomerID: c.ID, PerformedByID: rep.ID,
	}); err != nil {
		t.Fatalf("seed interaction: %v", err)
	}

	d, err := f.svc.UserDashboard(context.Background(), "rep1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.DashboardType != ports.SalesRepPerformance {
		t.Errorf("dashboard type = %s, want SALES_REP_PERFORMANCE", d.DashboardType)
	}
	// Only this rep's sales count, and only the current calendar month's
	// sales count toward sales_this_month.
	if d.Metrics["my_sales"] != 2 {
		t.Errorf("my_sales = %d, want 2", d.Metrics["my_sales"])
	}
	if d.Metrics["sales_this_month"] != 1 {
		t.Errorf("sales_this_month = %d, want 1", d.Metrics["sales_this_month"])
	}
	if d.Metrics["my_interactions"] != 1 {
		t.Errorf("my_interactions = %d, want 1", d.Metrics["my_interactions"])
	}
	if d.Metrics["total_customers"] != 1 {
		t.Errorf("total_customers = %d, want 1", d.Metrics["total_customers"])
	}
}

func TestReportService_UserDashboard_Support(t *testing.T) {
	f := newReportFixture(t, nil)
	now := time.Now().UTC()

	sup := f.addUser(t, "helpdesk", domain.RoleSupport)
	c := f.addCustomer(t, "ada@example.com")

	if _, err := f.interactions.Insert(context.Background(), &domain.Interaction{
		Type: domain.InteractionSupportTicket, InteractionDate: now, CustomerID: c.ID, PerformedByID: sup.ID,
	}); err != nil {
		t.Fatalf("seed interaction: %v", err)
	}
	f.addInteraction(t, c.ID, domain.InteractionEmail, now)

	d, err := f.svc.UserDashboard(context.Background(), "helpdesk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.DashboardType != ports.SupportOverview {
		t.Errorf("dashboard type = %s, want SUPPORT_OVERVIEW", d.DashboardType)
	}
	if d.Metrics["my_interactions"] != 1 {
		t.Errorf("my_interactions = %d, want 1", d.Metrics["my_interactions"])
	}
	if d.Metrics["total_interactions"] != 2 {
		t.Errorf("total_interactions = %d, want 2", d.Metrics["total_interactions"])
	}
}

func TestReportService_UserDashboard_UnknownUser(t *testing.T) {
	f := newReportFixture(t, nil)

	_, err := f.svc.UserDashboard(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Caching
// ---------------------------------------------------------------------------

func TestReportService_Dashboard_CacheHitSkipsRecompute(t *testing.T) {
	cache := newStubReportCache()
	f := newReportFixture(t, cache)
	c := f.addCustomer(t, "ada@example.com")
	f.addSale(t, c.ID, "100", time.Now().UTC())

	first, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("first report: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	// New data after the snapshot: a cache hit must return the stale copy.
	f.addSale(t, c.ID, "900", time.Now().UTC())

	second, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if second.TotalSales != first.TotalSales {
		t.Errorf("cached report recomputed: total sales %d, want %d", second.TotalSales, first.TotalSales)
	}
	if !second.TotalRevenue.Equal(first.TotalRevenue) {
		t.Errorf("cached revenue = %s, want %s", second.TotalRevenue, first.TotalRevenue)
	}
}

func TestReportService_Dashboard_CacheFailureDegradesToRecompute(t *testing.T) {
	cache := newStubReportCache()
	cache.failAll = true
	f := newReportFixture(t, cache)
	c := f.addCustomer(t, "ada@example.com")
	f.addSale(t, c.ID, "100", time.Now().UTC())

	report, err := f.svc.DashboardReport(context.Background())
	if err != nil {
		t.Fatalf("cache failure must not fail the report: %v", err)
	}
	if report.TotalSales != 1 {
		t.Errorf("total sales = %d, want 1", report.TotalSales)
	}
}

func TestReportService_NilCacheIsOptional(t *testing.T) {
	f := newReportFixture(t, nil)
	c := f.addCustomer(t, "ada@example.com")
	f.addSale(t, c.ID, "100", time.Now().UTC())

	if _, err := f.svc.DashboardReport(context.Background()); err != nil {
		t.Fatalf("nil cache dashboard: %v", err)
	}
	if _, err := f.svc.SalesTrendsReport(context.Background()); err != nil {
		t.Fatalf("nil cache trends: %v", err)
	}
}
