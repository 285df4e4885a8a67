package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type ledgerFixture struct {
	svc       *SaleService
	customers *stubCustomerRepo
	sales     *stubSaleRepo
	users     *stubUserRepo
	tx        *stubTxRunner
	customer  *domain.Customer
	rep       *domain.User
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	customers := newStubCustomerRepo()
	sales := newStubSaleRepo()
	users := newStubUserRepo()
	tx := &stubTxRunner{}

	customer, err := customers.Insert(context.Background(), &domain.Customer{
		FirstName:          "Ada",
		LastName:           "Lovelace",
		Email:              "ada@example.com",
		Status:             domain.CustomerActive,
		TotalPurchaseValue: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	rep, err := users.Insert(context.Background(), &domain.User{
		UserName: "rep1",
		Role:     domain.RoleSalesRep,
		Status:   domain.UserActive,
	})
	if err != nil {
		t.Fatalf("seed rep: %v", err)
	}

	return &ledgerFixture{
		svc:       NewSaleService(sales, customers, users, tx, discardLogger),
		customers: customers,
		sales:     sales,
		users:     users,
		tx:        tx,
		customer:  customer,
		rep:       rep,
	}
}

func (f *ledgerFixture) customerTotal(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	c, err := f.customers.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("customer %s: %v", id, err)
	}
	return c.TotalPurchaseValue
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createInput(f *ledgerFixture, amount string) ports.CreateSaleInput {
	return ports.CreateSaleInput{
		Amount:     dec(amount),
		CustomerID: f.customer.ID,
		SalesRepID: f.rep.ID,
	}
}

// ---------------------------------------------------------------------------
// CreateSale
// ---------------------------------------------------------------------------

func TestSaleService_Create_AddsAmountToCustomerTotal(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "250.75"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("250.75")) {
		t.Errorf("customer total = %s, want 250.75", got)
	}
	if sale.Status != domain.SaleCompleted {
		t.Errorf("default status = %s, want COMPLETED", sale.Status)
	}
	if sale.SaleDate.IsZero() {
		t.Error("sale date must default to now, not zero")
	}
	if f.tx.calls != 1 {
		t.Errorf("expected 1 transaction, got %d", f.tx.calls)
	}
}

func TestSaleService_Create_PendingSaleStillCounts(t *testing.T) {
	f := newLedgerFixture(t)

	input := createInput(f, "100")
	pending := domain.SalePending
	input.Status = &pending

	if _, err := f.svc.CreateSale(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Amount contributes to the total regardless of status.
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("100")) {
		t.Errorf("customer total = %s, want 100", got)
	}
}

func TestSaleService_Create_ExplicitDateAndStatusKept(t *testing.T) {
	f := newLedgerFixture(t)

	when := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	canceled := domain.SaleCanceled
	input := createInput(f, "10")
	input.SaleDate = &when
	input.Status = &canceled

	sale, err := f.svc.CreateSale(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sale.SaleDate.Equal(when) {
		t.Errorf("sale date = %s, want %s", sale.SaleDate, when)
	}
	if sale.Status != domain.SaleCanceled {
		t.Errorf("status = %s, want CANCELED", sale.Status)
	}
}

func TestSaleService_Create_UnknownCustomer(t *testing.T) {
	f := newLedgerFixture(t)

	input := createInput(f, "50")
	input.CustomerID = "cust-missing"

	_, err := f.svc.CreateSale(context.Background(), input)
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if len(f.sales.byID) != 0 {
		t.Error("no sale should be stored when the customer is unknown")
	}
}

func TestSaleService_Create_UnknownSalesRep(t *testing.T) {
	f := newLedgerFixture(t)

	input := createInput(f, "50")
	input.SalesRepID = "user-missing"

	_, err := f.svc.CreateSale(context.Background(), input)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	// The customer total must not change when the rep lookup fails.
	if got := f.customerTotal(t, f.customer.ID); !got.IsZero() {
		t.Errorf("customer total = %s, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// DeleteSale
// ---------------------------------------------------------------------------

func TestSaleService_Delete_RestoresTotalExactly(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "123.45"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.DeleteSale(context.Background(), sale.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := f.customerTotal(t, f.customer.ID); !got.IsZero() {
		t.Errorf("create-then-delete must restore the total exactly, got %s", got)
	}
	if _, err := f.sales.FindByID(context.Background(), sale.ID); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Error("sale must be gone after delete")
	}
}

func TestSaleService_Delete_UnknownSale(t *testing.T) {
	f := newLedgerFixture(t)

	err := f.svc.DeleteSale(context.Background(), "sale-missing")
	if !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
}

func TestSaleService_Delete_MissingCustomerIsLedgerInconsistency(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "75"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate an out-of-band customer removal.
	delete(f.customers.byID, f.customer.ID)

	err = f.svc.DeleteSale(context.Background(), sale.ID)
	if !errors.Is(err, domain.ErrLedgerInconsistent) {
		t.Fatalf("expected ErrLedgerInconsistent, got %v", err)
	}
	// No silent repair: the sale must survive the failed delete.
	if _, err := f.sales.FindByID(context.Background(), sale.ID); err != nil {
		t.Error("sale must remain when the ledger is inconsistent")
	}
}

// ---------------------------------------------------------------------------
// UpdateSale: amount changes
// ---------------------------------------------------------------------------

func TestSaleService_Update_AmountRebalancesTotal(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "50"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAmount := dec("150")
	updated, err := f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{Amount: &newAmount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !updated.Amount.Equal(newAmount) {
		t.Errorf("sale amount = %s, want 150", updated.Amount)
	}
	// total − old + new = 0 − 50 + 150... starting from 50 → 150.
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("150")) {
		t.Errorf("customer total = %s, want 150", got)
	}
}

func TestSaleService_Update_AmountPreservesUnrelatedContributions(t *testing.T) {
	f := newLedgerFixture(t)

	if _, err := f.svc.CreateSale(context.Background(), createInput(f, "200")); err != nil {
		t.Fatalf("create: %v", err)
	}
	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "50"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newAmount := dec("80")
	if _, err := f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// 200 stays, 50 → 80.
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("280")) {
		t.Errorf("customer total = %s, want 280", got)
	}
}

func TestSaleService_Update_AmountOnMissingCustomer(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "50"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	delete(f.customers.byID, f.customer.ID)

	newAmount := dec("60")
	_, err = f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{Amount: &newAmount})
	if !errors.Is(err, domain.ErrLedgerInconsistent) {
		t.Fatalf("expected ErrLedgerInconsistent, got %v", err)
	}

	// The sale keeps its old amount when the rebalance fails.
	stored, _ := f.sales.FindByID(context.Background(), sale.ID)
	if !stored.Amount.Equal(dec("50")) {
		t.Errorf("sale amount = %s, want unchanged 50", stored.Amount)
	}
}

// ---------------------------------------------------------------------------
// UpdateSale: customer reassignment
// ---------------------------------------------------------------------------

func TestSaleService_Update_ReassignMovesAmountBetweenCustomers(t *testing.T) {
	f := newLedgerFixture(t)

	// Customer A carries 100 total: this sale's 30 plus an unrelated 70.
	if _, err := f.svc.CreateSale(context.Background(), createInput(f, "70")); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "30"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other, err := f.customers.Insert(context.Background(), &domain.Customer{
		FirstName:          "Grace",
		LastName:           "Hopper",
		Email:              "grace@example.com",
		Status:             domain.CustomerActive,
		TotalPurchaseValue: dec("50"),
	})
	if err != nil {
		t.Fatalf("seed other customer: %v", err)
	}

	updated, err := f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{CustomerID: &other.ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.CustomerID != other.ID {
		t.Errorf("sale customer = %s, want %s", updated.CustomerID, other.ID)
	}
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("70")) {
		t.Errorf("old customer total = %s, want 70", got)
	}
	if got := f.customerTotal(t, other.ID); !got.Equal(dec("80")) {
		t.Errorf("new customer total = %s, want 80", got)
	}
}

func TestSaleService_Update_ReassignToSameCustomerIsNoOp(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "40"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	same := f.customer.ID
	if _, err := f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{CustomerID: &same}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("40")) {
		t.Errorf("customer total = %s, want unchanged 40", got)
	}
}

func TestSaleService_Update_ReassignToUnknownCustomer(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "40"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	missing := "cust-missing"
	_, err = f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{CustomerID: &missing})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestSaleService_Update_AmountAndReassignTogether(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "30"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := f.customers.Insert(context.Background(), &domain.Customer{
		Email:              "other@example.com",
		Status:             domain.CustomerActive,
		TotalPurchaseValue: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("seed other customer: %v", err)
	}

	// The amount change lands first, then the new amount moves.
	newAmount := dec("90")
	_, err = f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{
		Amount:     &newAmount,
		CustomerID: &other.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := f.customerTotal(t, f.customer.ID); !got.IsZero() {
		t.Errorf("old customer total = %s, want 0", got)
	}
	if got := f.customerTotal(t, other.ID); !got.Equal(dec("90")) {
		t.Errorf("new customer total = %s, want 90", got)
	}
}

// ---------------------------------------------------------------------------
// UpdateSale: ledger-neutral fields
// ---------------------------------------------------------------------------

func TestSaleService_Update_StatusOnlyLeavesLedgerUntouched(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "500"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	canceled := domain.SaleCanceled
	desc := "cancelled by customer request"
	updated, err := f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{
		Status:      &canceled,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Status != domain.SaleCanceled {
		t.Errorf("status = %s, want CANCELED", updated.Status)
	}
	if updated.Description != desc {
		t.Errorf("description = %q, want %q", updated.Description, desc)
	}
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("500")) {
		t.Errorf("customer total = %s, want unchanged 500", got)
	}
}

func TestSaleService_Update_UnknownRep(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "10"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	missing := "user-missing"
	_, err = f.svc.UpdateSale(context.Background(), sale.ID, ports.UpdateSalePatch{SalesRepID: &missing})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Status operations
// ---------------------------------------------------------------------------

func TestSaleService_UpdateStatus_NoTransitionGraph(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "10"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Any status may overwrite any other, including going backwards.
	if _, err := f.svc.MarkCanceled(context.Background(), sale.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.MarkPending(context.Background(), sale.ID); err != nil {
		t.Fatalf("pending after canceled: %v", err)
	}
	got, err := f.svc.MarkCompleted(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != domain.SaleCompleted {
		t.Errorf("status = %s, want COMPLETED", got.Status)
	}
}

func TestSaleService_UpdateStatus_SameStatusSucceeds(t *testing.T) {
	f := newLedgerFixture(t)

	sale, err := f.svc.CreateSale(context.Background(), createInput(f, "10"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before, _ := f.sales.FindByID(context.Background(), sale.ID)
	got, err := f.svc.UpdateStatus(context.Background(), sale.ID, before.Status)
	if err != nil {
		t.Fatalf("same-status update must succeed: %v", err)
	}
	if got.UpdatedAt.Before(before.UpdatedAt) {
		t.Error("UpdatedAt must be bumped even for a same-status update")
	}
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

func TestSaleService_ListByCustomer_UnknownCustomer(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.ListSalesByCustomer(context.Background(), "cust-missing")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestSaleService_ListByRep_UnknownRep(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.ListSalesByRep(context.Background(), "user-missing")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// End to end
// ---------------------------------------------------------------------------

func TestSaleService_LedgerRoundTrip(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateSale(ctx, createInput(f, "200"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := f.svc.CreateSale(ctx, createInput(f, "300"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("500")) {
		t.Fatalf("after creates total = %s, want 500", got)
	}

	newAmount := dec("100")
	if _, err := f.svc.UpdateSale(ctx, second.ID, ports.UpdateSalePatch{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := f.customerTotal(t, f.customer.ID); !got.Equal(dec("300")) {
		t.Fatalf("after amount change total = %s, want 300", got)
	}

	if err := f.svc.DeleteSale(ctx, first.ID); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	if err := f.svc.DeleteSale(ctx, second.ID); err != nil {
		t.Fatalf("delete second: %v", err)
	}
	if got := f.customerTotal(t, f.customer.ID); !got.IsZero() {
		t.Fatalf("after deletes total = %s, want 0", got)
	}
}
