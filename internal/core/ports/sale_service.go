package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// CreateSaleInput carries the data needed to record a new sale. Status and
// SaleDate are optional; when nil the service defaults them to COMPLETED and
// the current time.
type CreateSaleInput struct {
	Amount      decimal.Decimal
	SaleDate    *time.Time
	Status      *domain.SaleStatus
	Description string
	CustomerID  string
	SalesRepID  string
}

// UpdateSalePatch is a partial update: nil fields are left unchanged.
// Unspecified is distinct from explicitly cleared, so every field is a pointer.
type UpdateSalePatch struct {
	Amount      *decimal.Decimal
	SaleDate    *time.Time
	Status      *domain.SaleStatus
	Description *string
	CustomerID  *string
	SalesRepID  *string
}

// SaleService is the purchase-ledger engine. The three mutating operations
// are the sole legitimate path for adjusting a customer's TotalPurchaseValue,
// and each executes as one atomic transaction.
type SaleService interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*domain.Sale, error)
	UpdateSale(ctx context.Context, id string, patch UpdateSalePatch) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error

	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]*domain.Sale, error)
	ListSalesByCustomer(ctx context.Context, customerID string) ([]*domain.Sale, error)
	ListSalesByRep(ctx context.Context, repID string) ([]*domain.Sale, error)
	ListSalesByStatus(ctx context.Context, status domain.SaleStatus) ([]*domain.Sale, error)

	MarkCompleted(ctx context.Context, id string) (*domain.Sale, error)
	MarkCanceled(ctx context.Context, id string) (*domain.Sale, error)
	MarkPending(ctx context.Context, id string) (*domain.Sale, error)
	UpdateStatus(ctx context.Context, id string, status domain.SaleStatus) (*domain.Sale, error)
}
