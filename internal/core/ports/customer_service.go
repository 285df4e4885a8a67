package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// CreateCustomerInput carries the data needed to register a customer.
// New customers always start ACTIVE with a zero purchase total.
type CreateCustomerInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Company     string
	Address     string
}

// UpdateCustomerPatch is a partial update: nil fields are left unchanged.
// TotalPurchaseValue is an explicit admin override of the aggregate; routine
// ledger adjustments go through SaleService only.
type UpdateCustomerPatch struct {
	FirstName          *string
	LastName           *string
	Email              *string
	PhoneNumber        *string
	Company            *string
	Address            *string
	Status             *domain.CustomerStatus
	TotalPurchaseValue *decimal.Decimal
}

// CustomerService defines use-case operations for customers.
type CustomerService interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	ListActiveCustomers(ctx context.Context) ([]*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch UpdateCustomerPatch) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	CountCustomers(ctx context.Context) (int64, error)
	// DeactivateCustomer fails with domain.ErrCustomerAlreadyInactive when the
	// customer is already INACTIVE; repeated deactivation is a conflict, not a no-op.
	DeactivateCustomer(ctx context.Context, id string) (*domain.Customer, error)
}
