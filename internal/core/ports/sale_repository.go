package ports

import (
	"context"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// SaleRepository defines persistence operations for sales.
// Lookups return domain.ErrSaleNotFound when the id does not resolve.
type SaleRepository interface {
	Insert(ctx context.Context, s *domain.Sale) (*domain.Sale, error)
	FindByID(ctx context.Context, id string) (*domain.Sale, error)
	FindAll(ctx context.Context) ([]*domain.Sale, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Sale, error)
	FindBySalesRepID(ctx context.Context, repID string) ([]*domain.Sale, error)
	FindByStatus(ctx context.Context, status domain.SaleStatus) ([]*domain.Sale, error)
	Update(ctx context.Context, s *domain.Sale) error
	Delete(ctx context.Context, id string) error
	// ClearCustomer and ClearSalesRep blank the matching reference on every
	// sale. Used when the referent is deleted; the sales themselves are kept.
	ClearCustomer(ctx context.Context, customerID string) error
	ClearSalesRep(ctx context.Context, repID string) error
}
