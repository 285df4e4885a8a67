package ports

import (
	"context"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// CustomerRepository defines persistence operations for customers.
// Lookups return domain.ErrCustomerNotFound when the id or email does not resolve.
type CustomerRepository interface {
	Insert(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	FindAll(ctx context.Context) ([]*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
