package ports

import (
	"context"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// InteractionRepository defines persistence operations for customer interactions.
// Lookups return domain.ErrInteractionNotFound when the id does not resolve.
type InteractionRepository interface {
	Insert(ctx context.Context, i *domain.Interaction) (*domain.Interaction, error)
	FindByID(ctx context.Context, id string) (*domain.Interaction, error)
	FindAll(ctx context.Context) ([]*domain.Interaction, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Interaction, error)
	FindByPerformedByID(ctx context.Context, userID string) ([]*domain.Interaction, error)
	FindByType(ctx context.Context, t domain.InteractionType) ([]*domain.Interaction, error)
	Update(ctx context.Context, i *domain.Interaction) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	// ClearCustomer and ClearPerformedBy blank the matching reference on every
	// interaction. Used when the referent is deleted; interactions are kept.
	ClearCustomer(ctx context.Context, customerID string) error
	ClearPerformedBy(ctx context.Context, userID string) error
}
