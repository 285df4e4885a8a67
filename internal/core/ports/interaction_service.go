package ports

import (
	"context"
	"time"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// CreateInteractionInput carries the data needed to log a customer touchpoint.
// Type defaults to EMAIL and InteractionDate to the current time when nil.
type CreateInteractionInput struct {
	Type            *domain.InteractionType
	InteractionDate *time.Time
	Notes           string
	CustomerID      string
	PerformedByID   string
}

// UpdateInteractionPatch is a partial update: nil fields are left unchanged.
type UpdateInteractionPatch struct {
	Type            *domain.InteractionType
	InteractionDate *time.Time
	Notes           *string
	CustomerID      *string
	PerformedByID   *string
}

// InteractionService defines use-case operations for customer interactions.
type InteractionService interface {
	CreateInteraction(ctx context.Context, input CreateInteractionInput) (*domain.Interaction, error)
	GetInteraction(ctx context.Context, id string) (*domain.Interaction, error)
	ListInteractions(ctx context.Context) ([]*domain.Interaction, error)
	ListInteractionsByCustomer(ctx context.Context, customerID string) ([]*domain.Interaction, error)
	ListInteractionsByUser(ctx context.Context, userID string) ([]*domain.Interaction, error)
	ListInteractionsByType(ctx context.Context, t domain.InteractionType) ([]*domain.Interaction, error)
	ListRecentInteractions(ctx context.Context, limit int) ([]*domain.Interaction, error)
	UpdateInteraction(ctx context.Context, id string, patch UpdateInteractionPatch) (*domain.Interaction, error)
	DeleteInteraction(ctx context.Context, id string) error
	CountInteractions(ctx context.Context) (int64, error)
}
