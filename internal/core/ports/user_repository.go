package ports

import (
	"context"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// UserRepository defines persistence operations for staff accounts.
// Lookups return domain.ErrUserNotFound when the identifier does not resolve.
type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUserName(ctx context.Context, userName string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	// ClearManager removes the manager reference from every user reporting to
	// managerID. Used when the manager is deleted; subordinates are kept.
	ClearManager(ctx context.Context, managerID string) error
}
