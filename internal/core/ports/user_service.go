package ports

import (
	"context"

	"github.com/fieldline/crm-system/internal/core/domain"
)

// CreateUserInput carries the data needed to register a staff account.
// Role is optional and defaults to SALES_REP.
type CreateUserInput struct {
	UserName  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      *domain.UserRole
	ManagerID string
}

// UpdateUserPatch is a partial update: nil fields are left unchanged.
// A non-nil empty ManagerID clears the manager reference.
type UpdateUserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *domain.UserRole
	Status    *domain.UserStatus
	ManagerID *string
}

// UserService defines use-case operations for staff accounts.
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUserName(ctx context.Context, userName string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch UpdateUserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ActivateUser(ctx context.Context, id string) (*domain.User, error)
	DeactivateUser(ctx context.Context, id string) (*domain.User, error)
}

// AuthService authenticates staff and issues access tokens.
type AuthService interface {
	Login(ctx context.Context, userName, password string) (string, *domain.User, error)
}
