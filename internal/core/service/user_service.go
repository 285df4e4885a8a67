package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

type UserService struct {
	users        ports.UserRepository
	sales        ports.SaleRepository
	interactions ports.InteractionRepository
	log          zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	sales ports.SaleRepository,
	interactions ports.InteractionRepository,
	log zerolog.Logger,
) *UserService {
	return &UserService{users: users, sales: sales, interactions: interactions, log: log}
}

// CreateUser registers a staff account. The username must be unique, the
// password is bcrypt-hashed, and the role defaults to SALES_REP.
func (s *UserService) CreateUser(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	if _, err := s.users.FindByUserName(ctx, input.UserName); err == nil {
		return nil, fmt.Errorf("create user %s: %w", input.UserName, domain.ErrUserNameExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if input.ManagerID != "" {
		if _, err := s.users.FindByID(ctx, input.ManagerID); err != nil {
			return nil, fmt.Errorf("create user: manager %s: %w", input.ManagerID, err)
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		UserName:     input.UserName,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         domain.RoleSalesRep,
		Status:       domain.UserActive,
		ManagerID:    input.ManagerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	created, err := s.users.Insert(ctx, user)
	if err != nil {
		s.log.Error().Err(err).Str("user_name", input.UserName).Msg("failed to create user")
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("user_name", created.UserName).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) GetUserByUserName(ctx context.Context, userName string) (*domain.User, error) {
	return s.users.FindByUserName(ctx, userName)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.FindAll(ctx)
}

// UpdateUser applies a partial patch. A non-nil empty ManagerID clears the
// manager reference; a non-empty one must resolve.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch ports.UpdateUserPatch) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	if patch.ManagerID != nil {
		if *patch.ManagerID != "" {
			if _, err := s.users.FindByID(ctx, *patch.ManagerID); err != nil {
				return nil, fmt.Errorf("update user %s: manager %s: %w", id, *patch.ManagerID, err)
			}
		}
		user.ManagerID = *patch.ManagerID
	}
	if patch.Password != nil && strings.TrimSpace(*patch.Password) != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	s.log.Info().Str("user_id", id).Msg("user updated")
	return user, nil
}

// DeleteUser removes the account and blanks every reference to it: the
// manager reference on subordinates, the rep reference on sales, and the
// performer reference on interactions. The referencing records are kept.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if err := s.users.ClearManager(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: clear subordinates: %w", id, err)
	}
	if err := s.sales.ClearSalesRep(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: clear sales: %w", id, err)
	}
	if err := s.interactions.ClearPerformedBy(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: clear interactions: %w", id, err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// ActivateUser and DeactivateUser are plain status flips: unlike customer
// deactivation there is no idempotency guard.
func (s *UserService) ActivateUser(ctx context.Context, id string) (*domain.User, error) {
	return s.setStatus(ctx, id, domain.UserActive)
}

func (s *UserService) DeactivateUser(ctx context.Context, id string) (*domain.User, error) {
	return s.setStatus(ctx, id, domain.UserInactive)
}

func (s *UserService) setStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set user status %s: %w", id, err)
	}

	oldStatus := user.Status
	user.Status = status
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("set user status %s: %w", id, err)
	}

	s.log.Info().Str("user_id", id).Str("from", string(oldStatus)).Str("to", string(status)).Msg("user status changed")
	return user, nil
}
