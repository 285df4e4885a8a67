package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

type InteractionService struct {
	interactions ports.InteractionRepository
	customers    ports.CustomerRepository
	users        ports.UserRepository
	log          zerolog.Logger
}

func NewInteractionService(
	interactions ports.InteractionRepository,
	customers ports.CustomerRepository,
	users ports.UserRepository,
	log zerolog.Logger,
) *InteractionService {
	return &InteractionService{interactions: interactions, customers: customers, users: users, log: log}
}

// CreateInteraction logs a customer touchpoint. Type defaults to EMAIL and
// the interaction date to now. Interactions never affect the purchase ledger.
func (s *InteractionService) CreateInteraction(ctx context.Context, input ports.CreateInteractionInput) (*domain.Interaction, error) {
	if _, err := s.customers.FindByID(ctx, input.CustomerID); err != nil {
		return nil, fmt.Errorf("create interaction: customer %s: %w", input.CustomerID, err)
	}
	if _, err := s.users.FindByID(ctx, input.PerformedByID); err != nil {
		return nil, fmt.Errorf("create interaction: user %s: %w", input.PerformedByID, err)
	}

	now := time.Now().UTC()
	interaction := &domain.Interaction{
		Type:            domain.InteractionEmail,
		InteractionDate: now,
		Notes:           input.Notes,
		CustomerID:      input.CustomerID,
		PerformedByID:   input.PerformedByID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.Type != nil {
		interaction.Type = *input.Type
	}
	if input.InteractionDate != nil {
		interaction.InteractionDate = *input.InteractionDate
	}

	created, err := s.interactions.Insert(ctx, interaction)
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", input.CustomerID).Msg("failed to create interaction")
		return nil, err
	}

	s.log.Info().Str("interaction_id", created.ID).Str("type", string(created.Type)).Msg("interaction created")
	return created, nil
}

func (s *InteractionService) GetInteraction(ctx context.Context, id string) (*domain.Interaction, error) {
	return s.interactions.FindByID(ctx, id)
}

func (s *InteractionService) ListInteractions(ctx context.Context) ([]*domain.Interaction, error) {
	return s.interactions.FindAll(ctx)
}

// ListInteractionsByCustomer requires the customer to resolve.
func (s *InteractionService) ListInteractionsByCustomer(ctx context.Context, customerID string) ([]*domain.Interaction, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, fmt.Errorf("list interactions: customer %s: %w", customerID, err)
	}
	return s.interactions.FindByCustomerID(ctx, customerID)
}

// ListInteractionsByUser requires the performing user to resolve.
func (s *InteractionService) ListInteractionsByUser(ctx context.Context, userID string) ([]*domain.Interaction, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("list interactions: user %s: %w", userID, err)
	}
	return s.interactions.FindByPerformedByID(ctx, userID)
}

func (s *InteractionService) ListInteractionsByType(ctx context.Context, t domain.InteractionType) ([]*domain.Interaction, error) {
	return s.interactions.FindByType(ctx, t)
}

// ListRecentInteractions returns the latest interactions by date, newest first.
func (s *InteractionService) ListRecentInteractions(ctx context.Context, limit int) ([]*domain.Interaction, error) {
	all, err := s.interactions.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	recent := make([]*domain.Interaction, len(all))
	copy(recent, all)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].InteractionDate.After(recent[j].InteractionDate)
	})
	if limit > 0 && limit < len(recent) {
		recent = recent[:limit]
	}
	return recent, nil
}

// UpdateInteraction applies a partial patch; changed references must resolve.
func (s *InteractionService) UpdateInteraction(ctx context.Context, id string, patch ports.UpdateInteractionPatch) (*domain.Interaction, error) {
	interaction, err := s.interactions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update interaction %s: %w", id, err)
	}

	if patch.Type != nil {
		interaction.Type = *patch.Type
	}
	if patch.Notes != nil {
		interaction.Notes = *patch.Notes
	}
	if patch.InteractionDate != nil {
		interaction.InteractionDate = *patch.InteractionDate
	}
	if patch.CustomerID != nil {
		if _, err := s.customers.FindByID(ctx, *patch.CustomerID); err != nil {
			return nil, fmt.Errorf("update interaction %s: customer %s: %w", id, *patch.CustomerID, err)
		}
		interaction.CustomerID = *patch.CustomerID
	}
	if patch.PerformedByID != nil {
		if _, err := s.users.FindByID(ctx, *patch.PerformedByID); err != nil {
			return nil, fmt.Errorf("update interaction %s: user %s: %w", id, *patch.PerformedByID, err)
		}
		interaction.PerformedByID = *patch.PerformedByID
	}

	interaction.UpdatedAt = time.Now().UTC()
	if err := s.interactions.Update(ctx, interaction); err != nil {
		return nil, fmt.Errorf("update interaction %s: %w", id, err)
	}

	s.log.Info().Str("interaction_id", id).Msg("interaction updated")
	return interaction, nil
}

func (s *InteractionService) DeleteInteraction(ctx context.Context, id string) error {
	if _, err := s.interactions.FindByID(ctx, id); err != nil {
		return fmt.Errorf("delete interaction %s: %w", id, err)
	}
	if err := s.interactions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete interaction %s: %w", id, err)
	}
	s.log.Info().Str("interaction_id", id).Msg("interaction deleted")
	return nil
}

func (s *InteractionService) CountInteractions(ctx context.Context) (int64, error) {
	return s.interactions.Count(ctx)
}
