package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fieldline/crm-system/internal/core/domain"
	"github.com/fieldline/crm-system/internal/core/ports"
)

type CustomerService struct {
	customers    ports.CustomerRepository
	sales        ports.SaleRepository
	interactions ports.InteractionRepository
	log          zerolog.Logger
}

func NewCustomerService(
	customers ports.CustomerRepository,
	sales ports.SaleRepository,
	interactions ports.InteractionRepository,
	log zerolog.Logger,
) *CustomerService {
	return &CustomerService{customers: customers, sales: sales, interactions: interactions, log: log}
}

// CreateCustomer registers a new customer. Status is forced to ACTIVE and the
// purchase total starts at zero; only SaleService adjusts it afterwards.
func (s *CustomerService) CreateCustomer(ctx context.Context, input ports.CreateCustomerInput) (*domain.Customer, error) {
	now := time.Now().UTC()
	customer := &domain.Customer{
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Email:              input.Email,
		PhoneNumber:        input.PhoneNumber,
		Company:            input.Company,
		Address:            input.Address,
		Status:             domain.CustomerActive,
		TotalPurchaseValue: decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.customers.Insert(ctx, customer)
	if err != nil {
		s.log.Error().Err(err).Str("email", input.Email).Msg("failed to create customer")
		return nil, err
	}

	s.log.Info().Str("customer_id", created.ID).Str("email", created.Email).Msg("customer created")
	return created, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customers.FindByID(ctx, id)
}

func (s *CustomerService) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return s.customers.FindByEmail(ctx, email)
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return s.customers.FindAll(ctx)
}

func (s *CustomerService) ListActiveCustomers(ctx context.Context) ([]*domain.Customer, error) {
	all, err := s.customers.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*domain.Customer, 0, len(all))
	for _, c := range all {
		if c.Status == domain.CustomerActive {
			active = append(active, c)
		}
	}
	return active, nil
}

// UpdateCustomer applies a partial patch. Nil fields are left unchanged, so an
// unspecified field can never accidentally clear a stored value.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, patch ports.UpdateCustomerPatch) (*domain.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update customer %s: %w", id, err)
	}

	if patch.FirstName != nil {
		customer.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		customer.LastName = *patch.LastName
	}
	if patch.Email != nil {
		customer.Email = *patch.Email
	}
	if patch.PhoneNumber != nil {
		customer.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Company != nil {
		customer.Company = *patch.Company
	}
	if patch.Address != nil {
		customer.Address = *patch.Address
	}
	if patch.Status != nil {
		customer.Status = *patch.Status
	}
	if patch.TotalPurchaseValue != nil {
		// Admin override of the aggregate; routine adjustments go through SaleService.
		customer.TotalPurchaseValue = *patch.TotalPurchaseValue
	}

	customer.UpdatedAt = time.Now().UTC()
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer %s: %w", id, err)
	}

	s.log.Info().Str("customer_id", id).Msg("customer updated")
	return customer, nil
}

// DeleteCustomer removes the customer and blanks the customer reference on
// their sales and interactions. The records themselves are kept; their
// amounts stay out of any ledger once the owning total is gone.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) error {
	if _, err := s.customers.FindByID(ctx, id); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	if err := s.sales.ClearCustomer(ctx, id); err != nil {
		return fmt.Errorf("delete customer %s: clear sales: %w", id, err)
	}
	if err := s.interactions.ClearCustomer(ctx, id); err != nil {
		return fmt.Errorf("delete customer %s: clear interactions: %w", id, err)
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("customer_id", id).Msg("customer delete failed")
		return err
	}
	s.log.Info().Str("customer_id", id).Msg("customer deleted")
	return nil
}

func (s *CustomerService) CountCustomers(ctx context.Context) (int64, error) {
	return s.customers.Count(ctx)
}

// DeactivateCustomer flips the customer to INACTIVE. Deactivating an already
// inactive customer is a conflict the caller must handle, not a silent no-op.
func (s *CustomerService) DeactivateCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deactivate customer %s: %w", id, err)
	}
	if customer.Status == domain.CustomerInactive {
		return nil, fmt.Errorf("deactivate customer %s: %w", id, domain.ErrCustomerAlreadyInactive)
	}

	customer.Status = domain.CustomerInactive
	customer.UpdatedAt = time.Now().UTC()
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("deactivate customer %s: %w", id, err)
	}

	s.log.Info().Str("customer_id", id).Msg("customer deactivated")
	return customer, nil
}
