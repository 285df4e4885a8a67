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

// SaleService is the purchase-ledger engine: it owns every mutation of a
// customer's TotalPurchaseValue. Create, update and delete each run inside a
// single transaction so the read-modify-write of the aggregate cannot
// interleave with a concurrent operation on the same customer.
type SaleService struct {
	sales     ports.SaleRepository
	customers ports.CustomerRepository
	users     ports.UserRepository
	tx        ports.TxRunner
	log       zerolog.Logger
}

func NewSaleService(
	sales ports.SaleRepository,
	customers ports.CustomerRepository,
	users ports.UserRepository,
	tx ports.TxRunner,
	log zerolog.Logger,
) *SaleService {
	return &SaleService{sales: sales, customers: customers, users: users, tx: tx, log: log}
}

// CreateSale records a new sale and adds its amount to the owning customer's
// purchase total. The amount counts regardless of the sale's status: a PENDING
// or CANCELED sale contributes to the total exactly as a COMPLETED one does.
// DeleteSale withdraws the same amount, so create-then-delete restores the
// total exactly.
func (s *SaleService) CreateSale(ctx context.Context, input ports.CreateSaleInput) (*domain.Sale, error) {
	now := time.Now().UTC()

	sale := &domain.Sale{
		Amount:      input.Amount,
		SaleDate:    now,
		Status:      domain.SaleCompleted,
		Description: input.Description,
		CustomerID:  input.CustomerID,
		SalesRepID:  input.SalesRepID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.SaleDate != nil {
		sale.SaleDate = *input.SaleDate
	}
	if input.Status != nil {
		sale.Status = *input.Status
	}

	var created *domain.Sale
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.customers.FindByID(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("create sale: customer %s: %w", input.CustomerID, err)
		}
		if _, err := s.users.FindByID(ctx, input.SalesRepID); err != nil {
			return fmt.Errorf("create sale: sales rep %s: %w", input.SalesRepID, err)
		}

		customer.TotalPurchaseValue = customer.TotalPurchaseValue.Add(sale.Amount)
		customer.UpdatedAt = now
		if err := s.customers.Update(ctx, customer); err != nil {
			return fmt.Errorf("create sale: update customer total: %w", err)
		}

		created, err = s.sales.Insert(ctx, sale)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", input.CustomerID).Msg("failed to create sale")
		return nil, err
	}

	s.log.Info().
		Str("sale_id", created.ID).
		Str("customer_id", created.CustomerID).
		Str("amount", created.Amount.String()).
		Msg("sale created")
	return created, nil
}

// UpdateSale applies a partial patch to a sale. Nil patch fields are left
// unchanged. An amount change rebalances the owning customer's total; a
// customer reassignment moves the (post-change) amount from the old customer's
// total to the new one's. All sub-updates commit atomically or not at all.
func (s *SaleService) UpdateSale(ctx context.Context, id string, patch ports.UpdateSalePatch) (*domain.Sale, error) {
	var updated *domain.Sale

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.sales.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("update sale %s: %w", id, err)
		}
		now := time.Now().UTC()

		if patch.Amount != nil {
			if err := s.applyAmountChange(ctx, sale, *patch.Amount, now); err != nil {
				return err
			}
		}

		if patch.Status != nil {
			sale.Status = *patch.Status
		}

		if patch.CustomerID != nil && *patch.CustomerID != sale.CustomerID {
			if err := s.reassignCustomer(ctx, sale, *patch.CustomerID, now); err != nil {
				return err
			}
		}

		if patch.SalesRepID != nil {
			if _, err := s.users.FindByID(ctx, *patch.SalesRepID); err != nil {
				return fmt.Errorf("update sale %s: sales rep %s: %w", id, *patch.SalesRepID, err)
			}
			sale.SalesRepID = *patch.SalesRepID
		}

		if patch.Description != nil {
			sale.Description = *patch.Description
		}
		if patch.SaleDate != nil {
			sale.SaleDate = *patch.SaleDate
		}

		sale.UpdatedAt = now
		if err := s.sales.Update(ctx, sale); err != nil {
			return fmt.Errorf("update sale %s: %w", id, err)
		}
		updated = sale
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("sale_id", id).Msg("sale update failed")
		return nil, err
	}

	s.log.Info().Str("sale_id", id).Msg("sale updated")
	return updated, nil
}

// applyAmountChange moves the customer's total from (total − old) to
// (total − old + new). A persisted sale whose customer no longer resolves is
// a broken upstream invariant, surfaced as ErrLedgerInconsistent.
func (s *SaleService) applyAmountChange(ctx context.Context, sale *domain.Sale, newAmount decimal.Decimal, now time.Time) error {
	if sale.CustomerID == "" {
		return fmt.Errorf("update sale %s: %w", sale.ID, domain.ErrLedgerInconsistent)
	}
	customer, err := s.customers.FindByID(ctx, sale.CustomerID)
	if err != nil {
		if err == domain.ErrCustomerNotFound {
			return fmt.Errorf("update sale %s: customer %s: %w", sale.ID, sale.CustomerID, domain.ErrLedgerInconsistent)
		}
		return fmt.Errorf("update sale %s: %w", sale.ID, err)
	}

	oldAmount := sale.Amount
	customer.TotalPurchaseValue = customer.TotalPurchaseValue.Sub(oldAmount).Add(newAmount)
	customer.UpdatedAt = now
	if err := s.customers.Update(ctx, customer); err != nil {
		return fmt.Errorf("update sale %s: rebalance customer total: %w", sale.ID, err)
	}

	sale.Amount = newAmount
	s.log.Info().
		Str("sale_id", sale.ID).
		Str("customer_id", customer.ID).
		Str("old_amount", oldAmount.String()).
		Str("new_amount", newAmount.String()).
		Msg("rebalanced customer total for amount change")
	return nil
}

// reassignCustomer moves the sale's current amount out of the old customer's
// total and into the new one's. Both customers must resolve.
func (s *SaleService) reassignCustomer(ctx context.Context, sale *domain.Sale, newCustomerID string, now time.Time) error {
	if sale.CustomerID == "" {
		return fmt.Errorf("update sale %s: %w", sale.ID, domain.ErrLedgerInconsistent)
	}
	oldCustomer, err := s.customers.FindByID(ctx, sale.CustomerID)
	if err != nil {
		if err == domain.ErrCustomerNotFound {
			return fmt.Errorf("update sale %s: customer %s: %w", sale.ID, sale.CustomerID, domain.ErrLedgerInconsistent)
		}
		return fmt.Errorf("update sale %s: %w", sale.ID, err)
	}
	newCustomer, err := s.customers.FindByID(ctx, newCustomerID)
	if err != nil {
		return fmt.Errorf("update sale %s: customer %s: %w", sale.ID, newCustomerID, err)
	}

	oldCustomer.TotalPurchaseValue = oldCustomer.TotalPurchaseValue.Sub(sale.Amount)
	oldCustomer.UpdatedAt = now
	if err := s.customers.Update(ctx, oldCustomer); err != nil {
		return fmt.Errorf("update sale %s: update old customer: %w", sale.ID, err)
	}

	newCustomer.TotalPurchaseValue = newCustomer.TotalPurchaseValue.Add(sale.Amount)
	newCustomer.UpdatedAt = now
	if err := s.customers.Update(ctx, newCustomer); err != nil {
		return fmt.Errorf("update sale %s: update new customer: %w", sale.ID, err)
	}

	sale.CustomerID = newCustomerID
	s.log.Info().
		Str("sale_id", sale.ID).
		Str("amount", sale.Amount.String()).
		Str("from_customer", oldCustomer.ID).
		Str("to_customer", newCustomer.ID).
		Msg("moved sale between customers")
	return nil
}

// DeleteSale removes a sale and subtracts its amount from the owning
// customer's total. The customer reference must resolve; there is no safe
// no-op path when it does not.
func (s *SaleService) DeleteSale(ctx context.Context, id string) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.sales.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete sale %s: %w", id, err)
		}

		customer, err := s.customers.FindByID(ctx, sale.CustomerID)
		if err != nil {
			if err == domain.ErrCustomerNotFound {
				return fmt.Errorf("delete sale %s: customer %s: %w", id, sale.CustomerID, domain.ErrLedgerInconsistent)
			}
			return fmt.Errorf("delete sale %s: %w", id, err)
		}

		customer.TotalPurchaseValue = customer.TotalPurchaseValue.Sub(sale.Amount)
		customer.UpdatedAt = time.Now().UTC()
		if err := s.customers.Update(ctx, customer); err != nil {
			return fmt.Errorf("delete sale %s: update customer total: %w", id, err)
		}
		return s.sales.Delete(ctx, id)
	})
	if err != nil {
		s.log.Warn().Err(err).Str("sale_id", id).Msg("sale delete failed")
		return err
	}

	s.log.Info().Str("sale_id", id).Msg("sale deleted")
	return nil
}

func (s *SaleService) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.sales.FindByID(ctx, id)
}

func (s *SaleService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	return s.sales.FindAll(ctx)
}

// ListSalesByCustomer requires the customer to resolve before scanning sales.
func (s *SaleService) ListSalesByCustomer(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, fmt.Errorf("list sales: customer %s: %w", customerID, err)
	}
	return s.sales.FindByCustomerID(ctx, customerID)
}

// ListSalesByRep requires the sales rep to resolve before scanning sales.
func (s *SaleService) ListSalesByRep(ctx context.Context, repID string) ([]*domain.Sale, error) {
	if _, err := s.users.FindByID(ctx, repID); err != nil {
		return nil, fmt.Errorf("list sales: sales rep %s: %w", repID, err)
	}
	return s.sales.FindBySalesRepID(ctx, repID)
}

func (s *SaleService) ListSalesByStatus(ctx context.Context, status domain.SaleStatus) ([]*domain.Sale, error) {
	return s.sales.FindByStatus(ctx, status)
}

func (s *SaleService) MarkCompleted(ctx context.Context, id string) (*domain.Sale, error) {
	return s.UpdateStatus(ctx, id, domain.SaleCompleted)
}

func (s *SaleService) MarkCanceled(ctx context.Context, id string) (*domain.Sale, error) {
	return s.UpdateStatus(ctx, id, domain.SaleCanceled)
}

func (s *SaleService) MarkPending(ctx context.Context, id string) (*domain.Sale, error) {
	return s.UpdateStatus(ctx, id, domain.SalePending)
}

// UpdateStatus overwrites the sale's status unconditionally. There is no
// transition graph: COMPLETED back to PENDING is permitted, and setting the
// current status again succeeds. Status changes never touch the ledger.
func (s *SaleService) UpdateStatus(ctx context.Context, id string, status domain.SaleStatus) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update sale status %s: %w", id, err)
	}

	oldStatus := sale.Status
	sale.Status = status
	sale.UpdatedAt = time.Now().UTC()
	if err := s.sales.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("update sale status %s: %w", id, err)
	}

	s.log.Info().
		Str("sale_id", id).
		Str("from", string(oldStatus)).
		Str("to", string(status)).
		Msg("sale status updated")
	return sale, nil
}
