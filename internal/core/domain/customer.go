package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerStatus represents the lifecycle state of a customer account.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "ACTIVE"
	CustomerInactive CustomerStatus = "INACTIVE"
)

var ErrCustomerNotFound = errors.New("customer not found")
var ErrCustomerAlreadyInactive = errors.New("customer already inactive")

// ErrLedgerInconsistent signals that a persisted sale references a customer
// that no longer resolves. The invariant that every sale has a valid owning
// customer has been broken upstream; callers must not attempt silent repair.
var ErrLedgerInconsistent = errors.New("sale references a missing customer")

// Customer is an account whose purchase history the ledger tracks.
// TotalPurchaseValue is an incrementally maintained aggregate: it always
// equals the sum of amounts over sales currently owned by this customer.
// Only SaleService mutates it.
type Customer struct {
	ID                 string          `json:"id"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	PhoneNumber        string          `json:"phone_number,omitempty"`
	Company            string          `json:"company,omitempty"`
	Address            string          `json:"address,omitempty"`
	Status             CustomerStatus  `json:"status"`
	TotalPurchaseValue decimal.Decimal `json:"total_purchase_value"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
