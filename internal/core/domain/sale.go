package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle state of a sale. There is no enforced
// transition graph: any status may be overwritten with any other through the
// explicit mark/status operations.
type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCanceled  SaleStatus = "CANCELED"
)

var ErrSaleNotFound = errors.New("sale not found")
var ErrInvalidSaleStatus = errors.New("invalid sale status")

// ParseSaleStatus converts a string to a SaleStatus.
func ParseSaleStatus(s string) (SaleStatus, error) {
	switch SaleStatus(s) {
	case SalePending, SaleCompleted, SaleCanceled:
		return SaleStatus(s), nil
	}
	return "", ErrInvalidSaleStatus
}

// Sale is a single transaction owned by exactly one customer. Its amount
// contributes to the owning customer's TotalPurchaseValue regardless of
// status; the contribution moves with the sale on reassignment and is
// withdrawn on deletion.
type Sale struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	SaleDate    time.Time       `json:"sale_date"`
	Status      SaleStatus      `json:"status"`
	Description string          `json:"description,omitempty"`
	CustomerID  string          `json:"customer_id"`
	SalesRepID  string          `json:"sales_rep_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
