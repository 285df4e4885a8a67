package ports

import "context"

// TxRunner executes fn inside a single storage transaction. Every ledger
// operation (sale create/update/delete) runs through it so that the
// read-modify-write of a customer's purchase total cannot interleave with a
// concurrent operation on the same customer.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
