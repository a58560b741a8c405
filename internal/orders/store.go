package orders

import "context"

// Store is the persistence collaborator of the workflow. The pg
// implementation backs it with Postgres transactions; tests substitute
// an in-memory double.
type Store interface {
	// InTx runs fn atomically: every write made through tx commits as a
	// whole or not at all, and product rows read via ProductForUpdate
	// stay locked until the block ends.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// OrderByID returns the order with details and user summary, or nil
	// when absent.
	OrderByID(ctx context.Context, id string) (*Order, error)

	// List returns orders newest first; all of them when all is true,
	// otherwise only those owned by userID.
	List(ctx context.Context, userID string, all bool) ([]Order, error)
}

// Tx is the write surface available inside an atomic block.
type Tx interface {
	// ProductForUpdate locks the product row for the remainder of the
	// transaction. Returns nil when the product does not exist.
	ProductForUpdate(ctx context.Context, productID string) (*Product, error)

	// OrderForUpdate locks the order row and returns its current
	// status. Returns nil when the order does not exist.
	OrderForUpdate(ctx context.Context, orderID string) (*Status, error)

	// AdjustStock adds delta (negative to decrement) to the product's
	// stock.
	AdjustStock(ctx context.Context, productID string, delta int) error

	// InsertOrder persists the order row and all its details.
	InsertOrder(ctx context.Context, o *Order) error

	SetStatus(ctx context.Context, orderID string, s Status) error

	// DeleteOrder removes the order; details go with it.
	DeleteOrder(ctx context.Context, orderID string) error
}
