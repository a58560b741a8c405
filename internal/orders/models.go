package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Details   []Detail        `json:"details"`
	User      *UserSummary    `json:"user,omitempty"`
}

// Detail is one order line. UnitPrice is the product price at order
// time and never changes afterwards.
type Detail struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ItemInput is one requested line of a new order, in submission order.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Requester identifies the caller for ownership checks.
type Requester struct {
	UserID string
	Admin  bool
}

// Product is the view of a catalog row the workflow needs while
// holding its lock.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Stock  int
	Active bool
}
