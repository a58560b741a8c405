package products

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	CategoryName string `json:"category_name,omitempty"`
}

type Update struct {
	CategoryID  *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

// StockLevel is the slim view stockwatch reads after an order event.
type StockLevel struct {
	ID     string
	Name   string
	Stock  int
	Active bool
}
