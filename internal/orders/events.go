package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type EventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Items   []EventItem `json:"items"`
	Total   string      `json:"total"`
}

type OrderCancelledPayload struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Items   []EventItem `json:"items"` // restored quantities
	Mode    string      `json:"mode"`  // delete | mark
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// EventItems projects an order's details into event payload shape.
func (o *Order) EventItems() []EventItem {
	out := make([]EventItem, 0, len(o.Details))
	for _, d := range o.Details {
		out = append(out, EventItem{ProductID: d.ProductID, Quantity: d.Quantity})
	}
	return out
}
