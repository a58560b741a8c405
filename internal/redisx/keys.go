package redisx

import "time"

const (
	// Order snapshot cache: order:{order_id} -> full order JSON
	KeyOrderSnapshot = "order:%s"

	// Low-stock alert dedup: stockwatch:alert:{product_id}
	KeyStockAlert = "stockwatch:alert:%s"
)

var (
	TTLOrderSnapshot = 5 * time.Minute
	TTLStockAlert    = 6 * time.Hour
)
