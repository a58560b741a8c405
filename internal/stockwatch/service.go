package stockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "shopadmin/internal/kafka"
	"shopadmin/internal/orders"
	"shopadmin/internal/products"
	"shopadmin/internal/redisx"
)

// ProductSource is the slice of the catalog the watcher needs;
// *products.Repo implements it.
type ProductSource interface {
	StockLevels(ctx context.Context, ids []string) ([]products.StockLevel, error)
}

// Service consumes order.created events and logs an alert for every
// active product whose stock is at or below the threshold. Alerts are
// deduplicated per product through Redis so a busy product does not
// spam the log.
type Service struct {
	Products  ProductSource
	Redis     *redis.Client
	Threshold int
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil // ignore
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if len(p.Items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		ids = append(ids, it.ProductID)
	}
	levels, err := s.Products.StockLevels(ctx, ids)
	if err != nil {
		return err
	}

	for _, lv := range levels {
		if !lv.Active || lv.Stock > s.Threshold {
			continue
		}
		if s.alreadyAlerted(ctx, lv.ID) {
			continue
		}
		slog.Warn("product stock low",
			"product_id", lv.ID,
			"product", lv.Name,
			"stock", lv.Stock,
			"threshold", s.Threshold,
			"order_id", p.OrderID,
		)
	}
	return nil
}

// alreadyAlerted marks the product and reports whether it was already
// marked within the TTL window.
func (s *Service) alreadyAlerted(ctx context.Context, productID string) bool {
	if s.Redis == nil {
		return false
	}
	key := fmt.Sprintf(redisx.KeyStockAlert, productID)
	ok, err := s.Redis.SetNX(ctx, key, "1", redisx.TTLStockAlert).Result()
	if err != nil {
		return false
	}
	return !ok
}
