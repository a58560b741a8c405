package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when processing succeeded and the
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, 1024)

	for i := 0; i < c.workers; i++ {
		go c.work(ctx, jobs, h)
	}

	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			close(jobs)
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs <- m:
		case <-ctx.Done():
			close(jobs)
			return nil
		}
	}
}

// work drains jobs until the channel closes. Failures are logged right
// here instead of being routed through a shared channel, which could
// wedge the whole pool when every handler is failing.
func (c *Consumer) work(ctx context.Context, jobs <-chan kafka.Message, h Handler) {
	for m := range jobs {
		if err := h(ctx, m); err != nil {
			slog.Error("consumer worker failed",
				"topic", c.r.Config().Topic, "offset", m.Offset, "error", err)
			time.Sleep(200 * time.Millisecond) // light backoff
			continue
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			slog.Error("offset commit failed",
				"topic", c.r.Config().Topic, "offset", m.Offset, "error", err)
		}
	}
}
