package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

// Every handler call fails here; the pool must keep draining the jobs
// channel anyway instead of stalling.
func TestWorkersDrainUnderSustainedFailures(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "orders-test", "order.created", 2)
	defer c.r.Close()

	var handled atomic.Int32
	failing := func(ctx context.Context, m kafka.Message) error {
		handled.Add(1)
		return errors.New("boom")
	}

	jobs := make(chan kafka.Message, 2)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(context.Background(), jobs, failing)
		}()
	}

	const total = 6
	go func() {
		for i := 0; i < total; i++ {
			jobs <- kafka.Message{Offset: int64(i)}
		}
		close(jobs)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("workers stalled under sustained handler failures")
	}
	assert.Equal(t, int32(total), handled.Load())
}
