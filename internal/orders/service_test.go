package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopadmin/internal/apperr"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedStore: product A (10.00, stock 5), product B (5.00, stock 2),
// the scenario the workflow tests revolve around.
func seedStore() *memStore {
	st := newMemStore()
	st.addUser(UserSummary{ID: "u-1", Name: "Alice", Email: "alice@shop.test"})
	st.addUser(UserSummary{ID: "u-2", Name: "Bob", Email: "bob@shop.test"})
	st.addProduct(Product{ID: "prod-a", Name: "Product A", Price: price("10.00"), Stock: 5, Active: true})
	st.addProduct(Product{ID: "prod-b", Name: "Product B", Price: price("5.00"), Stock: 2, Active: true})
	st.addProduct(Product{ID: "prod-off", Name: "Retired", Price: price("1.00"), Stock: 9, Active: false})
	return st
}

func TestCreateComputesTotalAndDecrementsStock(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)

	o, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 2},
	})
	require.NoError(t, err)

	assert.True(t, o.Total.Equal(price("30.00")), "total = %s", o.Total)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 3, st.stock("prod-a"))
	assert.Equal(t, 0, st.stock("prod-b"))

	require.Len(t, o.Details, 2)
	assert.Equal(t, "prod-a", o.Details[0].ProductID)
	assert.True(t, o.Details[0].Subtotal.Equal(price("20.00")))
	assert.True(t, o.Details[0].UnitPrice.Equal(price("10.00")))
	assert.True(t, o.Details[1].Subtotal.Equal(price("10.00")))

	require.NotNil(t, o.User)
	assert.Equal(t, "alice@shop.test", o.User.Email)
}

func TestCreateIsAtomicWhenOneItemFails(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)

	_, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 3}, // only 2 in stock
	})
	require.Error(t, err)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Product B")

	// nothing changed: no decrement for A, no order row
	assert.Equal(t, 5, st.stock("prod-a"))
	assert.Equal(t, 2, st.stock("prod-b"))
	got, _ := svc.List(context.Background(), Requester{UserID: "u-1", Admin: true})
	assert.Empty(t, got)
}

func TestCreateRejectsUnknownAndInactiveProducts(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u-1", []ItemInput{{ProductID: "nope", Quantity: 1}})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-off", Quantity: 1}})
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "not available")

	_, err = svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-a", Quantity: 0}})
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	_, err = svc.Create(ctx, "u-1", nil)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
}

func TestCreateRepeatedProductSeesRunningStock(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)

	// stock 2: the second line must see the decrement of the first
	_, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-b", Quantity: 2},
		{ProductID: "prod-b", Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 2, st.stock("prod-b"))
}

func TestCancelRestoresStockAndDeletes(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)
	ctx := context.Background()

	o, err := svc.Create(ctx, "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, st.stock("prod-a"))

	snap, err := svc.Cancel(ctx, o.ID, Requester{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, o.ID, snap.ID)
	assert.True(t, snap.Total.Equal(price("30.00")))

	assert.Equal(t, 5, st.stock("prod-a"))
	assert.Equal(t, 2, st.stock("prod-b"))

	_, err = svc.Get(ctx, o.ID, Requester{UserID: "u-1"})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCancelMarkModeKeepsRecord(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelMark)
	ctx := context.Background()

	o, err := svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-a", Quantity: 1}})
	require.NoError(t, err)

	snap, err := svc.Cancel(ctx, o.ID, Requester{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, snap.Status)
	assert.Equal(t, 5, st.stock("prod-a"))

	kept, err := svc.Get(ctx, o.ID, Requester{UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, kept.Status)

	// a cancelled order cannot be cancelled again
	_, err = svc.Cancel(ctx, o.ID, Requester{UserID: "u-1"})
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
}

func TestCancelFinishedOrderFails(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)
	ctx := context.Background()
	admin := Requester{UserID: "adm", Admin: true}

	o, err := svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-a", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, o.ID, admin, StatusFinished)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, o.ID, Requester{UserID: "u-1"})
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "finished")
	// stock stays decremented
	assert.Equal(t, 4, st.stock("prod-a"))
}

func TestOwnershipChecks(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)
	ctx := context.Background()

	o, err := svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-a", Quantity: 1}})
	require.NoError(t, err)

	// stranger: forbidden on get and cancel
	_, err = svc.Get(ctx, o.ID, Requester{UserID: "u-2"})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	_, err = svc.Cancel(ctx, o.ID, Requester{UserID: "u-2"})
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	// admin passes; missing order is NotFound before any ownership check
	_, err = svc.Get(ctx, o.ID, Requester{UserID: "adm", Admin: true})
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "missing", Requester{UserID: "u-2"})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestListFiltersAndOrder(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)
	ctx := context.Background()

	first, err := svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-a", Quantity: 1}})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u-2", []ItemInput{{ProductID: "prod-b", Quantity: 1}})
	require.NoError(t, err)

	own, err := svc.List(ctx, Requester{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, first.ID, own[0].ID)

	all, err := svc.List(ctx, Requester{UserID: "adm", Admin: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// newest first
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestUpdateStatusGuard(t *testing.T) {
	st := seedStore()
	svc := NewService(st, CancelDelete)
	ctx := context.Background()
	admin := Requester{UserID: "adm", Admin: true}

	o, err := svc.Create(ctx, "u-1", []ItemInput{{ProductID: "prod-a", Quantity: 1}})
	require.NoError(t, err)

	// non-admins cannot touch status at all
	_, err = svc.UpdateStatus(ctx, o.ID, Requester{UserID: "u-1"}, StatusFinished)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	upd, err := svc.UpdateStatus(ctx, o.ID, admin, StatusFinished)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, upd.Status)

	// no way back
	_, err = svc.UpdateStatus(ctx, o.ID, admin, StatusPending)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	_, err = svc.UpdateStatus(ctx, o.ID, admin, Status("SHIPPED"))
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
}

// Two buyers race for the last unit: exactly one order must succeed.
func TestConcurrentCreateLastUnit(t *testing.T) {
	st := newMemStore()
	st.addUser(UserSummary{ID: "u-1", Name: "Alice", Email: "alice@shop.test"})
	st.addUser(UserSummary{ID: "u-2", Name: "Bob", Email: "bob@shop.test"})
	st.addProduct(Product{ID: "prod-last", Name: "Last One", Price: price("99.99"), Stock: 1, Active: true})
	svc := NewService(st, CancelDelete)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, uid := range []string{"u-1", "u-2"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), uid, []ItemInput{
				{ProductID: "prod-last", Quantity: 1},
			})
		}(i, uid)
	}
	wg.Wait()

	var okCount, stockCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.KindOf(err) == apperr.InsufficientStock:
			stockCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, stockCount)
	assert.Equal(t, 0, st.stock("prod-last"))
}

// staleSnapshotStore holds cancellation/status callers at the snapshot
// read until all of them have seen the same pre-mutation order,
// widening the window between the read and the transaction.
type staleSnapshotStore struct {
	*memStore
	armed bool
	reads sync.WaitGroup
}

func (s *staleSnapshotStore) OrderByID(ctx context.Context, id string) (*Order, error) {
	o, err := s.memStore.OrderByID(ctx, id)
	if s.armed {
		s.reads.Done()
		s.reads.Wait()
	}
	return o, err
}

func TestConcurrentCancelRestoresStockOnce(t *testing.T) {
	st := &staleSnapshotStore{memStore: seedStore()}
	svc := NewService(st, CancelDelete)

	o, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, st.stock("prod-a"))

	st.armed = true
	st.reads.Add(2)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Cancel(context.Background(), o.ID, Requester{UserID: "u-1"})
		}(i)
	}
	wg.Wait()

	var okCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.KindOf(err) == apperr.NotFound:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 5, st.stock("prod-a"), "stock must be restored exactly once")
}

func TestConcurrentCancelMarkModeRestoresStockOnce(t *testing.T) {
	st := &staleSnapshotStore{memStore: seedStore()}
	svc := NewService(st, CancelMark)

	o, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 2},
	})
	require.NoError(t, err)

	st.armed = true
	st.reads.Add(2)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Cancel(context.Background(), o.ID, Requester{UserID: "u-1"})
		}(i)
	}
	wg.Wait()

	var okCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.KindOf(err) == apperr.InvalidState:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 5, st.stock("prod-a"), "stock must be restored exactly once")

	st.armed = false
	got, err := st.OrderByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestCancelRacingFinishIsConsistent(t *testing.T) {
	st := &staleSnapshotStore{memStore: seedStore()}
	svc := NewService(st, CancelDelete)

	o, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, st.stock("prod-a"))

	admin := Requester{UserID: "u-2", Admin: true}
	st.armed = true
	st.reads.Add(2)

	var cancelErr, finishErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = svc.Cancel(context.Background(), o.ID, Requester{UserID: "u-1"})
	}()
	go func() {
		defer wg.Done()
		_, finishErr = svc.UpdateStatus(context.Background(), o.ID, admin, StatusFinished)
	}()
	wg.Wait()

	switch {
	case cancelErr == nil:
		// cancel committed first: the order is gone and the finish must
		// have hit nothing
		assert.Equal(t, apperr.NotFound, apperr.KindOf(finishErr))
		assert.Equal(t, 5, st.stock("prod-a"))
	case finishErr == nil:
		// finish committed first: stock stays consumed
		assert.Equal(t, apperr.InvalidState, apperr.KindOf(cancelErr))
		assert.Equal(t, 3, st.stock("prod-a"))
	default:
		t.Fatalf("both operations failed: cancel=%v finish=%v", cancelErr, finishErr)
	}
}

// rereadFailStore commits fine but cannot serve the follow-up read.
type rereadFailStore struct{ *memStore }

func (s *rereadFailStore) OrderByID(ctx context.Context, id string) (*Order, error) {
	return nil, errors.New("connection reset")
}

func TestCreateSurvivesRereadFailure(t *testing.T) {
	st := &rereadFailStore{memStore: seedStore()}
	svc := NewService(st, CancelDelete)

	o, err := svc.Create(context.Background(), "u-1", []ItemInput{
		{ProductID: "prod-a", Quantity: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Nil(t, o.User, "degraded response carries no user summary")
	assert.True(t, o.Total.Equal(price("10.00")))
	assert.Equal(t, 4, st.stock("prod-a"), "the order itself is committed")
}
