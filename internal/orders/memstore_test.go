package orders

import (
	"context"
	"fmt"
	"sync"
)

// memStore is an in-memory Store double. Its atomic block takes a
// mutex for the whole callback, modeling the row-lock serialization
// the pg store gets from FOR UPDATE, and rolls back to a snapshot on
// error.
type memStore struct {
	mu       sync.Mutex
	products map[string]*Product
	orders   map[string]*Order
	users    map[string]UserSummary
	orderSeq []string // insertion order, for newest-first listing
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*Product{},
		orders:   map[string]*Order{},
		users:    map[string]UserSummary{},
	}
}

func (m *memStore) addProduct(p Product) {
	m.products[p.ID] = &p
}

func (m *memStore) addUser(u UserSummary) {
	m.users[u.ID] = u
}

func (m *memStore) stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].Stock
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapProducts := map[string]*Product{}
	for id, p := range m.products {
		cp := *p
		snapProducts[id] = &cp
	}
	snapOrders := map[string]*Order{}
	for id, o := range m.orders {
		snapOrders[id] = cloneOrder(o)
	}
	snapSeq := append([]string(nil), m.orderSeq...)

	if err := fn(ctx, &memTx{store: m}); err != nil {
		m.products = snapProducts
		m.orders = snapOrders
		m.orderSeq = snapSeq
		return err
	}
	return nil
}

func (m *memStore) OrderByID(ctx context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	out := cloneOrder(o)
	if u, ok := m.users[o.UserID]; ok {
		out.User = &u
	}
	return out, nil
}

func (m *memStore) List(ctx context.Context, userID string, all bool) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for i := len(m.orderSeq) - 1; i >= 0; i-- {
		o, ok := m.orders[m.orderSeq[i]]
		if !ok {
			continue
		}
		if !all && o.UserID != userID {
			continue
		}
		cp := cloneOrder(o)
		if u, ok := m.users[o.UserID]; ok {
			cp.User = &u
		}
		out = append(out, *cp)
	}
	return out, nil
}

type memTx struct{ store *memStore }

func (t *memTx) ProductForUpdate(ctx context.Context, productID string) (*Product, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, orderID string) (*Status, error) {
	o, ok := t.store.orders[orderID]
	if !ok {
		return nil, nil
	}
	st := o.Status
	return &st, nil
}

func (t *memTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	t.store.products[productID].Stock += delta
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *Order) error {
	t.store.orders[o.ID] = cloneOrder(o)
	t.store.orderSeq = append(t.store.orderSeq, o.ID)
	return nil
}

func (t *memTx) SetStatus(ctx context.Context, orderID string, s Status) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return fmt.Errorf("status update touched 0 rows for order %s", orderID)
	}
	o.Status = s
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, ok := t.store.orders[orderID]; !ok {
		return fmt.Errorf("delete touched 0 rows for order %s", orderID)
	}
	delete(t.store.orders, orderID)
	return nil
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Details = append([]Detail(nil), o.Details...)
	return &cp
}
