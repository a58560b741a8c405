package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopadmin/internal/apperr"
)

// CancelMode picks what happens to a cancelled order after its stock
// is restored.
type CancelMode string

const (
	CancelDelete CancelMode = "delete" // remove the order, legacy behavior
	CancelMark   CancelMode = "mark"   // keep it with status CANCELLED
)

func ParseCancelMode(s string) CancelMode {
	if CancelMode(s) == CancelMark {
		return CancelMark
	}
	return CancelDelete
}

// Service is the order workflow engine: atomic creation with per-item
// stock validation, retrieval with ownership checks, guarded status
// updates, and cancellation with symmetric stock restoration.
type Service struct {
	store      Store
	cancelMode CancelMode
}

func NewService(store Store, cancelMode CancelMode) *Service {
	return &Service{store: store, cancelMode: cancelMode}
}

// Create places an order for userID. Items are processed strictly in
// submission order inside one transaction: each product row is locked,
// checked for availability and stock, and decremented before the next
// item is looked at, so repeated product ids see the running stock.
func (s *Service) Create(ctx context.Context, userID string, items []ItemInput) (*Order, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.InvalidState, "order must contain at least one item")
	}
	o := &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		total := decimal.Zero
		for _, it := range items {
			if it.Quantity < 1 {
				return apperr.Newf(apperr.InvalidState, "invalid quantity for product %s", it.ProductID)
			}
			p, err := tx.ProductForUpdate(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return apperr.Newf(apperr.NotFound, "product %s not found", it.ProductID)
			}
			if !p.Active {
				return apperr.Newf(apperr.InvalidState, "product %s is not available", p.Name)
			}
			if p.Stock < it.Quantity {
				return apperr.Newf(apperr.InsufficientStock,
					"insufficient stock for product %s: available %d, requested %d",
					p.Name, p.Stock, it.Quantity)
			}

			sub := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			total = total.Add(sub)
			o.Details = append(o.Details, Detail{
				ID:          uuid.NewString(),
				OrderID:     o.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
				Subtotal:    sub,
			})
			if err := tx.AdjustStock(ctx, p.ID, -it.Quantity); err != nil {
				return err
			}
		}
		o.Total = total
		return tx.InsertOrder(ctx, o)
	})
	if err != nil {
		return nil, boundary(err, "failed to create order")
	}
	// re-read to attach the owning user summary; the order itself is
	// already committed
	full, rerr := s.store.OrderByID(ctx, o.ID)
	if rerr != nil || full == nil {
		slog.Warn("order committed but re-read failed, returning without user summary",
			"order_id", o.ID, "error", rerr)
		return o, nil
	}
	return full, nil
}

// Get fetches one order. Existence is checked before ownership, so a
// missing order is NotFound even for strangers.
func (s *Service) Get(ctx context.Context, id string, req Requester) (*Order, error) {
	o, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, boundary(err, "failed to retrieve order")
	}
	if o == nil {
		return nil, apperr.Newf(apperr.NotFound, "order %s not found", id)
	}
	if !req.Admin && o.UserID != req.UserID {
		return nil, apperr.New(apperr.Forbidden, "you do not have access to this order")
	}
	return o, nil
}

// List returns the requester's orders, or every order for admins,
// newest first.
func (s *Service) List(ctx context.Context, req Requester) ([]Order, error) {
	out, err := s.store.List(ctx, req.UserID, req.Admin)
	if err != nil {
		return nil, boundary(err, "failed to retrieve orders")
	}
	return out, nil
}

// UpdateStatus applies an admin-driven status change, subject to the
// transition guard.
func (s *Service) UpdateStatus(ctx context.Context, id string, req Requester, to Status) (*Order, error) {
	if !req.Admin {
		return nil, apperr.New(apperr.Forbidden, "admin role required")
	}
	if !ValidStatus(to) {
		return nil, apperr.Newf(apperr.InvalidState, "unknown status %q", to)
	}
	o, err := s.Get(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, apperr.Newf(apperr.InvalidState, "cannot transition order from %s to %s", o.Status, to)
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		st, err := tx.OrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		// the snapshot may be stale by now; re-check under the row lock
		if st == nil {
			return apperr.Newf(apperr.NotFound, "order %s not found", id)
		}
		if !CanTransition(*st, to) {
			return apperr.Newf(apperr.InvalidState, "cannot transition order from %s to %s", *st, to)
		}
		return tx.SetStatus(ctx, id, to)
	})
	if err != nil {
		return nil, boundary(err, "failed to update order")
	}
	o.Status = to
	return o, nil
}

// Cancel restores every line's quantity to its product and then, per
// the configured mode, deletes the order or marks it CANCELLED. The
// returned order is the pre-cancellation snapshot (with the final
// status when marking).
func (s *Service) Cancel(ctx context.Context, id string, req Requester) (*Order, error) {
	o, err := s.Get(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusFinished {
		return nil, apperr.New(apperr.InvalidState, "cannot cancel a finished order")
	}
	if o.Status == StatusCancelled {
		return nil, apperr.New(apperr.InvalidState, "order is already cancelled")
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		// re-verify under the row lock: a concurrent cancel or status
		// change may have landed since the snapshot was read, and stock
		// must be restored exactly once
		st, err := tx.OrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return apperr.Newf(apperr.NotFound, "order %s not found", id)
		}
		if *st == StatusFinished {
			return apperr.New(apperr.InvalidState, "cannot cancel a finished order")
		}
		if *st == StatusCancelled {
			return apperr.New(apperr.InvalidState, "order is already cancelled")
		}
		for _, d := range o.Details {
			if err := tx.AdjustStock(ctx, d.ProductID, d.Quantity); err != nil {
				return err
			}
		}
		if s.cancelMode == CancelMark {
			return tx.SetStatus(ctx, id, StatusCancelled)
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return nil, boundary(err, "failed to cancel order")
	}
	if s.cancelMode == CancelMark {
		o.Status = StatusCancelled
	}
	return o, nil
}

// boundary passes domain errors through untouched and reports anything
// else as Internal with the cause attached.
func boundary(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.Internal, msg, err)
}
