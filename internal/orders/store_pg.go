package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG backs the Store with Postgres. Stock mutations go through
// FOR UPDATE row locks so concurrent orders against the same product
// serialize instead of overselling.
type PG struct{ DB *pgxpool.Pool }

func (s *PG) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PG) OrderByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	var u UserSummary
	err := s.DB.QueryRow(ctx, `
		SELECT o.id, o.user_id, o.total, o.status, o.created_at, u.id, u.name, u.email
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id=$1`, id,
	).Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.User = &u

	rows, err := s.DB.Query(ctx, `
		SELECT d.id, d.order_id, d.product_id, p.name, d.quantity, d.unit_price, d.subtotal
		FROM order_details d JOIN products p ON p.id = d.product_id
		WHERE d.order_id=$1 ORDER BY d.line_no`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.ProductName,
			&d.Quantity, &d.UnitPrice, &d.Subtotal); err != nil {
			return nil, err
		}
		o.Details = append(o.Details, d)
	}
	return &o, rows.Err()
}

func (s *PG) List(ctx context.Context, userID string, all bool) ([]Order, error) {
	q := `SELECT o.id, o.user_id, o.total, o.status, o.created_at, u.id, u.name, u.email
	      FROM orders o JOIN users u ON u.id = o.user_id`
	args := []any{}
	if !all {
		q += ` WHERE o.user_id=$1`
		args = append(args, userID)
	}
	q += ` ORDER BY o.created_at DESC`

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	byID := map[string]int{}
	for rows.Next() {
		var o Order
		var u UserSummary
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt,
			&u.ID, &u.Name, &u.Email); err != nil {
			return nil, err
		}
		o.User = &u
		byID[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, o := range out {
		ids = append(ids, o.ID)
	}
	drows, err := s.DB.Query(ctx, `
		SELECT d.id, d.order_id, d.product_id, p.name, d.quantity, d.unit_price, d.subtotal
		FROM order_details d JOIN products p ON p.id = d.product_id
		WHERE d.order_id = ANY($1) ORDER BY d.order_id, d.line_no`, ids)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var d Detail
		if err := drows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.ProductName,
			&d.Quantity, &d.UnitPrice, &d.Subtotal); err != nil {
			return nil, err
		}
		i := byID[d.OrderID]
		out[i].Details = append(out[i].Details, d)
	}
	return out, drows.Err()
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) ProductForUpdate(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, price, stock, active
		FROM products WHERE id=$1 FOR UPDATE`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) OrderForUpdate(ctx context.Context, orderID string) (*Status, error) {
	var st Status
	err := t.tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID,
	).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (t *pgTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`,
		productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("stock update touched %d rows for product %s", ct.RowsAffected(), productID)
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total, status, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.UserID, o.Total, o.Status, o.CreatedAt)
	if err != nil {
		return err
	}
	for i, d := range o.Details {
		_, err = t.tx.Exec(ctx, `
			INSERT INTO order_details(id, order_id, product_id, line_no, quantity, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			d.ID, o.ID, d.ProductID, i, d.Quantity, d.UnitPrice, d.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) SetStatus(ctx context.Context, orderID string, s Status) error {
	ct, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, s)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("status update touched %d rows for order %s", ct.RowsAffected(), orderID)
	}
	return nil
}

func (t *pgTx) DeleteOrder(ctx context.Context, orderID string) error {
	// order_details go via ON DELETE CASCADE
	ct, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("delete touched %d rows for order %s", ct.RowsAffected(), orderID)
	}
	return nil
}
