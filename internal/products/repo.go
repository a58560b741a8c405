package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopadmin/internal/apperr"
)

type Repo struct{ DB *pgxpool.Pool }

const selectCols = `p.id, p.category_id, p.name, p.description, p.price, p.stock,
                    p.active, p.created_at, p.updated_at, c.name`

func (r *Repo) Create(ctx context.Context, p *Product) error {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id=$1 AND active)`, p.CategoryID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.New(apperr.InvalidState, "category does not exist")
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO products(id, category_id, name, description, price, stock, active)
		VALUES ($1,$2,$3,$4,$5,$6,TRUE)
		RETURNING created_at, updated_at`,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+selectCols+`
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.active ORDER BY p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price,
			&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt, &p.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT `+selectCols+`
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id=$1`, id,
	).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price,
		&p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt, &p.CategoryName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Update(ctx context.Context, id string, upd Update) (*Product, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET category_id = COALESCE($2, category_id),
		    name        = COALESCE($3, name),
		    description = COALESCE($4, description),
		    price       = COALESCE($5, price),
		    stock       = COALESCE($6, stock),
		    updated_at  = now()
		WHERE id=$1 AND active`,
		id, upd.CategoryID, upd.Name, upd.Description, upd.Price, upd.Stock)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	return r.ByID(ctx, id)
}

// Remove soft-deletes so order details keep a valid reference.
func (r *Repo) Remove(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE products SET active=FALSE, updated_at=now() WHERE id=$1 AND active`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "product not found")
	}
	return nil
}

func (r *Repo) StockLevels(ctx context.Context, ids []string) ([]StockLevel, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, stock, active FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockLevel
	for rows.Next() {
		var s StockLevel
		if err := rows.Scan(&s.ID, &s.Name, &s.Stock, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
