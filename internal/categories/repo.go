package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopadmin/internal/apperr"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, c *Category) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO categories(id, name, description, active)
		VALUES ($1,$2,$3,TRUE)
		RETURNING created_at`,
		c.ID, c.Name, c.Description,
	).Scan(&c.CreatedAt)
}

// List returns active categories with their active products.
func (r *Repo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, description, active, created_at
		FROM categories WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	byID := map[string]int{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		byID[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	prows, err := r.DB.Query(ctx, `
		SELECT category_id, id, name, price, stock
		FROM products WHERE active AND category_id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var catID string
		var p ProductSummary
		if err := prows.Scan(&catID, &p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		i := byID[catID]
		out[i].Products = append(out[i].Products, p)
	}
	return out, prows.Err()
}

func (r *Repo) ByID(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, active, created_at
		FROM categories WHERE id=$1 AND active`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "category not found")
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price, stock
		FROM products WHERE active AND category_id=$1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ProductSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		c.Products = append(c.Products, p)
	}
	return &c, rows.Err()
}

func (r *Repo) Update(ctx context.Context, id string, upd Update) (*Category, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE categories
		SET name = COALESCE($2, name), description = COALESCE($3, description)
		WHERE id=$1 AND active`,
		id, upd.Name, upd.Description)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, apperr.New(apperr.NotFound, "category not found")
	}
	return r.ByID(ctx, id)
}

// Remove soft-deletes: the row stays for products that reference it.
func (r *Repo) Remove(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE categories SET active=FALSE WHERE id=$1 AND active`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "category not found")
	}
	return nil
}

func (r *Repo) Stats(ctx context.Context) ([]Stat, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, COUNT(p.id) FILTER (WHERE p.active)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.active
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stat
	for rows.Next() {
		var s Stat
		if err := rows.Scan(&s.ID, &s.Name, &s.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
