package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopadmin/internal/apperr"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, u *User) error {
	// email uniqueness checked first so the caller gets Conflict, not a
	// raw constraint violation
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, u.Email).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return apperr.New(apperr.Conflict, "email already exists")
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO users(id, email, name, password, role, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Active,
	).Scan(&u.CreatedAt)
}

func (r *Repo) ByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, `SELECT id, email, name, password, role, active, created_at
	                   FROM users WHERE email=$1`, email)
}

func (r *Repo) ByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, `SELECT id, email, name, password, role, active, created_at
	                   FROM users WHERE id=$1`, id)
}

func (r *Repo) one(ctx context.Context, q string, arg any) (*User, error) {
	var u User
	err := r.DB.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name), password = COALESCE($3, password)
		WHERE id=$1
		RETURNING id, email, name, password, role, active, created_at`,
		id, upd.Name, upd.PasswordHash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "user %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
