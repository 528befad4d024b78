package actors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/policy"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all actors ordered by id.
func (r *Repository) List(ctx context.Context) ([]Actor, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, handle, role, created_at FROM actors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Actor
	for rows.Next() {
		var a Actor
		var role string
		if err := rows.Scan(&a.ID, &a.Handle, &role, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = policy.Role(role)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single actor, returning ErrNotFound when absent.
func (r *Repository) Get(ctx context.Context, id int64) (Actor, error) {
	var a Actor
	var role string
	err := r.pool.QueryRow(ctx, `SELECT id, handle, role, created_at FROM actors WHERE id=$1`, id).
		Scan(&a.ID, &a.Handle, &role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, ErrNotFound
		}
		return Actor{}, err
	}
	a.Role = policy.Role(role)
	return a, nil
}

// UpdateRole persists the new role and returns the updated view.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role policy.Role) (Actor, error) {
	var a Actor
	var stored string
	err := r.pool.QueryRow(ctx,
		`UPDATE actors SET role=$2 WHERE id=$1 RETURNING id, handle, role, created_at`,
		id, string(role)).Scan(&a.ID, &a.Handle, &stored, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, ErrNotFound
		}
		return Actor{}, err
	}
	a.Role = policy.Role(stored)
	return a, nil
}

// Delete removes an actor row. Returns ErrNotFound if nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM actors WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
