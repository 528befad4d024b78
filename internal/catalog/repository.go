package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new resource and returns its generated ID.
func (r *Repository) Insert(ctx context.Context, res Resource) (int64, error) {
	kinds := make([]string, len(res.AccessKinds))
	for i, k := range res.AccessKinds {
		kinds[i] = string(k)
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO resources (name, description, access_kinds, created_at) VALUES ($1, $2, $3, NOW()) RETURNING id`,
		res.Name, res.Description, kinds).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns all resources ordered by id.
func (r *Repository) List(ctx context.Context) ([]Resource, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, access_kinds, created_at FROM resources ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resources []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

// Get fetches a resource by ID, returning ErrNotFound when absent.
func (r *Repository) Get(ctx context.Context, id int64) (Resource, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, access_kinds, created_at FROM resources WHERE id=$1`, id)
	res, err := scanResource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, ErrNotFound
		}
		return Resource{}, err
	}
	return res, nil
}

func scanResource(row pgx.Row) (Resource, error) {
	var res Resource
	var kinds []string
	if err := row.Scan(&res.ID, &res.Name, &res.Description, &kinds, &res.CreatedAt); err != nil {
		return Resource{}, err
	}
	res.AccessKinds = make([]AccessKind, len(kinds))
	for i, k := range kinds {
		res.AccessKinds[i] = AccessKind(k)
	}
	return res, nil
}

var _ RepositoryPort = (*Repository)(nil)
