package requests

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/catalog"
	"github.com/accesshub/accesshub/internal/platform/db"
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

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn against a transactional view of the repository.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Requests are read with their requester and resource resolved. LEFT JOINs
// keep records readable after the referenced actor or resource was deleted;
// the embedded references come back zero-valued in that case.
const selectRequest = `
SELECT r.id, r.access_kind, r.reason, r.status, r.created_at, r.updated_at,
       COALESCE(a.id, 0), COALESCE(a.handle, ''), COALESCE(a.role, ''), COALESCE(a.created_at, 'epoch'::timestamptz),
       COALESCE(s.id, 0), COALESCE(s.name, ''), COALESCE(s.description, ''), COALESCE(s.access_kinds, '{}'), COALESCE(s.created_at, 'epoch'::timestamptz)
FROM access_requests r
LEFT JOIN actors a ON a.id = r.requester_id
LEFT JOIN resources s ON s.id = r.resource_id`

// Get fetches one request with references resolved.
func (r *Repository) Get(ctx context.Context, id int64) (Request, error) {
	row := r.pool.QueryRow(ctx, selectRequest+` WHERE r.id=$1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

// ListByStatus returns all requests in the given status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	rows, err := r.pool.Query(ctx, selectRequest+` WHERE r.status=$1 ORDER BY r.id`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListAll returns every request regardless of status, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]Request, error) {
	rows, err := r.pool.Query(ctx, selectRequest+` ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// Insert stores a new request row and returns its generated ID.
func (t *txRepo) Insert(ctx context.Context, req RequestRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO access_requests (requester_id, resource_id, access_kind, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		req.RequesterID, req.ResourceID, string(req.AccessKind), req.Reason, string(req.Status)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetForUpdate locks the request row for the rest of the transaction.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (int64, Status, error) {
	var gotID int64
	var status string
	err := t.tx.QueryRow(ctx, `SELECT id, status FROM access_requests WHERE id=$1 FOR UPDATE`, id).
		Scan(&gotID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return gotID, Status(status), nil
}

// UpdateStatus persists the new status.
func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE access_requests SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the request row.
func (t *txRepo) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM access_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var status, actorRole string
	var resourceKinds []string
	if err := row.Scan(
		&req.ID, &req.AccessKind, &req.Reason, &status, &req.CreatedAt, &req.UpdatedAt,
		&req.Requester.ID, &req.Requester.Handle, &actorRole, &req.Requester.CreatedAt,
		&req.Resource.ID, &req.Resource.Name, &req.Resource.Description, &resourceKinds, &req.Resource.CreatedAt,
	); err != nil {
		return Request{}, err
	}
	req.Status = Status(status)
	req.Requester.Role = policy.Role(actorRole)
	req.Resource.AccessKinds = make([]catalog.AccessKind, len(resourceKinds))
	for i, k := range resourceKinds {
		req.Resource.AccessKinds[i] = catalog.AccessKind(k)
	}
	return req, nil
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var (
	_ RepositoryPort = (*Repository)(nil)
	_ TxRepository   = (*txRepo)(nil)
)
