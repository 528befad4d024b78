package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateAccount(ctx context.Context, handle, passwordHash string, role policy.Role) (Account, error)
	FindByHandle(ctx context.Context, handle string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	RecordToken(ctx context.Context, jti string, accountID int64, expiresAt time.Time, ip, ua string) error
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL. Accounts live in the
// same actors table the directory reads; only this package touches the
// password_hash column.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateAccount inserts a new account, enforcing handle uniqueness.
func (r *PGRepository) CreateAccount(ctx context.Context, handle, passwordHash string, role policy.Role) (Account, error) {
	var account Account
	var stored string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO actors (handle, password_hash, role, created_at) VALUES ($1, $2, $3, NOW())
RETURNING id, handle, password_hash, role, created_at`,
		handle, passwordHash, string(role)).
		Scan(&account.ID, &account.Handle, &account.PasswordHash, &stored, &account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrHandleTaken
		}
		return Account{}, err
	}
	account.Role = policy.Role(stored)
	return account, nil
}

// FindByHandle fetches an account by its unique handle.
func (r *PGRepository) FindByHandle(ctx context.Context, handle string) (*Account, error) {
	return r.findOne(ctx, `SELECT id, handle, password_hash, role, created_at FROM actors WHERE handle=$1`, handle)
}

// FindByID fetches an account by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	return r.findOne(ctx, `SELECT id, handle, password_hash, role, created_at FROM actors WHERE id=$1`, id)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*Account, error) {
	var account Account
	var role string
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&account.ID, &account.Handle, &account.PasswordHash, &role, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	account.Role = policy.Role(role)
	return &account, nil
}

// RecordToken persists an issued-token row for auditing and cleanup.
func (r *PGRepository) RecordToken(ctx context.Context, jti string, accountID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO issued_tokens (jti, actor_id, issued_at, expires_at, ip, ua) VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`,
		jti, accountID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteExpiredTokens removes token rows that expired before the cutoff.
func (r *PGRepository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM issued_tokens WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
