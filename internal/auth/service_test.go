package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

type memoryAccounts struct {
	accounts map[int64]Account
	byHandle map[string]int64
	tokens   map[string]time.Time
	nextID   int64
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{
		accounts: make(map[int64]Account),
		byHandle: make(map[string]int64),
		tokens:   make(map[string]time.Time),
	}
}

func (m *memoryAccounts) CreateAccount(ctx context.Context, handle, passwordHash string, role policy.Role) (Account, error) {
	if _, taken := m.byHandle[handle]; taken {
		return Account{}, ErrHandleTaken
	}
	m.nextID++
	account := Account{ID: m.nextID, Handle: handle, PasswordHash: passwordHash, Role: role, CreatedAt: time.Now()}
	m.accounts[account.ID] = account
	m.byHandle[handle] = account.ID
	return account, nil
}

func (m *memoryAccounts) FindByHandle(ctx context.Context, handle string) (*Account, error) {
	id, ok := m.byHandle[handle]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	account := m.accounts[id]
	return &account, nil
}

func (m *memoryAccounts) FindByID(ctx context.Context, id int64) (*Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &account, nil
}

func (m *memoryAccounts) RecordToken(ctx context.Context, jti string, accountID int64, expiresAt time.Time, ip, ua string) error {
	m.tokens[jti] = expiresAt
	return nil
}

func (m *memoryAccounts) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	for jti, expiresAt := range m.tokens {
		if expiresAt.Before(before) {
			delete(m.tokens, jti)
			purged++
		}
	}
	return purged, nil
}

var _ Repository = (*memoryAccounts)(nil)

func newTestAuth() (*Service, *memoryAccounts) {
	repo := newMemoryAccounts()
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour)), repo
}

func TestSignupDefaultsToEmployee(t *testing.T) {
	svc, _ := newTestAuth()

	actor, err := svc.Signup(context.Background(), "alice", "password123", "")
	require.NoError(t, err)
	require.Equal(t, policy.RoleEmployee, actor.Role)
	require.Equal(t, "alice", actor.Handle)
}

func TestSignupWithExplicitRole(t *testing.T) {
	svc, repo := newTestAuth()

	actor, err := svc.Signup(context.Background(), "carol", "password123", "Admin")
	require.NoError(t, err)
	require.Equal(t, policy.RoleAdmin, actor.Role)
	require.NotEqual(t, "password123", repo.accounts[actor.ID].PasswordHash)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Signup(context.Background(), "", "password123", "")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Signup(context.Background(), "alice", "", "")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Signup(context.Background(), "alice", "password123", "Root")
	require.ErrorIs(t, err, ErrValidation)
}

func TestSignupRejectsTakenHandle(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Signup(context.Background(), "alice", "password123", "")
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), "alice", "different456", "")
	require.ErrorIs(t, err, ErrHandleTaken)
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	svc, repo := newTestAuth()

	_, err := svc.Signup(context.Background(), "alice", "password123", "Manager")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "alice", "password123", "127.0.0.1", "go-test")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, policy.RoleManager, result.Actor.Role)
	require.Len(t, repo.tokens, 1)

	actor, err := svc.ResolveToken(context.Background(), result.Token)
	require.NoError(t, err)
	require.Equal(t, result.Actor, actor)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuth()

	_, err := svc.Signup(context.Background(), "alice", "password123", "")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrongpass", "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody", "password123", "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveTokenReadsCurrentRole(t *testing.T) {
	svc, repo := newTestAuth()

	created, err := svc.Signup(context.Background(), "alice", "password123", "")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "alice", "password123", "", "")
	require.NoError(t, err)

	// Role changes after issuance must win over the role minted into the token.
	account := repo.accounts[created.ID]
	account.Role = policy.RoleManager
	repo.accounts[created.ID] = account

	actor, err := svc.ResolveToken(context.Background(), result.Token)
	require.NoError(t, err)
	require.Equal(t, policy.RoleManager, actor.Role)
}

func TestResolveTokenUnknownAccount(t *testing.T) {
	svc, repo := newTestAuth()

	created, err := svc.Signup(context.Background(), "alice", "password123", "")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "alice", "password123", "", "")
	require.NoError(t, err)

	delete(repo.accounts, created.ID)

	_, err = svc.ResolveToken(context.Background(), result.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPurgeExpiredTokens(t *testing.T) {
	svc, repo := newTestAuth()

	repo.tokens["old"] = time.Now().Add(-time.Hour)
	repo.tokens["live"] = time.Now().Add(time.Hour)

	purged, err := svc.PurgeExpiredTokens(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
	require.Contains(t, repo.tokens, "live")
}
