package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/accesshub/accesshub/internal/platform/httpx"
	"github.com/accesshub/accesshub/internal/policy"
)

const bcryptCost = 10

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Signup registers a new account. Role defaults to Employee when omitted.
func (s *Service) Signup(ctx context.Context, handle, password, rawRole string) (policy.Actor, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || password == "" {
		return policy.Actor{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	role := policy.RoleEmployee
	if rawRole != "" {
		parsed, err := policy.ParseRole(rawRole)
		if err != nil {
			return policy.Actor{}, fmt.Errorf("%w: valid role (Admin, Manager, or Employee) is required", ErrValidation)
		}
		role = parsed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return policy.Actor{}, err
	}
	account, err := s.repo.CreateAccount(ctx, handle, string(hash), role)
	if err != nil {
		return policy.Actor{}, err
	}
	return account.Actor(), nil
}

// LoginResult carries the issued token and the sanitized identity.
type LoginResult struct {
	Token string
	Actor policy.Actor
}

// Login validates credentials and issues a bearer token. The token row is
// recorded so the background worker can purge it after expiry.
func (s *Service) Login(ctx context.Context, handle, password, ip, ua string) (LoginResult, error) {
	if strings.TrimSpace(handle) == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	account, err := s.repo.FindByHandle(ctx, strings.TrimSpace(handle))
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	raw, jti, expiresAt, err := s.tokens.Issue(*account, time.Now())
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.repo.RecordToken(ctx, jti, account.ID, expiresAt, ip, ua); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: raw, Actor: account.Actor()}, nil
}

// ResolveToken verifies a raw bearer token and re-reads the account so the
// injected actor always carries the current role, not the one minted into
// the token.
func (s *Service) ResolveToken(ctx context.Context, raw string) (policy.Actor, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return policy.Actor{}, err
	}
	id, err := claims.ActorID()
	if err != nil {
		return policy.Actor{}, err
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return policy.Actor{}, ErrInvalidToken
		}
		return policy.Actor{}, err
	}
	return account.Actor(), nil
}

// PurgeExpiredTokens removes token rows past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpiredTokens(ctx, now)
}
