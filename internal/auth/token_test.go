package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/policy"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	account := Account{ID: 42, Handle: "alice", Role: policy.RoleManager}

	raw, jti, expiresAt, err := issuer.Issue(account, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEmpty(t, jti)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "Manager", claims.Role)
	require.Equal(t, jti, claims.ID)

	id, err := claims.ActorID()
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	raw, _, _, err := issuer.Issue(Account{ID: 1, Role: policy.RoleEmployee}, time.Now())
	require.NoError(t, err)

	_, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	raw, _, _, err := issuer.Issue(Account{ID: 1, Role: policy.RoleEmployee}, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}
