package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/config"
	"github.com/spec-kit/campus-network/internal/domain"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *auth.TokenManager, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	tokens := auth.NewTokenManager("test-secret", time.Hour, users, auth.NewRevocationStore())
	// Low bcrypt cost keeps the suite fast.
	svc := NewAuthService(config.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4}, users, tokens)
	return svc, tokens, users
}

func registerAccount(t *testing.T, svc *AuthService) *domain.User {
	t.Helper()
	user, _, _, err := svc.Register(context.Background(), "Ada", "a@b.com", "correct-horse")
	require.NoError(t, err)
	return user
}

func TestRegisterThenLogin(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	registered := registerAccount(t, svc)
	assert.Equal(t, domain.RoleUser, registered.Role)
	assert.True(t, registered.Enabled)

	user, token, expiresAt, err := svc.Login(context.Background(), "a@b.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.True(t, expiresAt.After(time.Now()))

	principal, err := tokens.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, principal.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	registerAccount(t, svc)

	_, _, _, err := svc.Register(context.Background(), "Eve", "a@b.com", "another-pass")
	require.Error(t, err)
}

func TestRegisterConcurrentDuplicateMapsToConflict(t *testing.T) {
	svc, _, users := newAuthFixture(t)

	// Another registration won the race after the pre-insert lookup; the
	// store reports it as a UNIQUE violation, not as a lookup hit.
	users.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	_, _, _, err := svc.Register(context.Background(), "Ada", "a@b.com", "correct-horse")
	require.Error(t, err)

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	registerAccount(t, svc)

	_, token, _, err := svc.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.True(t, auth.IsKind(err, auth.FailureAuthenticationFailed))
	assert.Empty(t, token, "no token on failed authentication")
}

func TestLoginUnknownEmailFailsIdentically(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	registerAccount(t, svc)

	_, _, _, wrongPass := svc.Login(context.Background(), "a@b.com", "wrong")
	_, _, _, unknown := svc.Login(context.Background(), "nobody@b.com", "wrong")

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	// Externally indistinguishable: same failure kind either way.
	assert.True(t, auth.IsKind(wrongPass, auth.FailureAuthenticationFailed))
	assert.True(t, auth.IsKind(unknown, auth.FailureAuthenticationFailed))
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, _, users := newAuthFixture(t)
	registered := registerAccount(t, svc)
	require.NoError(t, users.SetEnabled(context.Background(), registered.ID, false))

	_, _, _, err := svc.Login(context.Background(), "a@b.com", "correct-horse")
	assert.True(t, auth.IsKind(err, auth.FailureAuthenticationFailed))
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t)
	registerAccount(t, svc)

	_, token, _, err := svc.Login(context.Background(), "a@b.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = tokens.Validate(context.Background(), token)
	assert.True(t, auth.IsKind(err, auth.FailureRevoked))
}

func TestLogoutSwallowsGarbageToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	assert.NoError(t, svc.Logout(context.Background(), "not-a-token"))
}
