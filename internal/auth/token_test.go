package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-network/internal/domain"
)

type stubDirectory struct {
	users map[int64]*domain.User
}

func (d *stubDirectory) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func newTestManager(t *testing.T, users ...*domain.User) (*TokenManager, *stubDirectory, *RevocationStore) {
	t.Helper()
	dir := &stubDirectory{users: make(map[int64]*domain.User)}
	for _, user := range users {
		dir.users[user.ID] = user
	}
	store := NewRevocationStore()
	tm := NewTokenManager("test-secret", time.Hour, dir, store)
	return tm, dir, store
}

func testUser(id int64, role domain.Role) *domain.User {
	return &domain.User{ID: id, Name: "Test User", Email: "test@campus.edu", Role: role, Enabled: true}
}

func TestIssueThenValidate(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, _, _ := newTestManager(t, user)
	base := time.Unix(1700000000, 0)
	tm.now = func() time.Time { return base }

	token, expiresAt, err := tm.Issue(user)
	require.NoError(t, err)
	require.Equal(t, base.Add(time.Hour), expiresAt)

	principal, err := tm.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), principal.UserID)
	assert.Equal(t, domain.RoleUser, principal.Role)
	assert.Equal(t, []string{"ROLE_USER"}, principal.Authorities)
}

func TestValidateExpired(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, _, _ := newTestManager(t, user)
	base := time.Unix(1700000000, 0)
	tm.now = func() time.Time { return base }

	token, _, err := tm.Issue(user)
	require.NoError(t, err)

	// One past the full ttl window.
	tm.now = func() time.Time { return base.Add(time.Hour + time.Millisecond) }
	_, err = tm.Validate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, IsKind(err, FailureExpired))
}

func TestValidateExpiredAtExactBoundary(t *testing.T) {
	user := testUser(7, domain.RoleUser)
	tm, _, _ := newTestManager(t, user)
	base := time.Unix(1700000000, 0)
	tm.now = func() time.Time { return base }

	token, expiresAt, err := tm.Issue(user)
	require.NoError(t, err)

	// now == expiresAt already fails; expiry is now >= exp.
	tm.now = func() time.Time { return expiresAt }
	_, err = tm.Validate(context.Background(), token)
	assert.True(t, IsKind(err, FailureExpired))
}

func TestValidateRoleMismatchAfterRoleChange(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, dir, _ := newTestManager(t, user)

	token, _, err := tm.Issue(user)
	require.NoError(t, err)

	// Demotion/promotion after issuance invalidates the frozen claim even
	// though signature and expiry still hold.
	dir.users[42] = testUser(42, domain.RoleModerator)

	_, err = tm.Validate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, IsKind(err, FailureRoleMismatch))
}

func TestValidateUnknownSubject(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, dir, _ := newTestManager(t, user)

	token, _, err := tm.Issue(user)
	require.NoError(t, err)

	delete(dir.users, 42)

	_, err = tm.Validate(context.Background(), token)
	assert.True(t, IsKind(err, FailureUnknownSubject))
}

func TestValidateDisabledAccount(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, dir, _ := newTestManager(t, user)

	token, _, err := tm.Issue(user)
	require.NoError(t, err)

	disabled := testUser(42, domain.RoleUser)
	disabled.Enabled = false
	dir.users[42] = disabled

	_, err = tm.Validate(context.Background(), token)
	assert.True(t, IsKind(err, FailureUnknownSubject))
}

func TestValidateBadSignature(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, _, _ := newTestManager(t, user)

	other := NewTokenManager("other-secret", time.Hour, &stubDirectory{users: map[int64]*domain.User{42: user}}, nil)
	token, _, err := other.Issue(user)
	require.NoError(t, err)

	_, err = tm.Validate(context.Background(), token)
	assert.True(t, IsKind(err, FailureBadSignature))
}

func TestValidateMalformed(t *testing.T) {
	tm, _, _ := newTestManager(t)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := tm.Validate(context.Background(), raw)
		assert.True(t, IsKind(err, FailureMalformed), "input %q", raw)
	}
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, _, _ := newTestManager(t, user)

	claims := &Claims{
		Role: user.Role.Authority(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Validate(context.Background(), unsigned)
	require.Error(t, err)
	assert.True(t, IsKind(err, FailureBadSignature))
}

func TestValidateRevokedAfterLogout(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, _, store := newTestManager(t, user)

	token, _, err := tm.Issue(user)
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(token))
	require.Equal(t, 1, store.Len())

	_, err = tm.Validate(context.Background(), token)
	assert.True(t, IsKind(err, FailureRevoked))
}

func TestRevokeRejectsForgedToken(t *testing.T) {
	user := testUser(42, domain.RoleUser)
	tm, _, store := newTestManager(t, user)

	forged := NewTokenManager("other-secret", time.Hour, &stubDirectory{}, nil)
	token, _, err := forged.Issue(user)
	require.NoError(t, err)

	err = tm.Revoke(token)
	assert.True(t, IsKind(err, FailureBadSignature))
	assert.Equal(t, 0, store.Len())
}

func TestDistinctIdentitiesYieldDistinctPrincipals(t *testing.T) {
	alice := testUser(1, domain.RoleUser)
	bob := testUser(2, domain.RoleAdmin)
	tm, _, _ := newTestManager(t, alice, bob)

	tokenA, _, err := tm.Issue(alice)
	require.NoError(t, err)
	tokenB, _, err := tm.Issue(bob)
	require.NoError(t, err)

	principalA, err := tm.Validate(context.Background(), tokenA)
	require.NoError(t, err)
	principalB, err := tm.Validate(context.Background(), tokenB)
	require.NoError(t, err)

	assert.NotEqual(t, principalA.UserID, principalB.UserID)
	assert.NotEqual(t, principalA.Authorities, principalB.Authorities)
}

func TestPrincipalAuthoritiesFollowCurrentRole(t *testing.T) {
	// The embedded claim is only a freshness check; authorities always
	// derive from the record. A token issued under the current role
	// validates to that role's authority set.
	admin := testUser(9, domain.RoleAdmin)
	tm, _, _ := newTestManager(t, admin)

	token, _, err := tm.Issue(admin)
	require.NoError(t, err)

	principal, err := tm.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, principal.HasAuthority("ROLE_ADMIN"))
	assert.False(t, principal.HasAuthority("ROLE_USER"))
}
