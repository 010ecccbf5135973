package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-network/internal/domain"
)

// UserDirectory is the read-only view of the user store the validator
// needs for subject resolution.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Claims is the JWT payload. The role claim carries the authority prefix
// so it is unambiguous from other claim types.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates self-contained signed tokens. Tokens
// are never persisted; validity depends only on the MAC, the embedded
// expiry, and the live state of the subject's identity record.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	users   UserDirectory
	revoked *RevocationStore
	now     func() time.Time
}

// NewTokenManager builds a manager signing with the given symmetric secret.
func NewTokenManager(secret string, ttl time.Duration, users UserDirectory, revoked *RevocationStore) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		users:   users,
		revoked: revoked,
		now:     time.Now,
	}
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs a token for the identity record. No side effects beyond
// token construction.
func (tm *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Role: user.Role.Authority(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate resolves a token string into a Principal. Failure modes, in
// order: malformed structure, bad signature, expiry, unknown subject,
// stale role claim, revocation. Claims are not trusted before the
// signature is confirmed, so the expiry comparison runs on the parsed
// claims only after the MAC check passes. Authorities on the returned
// Principal derive from the identity record's current role; the embedded
// role claim is used only for the freshness comparison.
func (tm *TokenManager) Validate(ctx context.Context, tokenString string) (*Principal, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil {
		return nil, newError(FailureMalformed, errors.New("missing exp claim"))
	}
	if !tm.now().Before(claims.ExpiresAt.Time) {
		return nil, newError(FailureExpired, nil)
	}

	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, newError(FailureMalformed, fmt.Errorf("non-numeric subject %q", claims.Subject))
	}

	user, err := tm.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newError(FailureUnknownSubject, nil)
		}
		return nil, fmt.Errorf("resolve subject %d: %w", subjectID, err)
	}
	if !user.Enabled {
		return nil, newError(FailureUnknownSubject, nil)
	}

	embeddedRole, ok := strings.CutPrefix(claims.Role, domain.AuthorityPrefix)
	if !ok {
		return nil, newError(FailureMalformed, errors.New("role claim missing authority prefix"))
	}
	if embeddedRole != string(user.Role) {
		return nil, newError(FailureRoleMismatch, nil)
	}

	if tm.revoked != nil && tm.revoked.Contains(claims.ID) {
		return nil, newError(FailureRevoked, nil)
	}

	return NewPrincipal(user), nil
}

// Revoke adds the token's identifier to the revocation set. The token must
// still carry a valid signature; anything else is rejected so an attacker
// cannot fill the set with garbage.
func (tm *TokenManager) Revoke(tokenString string) error {
	claims, err := tm.parse(tokenString)
	if err != nil {
		return err
	}
	expiresAt := tm.now().Add(tm.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if tm.revoked != nil {
		tm.revoked.Add(claims.ID, expiresAt)
	}
	return nil
}

// parse performs the structural and signature checks. Claim validation is
// deliberately excluded here so expiry ordering stays under our control.
func (tm *TokenManager) parse(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, newError(FailureMalformed, err)
		}
		// Everything else at this stage is a verification failure,
		// including "none" and mismatched-algorithm tokens.
		return nil, newError(FailureBadSignature, err)
	}
	if parsed == nil || !parsed.Valid {
		return nil, newError(FailureBadSignature, errors.New("token not verified"))
	}
	return claims, nil
}
