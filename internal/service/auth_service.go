package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/config"
	"github.com/spec-kit/campus-network/internal/domain"
	"github.com/spec-kit/campus-network/internal/repository"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

// pgUniqueViolation is the postgres SQLSTATE for a UNIQUE constraint
// violation.
const pgUniqueViolation = "23505"

// AuthService coordinates registration, login and logout.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a new enabled account with the base role and signs a
// token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Enabled:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The pre-insert lookup races with concurrent registration; the
		// UNIQUE constraint is the authority.
		if isUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// Login verifies credentials and issues a signed token. The failure is
// uniform across unknown identifier, wrong password and disabled account,
// and the cost of the check does not depend on which of those it was.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// Logout revokes the presented token. Structurally invalid or unsigned
// tokens are ignored so the endpoint reveals nothing about token state.
func (s *AuthService) Logout(_ context.Context, tokenString string) error {
	if err := s.tokens.Revoke(tokenString); err != nil {
		if _, ok := auth.AsError(err); ok {
			return nil
		}
		return err
	}
	return nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			auth.BurnCompare(password)
			return nil, authenticationFailed()
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, authenticationFailed()
	}
	if !user.Enabled {
		return nil, authenticationFailed()
	}
	return user, nil
}

func authenticationFailed() error {
	return &auth.Error{Kind: auth.FailureAuthenticationFailed}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
