package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/domain"
	"github.com/spec-kit/campus-network/internal/events"
	"github.com/spec-kit/campus-network/internal/repository"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

// UserService covers account reads and the admin operations on identity
// records.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, logger: logger}
}

// Get returns one identity record.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// List returns identity records for the admin surface.
func (s *UserService) List(ctx context.Context, limit int) ([]*domain.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.users.List(ctx, limit)
}

// ChangeRole updates a user's role. Outstanding tokens for that user carry
// the old role claim and stop validating immediately; the user is told
// through their private queue.
func (s *UserService) ChangeRole(ctx context.Context, actor *auth.Principal, userID int64, role domain.Role) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	oldRole := user.Role
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	user.Role = role

	s.logger.Info("role changed",
		zap.Int64("user_id", userID),
		zap.Int64("actor_id", actor.UserID),
		zap.String("old_role", string(oldRole)),
		zap.String("new_role", string(role)))

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRoleChanged,
		SubjectID: userID,
		ActorID:   actor.UserID,
		Timestamp: time.Now(),
		Payload: events.RoleChangedPayload{
			OldRole: oldRole,
			NewRole: role,
		},
	})

	return user, nil
}
