package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/domain"
	"github.com/spec-kit/campus-network/internal/events"
	"github.com/spec-kit/campus-network/internal/repository"
	apperrors "github.com/spec-kit/campus-network/pkg/util/errorutil"
)

const bodyPreviewLen = 80

// MessageService persists direct messages and emits the events that drive
// realtime delivery. Callers hand it the resolved principal; it performs
// no identity resolution of its own.
type MessageService struct {
	messages   repository.MessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewMessageService builds the service.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *MessageService {
	return &MessageService{
		messages:   messages,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Send persists a message from the sender to the recipient and publishes
// the created event addressed to the recipient's queue.
func (s *MessageService) Send(ctx context.Context, sender *auth.Principal, recipientID int64, body string) (*domain.Message, error) {
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	if recipientID <= 0 || recipientID == sender.UserID {
		return nil, apperrors.NewValidationError("invalid recipient", nil)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("recipient", nil)
		}
		return nil, err
	}
	if !recipient.Enabled {
		return nil, apperrors.NewNotFound("recipient", nil)
	}

	message := &domain.Message{
		SenderID:    sender.UserID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageCreated,
		SubjectID: recipientID,
		ActorID:   sender.UserID,
		Timestamp: time.Now(),
		Payload: events.MessageCreatedPayload{
			MessageID:   message.ID,
			SenderID:    sender.UserID,
			BodyPreview: preview(body),
		},
	})

	return message, nil
}

// History returns the conversation between the caller and another user.
func (s *MessageService) History(ctx context.Context, caller *auth.Principal, otherID int64, limit int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messages.Conversation(ctx, caller.UserID, otherID, limit)
}

// RecentForReview returns the latest messages for the moderation surface.
func (s *MessageService) RecentForReview(ctx context.Context, limit int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.messages.Recent(ctx, limit)
}

func preview(body string) string {
	if len(body) <= bodyPreviewLen {
		return body
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := bodyPreviewLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}
