package events

import (
	"time"

	"github.com/spec-kit/campus-network/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageCreated EventType = "message_created"
	EventRoleChanged    EventType = "role_changed"
)

// Event represents a domain event emitted by services. SubjectID is the
// user whose private queue the event is addressed to.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID int64       `json:"subject_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageCreatedPayload payload.
type MessageCreatedPayload struct {
	MessageID   int64  `json:"message_id"`
	SenderID    int64  `json:"sender_id"`
	BodyPreview string `json:"body_preview"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}
