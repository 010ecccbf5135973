package dto

import (
	"time"

	"github.com/spec-kit/campus-network/internal/domain"
)

// SendMessageRequest payload for direct messages.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Body        string `json:"body"`
}

// MessageResponse is the outward shape of a message.
type MessageResponse struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	RecipientID int64     `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMessageResponse maps a domain message.
func NewMessageResponse(message *domain.Message) MessageResponse {
	return MessageResponse{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Body:        message.Body,
		CreatedAt:   message.CreatedAt,
	}
}

// NewMessageResponses maps a slice of domain messages.
func NewMessageResponses(messages []*domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
