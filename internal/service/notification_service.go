package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/events"
	"github.com/spec-kit/campus-network/internal/ws"
)

// NotificationService forwards domain events to the addressed user's
// realtime queue.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  ws.Publisher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, publisher ws.Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventMessageCreated, n.forward)
	n.dispatcher.Subscribe(events.EventRoleChanged, n.forward)
}

// notification is the payload pushed onto a user's queue.
type notification struct {
	Type      string      `json:"type"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(notification{
		Type:      "notification",
		Event:     string(event.Type),
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	})
	if err != nil {
		return err
	}

	if err := n.publisher.Publish(ctx, event.SubjectID, payload); err != nil {
		n.logger.Warn("notification publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("subject_id", event.SubjectID),
			zap.Error(err))
		return err
	}
	return nil
}
