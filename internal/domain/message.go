package domain

import "time"

// Message is a direct message between two users. Persisted before realtime
// delivery so the recipient can fetch history while offline.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Body        string
	CreatedAt   time.Time
}
