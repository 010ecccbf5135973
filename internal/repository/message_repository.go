package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-network/internal/domain"
)

// MessageRepository defines persistence access for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	Conversation(ctx context.Context, userA, userB int64, limit int) ([]*domain.Message, error)
	Recent(ctx context.Context, limit int) ([]*domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository returns a Postgres-backed implementation.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (sender_id, recipient_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		message.SenderID,
		message.RecipientID,
		message.Body,
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) Conversation(ctx context.Context, userA, userB int64, limit int) ([]*domain.Message, error) {
	const query = `
        SELECT id, sender_id, recipient_id, body, created_at
        FROM messages
        WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)
        ORDER BY created_at DESC
        LIMIT $3`

	return r.queryMany(ctx, query, userA, userB, limit)
}

func (r *messageRepository) Recent(ctx context.Context, limit int) ([]*domain.Message, error) {
	const query = `
        SELECT id, sender_id, recipient_id, body, created_at
        FROM messages ORDER BY created_at DESC LIMIT $1`

	return r.queryMany(ctx, query, limit)
}

func (r *messageRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.RecipientID,
			&message.Body,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}
	return messages, rows.Err()
}
