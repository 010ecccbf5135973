package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher addresses a payload to one user's private queue, wherever that
// user's connections live.
type Publisher interface {
	Publish(ctx context.Context, userID int64, payload []byte) error
}

// envelope is the fanout wire format carried over the redis channel.
type envelope struct {
	UserID  int64           `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge fans payloads out through redis pub/sub so a publish on one
// instance reaches the user's sockets on every instance, this one
// included: local delivery happens on the subscribe side only.
type Bridge struct {
	rdb     *redis.Client
	hub     *Hub
	channel string
	logger  *zap.Logger
}

// NewBridge wires the hub to a redis channel.
func NewBridge(rdb *redis.Client, hub *Hub, channel string, logger *zap.Logger) *Bridge {
	return &Bridge{rdb: rdb, hub: hub, channel: channel, logger: logger}
}

// Publish sends the payload through the fanout channel.
func (b *Bridge) Publish(ctx context.Context, userID int64, payload []byte) error {
	raw, err := json.Marshal(envelope{UserID: userID, Payload: payload})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Run subscribes and delivers until the context is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("malformed fanout envelope", zap.Error(err))
				continue
			}
			b.hub.Deliver(env.UserID, env.Payload)
		}
	}
}
