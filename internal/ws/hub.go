package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/config"
	"github.com/spec-kit/campus-network/internal/domain"
)

// MessageSink receives inbound messages from established connections.
// The sender is always the connection's bound principal.
type MessageSink interface {
	Send(ctx context.Context, sender *auth.Principal, recipientID int64, body string) (*domain.Message, error)
}

// Frame is the wire shape exchanged on a connection.
type Frame struct {
	Type string `json:"type"`
	To   int64  `json:"to,omitempty"`
	Body string `json:"body,omitempty"`
	Err  string `json:"error,omitempty"`
}

// session is one live connection. send is drained by the write pump so
// the read loop never blocks on a slow peer.
type session struct {
	conn      *websocket.Conn
	principal *auth.Principal
	send      chan []byte
	closeOnce sync.Once
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
		_ = s.conn.Close()
	})
}

// Hub tracks live connections keyed by the resolved subject so payloads
// can be addressed to one user's private queue.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int64]map[*session]struct{}

	sink   MessageSink
	cfg    config.RealtimeConfig
	logger *zap.Logger
}

// NewHub builds the connection registry.
func NewHub(sink MessageSink, cfg config.RealtimeConfig, logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[int64]map[*session]struct{}),
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
	}
}

// Serve owns the connection until it closes. A connection without a bound
// principal stays open but belongs to no queue; its inbound messages are
// answered with an error frame. There is no re-validation during the
// connection's lifetime and no proactive disconnect when the originating
// token later expires.
func (h *Hub) Serve(conn *websocket.Conn) {
	principal, _ := BoundPrincipal(conn)

	s := &session{
		conn:      conn,
		principal: principal,
		send:      make(chan []byte, h.sendBuffer()),
	}

	// Teardown order matters: the session must leave the registry before
	// its send channel closes, or a concurrent Deliver could write to a
	// closed channel. Deferred calls run in reverse, so close is staged
	// first and unregister after it.
	defer s.close()
	if principal != nil {
		h.register(s)
		defer h.unregister(s)
		h.logger.Info("realtime connection opened", zap.Int64("user_id", principal.UserID))
	} else {
		h.logger.Info("realtime connection opened unauthenticated")
	}

	go s.writePump(h.cfg.WriteTimeout())
	h.readLoop(s)
}

// Deliver queues a payload for every live connection of one user.
func (h *Hub) Deliver(userID int64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions[userID] {
		select {
		case s.send <- payload:
		default:
			// Slow consumer; drop rather than stall the caller.
			h.logger.Warn("realtime send buffer full", zap.Int64("user_id", userID))
		}
	}
}

// Publish satisfies the Publisher contract for single-instance setups,
// where local delivery is the whole story.
func (h *Hub) Publish(_ context.Context, userID int64, payload []byte) error {
	h.Deliver(userID, payload)
	return nil
}

// ConnectionCount reports live connections for one user.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := s.principal.UserID
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID := s.principal.UserID
	delete(h.sessions[userID], s)
	if len(h.sessions[userID]) == 0 {
		delete(h.sessions, userID)
	}
}

func (h *Hub) readLoop(s *session) {
	readTimeout := h.cfg.ReadTimeout()
	_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Warn("realtime read error", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.reply(s, Frame{Type: "error", Err: "INVALID_FRAME"})
			continue
		}
		h.handleFrame(s, frame)
	}
}

func (h *Hub) handleFrame(s *session, frame Frame) {
	switch frame.Type {
	case "ping":
		h.reply(s, Frame{Type: "pong"})
	case "message":
		if s.principal == nil {
			h.reply(s, Frame{Type: "error", Err: "UNAUTHENTICATED"})
			return
		}
		if _, err := h.sink.Send(context.Background(), s.principal, frame.To, frame.Body); err != nil {
			h.logger.Warn("inbound message rejected",
				zap.Int64("sender_id", s.principal.UserID),
				zap.Error(err))
			h.reply(s, Frame{Type: "error", Err: "MESSAGE_REJECTED"})
		}
	default:
		h.reply(s, Frame{Type: "error", Err: "UNKNOWN_FRAME_TYPE"})
	}
}

func (h *Hub) reply(s *session, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case s.send <- payload:
	default:
	}
}

func (h *Hub) sendBuffer() int {
	if h.cfg.SendBuffer <= 0 {
		return 32
	}
	return h.cfg.SendBuffer
}

func (s *session) writePump(writeTimeout time.Duration) {
	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = s.conn.Close()
			return
		}
	}
}
