package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-network/internal/domain"
	"github.com/spec-kit/campus-network/internal/events"
)

// fakeUserRepo is an in-memory repository.UserRepository. createErr, when
// set, is returned by Create to stand in for a store-level failure.
type fakeUserRepo struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*domain.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) SetEnabled(_ context.Context, id int64, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Enabled = enabled
	user.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for id := int64(1); id < r.nextID && len(out) < limit; id++ {
		if user, ok := r.users[id]; ok {
			clone := *user
			out = append(out, &clone)
		}
	}
	return out, nil
}

// fakeMessageRepo is an in-memory repository.MessageRepository.
type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int64
	messages []*domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	message.ID = r.nextID
	r.nextID++
	message.CreatedAt = time.Now()
	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) Conversation(_ context.Context, userA, userB int64, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.messages[i]
		if (m.SenderID == userA && m.RecipientID == userB) || (m.SenderID == userB && m.RecipientID == userA) {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Recent(_ context.Context, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		clone := *r.messages[i]
		out = append(out, &clone)
	}
	return out, nil
}

// capturingDispatcher records published events.
type capturingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *capturingDispatcher) events() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.published...)
}

// capturingPublisher records realtime payloads by user.
type capturingPublisher struct {
	mu       sync.Mutex
	payloads map[int64][][]byte
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{payloads: make(map[int64][][]byte)}
}

func (p *capturingPublisher) Publish(_ context.Context, userID int64, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[userID] = append(p.payloads[userID], payload)
	return nil
}
