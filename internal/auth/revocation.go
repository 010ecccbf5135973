package auth

import (
	"sync"
	"time"
)

// RevocationStore is a process-wide set of revoked token identifiers.
// It is the only shared mutable state in the auth core, so all access is
// guarded for concurrent use from request handlers. Entries are lost on
// restart; durability is explicitly out of scope.
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewRevocationStore creates an empty store.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{entries: make(map[string]time.Time)}
}

// Add records a token identifier together with the token's natural expiry.
func (s *RevocationStore) Add(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = expiresAt
}

// Contains reports whether the token identifier has been revoked.
func (s *RevocationStore) Contains(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[tokenID]
	return ok
}

// Len returns the number of live entries.
func (s *RevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep drops entries whose tokens could no longer validate anyway.
// Returns the number of entries removed.
func (s *RevocationStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
