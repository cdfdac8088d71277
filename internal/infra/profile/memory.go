package profile

import (
	"context"
	"sync"

	"herald/internal/domain/notification"
)

var _ notification.ProfileStore = (*MemoryStore)(nil)

// MemoryStore is a map-backed profile store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*notification.UserChannelProfile
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*notification.UserChannelProfile)}
}

// Put registers a profile, replacing any existing entry for the user.
func (s *MemoryStore) Put(p *notification.UserChannelProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// GetProfile retrieves a user's channel profile. Returns nil, nil if the
// user is unknown.
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*notification.UserChannelProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID], nil
}
