package sessions

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryStore implements SessionStore interface with in-memory storage.
// Records live only as long as the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Get retrieves a session by user ID
func (s *InMemoryStore) Get(ctx context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[userID]
	if !exists {
		return nil, fmt.Errorf("user %s: %w", userID, ErrSessionNotFound)
	}

	copied := *session
	return &copied, nil
}

// Put stores a session, returning the one it replaced
func (s *InMemoryStore) Put(ctx context.Context, session *Session) (*Session, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	stored := *session

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.sessions[session.UserID]
	s.sessions[session.UserID] = &stored
	return previous, nil
}

// Delete removes a session
func (s *InMemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[userID]; !exists {
		return fmt.Errorf("user %s: %w", userID, ErrSessionNotFound)
	}

	delete(s.sessions, userID)
	return nil
}

// Count returns the number of stored sessions
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions), nil
}
