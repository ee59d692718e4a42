package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/pizzeria/internal/session"
)

var _ session.Store = (*SessionStore)(nil)

// SessionStore keeps sessions in a map. Sessions idle for longer than the
// TTL are treated as missing and evicted on access; a zero TTL keeps them
// forever.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session.Session
}

// NewSessionStore returns an empty SessionStore.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session.Session),
	}
}

// Get returns a copy of the stored session.
func (s *SessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, id)
		return nil, session.ErrNotFound
	}
	return sess.Clone(), nil
}

// Save stores a copy of sess.
func (s *SessionStore) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
