package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/crm"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/logger"
	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

var (
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrSessionForbidden = errors.New("permission denied: session belongs to another user")
)

// Session is one open entity list: a table view over the entity's rows plus
// the page window the client last asked for.
type Session struct {
	ID      string
	OwnerID string
	Entity  crm.Entity

	mu   sync.Mutex
	view *table.View
	auth *sessionAuth
	page table.PageRequest

	lastUsed time.Time
}

func (sess *Session) release() { sess.mu.Unlock() }

// SessionStore keeps page sessions in memory and expires idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add registers a session under a fresh id.
func (s *SessionStore) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.ID = uuid.NewString()
	sess.lastUsed = s.now()
	s.sessions[sess.ID] = sess
}

// Acquire returns the session locked for the caller, who must release it.
func (s *SessionStore) Acquire(id, userID string) (*Session, error) {
	s.mu.Lock()
	sess, err := s.lookup(id, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sess.lastUsed = s.now()
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, nil
}

// Remove closes a session.
func (s *SessionStore) Remove(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(id, userID); err != nil {
		return err
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) lookup(id, userID string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	if sess.OwnerID != userID {
		return nil, ErrSessionForbidden
	}
	return sess, nil
}

func (s *SessionStore) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastUsed) > s.ttl
}

// Sweep drops every expired session and returns how many went.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Log.Debugf("[Sessions] Expired %d idle sessions", n)
			}
		}
	}
}
