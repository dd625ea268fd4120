package session

import (
	"sync"
	"time"
)

// State is the kind of conversation a user currently has with the bot. The
// two kinds are mutually exclusive per user.
type State string

const (
	StateChatting         State = "chatting"
	StateAwaitingCategory State = "awaiting_category_choice"
)

// Session is one user's active conversation state.
type Session struct {
	UserID       string
	State        State
	LastActivity time.Time
	TurnsUsed    int
}

// Store owns all live sessions, keyed by user ID. Sessions are ephemeral
// runtime state; nothing survives a restart. Discord dispatches message
// handlers on separate goroutines, so the map is mutex-guarded like every
// other per-user map in this codebase.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	now      func() time.Time
}

func NewStore(timeout time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Get returns a snapshot of the user's session, if any.
func (s *Store) Get(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Create replaces any existing session for the user with a fresh one in the
// given state. At most one session per user exists at any time.
func (s *Store) Create(userID string, state State) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		UserID:       userID,
		State:        state,
		LastActivity: s.now(),
	}
	s.sessions[userID] = sess
	return *sess
}

func (s *Store) Delete(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Touch refreshes the activity timestamp. The timestamp never moves backwards.
func (s *Store) Touch(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		if now := s.now(); now.After(sess.LastActivity) {
			sess.LastActivity = now
		}
	}
}

// IncrementTurn bumps the turn counter and returns the new value. Returns 0
// when no session exists.
func (s *Store) IncrementTurn(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return 0
	}
	sess.TurnsUsed++
	return sess.TurnsUsed
}

// ExpireIfIdle deletes the user's session when it has been idle for at least
// the store timeout, and reports whether it did. Expiry is silent; callers
// run this lazily before any other per-message logic.
func (s *Store) ExpireIfIdle(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return false
	}
	if s.now().Sub(sess.LastActivity) < s.timeout {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// Expired reports whether the session's idle time has reached the timeout,
// without deleting it.
func (s *Store) Expired(sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(sess.LastActivity) >= s.timeout
}
