package bot

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Draft holds the in-flight expense while the user walks through the
// amount, category and comment steps.
type Draft struct {
	Amount   decimal.Decimal
	Currency string
	Category string
}

// Session is one user's conversation position.
type Session struct {
	State State
	Draft Draft
}

// SessionStore keeps per-user sessions keyed by external chat id.
// Handlers for one user run sequentially, but distinct users are
// handled concurrently, so access is guarded.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]Session)}
}

// Get returns the user's session, defaulting to Menu for first contact.
func (s *SessionStore) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[chatID]
}

func (s *SessionStore) Set(chatID int64, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
}

// Reset drops the draft and returns the user to the menu.
func (s *SessionStore) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = Session{}
}
