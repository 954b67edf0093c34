package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatePurpose distinguishes the two GitHub OAuth flows: signing in with
// GitHub versus linking GitHub to an already-authenticated account.
type StatePurpose string

const (
	StatePurposeLogin   StatePurpose = "login"
	StatePurposeConnect StatePurpose = "connect"
)

const stateTTL = 10 * time.Minute

// OAuthState is the per-flow session created when redirecting to GitHub and
// consumed exactly once by the callback.
type OAuthState struct {
	Purpose   StatePurpose
	UserID    uuid.UUID
	Redirect  string
	ExpiresAt time.Time
}

// StateStore keeps pending OAuth states in memory. States expire after ten
// minutes and are removed on first consumption.
type StateStore struct {
	mu     sync.Mutex
	states map[string]OAuthState
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]OAuthState)}
}

// Create registers a new state and returns its opaque token.
func (s *StateStore) Create(purpose StatePurpose, userID uuid.UUID, redirect string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	s.states[token] = OAuthState{
		Purpose:   purpose,
		UserID:    userID,
		Redirect:  redirect,
		ExpiresAt: time.Now().Add(stateTTL),
	}
	return token, nil
}

// Consume removes and returns the state for token. A missing or expired state
// returns false.
func (s *StateStore) Consume(token string) (OAuthState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[token]
	if !ok {
		return OAuthState{}, false
	}
	delete(s.states, token)
	if time.Now().After(st.ExpiresAt) {
		return OAuthState{}, false
	}
	return st, true
}

// prune drops expired states. Caller holds the lock.
func (s *StateStore) prune() {
	now := time.Now()
	for token, st := range s.states {
		if now.After(st.ExpiresAt) {
			delete(s.states, token)
		}
	}
}
