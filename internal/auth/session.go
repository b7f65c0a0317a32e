package auth

import (
	"errors"
	"sync"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Session holds the bearer credential and the acting cashier's identity.
// It implements backend.TokenSource.
type Session struct {
	mu       sync.RWMutex
	token    string
	actorID  int64
	username string
	role     string
}

func NewSession() *Session {
	return &Session{}
}

// NewStaticSession wires a pre-issued credential, used when the terminal is
// configured with a token instead of login credentials.
func NewStaticSession(token string, actorID int64) *Session {
	return &Session{token: token, actorID: actorID}
}

func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Session) ActorID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actorID
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) set(token, username, role string, actorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.username = username
	s.role = role
	s.actorID = actorID
}

// Clear invalidates the credential locally.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.username = ""
	s.role = ""
	s.actorID = 0
}
