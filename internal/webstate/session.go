// Package webstate holds the client-side application state of the registry
// front-end: the signed-in session, the student roster, toast notifications
// and the student editor. Every type is created by the application root and
// passed down explicitly; all of them are safe for concurrent use.
package webstate

import (
	"context"
	"sync"

	"github.com/atfitk/websystem-api/internal/client"
	"github.com/atfitk/websystem-api/internal/models"
)

// SessionState is the authentication state of the client.
type SessionState int

const (
	SessionLoading SessionState = iota
	SessionAuthenticated
	SessionAnonymous
)

func (s SessionState) String() string {
	switch s {
	case SessionLoading:
		return "loading"
	case SessionAuthenticated:
		return "authenticated"
	case SessionAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type sessionAPI interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Me(ctx context.Context) (*models.UserInfo, error)
	Logout()
	Tokens() client.TokenStore
}

// Session tracks who is signed in.
// Loading moves to Authenticated or Anonymous; Authenticated moves to
// Anonymous on logout or when the stored token fails verification.
type Session struct {
	mu    sync.RWMutex
	api   sessionAPI
	state SessionState
	user  *models.UserInfo
}

func NewSession(api sessionAPI) *Session {
	return &Session{api: api, state: SessionLoading}
}

// Init verifies a previously stored token. Any failure discards the token.
func (s *Session) Init(ctx context.Context) SessionState {
	if s.api.Tokens().Token() == "" {
		s.setAnonymous()
		return SessionAnonymous
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.api.Logout()
		s.setAnonymous()
		return SessionAnonymous
	}

	s.mu.Lock()
	s.state = SessionAuthenticated
	s.user = user
	s.mu.Unlock()
	return SessionAuthenticated
}

// Login authenticates and stores the token through the API client. A failed
// attempt leaves the current state untouched.
func (s *Session) Login(ctx context.Context, username, password string) (models.UserInfo, error) {
	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		return models.UserInfo{}, err
	}

	user := resp.User
	s.mu.Lock()
	s.state = SessionAuthenticated
	s.user = &user
	s.mu.Unlock()
	return user, nil
}

func (s *Session) Logout() {
	s.api.Logout()
	s.setAnonymous()
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, or false when anonymous.
func (s *Session) User() (models.UserInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.UserInfo{}, false
	}
	return *s.user, true
}

// IsDirector reports whether the signed-in user may delete records.
func (s *Session) IsDirector() bool {
	user, ok := s.User()
	return ok && user.Role == models.RoleDirector
}

func (s *Session) setAnonymous() {
	s.mu.Lock()
	s.state = SessionAnonymous
	s.user = nil
	s.mu.Unlock()
}
