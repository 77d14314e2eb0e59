package taskclient

import (
	"context"
	"sync"
)

// Session tracks the signed-in user for a Client. Any 401 from an
// authenticated call tears the session down.
type Session struct {
	client *Client

	mu   sync.RWMutex
	user *User
}

// NewSession binds a session to client.
func NewSession(client *Client) *Session {
	s := &Session{client: client}
	client.setUnauthorizedHook(s.Teardown)
	return s
}

// Init resolves the stored credential into the current user. Without a
// credential it returns ErrNoCredential and the session stays signed out.
func (s *Session) Init(ctx context.Context) (*User, error) {
	user, err := s.client.Me(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Login signs in with a provider ID token.
func (s *Session) Login(ctx context.Context, idToken string) (*User, error) {
	result, err := s.client.Login(ctx, idToken)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &result.User
	s.mu.Unlock()
	return &result.User, nil
}

// Teardown forgets the user and the credential.
func (s *Session) Teardown() {
	s.client.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Active reports whether a user is signed in.
func (s *Session) Active() bool {
	return s.User() != nil
}
