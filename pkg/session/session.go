package session

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// TokenKey is the fixed store key under which the bearer token is persisted.
const TokenKey = "jwt"

// Session owns the bearer token of the running client. Exactly one Session is
// shared between the API client, which reads the token on every request, and
// the lifecycle controller, which is the only writer.
type Session struct {
	mu    sync.RWMutex
	store Store
	token string
}

func New(store Store) *Session {
	return &Session{store: store}
}

// Load reads a previously persisted token from the store into memory.
func (s *Session) Load(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return fmt.Errorf("unable to load session token: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.token = token
	} else {
		s.token = ""
	}
	return nil
}

// Token returns the current token and whether one is present.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("unable to persist session token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	log.Debug("session token stored")
	return nil
}

// ClearToken removes the token from memory and from the store. The in-memory
// token is dropped even when the store fails.
func (s *Session) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if err := s.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("unable to remove session token: %w", err)
	}
	log.Debug("session token cleared")
	return nil
}
