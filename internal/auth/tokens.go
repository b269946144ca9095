package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tokenEntry struct {
	username string
	expires  time.Time
}

// TokenStore issues opaque access tokens with a fixed TTL.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
	ttl    time.Duration
}

// NewTokenStore creates a token store whose tokens expire after ttl.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		tokens: make(map[string]tokenEntry),
		ttl:    ttl,
	}
}

// Issue creates a fresh token bound to the given username.
func (s *TokenStore) Issue(username string) string {
	token := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenEntry{username: username, expires: time.Now().Add(s.ttl)}
	return token
}

// Validate resolves a token to its username. Expired tokens are removed on
// the spot.
func (s *TokenStore) Validate(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		delete(s.tokens, token)
		return "", false
	}
	return entry.username, true
}

// Revoke invalidates a token.
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// CleanupExpired sweeps expired tokens until the context is cancelled.
func (s *TokenStore) CleanupExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for token, entry := range s.tokens {
				if now.After(entry.expires) {
					delete(s.tokens, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
