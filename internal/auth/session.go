package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps session tokens in Redis. A session maps an opaque
// bearer token to the user it authenticates, expiring after the
// configured TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Create issues a new session token for the given user
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	err = s.client.Set(ctx, sessionKey(token), userID.String(), s.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// Lookup resolves a session token to the user it belongs to.
// Implements guard.SessionStore.
func (s *SessionStore) Lookup(ctx context.Context, token string) (uuid.UUID, bool, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to look up session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		// A corrupt session entry cannot authenticate anyone
		return uuid.Nil, false, nil
	}

	return userID, true, nil
}

// Delete removes a session, signing the user out
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// TTL returns the configured session lifetime
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// generateToken generates an opaque session token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
