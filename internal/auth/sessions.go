package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session was revoked or has expired
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore keeps live login sessions in Redis so tokens can be revoked
// before they expire.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis backed session store
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Save records sessionID as belonging to accountID for ttl
func (s *SessionStore) Save(ctx context.Context, sessionID, accountID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Lookup returns the account id owning sessionID
func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	accountID, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return accountID, nil
}

// Delete revokes sessionID
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
