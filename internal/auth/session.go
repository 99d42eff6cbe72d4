package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:v1:"

// ErrNoSession indicates the presented token resolves to no session.
// Callers treat it as an anonymous request, never a server fault.
var ErrNoSession = errors.New("no session")

// SessionStore maps opaque session tokens to user ids with a TTL.
type SessionStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// NewToken returns a cryptographically random session token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// RedisSessionStore keeps sessions in Redis so they survive restarts and
// are shared across instances.
type RedisSessionStore struct {
	cache *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(cache *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{cache: cache}
}

// Put stores the token to user-id mapping with the given TTL.
func (s *RedisSessionStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.cache.Set(ctx, sessionPrefix+token, userID, ttl).Err()
}

// Get resolves a token to a user id, or ErrNoSession.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (string, error) {
	userID, err := s.cache.Get(ctx, sessionPrefix+token).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// Delete removes the session. Deleting an absent token is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.cache.Del(ctx, sessionPrefix+token).Err()
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

// NewMemorySessionStore builds an in-memory session store for dev mode and testing.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]memorySession)}
}

func (s *memorySessionStore) Put(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return "", ErrNoSession
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return "", ErrNoSession
	}
	return sess.userID, nil
}

func (s *memorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
