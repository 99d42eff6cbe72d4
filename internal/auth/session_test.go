package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	token, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if err := store.Put(ctx, token, "user-1", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	userID, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}

	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after delete, got %v", err)
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	if err := store.Put(ctx, "tok", "user-1", -time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for expired session, got %v", err)
	}
}

func TestRedisSessionStore(t *testing.T) {
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer srv.Close()

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	store := NewRedisSessionStore(client)
	ctx := context.Background()

	if err := store.Put(ctx, "tok", "user-7", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	userID, err := store.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if userID != "user-7" {
		t.Fatalf("expected user-7, got %q", userID)
	}

	srv.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after TTL, got %v", err)
	}
}

func TestNewTokenIsUnique(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("token a: %v", err)
	}
	b, err := NewToken()
	if err != nil {
		t.Fatalf("token b: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
