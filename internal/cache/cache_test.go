package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAuthSessionCache_ConsumeOnce(t *testing.T) {
	c := NewAuthSessionCache(10, time.Minute)
	ctx := context.Background()

	if err := c.Put(ctx, "sid", AuthSession{RequestToken: "token", RequestTokenSecret: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.Consume(ctx, "sid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RequestTokenSecret != "secret" {
		t.Errorf("RequestTokenSecret = %q, want %q", got.RequestTokenSecret, "secret")
	}

	if _, err := c.Consume(ctx, "sid"); !errors.Is(err, ErrAuthSessionNotFound) {
		t.Errorf("expected ErrAuthSessionNotFound on second consume, got %v", err)
	}
}

func TestAuthSessionCache_Expiry(t *testing.T) {
	c := NewAuthSessionCache(10, 20*time.Millisecond)
	ctx := context.Background()
	c.Put(ctx, "sid", AuthSession{RequestToken: "token"})

	time.Sleep(50 * time.Millisecond)

	if _, err := c.Consume(ctx, "sid"); !errors.Is(err, ErrAuthSessionNotFound) {
		t.Errorf("expected expired session, got %v", err)
	}
}

func TestAuthSessionCache_CapacityEvictsOldest(t *testing.T) {
	c := NewAuthSessionCache(3, time.Minute)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		c.Put(ctx, fmt.Sprintf("sid-%d", i), AuthSession{RequestToken: "token"})
	}

	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	if _, err := c.Consume(ctx, "sid-0"); !errors.Is(err, ErrAuthSessionNotFound) {
		t.Errorf("expected oldest entry to be evicted, got %v", err)
	}
	if _, err := c.Consume(ctx, "sid-3"); err != nil {
		t.Errorf("expected newest entry to remain, got %v", err)
	}
}

func TestRedisAuthSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisAuthSessionStore(client, DefaultAuthSessionTTL)
	ctx := context.Background()

	if err := s.Put(ctx, "sid", AuthSession{RequestToken: "token", RequestTokenSecret: "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL(redisKeyPrefix + "sid"); ttl != DefaultAuthSessionTTL {
		t.Errorf("TTL = %v, want %v", ttl, DefaultAuthSessionTTL)
	}

	got, err := s.Consume(ctx, "sid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RequestTokenSecret != "secret" {
		t.Errorf("RequestTokenSecret = %q, want %q", got.RequestTokenSecret, "secret")
	}
	if _, err := s.Consume(ctx, "sid"); !errors.Is(err, ErrAuthSessionNotFound) {
		t.Errorf("expected ErrAuthSessionNotFound on second consume, got %v", err)
	}
}

func TestRedisAuthSessionStore_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisAuthSessionStore(client, time.Minute)
	ctx := context.Background()
	s.Put(ctx, "sid", AuthSession{RequestToken: "token"})

	mr.FastForward(2 * time.Minute)

	if _, err := s.Consume(ctx, "sid"); !errors.Is(err, ErrAuthSessionNotFound) {
		t.Errorf("expected expired session, got %v", err)
	}
}
