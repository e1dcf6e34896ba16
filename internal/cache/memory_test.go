package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
)

func TestMemorySetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	if _, err := c.Get(ctx, "ack:a@example.com"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, "ack:a@example.com", []byte(`{"acknowledged":true}`), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(ctx, "ack:a@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"acknowledged":true}` {
		t.Fatalf("unexpected value %q", got)
	}
	if err := c.Delete(ctx, "ack:a@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "ack:a@example.com"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	if err := c.Set(ctx, "k", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestNewFallsBackToMemory(t *testing.T) {
	c := New(config.CacheConfig{Backend: "redis", TTL: time.Minute}, &persistence.Redis{}, zap.NewNop())
	if _, ok := c.(*memoryCache); !ok {
		t.Fatalf("expected memory cache, got %T", c)
	}
}
