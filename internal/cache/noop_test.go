package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNoOpCacheAlwaysMisses(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	if err := c.SetChatAnswer(ctx, "k", &ChatAnswer{Answer: "hi"}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := c.GetChatAnswer(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
	if err := c.InvalidateGuide(ctx, "g"); err != nil {
		t.Errorf("invalidate failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("guide-1", "what to eat?")
	b := GenerateCacheKey("guide-1", "what to eat?")
	if a != b {
		t.Error("same inputs produced different keys")
	}
	if a == GenerateCacheKey("guide-2", "what to eat?") {
		t.Error("different guides produced the same key")
	}
	if a == GenerateCacheKey("guide-1", "where to stay?") {
		t.Error("different questions produced the same key")
	}
	if !strings.HasPrefix(a, "guide-1:") {
		t.Errorf("key should be prefixed with guide id: %s", a)
	}
}
