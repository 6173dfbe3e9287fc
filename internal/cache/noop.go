package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetChatAnswer always returns nil (cache miss)
func (c *NoOpCache) GetChatAnswer(ctx context.Context, key string) (*ChatAnswer, error) {
	return nil, nil
}

// SetChatAnswer does nothing and always succeeds
func (c *NoOpCache) SetChatAnswer(ctx context.Context, key string, answer *ChatAnswer, ttl time.Duration) error {
	return nil
}

// InvalidateGuide does nothing and always succeeds
func (c *NoOpCache) InvalidateGuide(ctx context.Context, guideID string) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
