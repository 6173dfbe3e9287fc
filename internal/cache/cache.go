package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores chat answers so repeated questions about the same guide skip
// the LLM round trip.
type Cache interface {
	// GetChatAnswer retrieves a cached answer by key. Returns nil on miss.
	GetChatAnswer(ctx context.Context, key string) (*ChatAnswer, error)

	// SetChatAnswer stores an answer with TTL.
	SetChatAnswer(ctx context.Context, key string, answer *ChatAnswer, ttl time.Duration) error

	// InvalidateGuide removes all cached answers for a guide.
	InvalidateGuide(ctx context.Context, guideID string) error

	// Close closes the cache connection.
	Close() error
}

// ChatAnswer is a cached response to a guide question.
type ChatAnswer struct {
	Answer string `json:"answer"`
}

// GenerateCacheKey derives a stable key for a (guide, question) pair.
// The guide id prefixes the hash so InvalidateGuide can match by pattern.
func GenerateCacheKey(guideID, question string) string {
	sum := sha256.Sum256([]byte(question))
	return guideID + ":" + hex.EncodeToString(sum[:16])
}
