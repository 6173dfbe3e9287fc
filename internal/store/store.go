package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"travel-intel/internal/geo"
)

type GuideStatus string

const (
	StatusProcessing GuideStatus = "processing"
	StatusReady      GuideStatus = "ready"
	StatusFailed     GuideStatus = "failed"
)

var ErrGuideNotFound = errors.New("guide not found")

// Guide is a generated travel briefing for a destination and month.
type Guide struct {
	ID          uuid.UUID
	Destination string
	Month       string
	Status      GuideStatus
	GuideText   string
	Sources     []string
	CreatedAt   time.Time
}

// GuideLocation is an extracted place with its short description, ordered
// by first occurrence in the guide text.
type GuideLocation struct {
	GuideID     uuid.UUID
	Ord         int
	Name        string
	Lat         float64
	Lon         float64
	Description string
}

// ChatMessage is one turn of a guide's follow-up conversation.
type ChatMessage struct {
	GuideID   uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateGuide(ctx context.Context, destination, month string) (Guide, error)
	GetGuide(ctx context.Context, id uuid.UUID) (Guide, error)
	ListGuides(ctx context.Context) ([]Guide, error)
	LatestReadyGuide(ctx context.Context, destination, month string) (Guide, error)
	SaveGuideText(ctx context.Context, id uuid.UUID, text string, sources []string) error
	UpdateGuideText(ctx context.Context, id uuid.UUID, text string) error
	UpdateGuideStatus(ctx context.Context, id uuid.UUID, status GuideStatus) error
	DeleteGuide(ctx context.Context, id uuid.UUID) error
	SaveLocations(ctx context.Context, guideID uuid.UUID, locations []geo.Location, descriptions []string) error
	ListLocations(ctx context.Context, guideID uuid.UUID) ([]GuideLocation, error)
	SaveChatMessage(ctx context.Context, guideID uuid.UUID, role, content string) error
	ListChatMessages(ctx context.Context, guideID uuid.UUID) ([]ChatMessage, error)
}
