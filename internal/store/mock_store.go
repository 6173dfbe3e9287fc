package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"travel-intel/internal/geo"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateGuide(ctx context.Context, destination, month string) (Guide, error) {
	args := m.Called(ctx, destination, month)
	return args.Get(0).(Guide), args.Error(1)
}

func (m *MockStore) GetGuide(ctx context.Context, id uuid.UUID) (Guide, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Guide), args.Error(1)
}

func (m *MockStore) ListGuides(ctx context.Context) ([]Guide, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Guide), args.Error(1)
}

func (m *MockStore) LatestReadyGuide(ctx context.Context, destination, month string) (Guide, error) {
	args := m.Called(ctx, destination, month)
	return args.Get(0).(Guide), args.Error(1)
}

func (m *MockStore) SaveGuideText(ctx context.Context, id uuid.UUID, text string, sources []string) error {
	args := m.Called(ctx, id, text, sources)
	return args.Error(0)
}

func (m *MockStore) UpdateGuideText(ctx context.Context, id uuid.UUID, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func (m *MockStore) UpdateGuideStatus(ctx context.Context, id uuid.UUID, status GuideStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) DeleteGuide(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) SaveLocations(ctx context.Context, guideID uuid.UUID, locations []geo.Location, descriptions []string) error {
	args := m.Called(ctx, guideID, locations, descriptions)
	return args.Error(0)
}

func (m *MockStore) ListLocations(ctx context.Context, guideID uuid.UUID) ([]GuideLocation, error) {
	args := m.Called(ctx, guideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]GuideLocation), args.Error(1)
}

func (m *MockStore) SaveChatMessage(ctx context.Context, guideID uuid.UUID, role, content string) error {
	args := m.Called(ctx, guideID, role, content)
	return args.Error(0)
}

func (m *MockStore) ListChatMessages(ctx context.Context, guideID uuid.UUID) ([]ChatMessage, error) {
	args := m.Called(ctx, guideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChatMessage), args.Error(1)
}
