package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GenerateBriefing(ctx context.Context, destination, month, searchContext string) (string, error) {
	args := m.Called(ctx, destination, month, searchContext)
	return args.String(0), args.Error(1)
}

func (m *MockClient) Chat(ctx context.Context, guideText, question string) (string, error) {
	args := m.Called(ctx, guideText, question)
	return args.String(0), args.Error(1)
}

func (m *MockClient) PlaceSummary(ctx context.Context, guideText, place string) (string, error) {
	args := m.Called(ctx, guideText, place)
	return args.String(0), args.Error(1)
}
