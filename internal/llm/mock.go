package llm

import (
	"context"

	"github.com/soyeahso/zor/internal/domain"
)

// MockClient is a test double for Completer and Moderator.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req AgentRequest) (*AgentResponse, error)
	ModerateFunc func(ctx context.Context, text string) (*ModerationResponse, error)
}

func (m *MockClient) Complete(ctx context.Context, req AgentRequest) (*AgentResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &AgentResponse{
		Model:   "mock",
		Choices: []Choice{{Content: "mock response", FinishReason: "stop"}},
		Usage:   domain.Usage{Model: "mock"},
	}, nil
}

func (m *MockClient) Moderate(ctx context.Context, text string) (*ModerationResponse, error) {
	if m.ModerateFunc != nil {
		return m.ModerateFunc(ctx, text)
	}
	return &ModerationResponse{
		Model:   "mock",
		Results: []ModerationResult{{Categories: map[string]bool{}}},
	}, nil
}
