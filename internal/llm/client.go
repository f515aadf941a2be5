// Package llm talks to the hosted Mistral agent: agent completions and text
// moderation. The Completer and Moderator interfaces let callers swap in the
// MockClient under test.
package llm

import (
	"context"
	"fmt"

	"github.com/soyeahso/zor/internal/domain"
)

// ToolDefinition describes a local tool the agent can invoke.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema object
}

// AgentRequest is the input to a Complete call. Tools empty means the
// completion is requested without tool definitions.
type AgentRequest struct {
	AgentID          string
	Messages         []domain.Message
	Tools            []ToolDefinition
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Choice is one candidate reply.
type Choice struct {
	Content      string
	ToolCalls    []domain.ToolCall
	FinishReason string
}

// AgentResponse is the result of an agent completion.
type AgentResponse struct {
	ID      string
	Model   string
	Choices []Choice
	Usage   domain.Usage // Model is filled from the response model
}

// First returns the first choice, if any.
func (r *AgentResponse) First() (Choice, bool) {
	if r == nil || len(r.Choices) == 0 {
		return Choice{}, false
	}
	return r.Choices[0], true
}

// ModerationResult holds the classifier output for one input.
type ModerationResult struct {
	Categories map[string]bool
	Scores     map[string]float64
}

// ModerationResponse is the result of a moderation call. Results has one
// entry per input; it may be empty.
type ModerationResponse struct {
	ID      string
	Model   string
	Results []ModerationResult
}

// Completer runs agent completions.
type Completer interface {
	Complete(ctx context.Context, req AgentRequest) (*AgentResponse, error)
}

// Moderator classifies text.
type Moderator interface {
	Moderate(ctx context.Context, text string) (*ModerationResponse, error)
}

// ProviderError is returned when the provider answers with a non-200 status.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status code
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
