package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/domain"
)

const providerMistral = "mistral"

// MistralClient is a direct HTTP client for the Mistral agents and
// moderation APIs.
type MistralClient struct {
	apiKey          string
	baseURL         string
	moderationModel string
	client          *http.Client
}

// NewMistralClient creates a client from the Mistral config section.
func NewMistralClient(cfg config.MistralConfig) *MistralClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := cfg.ModerationModel
	if model == "" {
		model = config.DefaultModerationModel
	}
	return &MistralClient{
		apiKey:          cfg.APIKey,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		moderationModel: model,
		client:          &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (c *MistralClient) Name() string { return providerMistral }

// Complete calls POST /v1/agents/completions.
func (c *MistralClient) Complete(ctx context.Context, req AgentRequest) (*AgentResponse, error) {
	var result mistralCompletionResponse
	if err := postJSON(ctx, c.client, providerMistral, c.baseURL+"/v1/agents/completions", c.apiKey, buildCompletionBody(req), &result); err != nil {
		return nil, err
	}
	return result.toAgentResponse(), nil
}

// Moderate calls POST /v1/moderations with text as the sole input.
func (c *MistralClient) Moderate(ctx context.Context, text string) (*ModerationResponse, error) {
	body := mistralModerationRequest{Model: c.moderationModel, Input: []string{text}}

	var result mistralModerationResponse
	if err := postJSON(ctx, c.client, providerMistral, c.baseURL+"/v1/moderations", c.apiKey, body, &result); err != nil {
		return nil, err
	}

	resp := &ModerationResponse{ID: result.ID, Model: result.Model}
	for _, r := range result.Results {
		resp.Results = append(resp.Results, ModerationResult{
			Categories: r.Categories,
			Scores:     r.CategoryScores,
		})
	}
	return resp, nil
}

// --- wire types ---

type mistralCompletionRequest struct {
	AgentID          string           `json:"agent_id"`
	Messages         []mistralMessage `json:"messages"`
	Tools            []mistralTool    `json:"tools,omitempty"`
	ToolChoice       string           `json:"tool_choice,omitempty"`
	MaxTokens        int              `json:"max_tokens,omitempty"`
	FrequencyPenalty float64          `json:"frequency_penalty"`
	PresencePenalty  float64          `json:"presence_penalty"`
	Stream           bool             `json:"stream"`
}

type mistralMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	Name       string            `json:"name,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []mistralToolCall `json:"tool_calls,omitempty"`
}

type mistralTool struct {
	Type     string          `json:"type"`
	Function mistralFunction `json:"function"`
}

type mistralFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type mistralToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"` // string or object
	} `json:"function"`
}

type mistralCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role      string            `json:"role"`
			Content   json.RawMessage   `json:"content"` // string, chunk array or null
			ToolCalls []mistralToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type mistralModerationRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type mistralModerationResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Results []struct {
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

func buildCompletionBody(req AgentRequest) mistralCompletionRequest {
	body := mistralCompletionRequest{
		AgentID:          req.AgentID,
		Messages:         make([]mistralMessage, 0, len(req.Messages)),
		MaxTokens:        req.MaxTokens,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}

	for _, m := range req.Messages {
		wm := mistralMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			var call mistralToolCall
			call.ID = tc.ID
			call.Type = "function"
			call.Function.Name = tc.Name
			args, _ := json.Marshal(tc.Arguments)
			call.Function.Arguments = args
			wm.ToolCalls = append(wm.ToolCalls, call)
		}
		body.Messages = append(body.Messages, wm)
	}

	if len(req.Tools) > 0 {
		for _, t := range req.Tools {
			body.Tools = append(body.Tools, mistralTool{
				Type: "function",
				Function: mistralFunction{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		body.ToolChoice = "auto"
	}
	return body
}

func (r *mistralCompletionResponse) toAgentResponse() *AgentResponse {
	resp := &AgentResponse{
		ID:    r.ID,
		Model: r.Model,
		Usage: domain.Usage{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
			Model:            r.Model,
		},
	}

	for _, ch := range r.Choices {
		choice := Choice{
			Content:      contentText(ch.Message.Content),
			FinishReason: ch.FinishReason,
		}
		for _, tc := range ch.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, domain.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: argumentsText(tc.Function.Arguments),
			})
		}
		resp.Choices = append(resp.Choices, choice)
	}
	return resp
}

// contentText flattens message content, which is either a string or a list
// of typed chunks.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var chunks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &chunks) == nil {
		var b strings.Builder
		for _, c := range chunks {
			if c.Type == "" || c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
		return b.String()
	}
	return ""
}

// argumentsText normalizes tool call arguments to a JSON object string.
func argumentsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "{}"
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		if strings.TrimSpace(s) == "" {
			return "{}"
		}
		return s
	}

	var buf bytes.Buffer
	if json.Compact(&buf, raw) == nil {
		return buf.String()
	}
	return string(raw)
}
