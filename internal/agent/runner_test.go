package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/zor/internal/domain"
	"github.com/soyeahso/zor/internal/hooks"
	"github.com/soyeahso/zor/internal/llm"
	"github.com/soyeahso/zor/internal/logging"
	"github.com/soyeahso/zor/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// fakeGate rejects any text listed in reject.
type fakeGate struct {
	mu      sync.Mutex
	reject  map[string]bool
	checked []string
}

func (g *fakeGate) Check(_ context.Context, text string) moderation.Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checked = append(g.checked, text)
	if g.reject[text] {
		return moderation.Verdict{Violations: []string{"hate_and_discrimination"}}
	}
	return moderation.Verdict{Approved: true}
}

// recorder captures completion requests and answers from a script.
type recorder struct {
	mu       sync.Mutex
	requests []llm.AgentRequest
	answer   func(n int, req llm.AgentRequest) (*llm.AgentResponse, error)
}

func (r *recorder) client() *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
			r.mu.Lock()
			r.requests = append(r.requests, req)
			n := len(r.requests)
			r.mu.Unlock()
			return r.answer(n, req)
		},
	}
}

func textResponse(content string, usage domain.Usage) *llm.AgentResponse {
	return &llm.AgentResponse{
		Model:   usage.Model,
		Choices: []llm.Choice{{Content: content, FinishReason: "stop"}},
		Usage:   usage,
	}
}

func testRunner(completer llm.Completer, gate ContentGate, store ConversationStore) *Runner {
	return NewRunner(RunnerConfig{
		AgentID:          "ag_test",
		MaxTokens:        300,
		FrequencyPenalty: 0.3,
		PresencePenalty:  0.2,
	}, completer, gate, store, testTools(), nil, silentLog())
}

func TestHandleNewUser(t *testing.T) {
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		return textResponse("Para 100m² use cerca de 10 litros.", domain.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30, Model: "mistral-medium"}), nil
	}}
	store := NewMemoryConversationStore()
	r := testRunner(rec.client(), &fakeGate{}, store)

	res := r.Handle(context.Background(), "Quantos litros para 100m²?", "5511999999999")
	require.NoError(t, res.Err)
	assert.Equal(t, "Para 100m² use cerca de 10 litros.", res.Reply)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, domain.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30, Model: "mistral-medium"}, *res.Statistics)

	h := store.History("5511999999999")
	require.Len(t, h, 3)
	assert.Equal(t, domain.RoleSystem, h[0].Role)
	assert.Equal(t, DefaultSystemPrompt, h[0].Content)
	assert.Equal(t, domain.RoleUser, h[1].Role)
	assert.Equal(t, "Quantos litros para 100m²?", h[1].Content)
	assert.Equal(t, domain.RoleAssistant, h[2].Role)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, "ag_test", req.AgentID)
	assert.Len(t, req.Tools, 2)
	assert.Equal(t, 300, req.MaxTokens)
	assert.Equal(t, 0.3, req.FrequencyPenalty)
	assert.Equal(t, 0.2, req.PresencePenalty)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, domain.RoleUser, req.Messages[1].Role)
}

func TestHandleExistingUserKeepsSingleSystemMessage(t *testing.T) {
	rec := &recorder{answer: func(n int, _ llm.AgentRequest) (*llm.AgentResponse, error) {
		return textResponse(fmt.Sprintf("resposta %d", n), domain.Usage{Model: "m"}), nil
	}}
	store := NewMemoryConversationStore()
	r := testRunner(rec.client(), &fakeGate{}, store)

	r.Handle(context.Background(), "primeira", "u1")
	r.Handle(context.Background(), "segunda", "u1")

	h := store.History("u1")
	require.Len(t, h, 5)
	systems := 0
	for _, m := range h {
		if m.Role == domain.RoleSystem {
			systems++
		}
	}
	assert.Equal(t, 1, systems)
	assert.Equal(t, "resposta 2", h[4].Content)
	assert.Len(t, rec.requests[1].Messages, 4)
}

func TestHandleInputRejected(t *testing.T) {
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		t.Fatal("completion must not be called")
		return nil, nil
	}}
	store := NewMemoryConversationStore()
	gate := &fakeGate{reject: map[string]bool{"texto ofensivo": true}}
	r := testRunner(rec.client(), gate, store)

	res := r.Handle(context.Background(), "texto ofensivo", "u1")
	assert.Equal(t, InputRefusal, res.Reply)
	assert.Nil(t, res.Statistics)
	assert.NoError(t, res.Err)

	_, ok := store.Get("u1")
	assert.False(t, ok, "rejected input must not create a conversation")
	assert.Zero(t, store.Count())
}

func TestHandleOutputRejected(t *testing.T) {
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		return textResponse("resposta proibida", domain.Usage{TotalTokens: 9, Model: "m"}), nil
	}}
	store := NewMemoryConversationStore()
	gate := &fakeGate{reject: map[string]bool{"resposta proibida": true}}
	r := testRunner(rec.client(), gate, store)

	res := r.Handle(context.Background(), "pergunta", "u1")
	assert.Equal(t, OutputRefusal, res.Reply)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, 9, res.Statistics.TotalTokens)

	h := store.History("u1")
	require.Len(t, h, 3)
	assert.Equal(t, OutputRefusal, h[2].Content)
	for _, m := range h {
		assert.NotEqual(t, "resposta proibida", m.Content)
	}
	assert.Equal(t, []string{"pergunta", "resposta proibida"}, gate.checked)
}

func TestHandleToolRound(t *testing.T) {
	rec := &recorder{answer: func(n int, req llm.AgentRequest) (*llm.AgentResponse, error) {
		if n == 1 {
			return &llm.AgentResponse{
				Model: "m1",
				Choices: []llm.Choice{{
					ToolCalls: []domain.ToolCall{
						{ID: "call_1", Name: "calcular", Arguments: `{"expressao":"100*2.5"}`},
						{ID: "call_2", Name: "obter_data", Arguments: `{}`},
					},
					FinishReason: "tool_calls",
				}},
				Usage: domain.Usage{TotalTokens: 50, Model: "m1"},
			}, nil
		}
		return textResponse("São 250 litros.", domain.Usage{PromptTokens: 70, CompletionTokens: 5, TotalTokens: 75, Model: "m2"}), nil
	}}
	store := NewMemoryConversationStore()
	r := testRunner(rec.client(), &fakeGate{}, store)

	res := r.Handle(context.Background(), "quanto é 100*2.5?", "u1")
	assert.Equal(t, "São 250 litros.", res.Reply)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, 75, res.Statistics.TotalTokens)
	assert.Equal(t, "m2", res.Statistics.Model)

	require.Len(t, rec.requests, 2)
	assert.Len(t, rec.requests[0].Tools, 2)
	assert.Empty(t, rec.requests[1].Tools)
	assert.Equal(t, rec.requests[0].AgentID, rec.requests[1].AgentID)

	second := rec.requests[1].Messages
	require.Len(t, second, 5) // system, user, assistant(tool_calls), tool, tool
	assert.Equal(t, domain.RoleAssistant, second[2].Role)
	assert.Len(t, second[2].ToolCalls, 2)
	assert.Equal(t, domain.RoleTool, second[3].Role)
	assert.Equal(t, "call_1", second[3].ToolCallID)
	assert.Equal(t, "calcular", second[3].Name)
	assert.Equal(t, "Resultado: 100*2.5 = 250.0", second[3].Content)
	assert.Equal(t, "call_2", second[4].ToolCallID)
	assert.Equal(t, "Data e hora atual: 05/03/2024 às 14:07:09", second[4].Content)

	h := store.History("u1")
	require.Len(t, h, 6)
	assert.Equal(t, "São 250 litros.", h[5].Content)
}

func TestHandleToolRoundSecondCallEmpty(t *testing.T) {
	rec := &recorder{answer: func(n int, _ llm.AgentRequest) (*llm.AgentResponse, error) {
		if n == 1 {
			return &llm.AgentResponse{
				Model: "m1",
				Choices: []llm.Choice{{
					Content:   "vou calcular",
					ToolCalls: []domain.ToolCall{{ID: "c", Name: "calcular", Arguments: `{"expressao":"2*3"}`}},
				}},
				Usage: domain.Usage{TotalTokens: 11, Model: "m1"},
			}, nil
		}
		return &llm.AgentResponse{Model: "m2"}, nil
	}}
	r := testRunner(rec.client(), &fakeGate{}, NewMemoryConversationStore())

	res := r.Handle(context.Background(), "2*3?", "u1")
	assert.Equal(t, "vou calcular", res.Reply)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, "m1", res.Statistics.Model)
}

func TestHandleNoChoices(t *testing.T) {
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		return &llm.AgentResponse{Model: "m"}, nil
	}}
	store := NewMemoryConversationStore()
	r := testRunner(rec.client(), &fakeGate{}, store)

	res := r.Handle(context.Background(), "oi", "u1")
	assert.Equal(t, NoReply, res.Reply)
	assert.Nil(t, res.Statistics)
	assert.Len(t, store.History("u1"), 2) // system, user
}

func TestHandleCompletionError(t *testing.T) {
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		return nil, &llm.ProviderError{Provider: "mistral", Message: "service down", Code: 500}
	}}
	r := testRunner(rec.client(), &fakeGate{}, NewMemoryConversationStore())

	res := r.Handle(context.Background(), "oi", "u1")
	assert.Equal(t, "Erro interno: mistral: 500 service down", res.Reply)
	assert.Nil(t, res.Statistics)

	var provErr *llm.ProviderError
	require.True(t, errors.As(res.Err, &provErr))
	assert.Equal(t, 500, provErr.Code)
}

func TestHandleNilResponse(t *testing.T) {
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		return nil, nil
	}}
	r := testRunner(rec.client(), &fakeGate{}, NewMemoryConversationStore())

	res := r.Handle(context.Background(), "oi", "u1")
	assert.Equal(t, "Erro interno: empty completion response", res.Reply)
}

func TestHandleConcurrentSameUser(t *testing.T) {
	var active, maxActive int
	var mu sync.Mutex
	rec := &recorder{answer: func(n int, _ llm.AgentRequest) (*llm.AgentResponse, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return textResponse(fmt.Sprintf("r%d", n), domain.Usage{Model: "m"}), nil
	}}
	store := NewMemoryConversationStore()
	r := testRunner(rec.client(), &fakeGate{}, store)

	var wg sync.WaitGroup
	for _, text := range []string{"a", "b"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			r.Handle(context.Background(), text, "same-user")
		}(text)
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
	h := store.History("same-user")
	require.Len(t, h, 5)
	assert.Equal(t, domain.RoleSystem, h[0].Role)
	for i := 1; i < 5; i += 2 {
		assert.Equal(t, domain.RoleUser, h[i].Role)
		assert.Equal(t, domain.RoleAssistant, h[i+1].Role)
	}
}

func TestHandleConcurrentDifferentUsers(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		started.Done()
		<-release
		return textResponse("ok", domain.Usage{Model: "m"}), nil
	}}
	r := testRunner(rec.client(), &fakeGate{}, NewMemoryConversationStore())

	var wg sync.WaitGroup
	for _, user := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			r.Handle(context.Background(), "oi", user)
		}(user)
	}

	// both turns reach the completion call before either finishes
	started.Wait()
	close(release)
	wg.Wait()
	assert.Equal(t, 2, r.Store().Count())
}

func TestHandleEmitsHooks(t *testing.T) {
	mgr := hooks.NewManager(silentLog())
	events := make(chan hooks.Payload, 10)
	mgr.OnAll("test", func(_ context.Context, p hooks.Payload) error {
		events <- p
		return nil
	})

	rec := &recorder{answer: func(int, llm.AgentRequest) (*llm.AgentResponse, error) {
		return textResponse("ok", domain.Usage{TotalTokens: 3, Model: "m"}), nil
	}}
	r := NewRunner(RunnerConfig{AgentID: "ag"}, rec.client(), &fakeGate{}, NewMemoryConversationStore(), testTools(), mgr, silentLog())
	r.Handle(context.Background(), "oi", "u1")

	select {
	case p := <-events:
		assert.Equal(t, hooks.EventReplyGenerated, p.Event)
		assert.Equal(t, "u1", p.Data["user"])
		assert.Equal(t, 3, p.Data["totalTokens"])
	case <-time.After(2 * time.Second):
		t.Fatal("no hook event")
	}
}

func TestModerationGateSatisfiesContentGate(t *testing.T) {
	var _ ContentGate = moderation.NewGate(&llm.MockClient{}, silentLog())
}
