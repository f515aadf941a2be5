// Package agent runs a ZOR conversation turn: moderation, history, the
// hosted agent completion, local tools and the reply.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/domain"
	"github.com/soyeahso/zor/internal/hooks"
	"github.com/soyeahso/zor/internal/llm"
	"github.com/soyeahso/zor/internal/logging"
	"github.com/soyeahso/zor/internal/moderation"
)

// Fixed replies.
const (
	InputRefusal  = "Desculpe, sua mensagem contém conteúdo inadequado. Por favor, reformule sua pergunta de forma mais apropriada."
	OutputRefusal = "Desculpe, não posso fornecer uma resposta adequada para sua pergunta. Por favor, reformule sua pergunta."
	NoReply       = "Desculpe, não consegui processar sua mensagem."

	internalErrorPrefix = "Erro interno: "
)

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	AgentID          string
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
	SystemPrompt     string // empty means DefaultSystemPrompt
}

// RunnerConfigFrom builds a RunnerConfig from the loaded configuration.
func RunnerConfigFrom(cfg config.Config) RunnerConfig {
	return RunnerConfig{
		AgentID:          cfg.Mistral.AgentID,
		MaxTokens:        cfg.Agent.MaxTokens,
		FrequencyPenalty: cfg.Agent.FrequencyPenalty,
		PresencePenalty:  cfg.Agent.PresencePenalty,
		SystemPrompt:     cfg.Agent.SystemPrompt,
	}
}

// ContentGate approves or rejects text.
type ContentGate interface {
	Check(ctx context.Context, text string) moderation.Verdict
}

// Runner is the turn orchestrator. Turns for the same user run one at a
// time; different users run concurrently.
type Runner struct {
	cfg       RunnerConfig
	prompt    string
	completer llm.Completer
	gate      ContentGate
	store     ConversationStore
	tools     *ToolExecutor
	hooks     *hooks.Manager
	locks     *keyedMutex
	log       *logging.Logger
}

// NewRunner creates an agent runner. hooks may be nil.
func NewRunner(
	cfg RunnerConfig,
	completer llm.Completer,
	gate ContentGate,
	store ConversationStore,
	tools *ToolExecutor,
	hooksMgr *hooks.Manager,
	log *logging.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		prompt:    SystemPrompt(cfg.SystemPrompt),
		completer: completer,
		gate:      gate,
		store:     store,
		tools:     tools,
		hooks:     hooksMgr,
		locks:     newKeyedMutex(),
		log:       log.Sub("agent"),
	}
}

// AgentID returns the hosted agent identifier used for completions.
func (r *Runner) AgentID() string { return r.cfg.AgentID }

// Store returns the conversation store.
func (r *Runner) Store() ConversationStore { return r.store }

// Handle runs one turn for userID and always returns a displayable reply.
func (r *Runner) Handle(ctx context.Context, text, userID string) domain.TurnResult {
	start := time.Now()
	unlock := r.locks.Lock(userID)
	defer unlock()

	log := r.log.With("user", userID)

	res, err := r.turn(ctx, text, userID, log)
	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		return domain.TurnResult{Reply: internalErrorPrefix + err.Error(), Err: err}
	}

	ev := log.Info().Dur("duration", time.Since(start)).Int("replyLen", len(res.Reply))
	if res.Statistics != nil {
		ev = ev.Str("model", res.Statistics.Model).Int("totalTokens", res.Statistics.TotalTokens)
	}
	ev.Msg("turn complete")
	return res
}

func (r *Runner) turn(ctx context.Context, text, userID string, log *logging.Logger) (domain.TurnResult, error) {
	if v := r.gate.Check(ctx, text); !v.Approved {
		r.hooks.EmitAsync(ctx, hooks.EventModerationBlocked, map[string]any{
			"user":       userID,
			"stage":      "input",
			"violations": v.Violations,
		})
		return domain.TurnResult{Reply: InputRefusal}, nil
	}

	if _, created := r.store.GetOrCreate(userID, r.prompt); created {
		log.Info().Msg("conversation started")
	}
	r.store.Append(userID, domain.Message{Role: domain.RoleUser, Content: text, Timestamp: time.Now()})

	resp, err := r.complete(ctx, userID, r.tools.Definitions())
	if err != nil {
		return domain.TurnResult{}, err
	}

	choice, ok := resp.First()
	if !ok {
		log.Warn().Msg("completion returned no choices")
		return domain.TurnResult{Reply: NoReply}, nil
	}
	reply := choice.Content

	if len(choice.ToolCalls) > 0 {
		r.runTools(ctx, userID, choice, log)

		final, err := r.complete(ctx, userID, nil)
		if err != nil {
			return domain.TurnResult{}, err
		}
		if c, ok := final.First(); ok {
			reply = c.Content
			resp = final
		}
	}

	if v := r.gate.Check(ctx, reply); !v.Approved {
		r.hooks.EmitAsync(ctx, hooks.EventModerationBlocked, map[string]any{
			"user":       userID,
			"stage":      "output",
			"violations": v.Violations,
		})
		reply = OutputRefusal
	}

	r.store.Append(userID, domain.Message{Role: domain.RoleAssistant, Content: reply, Timestamp: time.Now()})

	usage := resp.Usage
	if usage.Model == "" {
		usage.Model = resp.Model
	}
	r.hooks.EmitAsync(ctx, hooks.EventReplyGenerated, map[string]any{
		"user":        userID,
		"model":       usage.Model,
		"totalTokens": usage.TotalTokens,
	})
	return domain.TurnResult{Reply: reply, Statistics: &usage}, nil
}

// complete sends the current history to the hosted agent. tools nil
// requests a completion without tool definitions.
func (r *Runner) complete(ctx context.Context, userID string, tools []llm.ToolDefinition) (*llm.AgentResponse, error) {
	resp, err := r.completer.Complete(ctx, llm.AgentRequest{
		AgentID:          r.cfg.AgentID,
		Messages:         r.store.History(userID),
		Tools:            tools,
		MaxTokens:        r.cfg.MaxTokens,
		FrequencyPenalty: r.cfg.FrequencyPenalty,
		PresencePenalty:  r.cfg.PresencePenalty,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty completion response")
	}
	return resp, nil
}

// runTools records the assistant tool-call message and one tool message per
// call, in call order.
func (r *Runner) runTools(ctx context.Context, userID string, choice llm.Choice, log *logging.Logger) {
	now := time.Now()
	msgs := make([]domain.Message, 0, len(choice.ToolCalls)+1)
	msgs = append(msgs, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   choice.Content,
		ToolCalls: choice.ToolCalls,
		Timestamp: now,
	})

	for _, call := range choice.ToolCalls {
		result := r.tools.Execute(call.Name, call.Arguments)
		log.Info().Str("tool", call.Name).Str("callId", call.ID).Msg("tool executed")
		r.hooks.EmitAsync(ctx, hooks.EventToolExecuted, map[string]any{
			"user":   userID,
			"tool":   call.Name,
			"callId": call.ID,
		})
		msgs = append(msgs, domain.Message{
			Role:       domain.RoleTool,
			Content:    result,
			Name:       call.Name,
			ToolCallID: call.ID,
			Timestamp:  now,
		})
	}
	r.store.Append(userID, msgs...)
}
