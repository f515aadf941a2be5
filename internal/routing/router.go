// Package routing connects inbound WhatsApp messages to the agent runner and
// delivers the reply through the outbound sender.
package routing

import (
	"context"
	"time"

	"github.com/soyeahso/zor/internal/domain"
	"github.com/soyeahso/zor/internal/hooks"
	"github.com/soyeahso/zor/internal/logging"
)

// TurnHandler runs one conversation turn.
type TurnHandler interface {
	Handle(ctx context.Context, text, userID string) domain.TurnResult
}

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	Send(ctx context.Context, number, text string) bool
}

// Inbound is a message extracted from a webhook payload.
type Inbound struct {
	Source     string // webhook that produced the message
	Sender     string // phone number; conversation key and reply target
	SenderName string
	ChatID     string
	Text       string
}

// Delivery is the outcome of routing one inbound message.
type Delivery struct {
	Result domain.TurnResult
	Sent   bool
}

// Router routes inbound messages to the agent and replies to the sender.
type Router struct {
	runner TurnHandler
	sender MessageSender
	hooks  *hooks.Manager
	log    *logging.Logger
}

// NewRouter creates a message router. hooksMgr may be nil.
func NewRouter(runner TurnHandler, sender MessageSender, hooksMgr *hooks.Manager, log *logging.Logger) *Router {
	return &Router{
		runner: runner,
		sender: sender,
		hooks:  hooksMgr,
		log:    log.Sub("routing"),
	}
}

// HandleInbound runs the agent for msg and sends the reply back to the
// sender. The reply is sent even when the turn failed, since it always
// carries displayable text.
func (r *Router) HandleInbound(ctx context.Context, msg Inbound) Delivery {
	start := time.Now()
	r.log.Info().
		Str("source", msg.Source).
		Str("from", msg.Sender).
		Str("fromName", msg.SenderName).
		Str("chatId", msg.ChatID).
		Msg("routing inbound message")

	r.hooks.EmitAsync(ctx, hooks.EventMessageReceived, map[string]any{
		"source": msg.Source,
		"user":   msg.Sender,
		"name":   msg.SenderName,
	})

	result := r.runner.Handle(ctx, msg.Text, msg.Sender)
	sent := r.SendTo(ctx, msg.Sender, result.Reply)

	r.log.Info().
		Str("to", msg.Sender).
		Bool("sent", sent).
		Dur("duration", time.Since(start)).
		Msg("inbound message handled")

	return Delivery{Result: result, Sent: sent}
}

// SendTo delivers text to number and reports the outcome to hook subscribers.
func (r *Router) SendTo(ctx context.Context, number, text string) bool {
	if r.sender.Send(ctx, number, text) {
		r.hooks.EmitAsync(ctx, hooks.EventMessageSent, map[string]any{"to": number})
		return true
	}
	r.hooks.EmitAsync(ctx, hooks.EventSendFailed, map[string]any{"to": number})
	return false
}
