// Package hooks dispatches ZOR lifecycle events (inbound messages,
// moderation blocks, tool runs, deliveries) to registered handlers.
package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/soyeahso/zor/internal/logging"
)

// Event names for the hook system.
const (
	EventMessageReceived   = "message_received"
	EventModerationBlocked = "moderation_blocked"
	EventToolExecuted      = "tool_executed"
	EventReplyGenerated    = "reply_generated"
	EventMessageSent       = "message_sent"
	EventSendFailed        = "send_failed"
	EventGatewayStart      = "gateway_start"
	EventGatewayStop       = "gateway_stop"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventMessageReceived,
	EventModerationBlocked,
	EventToolExecuted,
	EventReplyGenerated,
	EventMessageSent,
	EventSendFailed,
	EventGatewayStart,
	EventGatewayStop,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Time  time.Time      `json:"time"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
// A nil *Manager is valid and drops every event.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and removal.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// OnAll registers handler for every event in AllEvents.
func (m *Manager) OnAll(name string, handler Handler) {
	for _, event := range AllEvents {
		m.On(event, name, handler)
	}
}

// OffAll removes the named handler from every event.
func (m *Manager) OffAll(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for event := range m.handlers {
		m.removeLocked(event, name)
	}
}

func (m *Manager) removeLocked(event, name string) {
	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

func (m *Manager) snapshot(event string) []namedHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	return handlers
}

// Emit dispatches an event to all registered handlers synchronously.
// Handlers are called in registration order. Errors are logged but do not
// prevent subsequent handlers from running.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	if m == nil {
		return
	}
	handlers := m.snapshot(event)
	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Time: time.Now(), Data: data}
	for _, h := range handlers {
		if err := h.handler(ctx, payload); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", event).
				Str("handler", h.name).
				Msg("hook handler error")
		}
	}
}

// EmitAsync dispatches an event to all registered handlers concurrently.
// Returns immediately; handler errors are logged. Handlers run detached from
// ctx cancellation so a finished request does not cut them short.
func (m *Manager) EmitAsync(ctx context.Context, event string, data map[string]any) {
	if m == nil {
		return
	}
	handlers := m.snapshot(event)
	if len(handlers) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	payload := Payload{Event: event, Time: time.Now(), Data: data}
	for _, h := range handlers {
		go func(h namedHandler) {
			if err := h.handler(ctx, payload); err != nil {
				m.log.Warn().
					Err(err).
					Str("event", event).
					Str("handler", h.name).
					Msg("async hook handler error")
			}
		}(h)
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// Events returns the list of events that have at least one handler registered.
func (m *Manager) Events() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]string, 0, len(m.handlers))
	for event, handlers := range m.handlers {
		if len(handlers) > 0 {
			events = append(events, event)
		}
	}
	return events
}
