// Package gateway serves the ZOR HTTP API: chat, WhatsApp webhooks, admin
// endpoints and a websocket stream of lifecycle events.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/domain"
	"github.com/soyeahso/zor/internal/hooks"
	"github.com/soyeahso/zor/internal/logging"
	"github.com/soyeahso/zor/internal/routing"
)

// turnTimeout bounds a single chat or webhook turn, which may make two
// completion calls, two moderation calls and one send.
const turnTimeout = 3 * time.Minute

const eventsHookName = "gateway.events"

// ChatHandler runs one conversation turn for the chat endpoint.
type ChatHandler interface {
	Handle(ctx context.Context, text, userID string) domain.TurnResult
}

// InboundRouter handles webhook messages and direct sends.
type InboundRouter interface {
	HandleInbound(ctx context.Context, msg routing.Inbound) routing.Delivery
	SendTo(ctx context.Context, number, text string) bool
}

// ConversationStats reports conversation store counters.
type ConversationStats interface {
	Count() int
	MessageCount() int
}

// Server is the ZOR HTTP server.
type Server struct {
	cfg       config.Config
	log       *logging.Logger
	clients   *ClientRegistry
	eventSeq  atomic.Int64
	startedAt time.Time
	upgrader  websocket.Upgrader
	validate  *validator.Validate

	runner ChatHandler
	router InboundRouter
	stats  ConversationStats
	hooks  *hooks.Manager
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithRunner sets the turn handler behind /api/chat.
func WithRunner(r ChatHandler) ServerOption {
	return func(s *Server) { s.runner = r }
}

// WithRouter sets the router behind the webhooks and /test/whatsapp.
func WithRouter(r InboundRouter) ServerOption {
	return func(s *Server) { s.router = r }
}

// WithStats sets the conversation counters reported by /health and /admin/stats.
func WithStats(st ConversationStats) ServerOption {
	return func(s *Server) { s.stats = st }
}

// WithHooks sets the hooks manager whose events feed /admin/events.
func WithHooks(m *hooks.Manager) ServerOption {
	return func(s *Server) { s.hooks = m }
}

// New creates a new server.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	gwLog := log.Sub("gateway")
	s := &Server{
		cfg:       cfg,
		log:       gwLog,
		clients:   NewClientRegistry(gwLog),
		startedAt: time.Now(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hooks != nil {
		s.hooks.OnAll(eventsHookName, s.broadcastHook)
	}
	return s
}

func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients don't send Origin
	}
	return isOriginAllowed(origin, s.cfg.Server.AllowedOrigins)
}

// NextSeq returns the next event sequence number.
func (s *Server) NextSeq() int64 {
	return s.eventSeq.Add(1)
}

func (s *Server) broadcastHook(_ context.Context, p hooks.Payload) error {
	s.clients.Broadcast(p.Event, p, s.NextSeq())
	return nil
}

func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Server.AllowedOrigins)
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
		ReadTimeout:  30 * time.Second,
		WriteTimeout: turnTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{"addr": addr})

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down server")
		s.hooks.Emit(context.WithoutCancel(ctx), hooks.EventGatewayStop, map[string]any{"addr": addr})
		s.hooks.OffAll(eventsHookName)
		s.clients.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
