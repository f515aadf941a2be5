package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/soyeahso/zor/internal/domain"
	"github.com/soyeahso/zor/internal/version"
)

const (
	defaultChatUser    = "default"
	defaultTestMessage = "Teste do ZOR - API funcionando!"
)

// RootResponse describes the service.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status              string `json:"status"`
	Timestamp           string `json:"timestamp"`
	AgentID             string `json:"agent_id"`
	ActiveConversations int    `json:"active_conversations"`
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	Message *string `json:"message" validate:"required"`
	UserID  *string `json:"user_id"`
}

// ChatResponse is the /api/chat response body. Error is always null; a
// failed turn is reported through Response.
type ChatResponse struct {
	Response   string        `json:"response"`
	Statistics *domain.Usage `json:"statistics"`
	Error      *string       `json:"error"`
	Timestamp  string        `json:"timestamp"`
}

// StatsResponse is returned by /admin/stats. Uptime is the time of the
// report; StartedAt and UptimeSeconds describe the process lifetime.
type StatsResponse struct {
	ActiveConversations int            `json:"active_conversations"`
	TotalMessages       int            `json:"total_messages"`
	Uptime              string         `json:"uptime"`
	StartedAt           string         `json:"started_at"`
	UptimeSeconds       int64          `json:"uptime_seconds"`
	UAZAPIServer        string         `json:"uazapi_server"`
	UAZAPIInstance      string         `json:"uazapi_instance"`
	Subscribers         int            `json:"event_subscribers"`
	Hooks               map[string]int `json:"hooks"`
}

// StatusResponse is the {status, message} shape used by webhooks and sends.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ValidationDetail is one entry of a 422 response.
type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func timestamp() string {
	return time.Now().Format(time.RFC3339Nano)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: version.Name,
		Version: version.Version,
		Status:  "online",
		Endpoints: map[string]string{
			"health":  "/health",
			"chat":    "/api/chat",
			"webhook": "/webhook/whatsapp",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
		AgentID:   s.cfg.Mistral.AgentID,
	}
	if s.stats != nil {
		resp.ActiveConversations = s.stats.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []ValidationDetail{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}},
		})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": validationDetails(err)})
		return
	}
	if s.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chat runner not configured"})
		return
	}

	userID := defaultChatUser
	if req.UserID != nil && *req.UserID != "" {
		userID = *req.UserID
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	result := s.runner.Handle(ctx, *req.Message, userID)
	if result.Err != nil {
		s.log.Error().Err(result.Err).Str("user", userID).Msg("chat turn failed")
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:   result.Reply,
		Statistics: result.Statistics,
		Timestamp:  timestamp(),
	})
}

func validationDetails(err error) []ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationDetail{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
	out := make([]ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		d := ValidationDetail{Loc: []string{"body", jsonFieldName(fe)}}
		switch fe.Tag() {
		case "required":
			d.Msg, d.Type = "field required", "value_error.missing"
		default:
			d.Msg, d.Type = fmt.Sprintf("failed %q validation", fe.Tag()), "value_error"
		}
		out = append(out, d)
	}
	return out
}

func jsonFieldName(fe validator.FieldError) string {
	f, ok := reflect.TypeOf(ChatRequest{}).FieldByName(fe.StructField())
	if !ok {
		return fe.Field()
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return fe.Field()
	}
	return name
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Uptime:         timestamp(),
		StartedAt:      s.startedAt.Format(time.RFC3339Nano),
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		UAZAPIServer:   s.cfg.UAZAPI.Server,
		UAZAPIInstance: s.cfg.UAZAPI.Instance,
		Subscribers:    s.clients.Count(),
		Hooks:          make(map[string]int),
	}
	for _, event := range s.hooks.Events() {
		resp.Hooks[event] = s.hooks.Count(event)
	}
	if s.stats != nil {
		resp.ActiveConversations = s.stats.Count()
		resp.TotalMessages = s.stats.MessageCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTestWhatsApp(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: err.Error()})
		return
	}

	number := stringField(body, "number")
	if number == "" {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: "Número é obrigatório"})
		return
	}
	message := defaultTestMessage
	if _, ok := body["message"]; ok {
		message = stringField(body, "message")
	}
	if s.router == nil {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: "Falha no envio"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	if s.router.SendTo(ctx, number, message) {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "success", Message: "Mensagem enviada para " + number})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: "Falha no envio"})
}
