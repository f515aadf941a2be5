package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/zor/internal/routing"
)

const (
	sourceGeneric = "webhook"
	sourceText    = "webhook.messages.text"
)

const (
	msgIncomplete = "Dados incompletos"
	msgSent       = "Resposta enviada"
	msgSendFailed = "Falha no envio"
)

// decodeObject decodes a JSON object body, keeping numbers as json.Number.
func decodeObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("expected a JSON object")
	}
	return body, nil
}

// objectField returns m[key] as an object, or nil.
func objectField(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// stringField returns m[key] as text. Numbers keep their literal form.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// extractGeneric reads sender and text from the generic webhook payload.
// data.from wins; the top-level pair is used when it is empty.
func extractGeneric(body map[string]any) routing.Inbound {
	data := objectField(body, "data")
	from := stringField(data, "from")
	text := stringField(data, "message")
	if from == "" {
		from = stringField(body, "from")
		text = stringField(body, "message")
	}
	return routing.Inbound{Source: sourceGeneric, Sender: from, Text: text}
}

// extractText reads sender and text from the messages/text webhook payload.
func extractText(body map[string]any) routing.Inbound {
	message := objectField(body, "message")
	chat := objectField(body, "chat")

	text := stringField(chat, "wa_lastMessageTextVote")
	if text == "" {
		text = stringField(message, "text")
	}
	if text == "" {
		text = stringField(message, "content")
	}
	return routing.Inbound{
		Source:     sourceText,
		Sender:     routing.SenderID(stringField(message, "sender")),
		SenderName: stringField(message, "senderName"),
		ChatID:     stringField(message, "chatid"),
		Text:       text,
	}
}

func deliveryStatus(d routing.Delivery) StatusResponse {
	if d.Sent {
		return StatusResponse{Status: "success", Message: msgSent}
	}
	return StatusResponse{Status: "error", Message: msgSendFailed}
}

func (s *Server) route(r *http.Request, msg routing.Inbound) StatusResponse {
	if s.router == nil {
		s.log.Warn().Str("source", msg.Source).Msg("no router configured; dropping message")
		return StatusResponse{Status: "error", Message: msgSendFailed}
	}
	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()
	return deliveryStatus(s.router.HandleInbound(ctx, msg))
}

func (s *Server) handleWebhookGeneric(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		s.log.Warn().Err(err).Msg("invalid webhook payload")
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: err.Error()})
		return
	}

	msg := extractGeneric(body)
	if msg.Sender == "" || msg.Text == "" {
		s.log.Warn().Str("from", msg.Sender).Bool("hasText", msg.Text != "").Msg("incomplete webhook payload")
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: msgIncomplete})
		return
	}
	writeJSON(w, http.StatusOK, s.route(r, msg))
}

func (s *Server) handleWebhookText(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		s.log.Warn().Err(err).Msg("invalid messages/text payload")
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: err.Error()})
		return
	}

	msg := extractText(body)
	s.log.Debug().
		Str("sender", msg.Sender).
		Str("senderName", msg.SenderName).
		Str("chatId", msg.ChatID).
		Bool("hasText", msg.Text != "").
		Msg("messages/text webhook")

	if msg.Sender == "" || msg.Text == "" {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "received"})
		return
	}
	writeJSON(w, http.StatusOK, s.route(r, msg))
}

// handleWebhookAck acknowledges presence, chats and history notifications.
func (s *Server) handleWebhookAck(w http.ResponseWriter, r *http.Request) {
	if _, err := decodeObject(r); err != nil {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "received"})
}

func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "verified",
		"timestamp": timestamp(),
	})
}
