// Package uazapi delivers WhatsApp messages through the UAZAPI provider.
package uazapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/logging"
)

// SendError is returned when UAZAPI answers with a non-200 status.
type SendError struct {
	Status int
	Body   string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("uazapi: send failed with status %d: %s", e.Status, e.Body)
}

// Sender posts text messages to a UAZAPI instance. It makes a single
// attempt per message.
type Sender struct {
	server   string
	token    string
	instance string
	client   *http.Client
	log      *logging.Logger
}

// NewSender creates a sender from the UAZAPI config section.
func NewSender(cfg config.UAZAPIConfig, log *logging.Logger) *Sender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{
		server:   strings.TrimRight(cfg.Server, "/"),
		token:    cfg.Token,
		instance: cfg.Instance,
		client:   &http.Client{Timeout: timeout},
		log:      log.Sub("uazapi"),
	}
}

// Server returns the base URL messages are sent to.
func (s *Sender) Server() string { return s.server }

// Instance returns the configured instance name.
func (s *Sender) Instance() string { return s.instance }

type sendRequest struct {
	Instance string `json:"instance"`
	Number   string `json:"number"`
	Message  string `json:"message"`
}

// SendMessage posts text to number and returns an error unless UAZAPI
// answers 200.
func (s *Sender) SendMessage(ctx context.Context, number, text string) error {
	payload, err := json.Marshal(sendRequest{Instance: s.instance, Number: number, Message: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.server+"/api/send-message", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("uazapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SendError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// Send reports whether the message was delivered. Failures are logged.
func (s *Sender) Send(ctx context.Context, number, text string) bool {
	if err := s.SendMessage(ctx, number, text); err != nil {
		s.log.Error().Err(err).Str("number", number).Msg("failed to send message")
		return false
	}
	s.log.Info().Str("number", number).Msg("message sent")
	return true
}
