package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// postJSON sends body as JSON with bearer auth and decodes a 200 response
// into out. Any other status becomes a *ProviderError.
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{
			Provider: provider,
			Code:     resp.StatusCode,
			Message:  errorMessage(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(body []byte) string {
	var parsed struct {
		Message any `json:"message"`
		Detail  any `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		for _, v := range []any{parsed.Message, parsed.Detail} {
			switch m := v.(type) {
			case string:
				if m != "" {
					return m
				}
			case nil:
			default:
				if b, err := json.Marshal(m); err == nil {
					return string(b)
				}
			}
		}
	}

	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
