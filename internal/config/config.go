// Package config loads and validates the ZOR gateway configuration.
package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Default values baked into the binary. Secrets have no defaults.
const (
	DefaultPort             = 8000
	DefaultMistralBaseURL   = "https://api.mistral.ai"
	DefaultModerationModel  = "mistral-moderation-latest"
	DefaultUAZAPIServer     = "https://free.uazapi.com"
	DefaultMaxTokens        = 300
	DefaultFrequencyPenalty = 0.3
	DefaultPresencePenalty  = 0.2
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: DefaultPort,
			Bind: "lan",
		},
		Mistral: MistralConfig{
			BaseURL:         DefaultMistralBaseURL,
			ModerationModel: DefaultModerationModel,
			Timeout:         60 * time.Second,
		},
		UAZAPI: UAZAPIConfig{
			Server:  DefaultUAZAPIServer,
			Timeout: 30 * time.Second,
		},
		Agent: AgentConfig{
			MaxTokens:        DefaultMaxTokens,
			FrequencyPenalty: DefaultFrequencyPenalty,
			PresencePenalty:  DefaultPresencePenalty,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
