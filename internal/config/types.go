package config

import "time"

// Config is the root configuration for the ZOR gateway.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Mistral MistralConfig `yaml:"mistral,omitempty"`
	UAZAPI  UAZAPIConfig  `yaml:"uazapi,omitempty"`
	Agent   AgentConfig   `yaml:"agent,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty" env:"PORT" validate:"min=1,max=65535"`
	Bind           string   `yaml:"bind,omitempty" env:"ZOR_BIND" validate:"oneof=loopback lan custom"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty" env:"ZOR_BIND_HOST" validate:"required_if=Bind custom"`
	Debug          bool     `yaml:"debug,omitempty" env:"DEBUG"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" env:"ZOR_ALLOWED_ORIGINS" envSeparator:","`
}

// MistralConfig holds credentials and endpoints for the hosted agent.
type MistralConfig struct {
	APIKey          string        `yaml:"apiKey,omitempty" env:"MISTRAL_API_KEY" validate:"required"`
	AgentID         string        `yaml:"agentId,omitempty" env:"MISTRAL_AGENT_ID" validate:"required"`
	BaseURL         string        `yaml:"baseUrl,omitempty" env:"MISTRAL_BASE_URL" validate:"required,url"`
	ModerationModel string        `yaml:"moderationModel,omitempty" env:"MISTRAL_MODERATION_MODEL" validate:"required"`
	Timeout         time.Duration `yaml:"timeout,omitempty" env:"MISTRAL_TIMEOUT" validate:"min=0"`
}

// UAZAPIConfig holds the WhatsApp provider settings.
type UAZAPIConfig struct {
	Token    string        `yaml:"token,omitempty" env:"UAZAPI_TOKEN" validate:"required"`
	Server   string        `yaml:"server,omitempty" env:"UAZAPI_SERVER" validate:"required,url"`
	Instance string        `yaml:"instance,omitempty" env:"UAZAPI_INSTANCE" validate:"required"`
	Timeout  time.Duration `yaml:"timeout,omitempty" env:"UAZAPI_TIMEOUT" validate:"min=0"`
}

// AgentConfig holds the fixed generation parameters sent with every
// completion call.
type AgentConfig struct {
	MaxTokens        int     `yaml:"maxTokens,omitempty" env:"ZOR_MAX_TOKENS" validate:"min=1"`
	FrequencyPenalty float64 `yaml:"frequencyPenalty,omitempty" env:"ZOR_FREQUENCY_PENALTY" validate:"min=-2,max=2"`
	PresencePenalty  float64 `yaml:"presencePenalty,omitempty" env:"ZOR_PRESENCE_PENALTY" validate:"min=-2,max=2"`
	SystemPrompt     string  `yaml:"systemPrompt,omitempty"` // replaces the built-in prompt when set
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty" env:"ZOR_LOG_LEVEL" validate:"oneof=silent fatal error warn info debug trace"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty" env:"ZOR_LOG_STYLE" validate:"oneof=pretty json"`
}
