package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves ${ENV_VAR} references in credential fields
// so secrets can live outside the YAML file.
func expandSensitiveFields(cfg *Config) {
	cfg.Mistral.APIKey = expandEnvVars(cfg.Mistral.APIKey)
	cfg.Mistral.AgentID = expandEnvVars(cfg.Mistral.AgentID)
	cfg.UAZAPI.Token = expandEnvVars(cfg.UAZAPI.Token)
	cfg.UAZAPI.Instance = expandEnvVars(cfg.UAZAPI.Instance)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Precedence: environment > file > defaults. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
		applyDefaults(&cfg)
		expandSensitiveFields(&cfg)
	case os.IsNotExist(err):
	default:
		return cfg, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyDefaults fills zero-value fields left empty by a partial YAML file.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = d.Server.Bind
	}
	if cfg.Mistral.BaseURL == "" {
		cfg.Mistral.BaseURL = d.Mistral.BaseURL
	}
	if cfg.Mistral.ModerationModel == "" {
		cfg.Mistral.ModerationModel = d.Mistral.ModerationModel
	}
	if cfg.Mistral.Timeout == 0 {
		cfg.Mistral.Timeout = d.Mistral.Timeout
	}
	if cfg.UAZAPI.Server == "" {
		cfg.UAZAPI.Server = d.UAZAPI.Server
	}
	if cfg.UAZAPI.Timeout == 0 {
		cfg.UAZAPI.Timeout = d.UAZAPI.Timeout
	}
	if cfg.Agent.MaxTokens == 0 {
		cfg.Agent.MaxTokens = d.Agent.MaxTokens
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides overlays the env-tagged fields that have a variable set.
// Fields without a matching variable keep their current value.
func applyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return &ConfigError{Message: "invalid environment override: " + err.Error()}
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.UAZAPI.Server = strings.TrimRight(cfg.UAZAPI.Server, "/")
	cfg.Mistral.BaseURL = strings.TrimRight(cfg.Mistral.BaseURL, "/")
	return nil
}

// Save writes cfg as YAML to path, creating it with owner-only permissions.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
