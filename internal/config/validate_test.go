package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Mistral.APIKey = "key"
	cfg.Mistral.AgentID = "ag_test"
	cfg.UAZAPI.Token = "token"
	cfg.UAZAPI.Instance = "instance"
	return cfg
}

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_DefaultsMissingSecrets(t *testing.T) {
	cfg := Defaults()
	paths := issuePaths(Validate(&cfg))

	assert.ElementsMatch(t, []string{
		"mistral.apiKey",
		"mistral.agentId",
		"uazapi.token",
		"uazapi.instance",
	}, paths)
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad bind", func(c *Config) { c.Server.Bind = "tailnet" }, "server.bind"},
		{"custom bind without host", func(c *Config) { c.Server.Bind = "custom" }, "server.customBindHost"},
		{"bad mistral url", func(c *Config) { c.Mistral.BaseURL = "not a url" }, "mistral.baseUrl"},
		{"bad uazapi url", func(c *Config) { c.UAZAPI.Server = "" }, "uazapi.server"},
		{"max tokens", func(c *Config) { c.Agent.MaxTokens = 0 }, "agent.maxTokens"},
		{"penalty", func(c *Config) { c.Agent.PresencePenalty = 3 }, "agent.presencePenalty"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			assert.Equal(t, []string{tt.path}, issuePaths(issues))
			assert.NotEmpty(t, issues[0].Message)
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	cfg.Mistral.APIKey = ""

	byPath := map[string]string{}
	for _, i := range Validate(&cfg) {
		byPath[i.Path] = i.Message
	}
	assert.Equal(t, "is required", byPath["mistral.apiKey"])
	assert.Contains(t, byPath["logging.level"], `got "verbose"`)
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "server.port", Message: "must be <= 65535, got 70000"}
	assert.Equal(t, "server.port: must be <= 65535, got 70000", issue.String())
}
