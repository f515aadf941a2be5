package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/zor/internal/agent"
	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/hooks"
	"github.com/soyeahso/zor/internal/llm"
	"github.com/soyeahso/zor/internal/logging"
	"github.com/soyeahso/zor/internal/moderation"
	"github.com/soyeahso/zor/internal/routing"
	"github.com/soyeahso/zor/internal/uazapi"
)

// service holds the wired components shared by serve, chat and send.
type service struct {
	hooks  *hooks.Manager
	store  *agent.MemoryConversationStore
	runner *agent.Runner
	sender *uazapi.Sender
	router *routing.Router
}

func buildService(cfg config.Config, log *logging.Logger) *service {
	hookMgr := hooks.NewManager(log)
	mistral := llm.NewMistralClient(cfg.Mistral)
	log.Debug().
		Str("provider", mistral.Name()).
		Str("baseUrl", cfg.Mistral.BaseURL).
		Str("moderationModel", cfg.Mistral.ModerationModel).
		Msg("llm client ready")
	store := agent.NewMemoryConversationStore()

	runner := agent.NewRunner(
		agent.RunnerConfigFrom(cfg),
		mistral,
		moderation.NewGate(mistral, log),
		store,
		agent.NewToolExecutor(time.Now),
		hookMgr,
		log,
	)
	sender := uazapi.NewSender(cfg.UAZAPI, log)

	return &service{
		hooks:  hookMgr,
		store:  store,
		runner: runner,
		sender: sender,
		router: routing.NewRouter(runner, sender, hookMgr, log),
	}
}

// checkConfig logs the validation issues under the given path prefixes and
// fails when there are any. No prefixes means every issue counts.
func checkConfig(cfg *config.Config, prefixes ...string) error {
	var issues []config.ValidationIssue
	for _, issue := range config.Validate(cfg) {
		if matchesPrefix(issue.Path, prefixes) {
			issues = append(issues, issue)
		}
	}
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		log.Error().Str("path", issue.Path).Msg(issue.Message)
	}
	return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
}

func matchesPrefix(path string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
