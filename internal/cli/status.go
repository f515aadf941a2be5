package cli

import (
	"fmt"

	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ZOR status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ZOR %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Server:  port=%d bind=%s debug=%v\n",
				cfg.Server.Port, cfg.Server.Bind, cfg.Server.Debug)
			fmt.Fprintf(out, "Mistral: base=%s agent=%s apiKey=%s moderation=%s\n",
				cfg.Mistral.BaseURL, orUnset(cfg.Mistral.AgentID), setOrUnset(cfg.Mistral.APIKey), cfg.Mistral.ModerationModel)
			fmt.Fprintf(out, "UAZAPI:  server=%s instance=%s token=%s\n",
				cfg.UAZAPI.Server, orUnset(cfg.UAZAPI.Instance), setOrUnset(cfg.UAZAPI.Token))
			fmt.Fprintf(out, "Agent:   maxTokens=%d frequencyPenalty=%.2f presencePenalty=%.2f\n",
				cfg.Agent.MaxTokens, cfg.Agent.FrequencyPenalty, cfg.Agent.PresencePenalty)

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func setOrUnset(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "set"
}
