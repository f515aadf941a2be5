package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/zor/internal/agent"
	"github.com/spf13/cobra"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect the agent setup",
	}

	cmd.AddCommand(newAgentInfoCmd())
	cmd.AddCommand(newAgentToolsCmd())
	cmd.AddCommand(newAgentPromptCmd())
	return cmd
}

func newAgentInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the agent configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			rc := agent.RunnerConfigFrom(cfg)
			tools := agent.NewToolExecutor(time.Now).Definitions()
			names := make([]string, len(tools))
			for i, t := range tools {
				names[i] = t.Name
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Agent: %s\n", orUnset(rc.AgentID))
			fmt.Fprintf(out, "  MaxTokens:        %d\n", rc.MaxTokens)
			fmt.Fprintf(out, "  FrequencyPenalty: %.2f\n", rc.FrequencyPenalty)
			fmt.Fprintf(out, "  PresencePenalty:  %.2f\n", rc.PresencePenalty)
			fmt.Fprintf(out, "  Moderation:       %s\n", cfg.Mistral.ModerationModel)
			fmt.Fprintf(out, "  Tools:            %s\n", strings.Join(names, ", "))
			if rc.SystemPrompt != "" {
				fmt.Fprintln(out, "  Prompt:           custom")
			} else {
				fmt.Fprintln(out, "  Prompt:           built-in")
			}
		},
	}
}

func newAgentToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool definitions sent to the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(agent.NewToolExecutor(time.Now).Definitions(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newAgentPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the effective system prompt",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), agent.SystemPrompt(cfg.Agent.SystemPrompt))
		},
	}
}
