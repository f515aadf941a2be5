package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Run one conversation turn against the agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfig(&cfg, "mistral."); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc := buildService(cfg, log)
			result := svc.runner.Handle(ctx, strings.Join(args, " "), user)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Reply)
			if result.Statistics != nil {
				fmt.Fprintf(out, "\n[%s] prompt=%d completion=%d total=%d\n",
					result.Statistics.Model,
					result.Statistics.PromptTokens,
					result.Statistics.CompletionTokens,
					result.Statistics.TotalTokens)
			}
			if conv, ok := svc.store.Get(user); ok {
				fmt.Fprintf(out, "[conversation %s: %d messages]\n", conv.ID, len(conv.Messages))
			}
			return result.Err
		},
	}

	cmd.Flags().StringVar(&user, "user", "default", "conversation user id")
	return cmd
}
