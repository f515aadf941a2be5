package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const defaultSendMessage = "Teste do ZOR - API funcionando!"

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <number> [message]",
		Short: "Send a WhatsApp message through UAZAPI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfig(&cfg, "uazapi."); err != nil {
				return err
			}

			number := args[0]
			message := defaultSendMessage
			if len(args) > 1 {
				message = strings.Join(args[1:], " ")
			}

			svc := buildService(cfg, log)
			if err := svc.sender.SendMessage(context.Background(), number, message); err != nil {
				return fmt.Errorf("sending to %s: %w", number, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Mensagem enviada para %s\n", number)
			return nil
		},
	}
}
