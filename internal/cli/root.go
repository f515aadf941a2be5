// Package cli implements the zor command line.
package cli

import (
	"github.com/soyeahso/zor/internal/config"
	"github.com/soyeahso/zor/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zor",
		Short: "ZOR - WhatsApp painting assistant gateway",
		Long:  "ZOR answers WhatsApp messages with a Mistral agent specialised in painting, with moderation on both sides of every reply.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.NewStyled(nil, level, cfg.Logging.ConsoleStyle)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.zor/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAgentCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
