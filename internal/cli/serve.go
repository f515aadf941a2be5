package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/soyeahso/zor/internal/gateway"
	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if err := checkConfig(&cfg); err != nil {
				return err
			}

			if cfg.Server.Debug {
				log.Info().Msg("debug mode: restarting when the binary changes")
				go autorestart.RestartOnChange()
			}

			svc := buildService(cfg, log)
			srv := gateway.New(cfg, log,
				gateway.WithRunner(svc.runner),
				gateway.WithRouter(svc.router),
				gateway.WithStats(svc.store),
				gateway.WithHooks(svc.hooks),
			)

			log.Info().
				Str("agentId", cfg.Mistral.AgentID).
				Str("uazapiServer", cfg.UAZAPI.Server).
				Str("uazapiInstance", cfg.UAZAPI.Instance).
				Msg("starting zor")

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
