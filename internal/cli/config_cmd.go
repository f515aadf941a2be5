package cli

import (
	"fmt"
	"os"

	"github.com/soyeahso/zor/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialise the configuration file",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(redactSecrets(cfg))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(paths.Config); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", paths.Config)
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}
			if err := config.Save(paths.Config, config.Defaults()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", paths.Config)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), paths.Config)
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate(&cfg)
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "Config OK")
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return fmt.Errorf("%d validation issue(s)", len(issues))
		},
	}
}

// redactSecrets masks credentials that are set.
func redactSecrets(c config.Config) config.Config {
	if c.Mistral.APIKey != "" {
		c.Mistral.APIKey = redacted
	}
	if c.UAZAPI.Token != "" {
		c.UAZAPI.Token = redacted
	}
	return c
}
