package main

import (
	"context"
	"fmt"
	"os"

	"ideaboard/internal/config"
	"ideaboard/internal/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type contextKey int

const configKey contextKey = iota

// newRootCmd builds the command tree. With no subcommand it serves.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "ideaboard",
		Short:         "Ranks generated ideas by their evaluation metric and serves the dashboard API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Runs before every command: config first, then logging.
			cfg, err := config.Load(cfgFile)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "ideaboard"})
				return err
			}
			observability.InitializeLogger(cfg.Logger)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFrom(cmd))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newDiffCmd())
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	defer observability.Sync()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey).(*config.Config)
	return cfg
}

// profileFor resolves --user against the configured profiles.
func profileFor(cfg *config.Config, username string) (config.UserProfile, error) {
	if username == "" {
		return config.UserProfile{}, fmt.Errorf("--user is required")
	}
	profile, ok := cfg.Profile(username)
	if !ok {
		return config.UserProfile{}, fmt.Errorf("unknown user %q", username)
	}
	return profile, nil
}
