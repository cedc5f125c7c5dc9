// Package cmd is the thin cobra wrapper over internal/sync.Controller:
// every command here parses flags, resolves a config.Config, and
// hands off to the controller immediately, the same separation the
// teacher keeps between cmd/ and internal/executor.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relq/relq/internal/config"
	"github.com/relq/relq/internal/sync"
)

var rootCmd = &cobra.Command{
	Use:   "relq",
	Short: "relq keeps a declarative schema file and a live database in sync.",
	Long: `relq introspects a Postgres-family database, renders it to a
declarative schema.relq.sql file with stable per-object tracking
tokens, diffs that file against the live database, and applies the
difference back.`,
}

// Execute runs the root command; the entrypoint in main.go just calls
// this and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadController loads relq.toml (if present) and wraps it in a
// Controller. relq.toml is optional — config.ResolveEnvironment
// tolerates a nil *config.Config, falling back entirely to
// .env.<name> files — so a failure to find one here is reported only
// in --verbose mode, not treated as fatal.
func loadController(verbose bool) *sync.Controller {
	cfg, err := config.LoadConfig()
	if err != nil {
		cfg = nil
		if verbose {
			fmt.Fprintf(os.Stderr, "ℹ️  no relq.toml found, relying on .env files / flags: %v\n", err)
		}
	}
	ctrl := sync.NewController(cfg)
	ctrl.Verbose = verbose
	return ctrl
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// resolveEnvName picks the environment a command should act on: an
// explicit --environment flag wins, then relq.toml's
// default_environment, then "local" — the same fallback chain
// cmd/introspect.go uses for --source-environment.
func resolveEnvName(ctrl *sync.Controller, flagValue string, verbose bool) string {
	if flagValue != "" {
		return flagValue
	}
	name := "local"
	if ctrl.Config != nil && ctrl.Config.DefaultEnvironment != "" {
		name = ctrl.Config.DefaultEnvironment
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "ℹ️  using environment: %s\n", name)
	}
	return name
}
