package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relq/relq/internal/sync"
)

var (
	pullEnv     string
	pullForce   bool
	pullVerbose bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Introspect a live database and write its declarative schema file",
	Long: `Introspect the database for an environment and reconcile it with
that environment's declarative schema file, preserving tracking tokens
for any object that already appears there. If the local schema already
matches the live database, pull writes nothing beyond its generated
type-stub companion.`,
	Example: `  relq pull --environment production
  relq pull --environment local --verbose
  relq pull --environment local --force`,
	Run: runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().StringVar(&pullEnv, "environment", "", "named environment to pull (defaults to relq.toml's default_environment, then \"local\")")
	pullCmd.Flags().BoolVar(&pullForce, "force", false, "overwrite a schema file that defines functions/triggers inline instead of in companion files")
	pullCmd.Flags().BoolVarP(&pullVerbose, "verbose", "v", false, "enable verbose logging")
}

func runPull(cmd *cobra.Command, args []string) {
	ctrl := loadController(pullVerbose)
	envName := resolveEnvName(ctrl, pullEnv, pullVerbose)

	result, err := ctrl.Pull(context.Background(), envName, sync.PullOptions{Force: pullForce})
	if err != nil {
		fail("pull failed: %v", err)
	}

	if n := len(result.Diagnostics); n > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d diagnostic(s) reported during pull\n", n)
	}

	if result.Skipped {
		fmt.Printf("%s already matches the live database, only type stubs rewritten\n", result.SchemaPath)
		return
	}

	if n := len(result.Changes); n > 0 {
		fmt.Printf("%d change(s):\n", n)
		for _, c := range result.Changes {
			fmt.Printf("  %-18s %s\n", c.Op, c.Description)
		}
	}
	fmt.Printf("wrote %s (%d table(s))\n", result.SchemaPath, len(result.Schema.Tables))
}
