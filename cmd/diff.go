package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	diffEnv     string
	diffVerbose bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what push would change without touching the database",
	Long: `Load an environment's declared schema, introspect its live
database, and print the change set between them. Does not validate or
execute anything.`,
	Run: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVar(&diffEnv, "environment", "", "named environment to diff (defaults to relq.toml's default_environment, then \"local\")")
	diffCmd.Flags().BoolVarP(&diffVerbose, "verbose", "v", false, "enable verbose logging")
}

func runDiff(cmd *cobra.Command, args []string) {
	ctrl := loadController(diffVerbose)
	envName := resolveEnvName(ctrl, diffEnv, diffVerbose)

	result, err := ctrl.Diff(context.Background(), envName)
	if err != nil {
		fail("diff failed: %v", err)
	}

	if len(result.Changes) == 0 {
		fmt.Println("no changes — declared schema matches the live database")
		return
	}
	for _, c := range result.Changes {
		fmt.Printf("%-18s %s\n", c.Op, c.Description)
	}
}
