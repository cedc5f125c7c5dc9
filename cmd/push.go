package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relq/relq/internal/sync"
)

var (
	pushEnv     string
	pushDryRun  bool
	pushShadow  bool
	pushVerbose bool
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Apply an environment's declared schema to its live database",
	Long: `Validate and diff an environment's declared schema against its
live database, then apply the resulting plan inside a transaction.
With --shadow, the plan runs against the environment's shadow database
first (and is rolled back there) before touching the real target.`,
	Example: `  relq push --environment production --shadow
  relq push --environment local --dry-run`,
	Run: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().StringVar(&pushEnv, "environment", "", "named environment to push (defaults to relq.toml's default_environment, then \"local\")")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "compute the plan but do not apply it")
	pushCmd.Flags().BoolVar(&pushShadow, "shadow", false, "rehearse the plan against the environment's shadow database first")
	pushCmd.Flags().BoolVarP(&pushVerbose, "verbose", "v", false, "enable verbose logging")
}

func runPush(cmd *cobra.Command, args []string) {
	ctrl := loadController(pushVerbose)
	envName := resolveEnvName(ctrl, pushEnv, pushVerbose)

	result, err := ctrl.Push(context.Background(), envName, sync.PushOptions{
		DryRun:    pushDryRun,
		UseShadow: pushShadow,
	})
	if err != nil {
		fail("push failed: %v", err)
	}

	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d diagnostic(s) reported during push\n", len(result.Diagnostics))
	}

	if result.Plan == nil || len(result.Plan.Steps) == 0 {
		fmt.Println("no changes — nothing to push")
		return
	}

	if pushDryRun {
		fmt.Printf("%d step(s) would be applied:\n", len(result.Plan.Steps))
		for _, step := range result.Plan.Steps {
			fmt.Printf("  - %s\n", step.Description)
		}
		return
	}

	fmt.Printf("applied %d/%d step(s)\n", result.Result.StepsApplied, len(result.Plan.Steps))
}
