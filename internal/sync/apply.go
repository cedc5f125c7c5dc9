package sync

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/relq/relq/internal/relqerr"
)

// ExecutionResult reports the outcome of applying a Plan, mirroring
// the teacher's planner.ExecutionResult shape (steps applied, whether
// the whole plan committed, and any error text collected along the
// way).
type ExecutionResult struct {
	Success      bool
	StepsApplied int
	Errors       []string
}

// ApplyPlan executes every step of plan against db inside a single
// transaction, rolling the whole thing back on the first failing
// statement — grounded directly on the teacher's executor.ApplyPlan,
// generalized from a fixed planner.Plan type to this package's own
// Plan/Step shape.
func ApplyPlan(ctx context.Context, db *sql.DB, plan *Plan, verbose bool) (*ExecutionResult, error) {
	result := &ExecutionResult{}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return result, &relqerr.FatalSyncError{Phase: "apply", Err: fmt.Errorf("beginning transaction: %w", err)}
	}
	defer func() {
		if !result.Success {
			_ = tx.Rollback()
		}
	}()

	for i, step := range plan.Steps {
		if verbose {
			_, _ = color.New(color.FgCyan).Fprintf(os.Stderr, "  [Step %d/%d] %s\n", i+1, len(plan.Steps), step.Description)
		}
		for j, stmt := range step.SQL {
			trimmed := strings.TrimSpace(stmt)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			if verbose {
				_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "    SQL: %s\n", preview(stmt))
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				msg := fmt.Sprintf("step %d, statement %d/%d (%s) failed: %v", i+1, j+1, len(step.SQL), step.Description, err)
				result.Errors = append(result.Errors, msg)
				return result, &relqerr.FatalSyncError{Phase: "apply", Err: &relqerr.QueryError{Statement: stmt, Err: err}}
			}
			if verbose {
				_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, "    done\n")
			}
		}
		result.StepsApplied++
	}

	if err := tx.Commit(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("commit failed: %v", err))
		return result, &relqerr.FatalSyncError{Phase: "apply", Err: err}
	}

	result.Success = true
	return result, nil
}

func preview(sql string) string {
	if len(sql) > 200 {
		return sql[:200] + "..."
	}
	return sql
}

// DryRun executes plan against shadowDB and always rolls back,
// validating that every statement is at least individually executable
// before the real target ever sees them. Grounded on the teacher's
// executor.DryRunPlan (same shadow-DB-then-rollback shape), without
// the "first reset the shadow DB to match current state" step, since
// relq's shadow DB is expected to already mirror the target via a
// prior Pull rather than being reset per dry run.
func DryRun(ctx context.Context, shadowDB *sql.DB, plan *Plan) error {
	tx, err := shadowDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning shadow transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, step := range plan.Steps {
		for _, stmt := range step.SQL {
			trimmed := strings.TrimSpace(stmt)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return &relqerr.QueryError{Statement: stmt, Err: err}
			}
		}
	}
	return nil
}
