package sync

import (
	"context"
	"fmt"

	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/relqerr"
	"github.com/relq/relq/internal/snapshot"
)

// PushOptions controls how Push behaves beyond its default
// load-diff-validate-apply sequence.
type PushOptions struct {
	// DryRun skips the apply phase entirely and only returns the plan
	// that would have run.
	DryRun bool
	// UseShadow runs the plan against the environment's shadow
	// database first (rolled back) before touching the real target,
	// the same safety net the teacher's ApplyPlan offers via its
	// shadowDB parameter.
	UseShadow bool
}

// PushResult reports what Push computed and, unless DryRun was set,
// executed.
type PushResult struct {
	Plan        *Plan
	Result      *ExecutionResult
	Diagnostics []ir.Diagnostic
}

// Push renders env's declared schema file against its live database:
// parse -> validate -> introspect -> diff -> build plan -> (shadow dry
// run) -> apply in a transaction -> record the new snapshot. Grounded
// on cmd/plan.go + cmd/apply.go's combined sequencing, collapsed into
// one call since relq doesn't split "plan" and "apply" into separate
// CLI verbs the way the teacher does (spec.md's sync operation is
// single-shot; cmd/ can still expose --dry-run for the plan-only case).
func (c *Controller) Push(ctx context.Context, envName string, opts PushOptions) (*PushResult, error) {
	env, err := c.Resolve(envName)
	if err != nil {
		return nil, err
	}

	declared, source, parseDiags, err := c.loadDeclared(env)
	if err != nil {
		return nil, &relqerr.FatalSyncError{Phase: "load", Err: err}
	}

	adapter, err := c.resolveDialectAdapter(env)
	if err != nil {
		return nil, err
	}

	validateDiags, err := c.validateDeclared(source, declared, adapter)
	diags := append(parseDiags, validateDiags...)
	if err != nil {
		return &PushResult{Diagnostics: diags}, err
	}

	live, liveDiags, err := c.introspectLive(ctx, env)
	if err != nil {
		return &PushResult{Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "introspect", Err: err}
	}
	diags = append(diags, liveDiags...)

	ignore, err := c.loadIgnore(env)
	if err != nil {
		return &PushResult{Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "ignore", Err: err}
	}

	changes := diffSchemas(live, declared, ignore)
	plan, err := BuildPlan(changes)
	if err != nil {
		return &PushResult{Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "plan", Err: err}
	}

	liveHash, err := snapshot.ComputeSchemaHash(live)
	if err != nil {
		return &PushResult{Plan: plan, Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "plan", Err: err}
	}
	plan.SourceHash = liveHash

	if opts.DryRun || len(plan.Steps) == 0 {
		return &PushResult{Plan: plan, Diagnostics: diags}, nil
	}

	dialectName := env.Dialect
	if dialectName == "" {
		dialectName = DetectDialect(env.DatabaseURL)
	}

	if opts.UseShadow && env.ShadowDatabaseURL != "" {
		shadowDB, err := OpenDB(ctx, dialectName, env.ShadowDatabaseURL)
		if err != nil {
			return &PushResult{Plan: plan, Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "shadow", Err: err}
		}
		dryRunErr := DryRun(ctx, shadowDB, plan)
		_ = shadowDB.Close()
		if dryRunErr != nil {
			return &PushResult{Plan: plan, Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "dry-run", Err: dryRunErr}
		}
	}

	db, err := OpenDB(ctx, dialectName, env.DatabaseURL)
	if err != nil {
		return &PushResult{Plan: plan, Diagnostics: diags}, &relqerr.FatalSyncError{Phase: "connect", Err: err}
	}
	defer func() { _ = db.Close() }()

	result, err := ApplyPlan(ctx, db, plan, c.Verbose)
	if err != nil {
		return &PushResult{Plan: plan, Result: result, Diagnostics: diags}, err
	}

	store := c.openSnapshotStore(env)
	if saveErr := store.Save(&snapshot.Snapshot{
		Version:    snapshot.FormatVersion,
		Schema:     declared,
		SourceHash: snapshot.ComputeSourceHash(source),
	}); saveErr != nil {
		return &PushResult{Plan: plan, Result: result, Diagnostics: diags}, fmt.Errorf("saving snapshot after push: %w", saveErr)
	}

	return &PushResult{Plan: plan, Result: result, Diagnostics: diags}, nil
}
