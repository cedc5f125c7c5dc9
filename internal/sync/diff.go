package sync

import (
	"context"
	"fmt"

	"github.com/relq/relq/internal/ir"
)

// DiffResult is the outcome of comparing a declared schema against a
// live database without changing either one.
type DiffResult struct {
	Changes     []ir.Change
	Diagnostics []ir.Diagnostic
}

// Diff reports what Push would do to env's database without doing it:
// load the declared schema, introspect the live one, diff, and filter
// through .relqignore, stopping short of validation/execution.
func (c *Controller) Diff(ctx context.Context, envName string) (*DiffResult, error) {
	env, err := c.Resolve(envName)
	if err != nil {
		return nil, err
	}

	declared, _, diags, err := c.loadDeclared(env)
	if err != nil {
		return nil, fmt.Errorf("loading declared schema: %w", err)
	}

	live, liveDiags, err := c.introspectLive(ctx, env)
	if err != nil {
		return nil, err
	}
	diags = append(diags, liveDiags...)

	ignore, err := c.loadIgnore(env)
	if err != nil {
		return nil, fmt.Errorf("loading .relqignore: %w", err)
	}

	changes := diffSchemas(live, declared, ignore)
	return &DiffResult{Changes: changes, Diagnostics: diags}, nil
}
