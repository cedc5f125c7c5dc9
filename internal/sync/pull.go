package sync

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relq/relq/internal/codegen"
	"github.com/relq/relq/internal/config"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/relqerr"
	"github.com/relq/relq/internal/snapshot"
)

// PullOptions controls how Pull behaves beyond its default
// short-circuit-on-empty-diff sequence.
type PullOptions struct {
	// Force lets Pull overwrite a schema file even though it defines
	// functions or triggers inline instead of in companion files.
	Force bool
}

// PullResult reports what a Pull computed and, unless it short-circuited
// on an already-synced schema, wrote.
type PullResult struct {
	Schema      *ir.Schema
	Changes     []ir.Change
	Diagnostics []ir.Diagnostic
	SchemaPath  string
	SourceHash  string
	// Skipped is true when the local snapshot already matched the live
	// database and Pull wrote nothing beyond the type-stub companion.
	Skipped bool
}

// Pull reconciles env's declarative schema file against its live
// database, following the same ordered steps as cmd/introspect.go's
// "connect -> introspect -> render" shape but adding the
// diff-and-short-circuit and companion-file safety checks
// cmd/introspect.go's raw dump never needed:
//
//   - resolve the environment and its dialect adapter
//   - introspect the live database with progress reporting
//   - load the .relqignore patterns for this environment
//   - load whatever's currently in the declared schema file
//   - if a prior snapshot exists and the file exists, diff snapshot vs
//     live; an empty diff means the file already matches, so sync the
//     type-stub companion and return without touching the schema file
//   - refuse to overwrite a file that declares functions/triggers
//     inline (they belong in companion files) unless Force is set
//   - generate the new source, validate it against the target
//     dialect, write it and its companions, and persist the new
//     snapshot and content hash
func (c *Controller) Pull(ctx context.Context, envName string, opts PullOptions) (*PullResult, error) {
	env, err := c.Resolve(envName)
	if err != nil {
		return nil, err
	}

	adapter, err := c.resolveDialectAdapter(env)
	if err != nil {
		return nil, err
	}

	live, liveDiags, err := c.introspectLive(ctx, env)
	if err != nil {
		return nil, err
	}
	diags := append([]ir.Diagnostic{}, liveDiags...)

	ignore, err := c.loadIgnore(env)
	if err != nil {
		return nil, &relqerr.FatalSyncError{Phase: "ignore", Err: fmt.Errorf("loading .relqignore: %w", err)}
	}

	path := c.schemaPath(env)
	_, statErr := os.Stat(path)
	localFileExists := statErr == nil

	declared, _, declaredDiags, err := c.loadDeclared(env)
	if err != nil {
		return nil, &relqerr.FatalSyncError{Phase: "load", Err: err}
	}
	diags = append(diags, declaredDiags...)

	store := c.openSnapshotStore(env)
	prior, err := store.Load()
	if err != nil {
		return nil, &relqerr.FatalSyncError{Phase: "snapshot", Err: err}
	}
	snapshotExists := prior.SourceHash != ""

	var changes []ir.Change
	if snapshotExists && localFileExists {
		changes = diffSchemas(prior.Schema, live, ignore)
		if len(changes) == 0 {
			if err := c.writeTypeStubCompanion(env, live); err != nil {
				return nil, fmt.Errorf("syncing type stubs: %w", err)
			}
			return &PullResult{
				Schema:      live,
				Diagnostics: diags,
				SchemaPath:  path,
				SourceHash:  prior.SourceHash,
				Skipped:     true,
			}, nil
		}
	}

	if localFileExists && !opts.Force {
		if objs := inlineFunctionOrTriggerObjects(declared); len(objs) > 0 {
			return nil, &relqerr.FatalSyncError{
				Phase: "companion-files",
				Err: fmt.Errorf("%s defines %s inline; move these to companion files or re-run with --force",
					path, strings.Join(objs, ", ")),
			}
		}
	}

	source, err := c.generateDeclaration(env, live)
	if err != nil {
		return nil, fmt.Errorf("rendering schema: %w", err)
	}

	validateDiags, err := c.validateDeclared(source, live, adapter)
	diags = append(diags, validateDiags...)
	if err != nil {
		return &PullResult{Schema: live, Changes: changes, Diagnostics: diags, SchemaPath: path}, err
	}

	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := c.writeTypeStubCompanion(env, live); err != nil {
		return nil, fmt.Errorf("writing type stubs: %w", err)
	}

	hash, err := snapshot.ComputeSchemaHash(live)
	if err != nil {
		return nil, fmt.Errorf("hashing schema: %w", err)
	}
	if err := store.Save(&snapshot.Snapshot{
		Version:    snapshot.FormatVersion,
		Schema:     live,
		SourceHash: snapshot.ComputeSourceHash(source),
	}); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return &PullResult{Schema: live, Changes: changes, Diagnostics: diags, SchemaPath: path, SourceHash: hash}, nil
}

// inlineFunctionOrTriggerObjects returns the names of any function or
// trigger already parsed out of the declared schema, since those
// belong in companion files rather than the main declarative file.
func inlineFunctionOrTriggerObjects(schema *ir.Schema) []string {
	if schema == nil {
		return nil
	}
	var objs []string
	for _, fn := range schema.Functions {
		objs = append(objs, "function "+fn.Name)
	}
	for _, tr := range schema.Triggers {
		objs = append(objs, "trigger "+tr.Name)
	}
	return objs
}

// writeTypeStubCompanion renders a Go struct per table alongside the
// schema file, the companion file spec.md §4.8(h)/(i) expects codegen
// to keep in sync on every pull.
func (c *Controller) writeTypeStubCompanion(env *config.ResolvedEnvironment, schema *ir.Schema) error {
	path := c.typeStubPath(env)
	source, err := codegen.GenerateTypeStubs(schema, "schema")
	if err != nil {
		return fmt.Errorf("generating %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(source), 0o644)
}
