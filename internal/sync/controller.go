// Package sync orchestrates a full pull/push/diff cycle against a
// configured environment, factored out of cmd/ the same way the
// teacher keeps internal/executor separate from its cobra commands:
// resolve environment -> introspect -> diff -> validate -> act, with
// cmd/ left as a thin flag-parsing wrapper over Controller.
package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relq/relq/internal/codegen"
	"github.com/relq/relq/internal/config"
	"github.com/relq/relq/internal/dialect"
	"github.com/relq/relq/internal/differ"
	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/parser"
	"github.com/relq/relq/internal/relqerr"
	"github.com/relq/relq/internal/snapshot"
	"github.com/relq/relq/internal/validator"
)

// defaultSchemaFile is used when an environment config doesn't name a
// schema path, matching the teacher's "lockplane/schema.lp.sql" default
// layout convention, renamed to this project's own file extension.
const defaultSchemaFile = "schema.relq.sql"

// Controller is the single entrypoint cmd/ drives for every
// environment-scoped operation.
type Controller struct {
	Config  *config.Config
	Verbose bool
}

// NewController wraps an already-loaded config.Config. Passing nil is
// valid: every environment then resolves from .env.<name> files alone.
func NewController(cfg *config.Config) *Controller {
	return &Controller{Config: cfg}
}

// Resolve looks up name (or the configured default) and returns its
// concrete connection settings.
func (c *Controller) Resolve(name string) (*config.ResolvedEnvironment, error) {
	resolved, err := config.ResolveEnvironment(c.Config, name)
	if err != nil {
		return nil, &relqerr.ConfigurationError{Err: err}
	}
	if resolved.DatabaseURL == "" {
		return nil, &relqerr.ConfigurationError{Err: fmt.Errorf("environment %q has no database_url (set it in relq.toml or .env.%s)", resolved.Name, resolved.Name)}
	}
	return resolved, nil
}

// schemaPath returns the schema file an environment reads/writes,
// resolved relative to the project directory.
func (c *Controller) schemaPath(env *config.ResolvedEnvironment) string {
	path := env.SchemaPath
	if path == "" {
		path = defaultSchemaFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	dir := env.ResolvedConfigDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return filepath.Join(dir, path)
}

// introspectLive opens env's database and walks its full schema.
func (c *Controller) introspectLive(ctx context.Context, env *config.ResolvedEnvironment) (*ir.Schema, []ir.Diagnostic, error) {
	dialectName := env.Dialect
	if dialectName == "" {
		dialectName = DetectDialect(env.DatabaseURL)
	}

	insp, err := OpenIntrospector(ctx, dialectName, env.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = insp.Close() }()

	if err := insp.TestConnection(ctx); err != nil {
		return nil, nil, &relqerr.ConnectivityError{Dialect: dialectName, Err: err}
	}

	var progress introspect.ProgressFunc
	if c.Verbose {
		progress = func(p introspect.Progress) {
			if p.Skipped {
				fmt.Fprintf(os.Stderr, "  [introspect] %s: skipped (unsupported by %s)\n", p.Step, dialectName)
				return
			}
			fmt.Fprintf(os.Stderr, "  [introspect] %s: %d found\n", p.Step, p.Count)
		}
	}

	schema, diags, err := insp.Introspect(ctx, "", progress)
	if err != nil {
		return nil, diags, &relqerr.IntrospectionError{Object: dialectName, Err: err}
	}
	return schema, diags, nil
}

// loadDeclared reads and parses env's schema file, returning an empty
// schema (not an error) when the file doesn't exist yet, since "pull"
// is exactly the operation that creates it for the first time.
func (c *Controller) loadDeclared(env *config.ResolvedEnvironment) (*ir.Schema, string, []ir.Diagnostic, error) {
	path := c.schemaPath(env)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ir.Schema{}, "", nil, nil
		}
		return nil, "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	source := string(data)
	schema, diags, err := parser.Parse(source)
	if err != nil {
		return nil, source, diags, fmt.Errorf("parsing %s: %w", path, err)
	}
	return schema, source, diags, nil
}

// resolveDialectAdapter looks up the dialect.Adapter for env. When the
// environment doesn't name a dialect, it uses the one DetectDialect
// infers from the database URL ("postgres" for an unrecognized scheme).
func (c *Controller) resolveDialectAdapter(env *config.ResolvedEnvironment) (*dialect.Adapter, error) {
	name := env.Dialect
	if name == "" {
		name = DetectDialect(env.DatabaseURL)
	}
	adapter, err := dialect.Get(name)
	if err != nil {
		return nil, &relqerr.ConfigurationError{Err: fmt.Errorf("resolving dialect %q: %w", name, err)}
	}
	return adapter, nil
}

// validateDeclared runs syntax, declarative-safety, schema-shape, and
// dialect-compatibility checks against a schema read from disk, and
// returns a single ValidationError if any SeverityError diagnostic
// survives.
func (c *Controller) validateDeclared(source string, schema *ir.Schema, adapter *dialect.Adapter) ([]ir.Diagnostic, error) {
	var diags []ir.Diagnostic
	diags = append(diags, validator.ValidateSyntax(source)...)
	diags = append(diags, validator.ValidateDeclarative(source)...)
	diags = append(diags, validator.ValidateDangerousPatterns(source)...)
	diags = append(diags, validator.ValidateSchema(schema)...)
	diags = append(diags, validator.ValidateDialectCompatibility(schema, adapter)...)

	errCount := 0
	for _, d := range diags {
		if d.Severity == ir.SeverityError {
			errCount++
		}
	}
	if errCount > 0 {
		return diags, &relqerr.ValidationError{Source: "schema", Count: errCount}
	}
	return diags, nil
}

// ignorePath is .relqignore next to the schema file, not the config
// file, so per-environment schema directories each get their own.
func (c *Controller) ignorePath(env *config.ResolvedEnvironment) string {
	return filepath.Join(filepath.Dir(c.schemaPath(env)), ".relqignore")
}

func (c *Controller) loadIgnore(env *config.ResolvedEnvironment) (*IgnoreSet, error) {
	data, err := os.ReadFile(c.ignorePath(env))
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreSet{}, nil
		}
		return nil, err
	}
	return ParseIgnoreFile(string(data)), nil
}

// generateDeclaration runs codegen over schema, merging tokens forward
// from whatever's already on disk at env's schema path. A missing file
// generates fresh tokens for everything; a present-but-unparsable one
// is a real error, since silently discarding it would also silently
// discard every tracking token it carries.
func (c *Controller) generateDeclaration(env *config.ResolvedEnvironment, schema *ir.Schema) (string, error) {
	path := c.schemaPath(env)
	data, err := os.ReadFile(path)
	priorSource := ""
	if err == nil {
		priorSource = string(data)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return codegen.Generate(schema, priorSource)
}

// openSnapshotStore opens the .relq/ snapshot directory colocated with
// env's schema file.
func (c *Controller) openSnapshotStore(env *config.ResolvedEnvironment) *snapshot.Store {
	return snapshot.Open(filepath.Dir(c.schemaPath(env)))
}

// typeStubPath is the generated Go type-stub companion file, colocated
// with and named after the schema file it mirrors.
func (c *Controller) typeStubPath(env *config.ResolvedEnvironment) string {
	path := c.schemaPath(env)
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_types.go"
}

// diffSchemas wraps internal/differ.Diff with the ignore-set filter
// applied, so entries matching .relqignore never surface as changes to
// plan or report.
func diffSchemas(before, after *ir.Schema, ignore *IgnoreSet) []ir.Change {
	changes := differ.Diff(before, after)
	if ignore == nil || ignore.Empty() {
		return changes
	}
	filtered := make([]ir.Change, 0, len(changes))
	for _, ch := range changes {
		if ignore.Matches(ch) {
			continue
		}
		filtered = append(filtered, ch)
	}
	return filtered
}
