package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScaffoldProjectWritesConfigSchemaAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	result, err := scaffoldProject(initOptions{
		env:     "local",
		dialect: "postgres",
		schema:  "schema.relq.sql",
	})
	if err != nil {
		t.Fatalf("scaffoldProject returned error: %v", err)
	}

	for _, path := range []string{result.configPath, result.schemaPath, result.envPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}

func TestScaffoldProjectRefusesToOverwriteWithoutForce(t *testing.T) {
	t.Chdir(t.TempDir())

	opts := initOptions{env: "local", dialect: "postgres", schema: "schema.relq.sql"}
	if _, err := scaffoldProject(opts); err != nil {
		t.Fatalf("first scaffoldProject returned error: %v", err)
	}

	if _, err := scaffoldProject(opts); err == nil {
		t.Fatal("expected an error when relq.toml already exists and --force is not set")
	}

	opts.force = true
	if _, err := scaffoldProject(opts); err != nil {
		t.Errorf("expected --force to allow overwrite, got error: %v", err)
	}
}

func TestScaffoldProjectCreatesSchemaDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	result, err := scaffoldProject(initOptions{
		env:     "local",
		dialect: "postgres",
		schema:  filepath.Join("schema", "db.relq.sql"),
	})
	if err != nil {
		t.Fatalf("scaffoldProject returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(result.schemaPath)); err != nil {
		t.Errorf("expected schema directory to exist: %v", err)
	}
}
