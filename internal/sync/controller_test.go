package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relq/relq/internal/config"
	"github.com/relq/relq/internal/ir"
)

func TestResolveRequiresDatabaseURL(t *testing.T) {
	cfg := &config.Config{Environments: map[string]config.EnvironmentConfig{
		"local": {Dialect: "postgres"},
	}}
	ctrl := NewController(cfg)

	if _, err := ctrl.Resolve("local"); err == nil {
		t.Fatal("expected an error when the environment has no database_url")
	}
}

func TestResolveSucceedsWithDatabaseURL(t *testing.T) {
	cfg := &config.Config{Environments: map[string]config.EnvironmentConfig{
		"local": {Dialect: "postgres", DatabaseURL: "postgres://localhost/app"},
	}}
	ctrl := NewController(cfg)

	env, err := ctrl.Resolve("local")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if env.DatabaseURL != "postgres://localhost/app" {
		t.Errorf("DatabaseURL = %q", env.DatabaseURL)
	}
}

func TestSchemaPathDefaultsWhenUnset(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Environments: map[string]config.EnvironmentConfig{
		"local": {DatabaseURL: "postgres://localhost/app"},
	}}
	ctrl := NewController(cfg)
	env, err := ctrl.Resolve("local")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	env.ResolvedConfigDir = dir

	got := ctrl.schemaPath(env)
	want := filepath.Join(dir, defaultSchemaFile)
	if got != want {
		t.Errorf("schemaPath = %q, want %q", got, want)
	}
}

func TestGenerateDeclarationMergesTokensFromDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Environments: map[string]config.EnvironmentConfig{
		"local": {DatabaseURL: "postgres://localhost/app"},
	}}
	ctrl := NewController(cfg)
	env, err := ctrl.Resolve("local")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	env.ResolvedConfigDir = dir

	schema := &ir.Schema{Tables: []ir.Table{{
		Name:    "users",
		Columns: []ir.Column{{Name: "id", Type: "bigint", IsPrimaryKey: true}},
	}}}

	first, err := ctrl.generateDeclaration(env, schema)
	if err != nil {
		t.Fatalf("first generateDeclaration returned error: %v", err)
	}
	if err := os.WriteFile(ctrl.schemaPath(env), []byte(first), 0o644); err != nil {
		t.Fatalf("writing schema file: %v", err)
	}

	second, err := ctrl.generateDeclaration(env, schema)
	if err != nil {
		t.Fatalf("second generateDeclaration returned error: %v", err)
	}
	if first != second {
		t.Errorf("expected stable regeneration to produce identical output\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestIgnorePathIsColocatedWithSchemaFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Environments: map[string]config.EnvironmentConfig{
		"local": {DatabaseURL: "postgres://localhost/app", SchemaPath: "schema/db.sql"},
	}}
	ctrl := NewController(cfg)
	env, err := ctrl.Resolve("local")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	env.ResolvedConfigDir = dir

	want := filepath.Join(dir, "schema", ".relqignore")
	if got := ctrl.ignorePath(env); got != want {
		t.Errorf("ignorePath = %q, want %q", got, want)
	}
}
