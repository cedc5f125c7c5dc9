package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveEnvironmentDefaults(t *testing.T) {
	t.Parallel()

	env, err := ResolveEnvironment(&Config{}, "")
	if err != nil {
		t.Fatalf("ResolveEnvironment returned error: %v", err)
	}

	if env.Name != defaultEnvironmentName {
		t.Fatalf("Expected default environment name %q, got %q", defaultEnvironmentName, env.Name)
	}
	if env.FromConfig {
		t.Fatalf("Expected FromConfig=false for an empty config")
	}
}

func TestResolveEnvironmentFromConfig(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	cfg := &Config{
		DefaultEnvironment: "staging",
	}
	// ConfigDir() reads the unexported configDir field; set it the way
	// LoadConfig would after finding relq.toml in tempDir.
	cfg.configDir = tempDir
	cfg.Environments = map[string]EnvironmentConfig{
		"staging": {
			Dialect:     "postgres",
			DatabaseURL: "postgres://staging",
		},
	}

	env, err := ResolveEnvironment(cfg, "staging")
	if err != nil {
		t.Fatalf("ResolveEnvironment returned error: %v", err)
	}

	if env.DatabaseURL != "postgres://staging" {
		t.Fatalf("Expected config database URL, got %q", env.DatabaseURL)
	}
	if env.Dialect != "postgres" {
		t.Fatalf("Expected dialect postgres, got %q", env.Dialect)
	}
	if !env.FromConfig {
		t.Fatalf("Expected FromConfig=true")
	}
}

func TestResolveEnvironmentFromDotenv(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	dotenvPath := filepath.Join(tempDir, ".env.staging")
	if err := os.WriteFile(dotenvPath, []byte("DATABASE_URL=postgres://staging\nSHADOW_DATABASE_URL=postgres://staging-shadow\nSCHEMA_PATH=schemas/staging\n"), 0o600); err != nil {
		t.Fatalf("Failed to write dotenv file: %v", err)
	}

	cfg := &Config{DefaultEnvironment: "staging"}
	cfg.configDir = tempDir
	cfg.Environments = map[string]EnvironmentConfig{"staging": {}}

	env, err := ResolveEnvironment(cfg, "staging")
	if err != nil {
		t.Fatalf("ResolveEnvironment returned error: %v", err)
	}

	if env.DatabaseURL != "postgres://staging" {
		t.Fatalf("Expected dotenv database URL, got %q", env.DatabaseURL)
	}
	if env.ShadowDatabaseURL != "postgres://staging-shadow" {
		t.Fatalf("Expected dotenv shadow URL, got %q", env.ShadowDatabaseURL)
	}
	if !env.FromDotenv {
		t.Fatalf("Expected FromDotenv=true")
	}

	expectedSchema := filepath.Join(tempDir, "schemas/staging")
	if env.SchemaPath != expectedSchema {
		t.Fatalf("Expected schema path %q, got %q", expectedSchema, env.SchemaPath)
	}
}

func TestResolveEnvironmentConfigValuesWinOverBlankDotenv(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	dotenvPath := filepath.Join(tempDir, ".env.local")
	if err := os.WriteFile(dotenvPath, []byte("SCHEMA_PATH=schemas/local\n"), 0o600); err != nil {
		t.Fatalf("Failed to write dotenv file: %v", err)
	}

	cfg := &Config{DefaultEnvironment: "local"}
	cfg.configDir = tempDir
	cfg.Environments = map[string]EnvironmentConfig{
		"local": {DatabaseURL: "postgres://local"},
	}

	env, err := ResolveEnvironment(cfg, "local")
	if err != nil {
		t.Fatalf("ResolveEnvironment returned error: %v", err)
	}

	if env.DatabaseURL != "postgres://local" {
		t.Fatalf("Expected config database URL to survive, got %q", env.DatabaseURL)
	}
}

func TestResolveEnvironmentMissingDefinition(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Environments: map[string]EnvironmentConfig{
			"local": {DatabaseURL: "postgres://local"},
		},
	}
	cfg.configDir = t.TempDir()

	if _, err := ResolveEnvironment(cfg, "production"); err == nil {
		t.Fatal("Expected error resolving undefined environment, got nil")
	}
}

func TestResolveEnvironmentAbsoluteSchemaPathUnchanged(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "schema")
	cfg := &Config{
		Environments: map[string]EnvironmentConfig{
			"dev": {DatabaseURL: "postgres://dev", SchemaPath: abs},
		},
	}
	cfg.configDir = t.TempDir()

	env, err := ResolveEnvironment(cfg, "dev")
	if err != nil {
		t.Fatalf("ResolveEnvironment returned error: %v", err)
	}
	if env.SchemaPath != abs {
		t.Fatalf("Expected absolute schema path preserved, got %q", env.SchemaPath)
	}
}
