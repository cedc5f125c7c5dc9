// Package config loads relq.toml and resolves named environments into
// concrete connection settings, falling back to .env.<environment> files
// for secrets that should not live in version control.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

const configFileName = "relq.toml"

// EnvironmentConfig describes a single named environment from relq.toml.
type EnvironmentConfig struct {
	Dialect           string `toml:"dialect"`
	DatabaseURL       string `toml:"database_url"`
	ShadowDatabaseURL string `toml:"shadow_database_url,omitempty"`
	SchemaPath        string `toml:"schema_path,omitempty"`
}

// Config is the parsed contents of relq.toml.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment,omitempty"`
	Dialect            string                       `toml:"dialect,omitempty"`
	DatabaseURL        string                       `toml:"database_url,omitempty"`
	ShadowDatabaseURL  string                       `toml:"shadow_database_url,omitempty"`
	SchemaPath         string                       `toml:"schema_path,omitempty"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`

	ConfigFilePath string `toml:"-"`
	configDir      string
	projectDir     string
}

// PrintLoadConfigErrorDetails prints TOML decode-error position information,
// useful for surfacing exactly where a relq.toml file failed to parse.
func PrintLoadConfigErrorDetails(err error, t *testing.T) {
	var derr *toml.DecodeError
	if !errors.As(err, &derr) {
		return
	}
	if t != nil {
		t.Log(derr.String())
		row, col := derr.Position()
		t.Logf("error occurred at row %d, column %d", row, col)
		return
	}
	fmt.Println(derr.String())
	row, col := derr.Position()
	fmt.Printf("error occurred at row %d, column %d\n", row, col)
}

// LoadConfig finds and parses relq.toml by walking up from the working
// directory to the nearest project root (.git, go.mod, or package.json).
func LoadConfig() (*Config, error) {
	configPath, projectDir, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	cfg.ConfigFilePath = configPath
	cfg.configDir = filepath.Dir(configPath)
	cfg.projectDir = projectDir
	return &cfg, nil
}

// ConfigDir returns the directory containing relq.toml.
func (c *Config) ConfigDir() string {
	if c == nil {
		return ""
	}
	return c.configDir
}

// ProjectDir returns the nearest enclosing project root (.git/go.mod/package.json),
// which may differ from ConfigDir when relq.toml lives in a subdirectory.
func (c *Config) ProjectDir() string {
	if c == nil {
		return ""
	}
	if c.projectDir != "" {
		return c.projectDir
	}
	return c.configDir
}

func findConfigPath() (configPath string, projectRoot string, err error) {
	startDir, err := os.Getwd()
	if err != nil {
		return "", "", err
	}

	dir := startDir
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, dir, nil
		}

		if isProjectRoot(dir) {
			return "", "", fmt.Errorf("%s not found (stopped at project root %s)", configFileName, dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("%s not found", configFileName)
		}
		dir = parent
	}
}

// isProjectRoot reports whether dir looks like the top of a project checkout.
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// GetSchemaDir returns the schema/ directory next to relq.toml, if present.
func GetSchemaDir() (string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	schemaDir := filepath.Join(cfg.ConfigDir(), "schema")
	if info, err := os.Stat(schemaDir); err == nil && info.IsDir() {
		return schemaDir, nil
	}
	return "", fmt.Errorf("schema directory not found; create schema/ next to %s", configFileName)
}
