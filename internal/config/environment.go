package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironmentName = "development"
)

// ResolvedEnvironment is a fully-resolved environment: concrete dialect,
// connection URL, and schema path, with provenance of where each value
// came from (relq.toml vs. .env.<environment>).
type ResolvedEnvironment struct {
	Name              string
	Dialect           string
	DatabaseURL       string
	ShadowDatabaseURL string
	SchemaPath        string
	DotenvPath        string
	FromConfig        bool
	FromDotenv        bool
	ResolvedConfigDir string
}

// ResolveEnvironment resolves a named environment (or the configured/
// implicit default) into concrete connection settings, applying relq.toml
// values first and letting .env.<environment> fill in anything missing.
func ResolveEnvironment(cfg *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if cfg != nil && cfg.DefaultEnvironment != "" {
			envName = cfg.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if cfg != nil && cfg.Environments != nil {
		if ec, ok := cfg.Environments[envName]; ok {
			envConfig = ec
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{Name: envName}

	if cfg != nil {
		resolved.ResolvedConfigDir = cfg.ConfigDir()
		if envConfig.Dialect == "" {
			envConfig.Dialect = cfg.Dialect
		}
		if envConfig.DatabaseURL == "" {
			envConfig.DatabaseURL = cfg.DatabaseURL
		}
		if envConfig.ShadowDatabaseURL == "" {
			envConfig.ShadowDatabaseURL = cfg.ShadowDatabaseURL
		}
		if envConfig.SchemaPath == "" {
			envConfig.SchemaPath = cfg.SchemaPath
		}
	}

	resolved.Dialect = envConfig.Dialect
	resolved.DatabaseURL = envConfig.DatabaseURL
	resolved.ShadowDatabaseURL = envConfig.ShadowDatabaseURL
	resolved.SchemaPath = envConfig.SchemaPath
	resolved.FromConfig = envExists

	baseDir := resolved.ResolvedConfigDir
	projectDir := ""
	if cfg != nil {
		projectDir = cfg.ProjectDir()
	}
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}

	dotenvName := ".env." + envName
	resolved.DotenvPath = filepath.Join(baseDir, dotenvName)
	if _, err := os.Stat(resolved.DotenvPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
		}
		if projectDir != "" && projectDir != baseDir {
			if alt := filepath.Join(projectDir, dotenvName); fileExists(alt) {
				resolved.DotenvPath = alt
			}
		}
	}

	if fileExists(resolved.DotenvPath) {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true
		if v := values["DATABASE_URL"]; v != "" {
			resolved.DatabaseURL = v
		}
		if v := values["SHADOW_DATABASE_URL"]; v != "" {
			resolved.ShadowDatabaseURL = v
		}
		if v := values["DIALECT"]; v != "" && resolved.Dialect == "" {
			resolved.Dialect = v
		}
		if v := values["SCHEMA_PATH"]; v != "" && resolved.SchemaPath == "" {
			resolved.SchemaPath = v
		}
	}

	if resolved.SchemaPath != "" {
		resolved.SchemaPath = resolveSchemaPath(resolved.SchemaPath, baseDir)
	}

	if cfg != nil && len(cfg.Environments) > 0 && !envExists && !resolved.FromDotenv {
		return nil, fmt.Errorf("environment %q not defined in %s and %s not found", envName, configFileName, resolved.DotenvPath)
	}

	return resolved, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func resolveSchemaPath(path, base string) string {
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}
