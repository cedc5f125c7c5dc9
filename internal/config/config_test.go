package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exampleConfig = `[environments.local]
database_url = "test"`

// compareConfigPaths compares two paths, resolving symlinks
func compareConfigPaths(t *testing.T, expected, actual string) {
	t.Helper()

	expectedResolved, err := filepath.EvalSymlinks(expected)
	if err != nil {
		expectedResolved = expected
	}
	actualResolved, err := filepath.EvalSymlinks(actual)
	if err != nil {
		actualResolved = actual
	}

	if expectedResolved != actualResolved {
		t.Errorf("Expected ConfigFilePath=%q, got %q", expectedResolved, actualResolved)
	}
}

// changeToDir changes to a directory and returns a cleanup function
func changeToDir(t *testing.T, dir string) func() {
	t.Helper()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change to directory %q: %v", dir, err)
	}

	return func() {
		if _, err := os.Stat(originalDir); err == nil {
			if err := os.Chdir(originalDir); err != nil {
				t.Logf("Failed to restore working directory: %v", err)
			}
		}
	}
}

func TestLoadConfigInCurrentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "relq.toml")

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cleanup := changeToDir(t, tempDir)
	defer cleanup()

	config, err := LoadConfig()
	if err != nil {
		PrintLoadConfigErrorDetails(err, t)
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if local, ok := config.Environments["local"]; ok {
		if local.DatabaseURL != "test" {
			t.Errorf("Expected database_url=test, got %q", local.DatabaseURL)
		}
	} else {
		t.Errorf("Expected local environment, got none")
	}

	compareConfigPaths(t, configPath, config.ConfigFilePath)
	compareConfigPaths(t, tempDir, config.ConfigDir())
}

func TestLoadConfigInParentDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "relq.toml")

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	subDir := filepath.Join(tempDir, "subdir", "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	cleanup := changeToDir(t, subDir)
	defer cleanup()

	config, err := LoadConfig()
	if err != nil {
		PrintLoadConfigErrorDetails(err, t)
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if local, ok := config.Environments["local"]; ok {
		if local.DatabaseURL != "test" {
			t.Errorf("Expected database_url=test, got %q", local.DatabaseURL)
		}
	} else {
		t.Errorf("Expected local environment, got %v", config.Environments)
	}

	compareConfigPaths(t, configPath, config.ConfigFilePath)
}

func TestLoadConfigNoFileReturnsError(t *testing.T) {
	tempDir := t.TempDir()

	cleanup := changeToDir(t, tempDir)
	defer cleanup()

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected error when no relq.toml is found, got nil")
	}
}

func TestLoadConfigStopsAtGitRoot(t *testing.T) {
	tempDir := t.TempDir()
	parentConfig := `[environments.local]
database_url = "parent"`
	gitProjectConfig := `[environments.local]
database_url = "git-project"`

	parentDir := filepath.Join(tempDir, "parent")
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		t.Fatalf("Failed to create parent directory: %v", err)
	}
	parentConfigPath := filepath.Join(parentDir, "relq.toml")
	if err := os.WriteFile(parentConfigPath, []byte(parentConfig), 0o600); err != nil {
		t.Fatalf("Failed to write parent config: %v", err)
	}

	gitProjectDir := filepath.Join(parentDir, "git-project")
	gitDir := filepath.Join(gitProjectDir, ".git")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		t.Fatalf("Failed to create .git directory: %v", err)
	}
	gitConfigPath := filepath.Join(gitProjectDir, "relq.toml")
	if err := os.WriteFile(gitConfigPath, []byte(gitProjectConfig), 0o600); err != nil {
		t.Fatalf("Failed to write git project config: %v", err)
	}

	subDir := filepath.Join(gitProjectDir, "src", "components")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	cleanup := changeToDir(t, subDir)
	defer cleanup()

	config, err := LoadConfig()
	if err != nil {
		PrintLoadConfigErrorDetails(err, t)
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if local, ok := config.Environments["local"]; ok {
		if local.DatabaseURL != "git-project" {
			t.Errorf("Expected database_url=git-project, got %q", local.DatabaseURL)
		}
	} else {
		t.Errorf("Expected local environment, got %v", config.Environments)
	}

	compareConfigPaths(t, gitConfigPath, config.ConfigFilePath)
}

func TestLoadConfigStopsAtGoModRoot(t *testing.T) {
	tempDir := t.TempDir()

	parentDir := filepath.Join(tempDir, "parent")
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		t.Fatalf("Failed to create parent directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(parentDir, "relq.toml"), []byte(`default_environment = "parent"`), 0o600); err != nil {
		t.Fatalf("Failed to write parent config: %v", err)
	}

	goModDir := filepath.Join(parentDir, "go-module")
	if err := os.MkdirAll(goModDir, 0o755); err != nil {
		t.Fatalf("Failed to create go module directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(goModDir, "go.mod"), []byte("module test\n"), 0o600); err != nil {
		t.Fatalf("Failed to write go.mod: %v", err)
	}

	subDir := filepath.Join(goModDir, "internal", "config")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	cleanup := changeToDir(t, subDir)
	defer cleanup()

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected LoadConfig to stop at go.mod boundary and error, got nil")
	}
}

func TestLoadConfigStopsAtPackageJsonRoot(t *testing.T) {
	tempDir := t.TempDir()

	nodeProjectDir := filepath.Join(tempDir, "node-project")
	if err := os.MkdirAll(nodeProjectDir, 0o755); err != nil {
		t.Fatalf("Failed to create node project directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nodeProjectDir, "package.json"), []byte(`{"name": "test"}`), 0o600); err != nil {
		t.Fatalf("Failed to write package.json: %v", err)
	}

	subDir := filepath.Join(nodeProjectDir, "src")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	cleanup := changeToDir(t, subDir)
	defer cleanup()

	if _, err := LoadConfig(); err == nil {
		t.Fatal("Expected LoadConfig to stop at package.json boundary and error, got nil")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "relq.toml")
	invalidContent := `test = "test" invalid syntax`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cleanup := changeToDir(t, tempDir)
	defer cleanup()

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for invalid TOML, got nil")
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("Expected TOML parse error, got: %v", err)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "relq.toml")

	if err := os.WriteFile(configPath, []byte(""), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cleanup := changeToDir(t, tempDir)
	defer cleanup()

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty file: %v", err)
	}

	if config.Environments != nil {
		t.Errorf("Expected empty environments, got %v", config.Environments)
	}

	compareConfigPaths(t, configPath, config.ConfigFilePath)
}

func TestIsProjectRootGit(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tempDir, ".git"), 0o755); err != nil {
		t.Fatalf("Failed to create .git directory: %v", err)
	}

	if !isProjectRoot(tempDir) {
		t.Error("Expected isProjectRoot to return true for directory with .git")
	}
}

func TestIsProjectRootGoMod(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "go.mod"), []byte("module test\n"), 0o600); err != nil {
		t.Fatalf("Failed to write go.mod: %v", err)
	}

	if !isProjectRoot(tempDir) {
		t.Error("Expected isProjectRoot to return true for directory with go.mod")
	}
}

func TestIsProjectRootPackageJson(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "package.json"), []byte(`{"name": "test"}`), 0o600); err != nil {
		t.Fatalf("Failed to write package.json: %v", err)
	}

	if !isProjectRoot(tempDir) {
		t.Error("Expected isProjectRoot to return true for directory with package.json")
	}
}

func TestIsProjectRootNoMarkers(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	if isProjectRoot(tempDir) {
		t.Error("Expected isProjectRoot to return false for directory without project markers")
	}
}
