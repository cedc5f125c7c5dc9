package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/relq/relq/internal/config"
)

var (
	initForce   bool
	initEnv     string
	initDialect string
	initDBURL   string
	initSchema  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a relq.toml and an empty declarative schema file",
	Long: `Scaffold a relq.toml pointing at one environment and an empty
declarative schema file ready for "relq pull".`,
	Run: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing relq.toml")
	initCmd.Flags().StringVar(&initEnv, "environment", "local", "name of the environment to scaffold")
	initCmd.Flags().StringVar(&initDialect, "dialect", "postgres", "dialect for the scaffolded environment")
	initCmd.Flags().StringVar(&initDBURL, "db", "", "connection string to write as database_url (left blank if omitted)")
	initCmd.Flags().StringVar(&initSchema, "schema", "schema.relq.sql", "path to the declarative schema file this environment tracks")
}

func runInit(cmd *cobra.Command, args []string) {
	written, err := scaffoldProject(initOptions{
		force:   initForce,
		env:     initEnv,
		dialect: initDialect,
		dbURL:   initDBURL,
		schema:  initSchema,
	})
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("wrote %s, %s, and %s\n", written.configPath, written.schemaPath, written.envPath)
}

type initOptions struct {
	force   bool
	env     string
	dialect string
	dbURL   string
	schema  string
}

type scaffoldResult struct {
	configPath string
	schemaPath string
	envPath    string
}

// scaffoldProject writes relq.toml, the declarative schema file, and
// .env.<environment> into the current directory. Separated from
// runInit so it can be exercised without cobra or os.Exit.
func scaffoldProject(opts initOptions) (*scaffoldResult, error) {
	const configPath = "relq.toml"

	if _, err := os.Stat(configPath); err == nil && !opts.force {
		return nil, fmt.Errorf("%s already exists; pass --force to overwrite it", configPath)
	}

	cfg := config.Config{
		DefaultEnvironment: opts.env,
		Environments: map[string]config.EnvironmentConfig{
			opts.env: {
				Dialect:     opts.dialect,
				DatabaseURL: opts.dbURL,
				SchemaPath:  opts.schema,
			},
		},
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding relq.toml: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", configPath, err)
	}

	if schemaDir := filepath.Dir(opts.schema); schemaDir != "." {
		if err := os.MkdirAll(schemaDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", schemaDir, err)
		}
	}
	if _, err := os.Stat(opts.schema); os.IsNotExist(err) {
		header := []byte("-- Generated by: relq\n-- Run `relq pull --environment " + opts.env + "` to populate this file from a live database.\n")
		if err := os.WriteFile(opts.schema, header, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", opts.schema, err)
		}
	}

	envFile := ".env." + opts.env
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		contents := "DATABASE_URL=\nSHADOW_DATABASE_URL=\n"
		if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
			return nil, fmt.Errorf("writing %s: %w", envFile, err)
		}
	}

	return &scaffoldResult{configPath: configPath, schemaPath: opts.schema, envPath: envFile}, nil
}
