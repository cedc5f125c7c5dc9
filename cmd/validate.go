package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relq/relq/internal/dialect"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/parser"
	"github.com/relq/relq/internal/validator"
)

var (
	validateFile    string
	validateDialect string
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a declarative schema file",
	Long: `Run syntax, declarative-style, dangerous-pattern, schema, and
dialect-compatibility checks against a .relq.sql file without touching
any database.`,
	Example: `  relq validate schema.relq.sql
  relq validate --file schema.relq.sql --dialect cockroachdb`,
	Args: cobra.MaximumNArgs(1),
	Run:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "path to the .relq.sql file to validate")
	validateCmd.Flags().StringVar(&validateDialect, "dialect", "postgres", "dialect to validate compatibility against")
}

func runValidate(cmd *cobra.Command, args []string) {
	path := validateFile
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		_ = cmd.Usage()
		os.Exit(1)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		fail("reading %s: %v", path, err)
	}
	source := string(content)

	var diags []ir.Diagnostic
	diags = append(diags, validator.ValidateSyntax(source)...)
	diags = append(diags, validator.ValidateDeclarative(source)...)
	diags = append(diags, validator.ValidateDangerousPatterns(source)...)

	schema, parseDiags, err := parser.Parse(source)
	diags = append(diags, parseDiags...)
	if err != nil {
		fail("parsing %s: %v", path, err)
	}

	diags = append(diags, validator.ValidateSchema(schema)...)

	adapter, err := dialect.Default().Get(validateDialect)
	if err != nil {
		fail("unknown dialect %q: %v", validateDialect, err)
	}
	diags = append(diags, validator.ValidateDialectCompatibility(schema, adapter)...)

	errCount := 0
	for _, d := range diags {
		marker := "warning"
		if d.Severity == ir.SeverityError {
			marker = "error"
			errCount++
		}
		fmt.Fprintf(os.Stderr, "%s:%d: %s: [%s] %s\n", path, d.Range.Start.Line+1, marker, d.Code, d.Message)
	}

	if errCount > 0 {
		fail("%s: %d error(s), %d total diagnostic(s)", path, errCount, len(diags))
	}
	fmt.Fprintf(os.Stderr, "✓ %s is valid (%d diagnostic(s))\n", path, len(diags))
}
