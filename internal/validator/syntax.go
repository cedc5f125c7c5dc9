// Package validator runs three independent passes over a schema: SQL
// syntax and dangerous/non-declarative pattern scanning against raw
// source text, structural consistency checks against an assembled IR,
// and dialect compatibility checks against a dialect.Adapter.
package validator

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/relq/relq/internal/ir"
)

// ValidateSyntax parses source statement-by-statement so a single typo
// doesn't hide every other syntax error behind it, then — once source
// parses cleanly as a whole — runs the dangerous-pattern and
// non-declarative-pattern scans over it.
func ValidateSyntax(source string) []ir.Diagnostic {
	collector := ir.NewCollector("", source)

	if _, err := pg_query.Parse(source); err != nil {
		for _, stmt := range splitStatements(source) {
			trimmed := strings.TrimSpace(stmt.sql)
			if trimmed == "" || isCommentOnly(trimmed) {
				continue
			}
			if _, err := pg_query.Parse(stmt.sql); err != nil {
				collector.AddErrorAtOffset(stmt.startOffset, len(stmt.sql), "SYNTAX_ERROR", err.Error())
			}
		}
		return collector.All()
	}

	for _, d := range ValidateDangerousPatterns(source) {
		collector.Add(d)
	}
	for _, d := range ValidateDeclarative(source) {
		collector.Add(d)
	}
	return collector.All()
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

type statement struct {
	sql         string
	startOffset int
}

// splitStatements splits on semicolons outside quotes and comments,
// mirroring the tolerant scanning a hand-edited source file needs.
func splitStatements(sql string) []statement {
	var statements []statement
	var current strings.Builder
	stmtStart := 0

	inSingleQuote, inDoubleQuote, inLineComment, inBlockComment := false, false, false, false

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '\n' && inLineComment {
			inLineComment = false
		}

		if !inSingleQuote && !inDoubleQuote {
			if !inBlockComment && i+1 < len(runes) && ch == '-' && runes[i+1] == '-' {
				inLineComment = true
			}
			if !inLineComment && i+1 < len(runes) && ch == '/' && runes[i+1] == '*' {
				inBlockComment = true
			}
			if inBlockComment && i > 0 && runes[i-1] == '*' && ch == '/' {
				inBlockComment = false
			}
		}

		if !inLineComment && !inBlockComment {
			if ch == '\'' && (i == 0 || runes[i-1] != '\\') {
				inSingleQuote = !inSingleQuote
			}
			if ch == '"' && (i == 0 || runes[i-1] != '\\') {
				inDoubleQuote = !inDoubleQuote
			}
		}

		if ch == ';' && !inSingleQuote && !inDoubleQuote && !inLineComment && !inBlockComment {
			current.WriteRune(ch)
			statements = append(statements, statement{sql: current.String(), startOffset: stmtStart})
			current.Reset()
			stmtStart = i + 1
			continue
		}
		current.WriteRune(ch)
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, statement{sql: current.String(), startOffset: stmtStart})
	}
	return statements
}
