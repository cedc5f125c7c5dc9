package validator

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/relq/relq/internal/ir"
)

// ValidateDangerousPatterns flags statements that are syntactically
// valid but destroy data: DROP TABLE, TRUNCATE, DELETE without a WHERE
// clause, and ALTER TABLE ... DROP COLUMN.
func ValidateDangerousPatterns(source string) []ir.Diagnostic {
	tree, err := pg_query.Parse(source)
	if err != nil {
		return nil
	}

	var diags []ir.Diagnostic
	for _, rawStmt := range tree.Stmts {
		if rawStmt.Stmt == nil {
			continue
		}
		offset := int(rawStmt.StmtLocation)
		diags = append(diags, detectDataLossOperations(source, rawStmt.Stmt, offset)...)
	}
	return diags
}

func detectDataLossOperations(source string, stmt *pg_query.Node, offset int) []ir.Diagnostic {
	var diags []ir.Diagnostic
	r := ir.RangeFromOffsets(source, offset, offset)

	switch node := stmt.Node.(type) {
	case *pg_query.Node_DropStmt:
		if node.DropStmt.RemoveType == pg_query.ObjectType_OBJECT_TABLE {
			name := objectName(node.DropStmt.Objects)
			diags = append(diags, ir.NewDiagnostic(r, ir.SeverityError, "dangerous_drop_table",
				fmt.Sprintf("DROP TABLE %s permanently deletes all data in the table and cannot be undone", name)))
		}

	case *pg_query.Node_TruncateStmt:
		names := relationNames(node.TruncateStmt.Relations)
		diags = append(diags, ir.NewDiagnostic(r, ir.SeverityError, "dangerous_truncate",
			fmt.Sprintf("TRUNCATE TABLE %s removes every row and cannot be rolled back by a subsequent sync", strings.Join(names, ", "))))

	case *pg_query.Node_DeleteStmt:
		if node.DeleteStmt.WhereClause == nil {
			name := rangeVarName(node.DeleteStmt.Relation)
			diags = append(diags, ir.NewDiagnostic(r, ir.SeverityError, "dangerous_delete_all",
				fmt.Sprintf("DELETE FROM %s has no WHERE clause and removes every row", name)))
		}

	case *pg_query.Node_AlterTableStmt:
		tableName := rangeVarName(node.AlterTableStmt.Relation)
		for _, cmdNode := range node.AlterTableStmt.Cmds {
			if cmdNode.Node == nil {
				continue
			}
			if alterCmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd); ok {
				if alterCmd.AlterTableCmd.Subtype == pg_query.AlterTableType_AT_DropColumn {
					diags = append(diags, ir.NewDiagnostic(r, ir.SeverityError, "dangerous_drop_column",
						fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s permanently deletes that column's data",
							tableName, alterCmd.AlterTableCmd.Name)))
				}
			}
		}
	}
	return diags
}

var (
	createOrReplaceRe = regexp.MustCompile(`(?i)\bCREATE\s+OR\s+REPLACE\b`)
	ifNotExistsRe     = regexp.MustCompile(`(?i)\bIF\s+NOT\s+EXISTS\b`)
	txControlRe       = regexp.MustCompile(`(?i)^\s*(BEGIN|COMMIT|ROLLBACK)\b`)
)

// ValidateDeclarative flags imperative or non-deterministic SQL that
// undermines treating the source file as the single source of truth
// for a schema: CREATE OR REPLACE, IF NOT EXISTS, and explicit
// transaction control (sync already wraps every apply in one).
func ValidateDeclarative(source string) []ir.Diagnostic {
	var diags []ir.Diagnostic

	if loc := createOrReplaceRe.FindStringIndex(source); loc != nil {
		diags = append(diags, ir.NewDiagnostic(ir.RangeFromOffsets(source, loc[0], loc[1]),
			ir.SeverityError, "non_declarative_create_or_replace",
			"CREATE OR REPLACE is non-declarative; use a plain CREATE and let sync manage replacement"))
	}
	if loc := ifNotExistsRe.FindStringIndex(source); loc != nil {
		diags = append(diags, ir.NewDiagnostic(ir.RangeFromOffsets(source, loc[0], loc[1]),
			ir.SeverityError, "non_declarative_if_not_exists",
			"IF NOT EXISTS makes the schema's state depend on what's already there; sync already handles create-vs-exists"))
	}
	for _, line := range strings.Split(source, "\n") {
		if txControlRe.MatchString(line) {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "non_declarative_transaction_control",
				"explicit BEGIN/COMMIT/ROLLBACK is not allowed; sync manages its own transaction boundary"))
			break
		}
	}
	return diags
}

func objectName(objects []*pg_query.Node) string {
	if len(objects) == 0 {
		return "unknown"
	}
	if listNode, ok := objects[0].Node.(*pg_query.Node_List); ok {
		var parts []string
		for _, item := range listNode.List.Items {
			if s, ok := item.Node.(*pg_query.Node_String_); ok {
				parts = append(parts, s.String_.Sval)
			}
		}
		return strings.Join(parts, ".")
	}
	return "unknown"
}

func relationNames(relations []*pg_query.Node) []string {
	var names []string
	for _, rel := range relations {
		if rangeVar, ok := rel.Node.(*pg_query.Node_RangeVar); ok {
			names = append(names, rangeVarName(rangeVar.RangeVar))
		}
	}
	return names
}

func rangeVarName(rv *pg_query.RangeVar) string {
	if rv == nil {
		return "unknown"
	}
	if rv.Schemaname != "" {
		return rv.Schemaname + "." + rv.Relname
	}
	return rv.Relname
}
