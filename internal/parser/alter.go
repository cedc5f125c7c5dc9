package parser

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/relq/relq/internal/ir"
)

func applyCreateIndex(schema *ir.Schema, stmt *pg_query.IndexStmt, tokens map[int]string, loc int) error {
	if stmt.Relation == nil || stmt.Relation.Relname == "" {
		return fmt.Errorf("CREATE INDEX missing table name")
	}
	table := schema.TableByName(stmt.Relation.Relname)
	if table == nil {
		return fmt.Errorf("CREATE INDEX references unknown table: %s", stmt.Relation.Relname)
	}

	idx := ir.Index{
		Name:   stmt.Idxname,
		Unique: stmt.Unique,
		Method: indexMethodFromAccessMethod(stmt.AccessMethod),
	}
	for _, elem := range stmt.IndexParams {
		if indexElem, ok := elem.Node.(*pg_query.Node_IndexElem); ok && indexElem.IndexElem.Name != "" {
			idx.Columns = append(idx.Columns, indexElem.IndexElem.Name)
		}
	}
	if stmt.WhereClause != nil {
		idx.Predicate = formatExpr(stmt.WhereClause)
	}

	if len(idx.Columns) == 0 {
		return fmt.Errorf("CREATE INDEX %s has no indexable columns", stmt.Idxname)
	}
	table.Indexes = append(table.Indexes, idx)
	return nil
}

func indexMethodFromAccessMethod(am string) ir.IndexMethod {
	switch am {
	case "hash":
		return ir.IndexHash
	case "gin":
		return ir.IndexGIN
	case "gist":
		return ir.IndexGIST
	case "brin":
		return ir.IndexBRIN
	case "spgist":
		return ir.IndexSPGist
	default:
		return ir.IndexBTree
	}
}

func applyAlterTable(schema *ir.Schema, stmt *pg_query.AlterTableStmt) error {
	if stmt.Relation == nil || stmt.Relation.Relname == "" {
		return fmt.Errorf("ALTER TABLE missing relation")
	}
	table := schema.TableByName(stmt.Relation.Relname)
	if table == nil {
		return fmt.Errorf("ALTER TABLE references unknown table: %s", stmt.Relation.Relname)
	}

	for _, cmdNode := range stmt.Cmds {
		if cmdNode == nil {
			continue
		}
		alterCmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || alterCmd.AlterTableCmd == nil {
			continue
		}
		if err := applyAlterTableCmd(table, alterCmd.AlterTableCmd); err != nil {
			return err
		}
	}
	return nil
}

func applyAlterTableCmd(table *ir.Table, cmd *pg_query.AlterTableCmd) error {
	switch cmd.Subtype {
	case pg_query.AlterTableType_AT_AddColumn:
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			return fmt.Errorf("ALTER TABLE %s ADD COLUMN missing definition", table.Name)
		}
		col, err := parseColumnDef(colDef, "", nil)
		if err != nil {
			return err
		}
		table.Columns = append(table.Columns, *col)

	case pg_query.AlterTableType_AT_DropColumn:
		idx := columnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s DROP COLUMN unknown column: %s", table.Name, cmd.Name)
		}
		table.Columns = append(table.Columns[:idx], table.Columns[idx+1:]...)

	case pg_query.AlterTableType_AT_SetNotNull:
		if idx := columnIndex(table, cmd.Name); idx != -1 {
			table.Columns[idx].Nullable = false
		}

	case pg_query.AlterTableType_AT_DropNotNull:
		if idx := columnIndex(table, cmd.Name); idx != -1 {
			table.Columns[idx].Nullable = true
		}

	case pg_query.AlterTableType_AT_ColumnDefault:
		idx := columnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s ALTER COLUMN unknown column: %s", table.Name, cmd.Name)
		}
		if cmd.Def != nil {
			expr := formatExpr(cmd.Def)
			table.Columns[idx].Default = &expr
		} else {
			table.Columns[idx].Default = nil
		}

	case pg_query.AlterTableType_AT_AlterColumnType:
		idx := columnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s ALTER COLUMN unknown column: %s", table.Name, cmd.Name)
		}
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil || colDef.TypeName == nil {
			return fmt.Errorf("ALTER TABLE %s ALTER COLUMN %s missing type definition", table.Name, cmd.Name)
		}
		newType := formatTypeName(colDef.TypeName)
		table.Columns[idx].Type = newType
		table.Columns[idx].TypeMetadata = &ir.TypeMetadata{Logical: ir.NormalizeTypeName(newType), Raw: newType}

	case pg_query.AlterTableType_AT_AddConstraint:
		constraint := cmd.GetDef().GetConstraint()
		if constraint == nil {
			return fmt.Errorf("ALTER TABLE %s ADD CONSTRAINT missing definition", table.Name)
		}
		parseTableConstraint(table, constraint, "", nil)

	case pg_query.AlterTableType_AT_DropConstraint:
		if removeConstraintByName(table, cmd.Name) {
			return nil
		}
		if removeIndexByName(table, cmd.Name) {
			return nil
		}
		return fmt.Errorf("ALTER TABLE %s DROP CONSTRAINT unknown constraint: %s", table.Name, cmd.Name)

	case pg_query.AlterTableType_AT_EnableRowSecurity:
		table.RLSEnabled = true

	case pg_query.AlterTableType_AT_DisableRowSecurity:
		table.RLSEnabled = false

	default:
		return fmt.Errorf("ALTER TABLE %s unsupported command: %s", table.Name, cmd.Subtype.String())
	}
	return nil
}

func columnIndex(table *ir.Table, name string) int {
	for i := range table.Columns {
		if table.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

func removeIndexByName(table *ir.Table, name string) bool {
	for i := range table.Indexes {
		if table.Indexes[i].Name == name {
			table.Indexes = append(table.Indexes[:i], table.Indexes[i+1:]...)
			return true
		}
	}
	return false
}

func removeConstraintByName(table *ir.Table, name string) bool {
	for i := range table.Constraints {
		if table.Constraints[i].Name == name {
			table.Constraints = append(table.Constraints[:i], table.Constraints[i+1:]...)
			return true
		}
	}
	return false
}
