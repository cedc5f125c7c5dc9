package codegen

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/relq/relq/internal/ir"
)

// GenerateTypeStubs renders one Go struct per table, named after its
// PascalCase table name, with one field per column typed by its
// logical SQL type. It's the `typesImportPath` companion file: schema
// code that wants a compile-time-checked row shape imports pkgName and
// gets these structs for free instead of hand-maintaining them.
//
// This mirrors the teacher corpus's own generated-client pattern (one
// jennifer *jen.File assembling every generated declaration for a
// package in one pass) rather than one file per table — relq's output
// here is meant to be a single `schema_types.go`, not a whole
// generated ORM tree.
func GenerateTypeStubs(schema *ir.Schema, pkgName string) (string, error) {
	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by relq. DO NOT EDIT.")

	for _, table := range schema.Tables {
		structName := pascalCase(table.Name)
		fields := make([]jen.Code, 0, len(table.Columns))
		for _, col := range table.Columns {
			goType := goTypeFor(col)
			fields = append(fields, jen.Id(pascalCase(col.Name)).Add(goType).Tag(map[string]string{"db": col.Name}))
		}
		f.Type().Id(structName).Struct(fields...)
	}

	for _, e := range schema.Enums {
		typeName := pascalCase(e.Name)
		f.Type().Id(typeName).String()
		values := make([]jen.Code, 0, len(e.Values))
		for _, v := range e.Values {
			values = append(values, jen.Id(typeName+pascalCase(v)).Id(typeName).Op("=").Lit(v))
		}
		f.Const().Defs(values...)
	}

	var sb strings.Builder
	if err := f.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// goTypeFor maps a column's logical type to the Go type its generated
// struct field should carry, nullable columns going through a pointer
// so a SQL NULL round-trips without a sentinel zero value.
func goTypeFor(col ir.Column) jen.Code {
	base := scalarGoType(col.LogicalType())
	if col.IsArray {
		base = jen.Index().Add(base)
	}
	if col.Nullable {
		return jen.Op("*").Add(base)
	}
	return base
}

func scalarGoType(logical string) jen.Code {
	switch {
	case logical == "boolean":
		return jen.Bool()
	case logical == "bigint" || logical == "bigserial":
		return jen.Int64()
	case logical == "integer" || logical == "serial":
		return jen.Int32()
	case logical == "smallint":
		return jen.Int16()
	case strings.HasPrefix(logical, "numeric") || logical == "real" || logical == "double precision":
		return jen.Float64()
	case logical == "uuid":
		return jen.Qual("github.com/google/uuid", "UUID")
	case logical == "timestamp" || logical == "timestamp with time zone" || logical == "date":
		return jen.Qual("time", "Time")
	case logical == "jsonb" || logical == "json":
		return jen.Qual("encoding/json", "RawMessage")
	case logical == "bytea":
		return jen.Index().Byte()
	default:
		return jen.String()
	}
}

func pascalCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
