package ir

import "strings"

// TypeParams holds the optional parameters a column's type may carry.
type TypeParams struct {
	Length    *int `json:"length,omitempty"`
	Precision *int `json:"precision,omitempty"`
	Scale     *int `json:"scale,omitempty"`
}

// TypeMetadata is the provenance envelope for a column's type: the
// normalized logical name the differ compares across dialect synonyms,
// and the raw dialect spelling codegen needs to reproduce it exactly.
type TypeMetadata struct {
	Logical string `json:"logical"`
	Raw     string `json:"raw"`
	Dialect string `json:"dialect"`
}

// DefaultMetadata is the provenance envelope for a column's default
// expression, mirroring TypeMetadata.
type DefaultMetadata struct {
	Raw     string `json:"raw"`
	Dialect string `json:"dialect"`
}

// Column is a single table column.
type Column struct {
	Name         string  `json:"name"`
	DevName      string  `json:"dev_name,omitempty"` // case-style-transformed developer-facing name
	Type         string  `json:"type"`
	TypeParams   TypeParams       `json:"type_params,omitempty"`
	Nullable     bool             `json:"nullable"`
	Default      *string          `json:"default,omitempty"`
	IsPrimaryKey bool             `json:"is_primary_key"`
	Unique       bool             `json:"unique,omitempty"`
	Generated    *string          `json:"generated,omitempty"` // raw generated-expression SQL
	IsArray      bool             `json:"is_array,omitempty"`
	ArrayDims    int              `json:"array_dims,omitempty"`
	Comment      string           `json:"comment,omitempty"`
	Token        string           `json:"token,omitempty"`
	TypeMetadata *TypeMetadata    `json:"type_metadata,omitempty"`
	DefaultMeta  *DefaultMetadata `json:"default_metadata,omitempty"`
}

// logicalTypeSynonyms maps dialect-specific type spellings to the
// canonical logical name the differ compares. Mirrors the synonym set
// spec.md §4.5 names explicitly (int4≡integer, bool≡boolean,
// timestamptz≡timestamp with time zone).
var logicalTypeSynonyms = map[string]string{
	"int2":        "smallint",
	"int4":        "integer",
	"int8":        "bigint",
	"bool":        "boolean",
	"timestamptz": "timestamp with time zone",
	"timetz":      "time with time zone",
	"float4":      "real",
	"float8":      "double precision",
	"varchar":     "character varying",
	"char":        "character",
	"decimal":     "numeric",
}

// LogicalType returns the column's canonical type name: TypeMetadata's
// Logical field when present, otherwise Type normalized through the
// dialect-synonym table. Array prefixes (`_t`) are collapsed to the
// `t[]` suffix form before lookup.
func (c Column) LogicalType() string {
	if c.TypeMetadata != nil && c.TypeMetadata.Logical != "" {
		return c.TypeMetadata.Logical
	}
	return NormalizeTypeName(c.Type)
}

// NormalizeTypeName canonicalizes a raw dialect type spelling: lowercases,
// strips length/precision/scale decorations, converts a leading
// underscore array marker into a trailing `[]`, and maps known synonyms.
func NormalizeTypeName(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	array := false
	if strings.HasPrefix(t, "_") {
		array = true
		t = t[1:]
	}
	if strings.HasSuffix(t, "[]") {
		array = true
		t = strings.TrimSuffix(t, "[]")
	}
	if idx := strings.IndexByte(t, '('); idx >= 0 {
		t = t[:idx]
	}
	t = strings.TrimSpace(t)
	if mapped, ok := logicalTypeSynonyms[t]; ok {
		t = mapped
	}
	if array {
		t += "[]"
	}
	return t
}
