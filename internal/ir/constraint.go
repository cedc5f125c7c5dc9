package ir

// ConstraintKind enumerates the constraint classes a table can carry.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY KEY"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintForeignKey ConstraintKind = "FOREIGN KEY"
	ConstraintCheck      ConstraintKind = "CHECK"
)

// ReferentialAction enumerates ON DELETE / ON UPDATE behaviors.
type ReferentialAction string

const (
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// Constraint is a named table-level constraint. Which fields are
// meaningful depends on Kind: ForeignKey fields apply only to
// ConstraintForeignKey, Expression only to ConstraintCheck.
type Constraint struct {
	Name    string         `json:"name"`
	Kind    ConstraintKind `json:"kind"`
	Columns []string       `json:"columns,omitempty"`

	// CHECK
	Expression string `json:"expression,omitempty"`

	// FOREIGN KEY
	ReferencedTable   string            `json:"referenced_table,omitempty"`
	ReferencedColumns []string          `json:"referenced_columns,omitempty"`
	OnDelete          ReferentialAction `json:"on_delete,omitempty"`
	OnUpdate          ReferentialAction `json:"on_update,omitempty"`

	Comment string `json:"comment,omitempty"`
	Token   string `json:"token,omitempty"`
}
