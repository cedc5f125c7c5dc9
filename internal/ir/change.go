package ir

// ChangeOp enumerates the operations the differ can emit.
type ChangeOp string

const (
	OpCreateTable      ChangeOp = "CREATE_TABLE"
	OpDropTable        ChangeOp = "DROP_TABLE"
	OpRenameTable      ChangeOp = "RENAME_TABLE"
	OpCreateColumn     ChangeOp = "CREATE_COLUMN"
	OpDropColumn       ChangeOp = "DROP_COLUMN"
	OpRenameColumn     ChangeOp = "RENAME_COLUMN"
	OpAlterColumn      ChangeOp = "ALTER_COLUMN"
	OpCreateIndex      ChangeOp = "CREATE_INDEX"
	OpDropIndex        ChangeOp = "DROP_INDEX"
	OpCreateConstraint ChangeOp = "CREATE_CONSTRAINT"
	OpDropConstraint   ChangeOp = "DROP_CONSTRAINT"
	OpCreateEnum       ChangeOp = "CREATE_ENUM"
	OpAlterEnum        ChangeOp = "ALTER_ENUM"
	OpDropEnum         ChangeOp = "DROP_ENUM"
	OpCreateView       ChangeOp = "CREATE_VIEW"
	OpReplaceView      ChangeOp = "REPLACE_VIEW"
	OpDropView         ChangeOp = "DROP_VIEW"
	OpCreateFunction   ChangeOp = "CREATE_FUNCTION"
	OpReplaceFunction  ChangeOp = "REPLACE_FUNCTION"
	OpDropFunction     ChangeOp = "DROP_FUNCTION"
	OpCreateTrigger    ChangeOp = "CREATE_TRIGGER"
	OpDropTrigger      ChangeOp = "DROP_TRIGGER"
	OpCreateExtension  ChangeOp = "CREATE_EXTENSION"
	OpDropExtension    ChangeOp = "DROP_EXTENSION"
	OpEnableRLS        ChangeOp = "ENABLE_RLS"
	OpDisableRLS       ChangeOp = "DISABLE_RLS"
	OpCreateSequence   ChangeOp = "CREATE_SEQUENCE"
	OpAlterSequence    ChangeOp = "ALTER_SEQUENCE"
	OpDropSequence     ChangeOp = "DROP_SEQUENCE"
)

// Change is one entry in the ordered change set the differ produces.
// Table/Object name the owning entities; Before/After carry whichever
// IR value is relevant to Op (both set for ALTER/RENAME, only one set
// for CREATE/DROP).
type Change struct {
	Op          ChangeOp `json:"op"`
	Table       string   `json:"table,omitempty"`
	Object      string   `json:"object"`
	Token       string   `json:"token,omitempty"`
	Description string   `json:"description"`
	Before      any      `json:"before,omitempty"`
	After       any      `json:"after,omitempty"`
}

// changeOrder fixes the relative ordering between change kinds so
// creates land before drops and, within a table, columns precede
// indexes precede constraints (spec.md §4.5's documented order).
var changeOrder = map[ChangeOp]int{
	OpCreateExtension:  0,
	OpCreateEnum:       1,
	OpAlterEnum:        2,
	OpCreateSequence:   3,
	OpAlterSequence:    4,
	OpCreateTable:      5,
	OpRenameTable:      6,
	OpCreateColumn:     7,
	OpRenameColumn:     8,
	OpAlterColumn:      9,
	OpCreateIndex:      10,
	OpCreateConstraint: 11,
	OpEnableRLS:        12,
	OpDisableRLS:       13,
	OpCreateView:       14,
	OpReplaceView:      15,
	OpCreateFunction:   16,
	OpReplaceFunction:  17,
	OpCreateTrigger:    18,
	OpDropTrigger:      19,
	OpDropFunction:     20,
	OpDropView:         21,
	OpDropConstraint:   22,
	OpDropIndex:        23,
	OpDropColumn:       24,
	OpDropTable:        25,
	OpDropSequence:     26,
	OpDropEnum:         27,
	OpDropExtension:    28,
}

// OrderIndex returns the relative ordering position of op, used to
// sort a change set deterministically.
func OrderIndex(op ChangeOp) int {
	if idx, ok := changeOrder[op]; ok {
		return idx
	}
	return len(changeOrder)
}
