package dialect

// Features is the boolean capability matrix spec.md §4.1 names
// explicitly, plus the two optional numeric ceilings.
type Features struct {
	SupportsEnums               bool `yaml:"supports_enums"`
	SupportsTablePartitioning   bool `yaml:"supports_table_partitioning"`
	SupportsStoredProcedures    bool `yaml:"supports_stored_procedures"`
	SupportsTriggers            bool `yaml:"supports_triggers"`
	SupportsForeignTables       bool `yaml:"supports_foreign_tables"`
	SupportsCompositeTypes      bool `yaml:"supports_composite_types"`
	SupportsReturning           bool `yaml:"supports_returning"`
	SupportsLateral             bool `yaml:"supports_lateral"`
	SupportsDistinctOn          bool `yaml:"supports_distinct_on"`
	SupportsForUpdateSkipLocked bool `yaml:"supports_for_update_skip_locked"`
	SupportsCursors             bool `yaml:"supports_cursors"`
	SupportsRowLevelSecurity    bool `yaml:"supports_row_level_security"`

	MaxTablesPerDatabase *int `yaml:"max_tables_per_database,omitempty"`
	MaxColumnsPerTable   *int `yaml:"max_columns_per_table,omitempty"`
}

// BlockedFeatures enumerates table features, constraint kinds, and
// index methods a dialect must reject outright.
type BlockedFeatures struct {
	TableFeatures   []string `yaml:"table_features,omitempty"`
	ConstraintKinds []string `yaml:"constraint_kinds,omitempty"`
	IndexMethods    []string `yaml:"index_methods,omitempty"`
}

func (b BlockedFeatures) blocksIndexMethod(method string) bool {
	for _, m := range b.IndexMethods {
		if m == method {
			return true
		}
	}
	return false
}

func (b BlockedFeatures) blocksConstraintKind(kind string) bool {
	for _, k := range b.ConstraintKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (b BlockedFeatures) blocksTableFeature(feature string) bool {
	for _, f := range b.TableFeatures {
		if f == feature {
			return true
		}
	}
	return false
}
