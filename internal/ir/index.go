package ir

// IndexMethod enumerates the access methods spec.md §3 names.
type IndexMethod string

const (
	IndexBTree  IndexMethod = "BTREE"
	IndexHash   IndexMethod = "HASH"
	IndexGIN    IndexMethod = "GIN"
	IndexGIST   IndexMethod = "GIST"
	IndexBRIN   IndexMethod = "BRIN"
	IndexSPGist IndexMethod = "SPGIST"
)

// Index is a table index: ordered columns or expressions, uniqueness,
// access method, and an optional partial-index predicate.
type Index struct {
	Name       string      `json:"name"`
	Columns    []string    `json:"columns"`
	Unique     bool        `json:"unique"`
	Method     IndexMethod `json:"method,omitempty"`
	Predicate  string      `json:"predicate,omitempty"`  // raw partial-index SQL
	Include    []string    `json:"include,omitempty"`
	OpClass    string      `json:"op_class,omitempty"`
	Comment    string      `json:"comment,omitempty"`
	Token      string      `json:"token,omitempty"`
}
