package ir

// Enum is a named enumerated type: an ordered list of allowed values.
type Enum struct {
	Name   string   `json:"name"`
	Schema string   `json:"schema,omitempty"`
	Values []string `json:"values"`
	Token  string   `json:"token,omitempty"`
}

// Domain is a base type plus a set of CHECK-style constraints.
type Domain struct {
	Name        string   `json:"name"`
	Schema      string   `json:"schema,omitempty"`
	BaseType    string   `json:"base_type"`
	NotNull     bool     `json:"not_null,omitempty"`
	Default     *string  `json:"default,omitempty"`
	Constraints []string `json:"constraints,omitempty"` // raw CHECK expressions
	Token       string   `json:"token,omitempty"`
}

// CompositeAttribute is one field of a CompositeType.
type CompositeAttribute struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CompositeType is a structured (row) type.
type CompositeType struct {
	Name       string               `json:"name"`
	Schema     string               `json:"schema,omitempty"`
	Attributes []CompositeAttribute `json:"attributes"`
	Token      string               `json:"token,omitempty"`
}

// Sequence is a standalone or SERIAL-backing sequence generator.
type Sequence struct {
	Name      string `json:"name"`
	Schema    string `json:"schema,omitempty"`
	Increment int64  `json:"increment"`
	Start     int64  `json:"start"`
	Min       *int64 `json:"min,omitempty"`
	Max       *int64 `json:"max,omitempty"`
	Cache     int64  `json:"cache,omitempty"`
	Cycle     bool   `json:"cycle,omitempty"`
	Token     string `json:"token,omitempty"`
}

// View is a named query; Materialized distinguishes MATERIALIZED VIEW.
type View struct {
	Name         string `json:"name"`
	Schema       string `json:"schema,omitempty"`
	Definition   string `json:"definition"`
	Materialized bool   `json:"materialized,omitempty"`
	Token        string `json:"token,omitempty"`
}

// Volatility mirrors PostgreSQL's function volatility classes.
type Volatility string

const (
	VolatilityVolatile  Volatility = "VOLATILE"
	VolatilityStable    Volatility = "STABLE"
	VolatilityImmutable Volatility = "IMMUTABLE"
)

// FunctionArg is one argument of a Function signature.
type FunctionArg struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// Function is a stored procedure/function definition.
type Function struct {
	Name       string        `json:"name"`
	Schema     string        `json:"schema,omitempty"`
	Args       []FunctionArg `json:"args,omitempty"`
	ReturnType string        `json:"return_type"`
	Language   string        `json:"language"` // e.g. "plpgsql", "sql"
	Body       string        `json:"body"`
	Volatility Volatility    `json:"volatility,omitempty"`
	SecurityDefiner bool     `json:"security_definer,omitempty"`
	Token      string        `json:"token,omitempty"`
}

// TriggerTiming enumerates when a trigger fires relative to its event.
type TriggerTiming string

const (
	TriggerBefore    TriggerTiming = "BEFORE"
	TriggerAfter     TriggerTiming = "AFTER"
	TriggerInsteadOf TriggerTiming = "INSTEAD OF"
)

// TriggerEvent enumerates the statement types a trigger can fire on.
type TriggerEvent string

const (
	EventInsert   TriggerEvent = "INSERT"
	EventUpdate   TriggerEvent = "UPDATE"
	EventDelete   TriggerEvent = "DELETE"
	EventTruncate TriggerEvent = "TRUNCATE"
)

// TriggerForEach enumerates per-row vs. per-statement firing.
type TriggerForEach string

const (
	ForEachRow       TriggerForEach = "ROW"
	ForEachStatement TriggerForEach = "STATEMENT"
)

// Trigger binds a function to a table's lifecycle events.
type Trigger struct {
	Name     string         `json:"name"`
	Table    string         `json:"table"`
	Timing   TriggerTiming  `json:"timing"`
	Events   []TriggerEvent `json:"events"`
	ForEach  TriggerForEach `json:"for_each"`
	Function string         `json:"function"`
	Token    string         `json:"token,omitempty"`
}

// Extension is an installed database extension (e.g. "pgcrypto").
type Extension struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Schema  string `json:"schema,omitempty"`
	Token   string `json:"token,omitempty"`
}
