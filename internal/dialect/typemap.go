package dialect

import "strings"

// TypeStatus classifies how a normalized type name behaves on a dialect.
type TypeStatus string

const (
	TypeSupported            TypeStatus = "supported"
	TypeBehavioralDifference TypeStatus = "behavioral-difference"
	TypeWarning              TypeStatus = "warning"
	TypeUnsupported          TypeStatus = "unsupported"
)

// TypeEntry is one row of a dialect's type map.
type TypeEntry struct {
	Status    TypeStatus `yaml:"status"`
	Category  string     `yaml:"category"`
	ErrorCode string     `yaml:"error_code,omitempty"`
	Alternative string   `yaml:"alternative,omitempty"`
	Note      string     `yaml:"note,omitempty"`
}

// TypeMap is keyed by normalized (lowercase, de-parameterized,
// de-arrayed) type name.
type TypeMap map[string]TypeEntry

// canonicalizeTypeName mirrors spec.md §4.1's lookup canonicalization:
// lowercase, strip length/precision params, strip trailing "[]", strip
// leading "_" array marker.
func canonicalizeTypeName(name string) string {
	t := strings.ToLower(strings.TrimSpace(name))
	t = strings.TrimPrefix(t, "_")
	t = strings.TrimSuffix(t, "[]")
	if idx := strings.IndexByte(t, '('); idx >= 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}

// Lookup resolves name against the type map: it tries the exact
// canonical name first, then (for compound names like "character
// varying") the first word as a base-type fallback, per spec.md §4.1
// ("direct, base, non-array").
func (m TypeMap) Lookup(name string) (TypeEntry, bool) {
	canon := canonicalizeTypeName(name)
	if entry, ok := m[canon]; ok {
		return entry, true
	}
	if space := strings.IndexByte(canon, ' '); space >= 0 {
		if entry, ok := m[canon[:space]]; ok {
			return entry, true
		}
	}
	return TypeEntry{}, false
}
