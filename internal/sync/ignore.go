package sync

import (
	"bufio"
	"path"
	"strings"

	"github.com/relq/relq/internal/ir"
)

// IgnoreSet is a parsed .relqignore file: a list of glob patterns per
// object kind, checked against every differ change before it reaches a plan
// or report. This is the one component built directly on the standard
// library rather than a pack dependency — the format (one
// "kind: pattern" pair per line, "#" comments, blank lines ignored) is
// simple line-oriented text with no nesting or quoting rules, the same
// texture the teacher's own flag/config parsing uses for similarly
// flat formats, and pulling in a structured-config library for three
// field shapes would be pure overhead.
type IgnoreSet struct {
	tables  []string
	columns []string // "table.column"
	indexes []string // "table:index"
}

// Empty reports whether the set has no patterns at all.
func (s *IgnoreSet) Empty() bool {
	return s == nil || (len(s.tables) == 0 && len(s.columns) == 0 && len(s.indexes) == 0)
}

// ParseIgnoreFile parses the contents of a .relqignore file.
// Malformed lines (no recognized "kind:" prefix) are skipped, not
// fatal — an ignore file is an optimization, not a contract the rest
// of the pipeline depends on.
func ParseIgnoreFile(content string) *IgnoreSet {
	set := &IgnoreSet{}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kind, pattern, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		kind = strings.TrimSpace(kind)
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		switch kind {
		case "table":
			set.tables = append(set.tables, pattern)
		case "column":
			set.columns = append(set.columns, pattern)
		case "index":
			set.indexes = append(set.indexes, pattern)
		}
	}
	return set
}

// Matches reports whether change touches an object the ignore set
// excludes.
func (s *IgnoreSet) Matches(change ir.Change) bool {
	if s == nil {
		return false
	}
	for _, pattern := range s.tables {
		if globMatch(pattern, change.Table) || globMatch(pattern, change.Object) {
			return true
		}
	}
	for _, pattern := range s.columns {
		if globMatch(pattern, change.Table+"."+change.Object) {
			return true
		}
	}
	for _, pattern := range s.indexes {
		if globMatch(pattern, change.Table+":"+change.Object) {
			return true
		}
	}
	return false
}

func globMatch(pattern, name string) bool {
	if name == "" {
		return false
	}
	matched, err := path.Match(pattern, name)
	return err == nil && matched
}
