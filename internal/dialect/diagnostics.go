package dialect

import (
	"fmt"

	"github.com/relq/relq/internal/ir"
)

// DiagnosticTemplate is one entry in a dialect's diagnostic catalog,
// keyed by a code like "CRDB_E001".
type DiagnosticTemplate struct {
	Severity    ir.Severity `yaml:"-"`
	SeverityStr string      `yaml:"severity"`
	Message     string      `yaml:"message"`
	Alternative string      `yaml:"alternative,omitempty"`
}

// DiagnosticCatalog maps diagnostic codes to their templates.
type DiagnosticCatalog map[string]DiagnosticTemplate

// Render formats a diagnostic from the catalog entry for code, filling
// %s verbs in the message template with args in order.
func (c DiagnosticCatalog) Render(code string, args ...any) (ir.Diagnostic, bool) {
	tmpl, ok := c[code]
	if !ok {
		return ir.Diagnostic{}, false
	}
	msg := tmpl.Message
	if len(args) > 0 {
		msg = fmt.Sprintf(tmpl.Message, args...)
	}
	sev := severityFromString(tmpl.SeverityStr)
	d := ir.NewDiagnostic(ir.Range{}, sev, code, msg)
	return d, true
}

func severityFromString(s string) ir.Severity {
	switch s {
	case "warning":
		return ir.SeverityWarning
	case "info":
		return ir.SeverityInfo
	case "hint":
		return ir.SeverityHint
	default:
		return ir.SeverityError
	}
}
