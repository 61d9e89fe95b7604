package diag

import (
	"strings"
)

// FormatShort renders diagnostics one per line, in bag order:
//
//	error LAY2002 shapes.toml:Node recursive value type has infinite size
//
// Notes follow their diagnostic when includeNotes is set.
func FormatShort(diags []Diagnostic, includeNotes bool) string {
	var sb strings.Builder
	for i, d := range diags {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeLine(&sb, strings.ToLower(d.Severity.String()), d.Code.ID(), d.Primary.String(), d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			sb.WriteByte('\n')
			writeLine(&sb, "note", d.Code.ID(), d.Primary.String(), n.Msg)
		}
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, sev, code, loc, msg string) {
	sb.WriteString(sev)
	sb.WriteByte(' ')
	sb.WriteString(code)
	if loc != "" {
		sb.WriteByte(' ')
		sb.WriteString(loc)
	}
	sb.WriteByte(' ')
	sb.WriteString(strings.Join(strings.Fields(msg), " "))
}
