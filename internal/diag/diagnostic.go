package diag

import "strings"

// Severity orders diagnostics; higher is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{"INFO", "WARNING", "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Location points at a descriptor file and, when known, the type and member inside it.
type Location struct {
	File  string
	Type  string
	Field string
}

// String renders "file:Type (field)", skipping the empty parts.
func (l Location) String() string {
	s := l.File
	if l.Type != "" {
		if s != "" {
			s += ":"
		}
		s += l.Type
	}
	if l.Field != "" {
		s += " (" + l.Field + ")"
	}
	return s
}

type Note struct {
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary Location, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary Location, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// WithNote returns a copy of d with one more note; d itself is untouched.
func (d Diagnostic) WithNote(msg string) Diagnostic {
	notes := make([]Note, len(d.Notes), len(d.Notes)+1)
	copy(notes, d.Notes)
	d.Notes = append(notes, Note{Msg: msg})
	return d
}

// identity is what two diagnostics must share to count as duplicates.
type identity struct {
	code Code
	sev  Severity
	loc  Location
	msg  string
}

func (d Diagnostic) identity() identity {
	return identity{code: d.Code, sev: d.Severity, loc: d.Primary, msg: strings.TrimSpace(d.Message)}
}
