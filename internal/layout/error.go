package layout

import (
	"errors"
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrInvalidDescriptor indicates malformed input (bad alignment, empty variant list...).
	LayoutErrInvalidDescriptor LayoutErrorKind = iota + 1
	// LayoutErrRecursiveUnsized indicates a recursive type with no fixed size.
	LayoutErrRecursiveUnsized
	LayoutErrUnknownType
	LayoutErrUnsized
	LayoutErrLengthConversion
)

func (k LayoutErrorKind) String() string {
	switch k {
	case LayoutErrInvalidDescriptor:
		return "invalid-descriptor"
	case LayoutErrRecursiveUnsized:
		return "recursive-unsized"
	case LayoutErrUnknownType:
		return "unknown-type"
	case LayoutErrUnsized:
		return "unsized"
	case LayoutErrLengthConversion:
		return "length-conversion"
	default:
		return fmt.Sprintf("kind=%d", k)
	}
}

// ErrInvalidDescriptor matches every LayoutError of kind LayoutErrInvalidDescriptor via errors.Is.
var ErrInvalidDescriptor = errors.New("invalid layout descriptor")

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind   LayoutErrorKind
	Type   string   // offending type, empty for anonymous descriptors
	Field  string   // offending member, e.g. "field #1 (b)" or "discriminant"
	Reason string   // for LayoutErrInvalidDescriptor, LayoutErrUnknownType, LayoutErrUnsized
	Cycle  []string // for LayoutErrRecursiveUnsized
	Err    error    // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	subject := e.subject()
	switch e.Kind {
	case LayoutErrInvalidDescriptor:
		return fmt.Sprintf("invalid descriptor%s: %s", subject, e.Reason)
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size%s", subject)
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
	case LayoutErrUnknownType:
		return fmt.Sprintf("unknown type%s: %s", subject, e.Reason)
	case LayoutErrUnsized:
		return fmt.Sprintf("unsized value%s: %s", subject, e.Reason)
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array length conversion error%s: %v", subject, e.Err)
		}
		return fmt.Sprintf("array length conversion error%s", subject)
	default:
		return fmt.Sprintf("layout error %s%s", e.Kind, subject)
	}
}

func (e *LayoutError) subject() string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf(" (%s, %s)", e.Type, e.Field)
	case e.Type != "":
		return fmt.Sprintf(" (%s)", e.Type)
	case e.Field != "":
		return fmt.Sprintf(" (%s)", e.Field)
	default:
		return ""
	}
}

// Is reports ErrInvalidDescriptor for invalid-descriptor errors.
func (e *LayoutError) Is(target error) bool {
	return e != nil && target == ErrInvalidDescriptor && e.Kind == LayoutErrInvalidDescriptor
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalidf(td *TypeDescriptor, member, format string, args ...any) *LayoutError {
	err := &LayoutError{
		Kind:   LayoutErrInvalidDescriptor,
		Field:  member,
		Reason: fmt.Sprintf(format, args...),
	}
	if td != nil {
		err.Type = td.Name
	}
	return err
}

// asError keeps a nil *LayoutError from turning into a non-nil error interface.
func asError(err *LayoutError) error {
	if err == nil {
		return nil
	}
	return err
}
