package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; smaller values are coarser.
type Scope uint8

const (
	// ScopeDriver covers a whole batch run.
	ScopeDriver Scope = iota + 1
	// ScopeFile covers loading and laying out one descriptor file.
	ScopeFile
	// ScopeType covers the layout of a single declaration.
	ScopeType
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeFile:
		return "file"
	case ScopeType:
		return "type"
	default:
		return "unknown"
	}
}

// Attr is one key/value annotation of an event.
type Attr struct {
	Key   string
	Value string
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for a root span
	Name     string // e.g. "compute", "file:shapes.toml", "type:Node"
	Detail   string
	Elapsed  time.Duration // set on KindSpanEnd
	Attrs    []Attr
}
