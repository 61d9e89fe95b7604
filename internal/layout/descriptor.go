package layout

import (
	"fmt"
	"strings"
)

// Kind selects how a TypeDescriptor's members share storage.
type Kind uint8

const (
	// KindStruct places every field in its own bytes.
	KindStruct Kind = iota + 1
	// KindTaggedUnion overlays the variant payloads behind a discriminant.
	KindTaggedUnion
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindTaggedUnion:
		return "tagged-union"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Strategy is the layout algorithm applied to a TypeDescriptor.
type Strategy uint8

const (
	// StrategyDefault lets the calculator reorder fields.
	StrategyDefault Strategy = iota + 1
	// StrategySequential lays fields out in declared order (C-compatible).
	StrategySequential
)

func (s Strategy) String() string {
	switch s {
	case StrategyDefault:
		return "default"
	case StrategySequential:
		return "sequential"
	default:
		return fmt.Sprintf("Strategy(%d)", s)
	}
}

// ParseStrategy converts a flag or config value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "rust":
		return StrategyDefault, nil
	case "sequential", "c":
		return StrategySequential, nil
	default:
		return 0, fmt.Errorf("invalid layout strategy %q (expected default|sequential)", s)
	}
}

// FieldDescriptor is the size and alignment of one field or variant payload.
type FieldDescriptor struct {
	Name  string
	Size  int
	Align int
}

// TypeDescriptor describes a composite type to be laid out.
type TypeDescriptor struct {
	Name string
	Kind Kind

	// Struct-only, in declaration order.
	Fields []FieldDescriptor

	// Tagged-union only: one payload per variant, and an optional explicit tag.
	// A nil Discriminant lets the strategy choose one.
	Variants     []FieldDescriptor
	Discriminant *FieldDescriptor

	// Modifiers. AlignOverride 0 means none.
	AlignOverride int
	Packed        bool
}

// Field is shorthand for a FieldDescriptor literal.
func Field(name string, size, align int) FieldDescriptor {
	return FieldDescriptor{Name: name, Size: size, Align: align}
}

// Struct builds a struct descriptor.
func Struct(name string, fields ...FieldDescriptor) TypeDescriptor {
	return TypeDescriptor{Name: name, Kind: KindStruct, Fields: fields}
}

// TaggedUnion builds a tagged-union descriptor. tag may be nil.
func TaggedUnion(name string, tag *FieldDescriptor, variants ...FieldDescriptor) TypeDescriptor {
	return TypeDescriptor{Name: name, Kind: KindTaggedUnion, Variants: variants, Discriminant: tag}
}

// LayoutResult is the computed layout of a TypeDescriptor.
type LayoutResult struct {
	Size     int
	Align    int
	Strategy Strategy

	// Struct-only, indexed by declaration order.
	FieldOffsets []int
	FieldAligns  []int

	// Tagged-union only.
	Tagged        bool
	TagSize       int
	TagAlign      int
	TagOffset     int
	PayloadOffset int
	PayloadSize   int
	PayloadAlign  int
}

// Padding returns the number of bytes in r not occupied by td's data.
func (r LayoutResult) Padding(td TypeDescriptor) int {
	used := 0
	switch td.Kind {
	case KindStruct:
		for _, f := range td.Fields {
			used += f.Size
		}
	case KindTaggedUnion:
		used = r.PayloadSize
		if r.Tagged {
			used += r.TagSize
		}
	}
	return r.Size - used
}
