package types

import (
	"fmt"
	"strings"
)

// Prim enumerates the built-in scalar types a declaration can refer to.
type Prim uint8

const (
	PrimInvalid Prim = iota
	PrimUnit
	PrimBool
	PrimChar
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimUsize
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimIsize
	PrimF32
	PrimF64
	PrimStr // unsized; only valid behind a pointer
)

var primNames = [...]string{
	PrimInvalid: "invalid",
	PrimUnit:    "()",
	PrimBool:    "bool",
	PrimChar:    "char",
	PrimU8:      "u8",
	PrimU16:     "u16",
	PrimU32:     "u32",
	PrimU64:     "u64",
	PrimU128:    "u128",
	PrimUsize:   "usize",
	PrimI8:      "i8",
	PrimI16:     "i16",
	PrimI32:     "i32",
	PrimI64:     "i64",
	PrimI128:    "i128",
	PrimIsize:   "isize",
	PrimF32:     "f32",
	PrimF64:     "f64",
	PrimStr:     "str",
}

var primByName = func() map[string]Prim {
	m := make(map[string]Prim, len(primNames))
	for p, name := range primNames {
		if Prim(p) == PrimInvalid {
			continue
		}
		m[name] = Prim(p)
	}
	return m
}()

func (p Prim) String() string {
	if int(p) < len(primNames) {
		return primNames[p]
	}
	return fmt.Sprintf("Prim(%d)", p)
}

// LookupPrim resolves a primitive by its source spelling.
func LookupPrim(name string) (Prim, bool) {
	p, ok := primByName[name]
	return p, ok
}

// IsInteger reports whether p can serve as an enum discriminant.
func (p Prim) IsInteger() bool {
	switch p {
	case PrimU8, PrimU16, PrimU32, PrimU64, PrimU128, PrimUsize,
		PrimI8, PrimI16, PrimI32, PrimI64, PrimI128, PrimIsize:
		return true
	default:
		return false
	}
}

// Repr is the layout representation a declaration asks for.
type Repr uint8

const (
	// ReprUnspecified defers to the engine's configured strategy.
	ReprUnspecified Repr = iota
	// ReprDefault is the compiler-chosen layout; fields may be reordered.
	ReprDefault
	// ReprSequential is the declared-order, C-compatible layout.
	ReprSequential
)

func (r Repr) String() string {
	switch r {
	case ReprUnspecified:
		return ""
	case ReprDefault:
		return "default"
	case ReprSequential:
		return "sequential"
	default:
		return fmt.Sprintf("Repr(%d)", r)
	}
}

// ParseRepr accepts "default"/"rust" and "sequential"/"c"; empty means unspecified.
func ParseRepr(s string) (Repr, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ReprUnspecified, nil
	case "default", "rust":
		return ReprDefault, nil
	case "sequential", "c":
		return ReprSequential, nil
	default:
		return ReprUnspecified, fmt.Errorf("invalid repr %q (expected default|sequential)", s)
	}
}

// DeclKind distinguishes structs from tagged unions.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclStruct
	DeclEnum
)

func (k DeclKind) String() string {
	switch k {
	case DeclStruct:
		return "struct"
	case DeclEnum:
		return "enum"
	default:
		return "invalid"
	}
}

// ParseDeclKind accepts "struct" and "enum" (alias "tagged_union").
func ParseDeclKind(s string) (DeclKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "struct":
		return DeclStruct, nil
	case "enum", "tagged_union":
		return DeclEnum, nil
	default:
		return DeclInvalid, fmt.Errorf("invalid kind %q (expected struct|enum)", s)
	}
}
