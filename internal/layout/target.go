package layout

import (
	"strings"

	"layoutcalc/internal/types"
)

// Target describes the ABI target triple and the alignment facts that vary by target.
type Target struct {
	Triple    string // e.g. "x86_64-linux-gnu"
	PtrSize   int    // bytes
	PtrAlign  int    // bytes
	I64Align  int    // alignment of u64/i64/f64
	I128Align int    // alignment of u128/i128
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:    "x86_64-linux-gnu",
		PtrSize:   8,
		PtrAlign:  8,
		I64Align:  8,
		I128Align: 16,
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:    "aarch64-linux-gnu",
		PtrSize:   8,
		PtrAlign:  8,
		I64Align:  8,
		I128Align: 16,
	}
}

// I686LinuxGNU follows the System V i386 ABI, where 64-bit scalars are only 4-aligned.
func I686LinuxGNU() Target {
	return Target{
		Triple:    "i686-linux-gnu",
		PtrSize:   4,
		PtrAlign:  4,
		I64Align:  4,
		I128Align: 16,
	}
}

func Wasm32() Target {
	return Target{
		Triple:    "wasm32-unknown-unknown",
		PtrSize:   4,
		PtrAlign:  4,
		I64Align:  8,
		I128Align: 16,
	}
}

// Targets lists every built-in target, default first.
func Targets() []Target {
	return []Target{X86_64LinuxGNU(), AArch64LinuxGNU(), I686LinuxGNU(), Wasm32()}
}

// LookupTarget finds a built-in target by triple. The empty string selects the default.
func LookupTarget(triple string) (Target, bool) {
	triple = strings.ToLower(strings.TrimSpace(triple))
	if triple == "" {
		return X86_64LinuxGNU(), true
	}
	for _, t := range Targets() {
		if t.Triple == triple {
			return t, true
		}
	}
	return Target{}, false
}

func (t Target) ptrLayout() FieldDescriptor {
	ptrSize := t.PtrSize
	ptrAlign := t.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return FieldDescriptor{Size: ptrSize, Align: ptrAlign}
}

// fatPtrLayout is a data pointer plus a length or vtable word.
func (t Target) fatPtrLayout() FieldDescriptor {
	p := t.ptrLayout()
	return FieldDescriptor{Size: 2 * p.Size, Align: p.Align}
}

func scalarLayout(size, align int) FieldDescriptor {
	if size <= 0 {
		return FieldDescriptor{Size: 0, Align: 1}
	}
	if align <= 0 {
		align = size
	}
	return FieldDescriptor{Size: size, Align: align}
}

// PrimitiveLayout returns the size and alignment of p on t.
// It reports false for unsized primitives.
func (t Target) PrimitiveLayout(p types.Prim) (FieldDescriptor, bool) {
	switch p {
	case types.PrimUnit:
		return FieldDescriptor{Size: 0, Align: 1}, true
	case types.PrimBool, types.PrimU8, types.PrimI8:
		return scalarLayout(1, 1), true
	case types.PrimU16, types.PrimI16:
		return scalarLayout(2, 2), true
	case types.PrimU32, types.PrimI32, types.PrimF32, types.PrimChar:
		return scalarLayout(4, 4), true
	case types.PrimU64, types.PrimI64, types.PrimF64:
		return scalarLayout(8, t.I64Align), true
	case types.PrimU128, types.PrimI128:
		return scalarLayout(16, t.I128Align), true
	case types.PrimUsize, types.PrimIsize:
		return t.ptrLayout(), true
	default:
		return FieldDescriptor{}, false
	}
}
