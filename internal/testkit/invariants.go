// Package testkit holds invariant checks shared by the layout tests and the
// fuzz harnesses.
package testkit

import (
	"fmt"

	"layoutcalc/internal/layout"
)

// CheckLayoutInvariants verifies the structural rules every computed layout
// must satisfy, whatever the strategy:
// 1) alignment is a power of two and size is a multiple of it
// 2) every struct field is aligned, inside the type, and disjoint from the others
// 3) a union's tag and payload regions are aligned, inside the type, and disjoint
func CheckLayoutInvariants(td layout.TypeDescriptor, res layout.LayoutResult) error {
	if res.Align < 1 || res.Align&(res.Align-1) != 0 {
		return fmt.Errorf("alignment %d is not a power of two", res.Align)
	}
	if res.Size < 0 || res.Size%res.Align != 0 {
		return fmt.Errorf("size %d is not a multiple of alignment %d", res.Size, res.Align)
	}

	switch td.Kind {
	case layout.KindStruct:
		return checkStruct(td, res)
	case layout.KindTaggedUnion:
		return checkUnion(td, res)
	default:
		return fmt.Errorf("unexpected kind %v", td.Kind)
	}
}

func checkStruct(td layout.TypeDescriptor, res layout.LayoutResult) error {
	if len(res.FieldOffsets) != len(td.Fields) || len(res.FieldAligns) != len(td.Fields) {
		return fmt.Errorf("%d fields but %d offsets and %d alignments",
			len(td.Fields), len(res.FieldOffsets), len(res.FieldAligns))
	}
	for i, f := range td.Fields {
		off := res.FieldOffsets[i]
		if a := res.FieldAligns[i]; a < 1 || off%a != 0 {
			return fmt.Errorf("field #%d at offset %d breaks its alignment %d", i, off, a)
		}
		if off < 0 || off+f.Size > res.Size {
			return fmt.Errorf("field #%d [%d, %d) lies outside the type (size %d)", i, off, off+f.Size, res.Size)
		}
	}
	// пересечения только после того, как каждое поле прошло свои проверки
	for i, f := range td.Fields {
		for j := i + 1; j < len(td.Fields); j++ {
			if overlaps(res.FieldOffsets[i], f.Size, res.FieldOffsets[j], td.Fields[j].Size) {
				return fmt.Errorf("fields #%d and #%d overlap: offsets %v", i, j, res.FieldOffsets)
			}
		}
	}
	return nil
}

func checkUnion(td layout.TypeDescriptor, res layout.LayoutResult) error {
	for i, v := range td.Variants {
		if v.Size > res.PayloadSize {
			return fmt.Errorf("variant #%d (%d bytes) exceeds the payload (%d bytes)", i, v.Size, res.PayloadSize)
		}
	}
	if res.PayloadAlign < 1 || res.PayloadOffset%res.PayloadAlign != 0 {
		return fmt.Errorf("payload offset %d breaks its alignment %d", res.PayloadOffset, res.PayloadAlign)
	}
	if res.PayloadOffset+res.PayloadSize > res.Size {
		return fmt.Errorf("payload [%d, %d) lies outside the type (size %d)",
			res.PayloadOffset, res.PayloadOffset+res.PayloadSize, res.Size)
	}
	if !res.Tagged {
		return nil
	}
	if res.TagAlign < 1 || res.TagOffset%res.TagAlign != 0 {
		return fmt.Errorf("tag offset %d breaks its alignment %d", res.TagOffset, res.TagAlign)
	}
	if res.TagOffset+res.TagSize > res.Size {
		return fmt.Errorf("tag lies outside the type")
	}
	if overlaps(res.TagOffset, res.TagSize, res.PayloadOffset, res.PayloadSize) {
		return fmt.Errorf("tag [%d, %d) overlaps the payload at %d",
			res.TagOffset, res.TagOffset+res.TagSize, res.PayloadOffset)
	}
	return nil
}

func overlaps(aOff, aSize, bOff, bSize int) bool {
	if aSize == 0 || bSize == 0 {
		return false
	}
	return aOff < bOff+bSize && bOff < aOff+aSize
}
