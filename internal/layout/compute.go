package layout

import (
	"cmp"
	"slices"
)

// Compute lays td out under strategy.
func Compute(td TypeDescriptor, strategy Strategy) (LayoutResult, error) {
	res, err := compute(&td, strategy)
	return res, asError(err)
}

// ComputeDefaultLayout lays td out the way a compiler is free to: struct fields
// may be reordered and a single-variant tagged union stores no tag.
//
// Only size and alignment are meaningful to callers. The reference packing
// (fields by descending alignment) determines FieldOffsets, but another valid
// packing would be equally correct.
func ComputeDefaultLayout(td TypeDescriptor) (LayoutResult, error) {
	res, err := computeDefault(&td)
	return res, asError(err)
}

// ComputeSequentialLayout lays td out in declared order with C padding rules.
// The result, offsets included, is fully determined by td.
func ComputeSequentialLayout(td TypeDescriptor) (LayoutResult, error) {
	res, err := computeSequential(&td)
	return res, asError(err)
}

func compute(td *TypeDescriptor, strategy Strategy) (LayoutResult, *LayoutError) {
	switch strategy {
	case StrategyDefault:
		return computeDefault(td)
	case StrategySequential:
		return computeSequential(td)
	default:
		return emptyLayout(), invalidf(td, "", "unknown layout strategy %d", strategy)
	}
}

func emptyLayout() LayoutResult {
	return LayoutResult{Size: 0, Align: 1}
}

func computeDefault(td *TypeDescriptor) (LayoutResult, *LayoutError) {
	if err := validate(td); err != nil {
		return emptyLayout(), err
	}
	var res LayoutResult
	switch td.Kind {
	case KindStruct:
		if td.Packed {
			res = packedStructLayout(td.Fields)
		} else {
			res = structLayout(td.Fields, byDescendingAlign(td.Fields))
		}
	case KindTaggedUnion:
		res = defaultUnionLayout(td)
	}
	res.Strategy = StrategyDefault
	return withAlignOverride(res, td.AlignOverride), nil
}

func computeSequential(td *TypeDescriptor) (LayoutResult, *LayoutError) {
	if err := validate(td); err != nil {
		return emptyLayout(), err
	}
	var res LayoutResult
	switch td.Kind {
	case KindStruct:
		if td.Packed {
			res = packedStructLayout(td.Fields)
		} else {
			res = structLayout(td.Fields, declaredOrder(len(td.Fields)))
		}
	case KindTaggedUnion:
		res = sequentialUnionLayout(td)
	}
	res.Strategy = StrategySequential
	return withAlignOverride(res, td.AlignOverride), nil
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func declaredOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// byDescendingAlign is the reference packing for the default strategy. The sort
// is stable so equal-alignment fields keep their declared order.
func byDescendingAlign(fields []FieldDescriptor) []int {
	order := declaredOrder(len(fields))
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(fields[b].Align, fields[a].Align)
	})
	return order
}

// structLayout places fields in the given order; offsets are indexed by declaration.
func structLayout(fields []FieldDescriptor, order []int) LayoutResult {
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))
	size := 0
	align := 1
	for _, i := range order {
		f := fields[i]
		size = roundUp(size, f.Align)
		offsets[i] = size
		aligns[i] = f.Align
		size += f.Size
		align = max(align, f.Align)
	}
	size = roundUp(size, align)
	return LayoutResult{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}
}

func packedStructLayout(fields []FieldDescriptor) LayoutResult {
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))
	size := 0
	for i, f := range fields {
		offsets[i] = size
		aligns[i] = 1
		size += f.Size
	}
	return LayoutResult{
		Size:         size,
		Align:        1,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}
}

// payloadShape returns the largest payload size and the strictest payload alignment.
func payloadShape(variants []FieldDescriptor) (size, align int) {
	align = 1
	for _, v := range variants {
		size = max(size, v.Size)
		align = max(align, v.Align)
	}
	return size, align
}

// defaultTag is the smallest unsigned integer able to count the variants.
func defaultTag(td *TypeDescriptor) FieldDescriptor {
	if td.Discriminant != nil {
		return *td.Discriminant
	}
	switch n := len(td.Variants); {
	case n <= 1<<8:
		return FieldDescriptor{Name: "tag", Size: 1, Align: 1}
	case n <= 1<<16:
		return FieldDescriptor{Name: "tag", Size: 2, Align: 2}
	default:
		return FieldDescriptor{Name: "tag", Size: 4, Align: 4}
	}
}

// sequentialTag defaults to a C int, which is 4 bytes on every supported target.
func sequentialTag(td *TypeDescriptor) FieldDescriptor {
	if td.Discriminant != nil {
		return *td.Discriminant
	}
	return FieldDescriptor{Name: "tag", Size: 4, Align: 4}
}

func defaultUnionLayout(td *TypeDescriptor) LayoutResult {
	payloadSize, payloadAlign := payloadShape(td.Variants)
	if len(td.Variants) == 1 {
		// Only one variant can ever be active, so nothing needs to record which.
		return LayoutResult{
			Size:         roundUp(payloadSize, payloadAlign),
			Align:        payloadAlign,
			PayloadSize:  payloadSize,
			PayloadAlign: payloadAlign,
		}
	}

	tag := defaultTag(td)
	payloadOffset := roundUp(tag.Size, payloadAlign)
	align := max(tag.Align, payloadAlign)
	return LayoutResult{
		Size:          roundUp(payloadOffset+payloadSize, align),
		Align:         align,
		Tagged:        tag.Size > 0,
		TagSize:       tag.Size,
		TagAlign:      tag.Align,
		PayloadOffset: payloadOffset,
		PayloadSize:   payloadSize,
		PayloadAlign:  payloadAlign,
	}
}

// sequentialUnionLayout is `struct { tag; union { variants... } }` in C terms.
func sequentialUnionLayout(td *TypeDescriptor) LayoutResult {
	tag := sequentialTag(td)
	payloadSize, payloadAlign := payloadShape(td.Variants)
	region := roundUp(payloadSize, payloadAlign)

	offset := 0
	offset = roundUp(offset, tag.Align)
	tagOffset := offset
	offset += tag.Size
	offset = roundUp(offset, payloadAlign)
	payloadOffset := offset
	offset += region

	align := max(tag.Align, payloadAlign)
	return LayoutResult{
		Size:          roundUp(offset, align),
		Align:         align,
		Tagged:        tag.Size > 0,
		TagSize:       tag.Size,
		TagAlign:      tag.Align,
		TagOffset:     tagOffset,
		PayloadOffset: payloadOffset,
		PayloadSize:   payloadSize,
		PayloadAlign:  payloadAlign,
	}
}

func withAlignOverride(res LayoutResult, align int) LayoutResult {
	if align > res.Align {
		res.Align = align
		res.Size = roundUp(res.Size, align)
	}
	return res
}
