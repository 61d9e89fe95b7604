package layout

import "fmt"

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func memberLabel(what string, idx int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s #%d", what, idx)
	}
	return fmt.Sprintf("%s #%d (%s)", what, idx, name)
}

// checkMember returns an empty string when f is well-formed.
func checkMember(f FieldDescriptor) string {
	switch {
	case f.Align == 0:
		return "alignment is zero"
	case !isPowerOfTwo(f.Align):
		return fmt.Sprintf("alignment %d is not a power of two", f.Align)
	case f.Size < 0:
		return fmt.Sprintf("size %d is negative", f.Size)
	case f.Size%f.Align != 0:
		return fmt.Sprintf("size %d is not a multiple of alignment %d", f.Size, f.Align)
	}
	return ""
}

// validate runs before any computation; every failure is a caller error.
func validate(td *TypeDescriptor) *LayoutError {
	switch td.Kind {
	case KindStruct:
		for i, f := range td.Fields {
			if reason := checkMember(f); reason != "" {
				return invalidf(td, memberLabel("field", i, f.Name), "%s", reason)
			}
		}
	case KindTaggedUnion:
		if len(td.Variants) == 0 {
			return invalidf(td, "", "tagged union has no variants")
		}
		if td.Packed {
			return invalidf(td, "", "packed applies to structs only")
		}
		for i, v := range td.Variants {
			if reason := checkMember(v); reason != "" {
				return invalidf(td, memberLabel("variant", i, v.Name), "%s", reason)
			}
		}
		if td.Discriminant != nil {
			if reason := checkMember(*td.Discriminant); reason != "" {
				return invalidf(td, "discriminant", "%s", reason)
			}
		}
	default:
		return invalidf(td, "", "unknown type kind %d", td.Kind)
	}

	if td.AlignOverride != 0 {
		if !isPowerOfTwo(td.AlignOverride) {
			return invalidf(td, "", "align(%d) is not a power of two", td.AlignOverride)
		}
		if td.Packed {
			return invalidf(td, "", "packed conflicts with align(%d)", td.AlignOverride)
		}
	}
	return nil
}
