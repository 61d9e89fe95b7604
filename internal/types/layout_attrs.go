package types //nolint:revive

// LayoutAttrs describes layout-affecting attributes applied to a type declaration.
//
// These attributes are validated by the layout calculator; the table only records them.
type LayoutAttrs struct {
	Repr          Repr
	Packed        bool
	AlignOverride *int // nil when no align(N) is present
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Field is one named struct member.
type Field struct {
	Name string
	Type Expr
}

// Variant is one alternative of a tagged union. An empty Payload is a unit variant.
type Variant struct {
	Name    string
	Payload []Expr
}

// Decl is a named composite type.
type Decl struct {
	Name     string
	Kind     DeclKind
	Attrs    LayoutAttrs
	Fields   []Field   // DeclStruct
	Variants []Variant // DeclEnum
	Tag      *Expr     // DeclEnum, optional explicit discriminant type
}

// Refs lists the named types referenced by the declaration, in declaration order.
func (d *Decl) Refs() []string {
	if d == nil {
		return nil
	}
	var out []string
	for _, f := range d.Fields {
		out = append(out, f.Type.Names()...)
	}
	for _, v := range d.Variants {
		for _, p := range v.Payload {
			out = append(out, p.Names()...)
		}
	}
	if d.Tag != nil {
		out = append(out, d.Tag.Names()...)
	}
	return out
}
