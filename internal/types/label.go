package types

import (
	"strconv"
	"strings"
)

// String renders the expression back in source form.
func (e Expr) String() string {
	var b strings.Builder
	writeLabel(&b, &e, 0)
	return b.String()
}

func writeLabel(b *strings.Builder, e *Expr, depth int) {
	if e == nil {
		b.WriteString("?")
		return
	}
	if depth > maxExprDepth {
		b.WriteString("...")
		return
	}
	switch e.Kind {
	case ExprPrim:
		b.WriteString(e.Prim.String())
	case ExprNamed:
		b.WriteString(e.Name)
	case ExprPointer:
		switch {
		case e.Ref && e.Mutable:
			b.WriteString("&mut ")
		case e.Ref:
			b.WriteString("&")
		case e.Mutable:
			b.WriteString("*mut ")
		default:
			b.WriteString("*const ")
		}
		writeLabel(b, e.Elem, depth+1)
	case ExprArray:
		b.WriteString("[")
		writeLabel(b, e.Elem, depth+1)
		b.WriteString("; ")
		b.WriteString(strconv.FormatUint(e.Len, 10))
		b.WriteString("]")
	case ExprSlice:
		b.WriteString("[")
		writeLabel(b, e.Elem, depth+1)
		b.WriteString("]")
	default:
		b.WriteString("?")
	}
}
