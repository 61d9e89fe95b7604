package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ExprKind enumerates the shapes of a type expression.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprPrim
	ExprNamed
	ExprPointer // *const T, *mut T, &T, &mut T
	ExprArray   // [T; N]
	ExprSlice   // [T], unsized
)

// Expr is a parsed type expression such as `i32`, `&mut B` or `[usize; 3]`.
type Expr struct {
	Kind    ExprKind
	Prim    Prim   // ExprPrim
	Name    string // ExprNamed
	Elem    *Expr  // ExprPointer, ExprArray, ExprSlice
	Len     uint64 // ExprArray
	Ref     bool   // ExprPointer: & rather than *
	Mutable bool   // ExprPointer
}

// IsUnsized reports whether values of the expression have no static size.
func (e Expr) IsUnsized() bool {
	switch e.Kind {
	case ExprSlice:
		return true
	case ExprPrim:
		return e.Prim == PrimStr
	default:
		return false
	}
}

// ParseExpr parses a type expression. Lifetimes on references are accepted and dropped.
func ParseExpr(src string) (Expr, error) {
	p := exprParser{src: src}
	expr, err := p.parse(strings.TrimSpace(src))
	if err != nil {
		return Expr{}, fmt.Errorf("type %q: %w", src, err)
	}
	return expr, nil
}

// MustParseExpr is ParseExpr for literals known to be valid.
func MustParseExpr(src string) Expr {
	e, err := ParseExpr(src)
	if err != nil {
		panic(err)
	}
	return e
}

type exprParser struct {
	src   string
	depth int
}

const maxExprDepth = 64

func (p *exprParser) parse(s string) (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxExprDepth {
		return Expr{}, fmt.Errorf("type expression nests deeper than %d", maxExprDepth)
	}
	if s == "" {
		return Expr{}, fmt.Errorf("empty type")
	}

	switch {
	case s == "()":
		return Expr{Kind: ExprPrim, Prim: PrimUnit}, nil

	case strings.HasPrefix(s, "&"):
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "'") {
			end := strings.IndexFunc(rest, unicode.IsSpace)
			if end < 0 {
				return Expr{}, fmt.Errorf("lifetime without referent")
			}
			rest = strings.TrimSpace(rest[end:])
		}
		mutable := false
		if after, ok := cutKeyword(rest, "mut"); ok {
			mutable = true
			rest = after
		}
		elem, err := p.parse(rest)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprPointer, Elem: &elem, Ref: true, Mutable: mutable}, nil

	case strings.HasPrefix(s, "*"):
		rest := strings.TrimSpace(s[1:])
		var mutable bool
		if after, ok := cutKeyword(rest, "mut"); ok {
			mutable = true
			rest = after
		} else if after, ok := cutKeyword(rest, "const"); ok {
			rest = after
		} else {
			return Expr{}, fmt.Errorf("raw pointer needs const or mut")
		}
		elem, err := p.parse(rest)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprPointer, Elem: &elem, Mutable: mutable}, nil

	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") {
			return Expr{}, fmt.Errorf("unclosed '['")
		}
		inner := s[1 : len(s)-1]
		semi := topLevelSemicolon(inner)
		if semi < 0 {
			elem, err := p.parse(strings.TrimSpace(inner))
			if err != nil {
				return Expr{}, err
			}
			return Expr{Kind: ExprSlice, Elem: &elem}, nil
		}
		elem, err := p.parse(strings.TrimSpace(inner[:semi]))
		if err != nil {
			return Expr{}, err
		}
		lenText := strings.ReplaceAll(strings.TrimSpace(inner[semi+1:]), "_", "")
		n, err := strconv.ParseUint(lenText, 10, 64)
		if err != nil {
			return Expr{}, fmt.Errorf("bad array length %q", strings.TrimSpace(inner[semi+1:]))
		}
		return Expr{Kind: ExprArray, Elem: &elem, Len: n}, nil
	}

	if !isIdent(s) {
		return Expr{}, fmt.Errorf("unexpected %q", s)
	}
	if prim, ok := LookupPrim(s); ok {
		return Expr{Kind: ExprPrim, Prim: prim}, nil
	}
	return Expr{Kind: ExprNamed, Name: NormalizeName(s)}, nil
}

func cutKeyword(s, kw string) (string, bool) {
	if !strings.HasPrefix(s, kw) {
		return s, false
	}
	rest := s[len(kw):]
	if rest == "" || !unicode.IsSpace(rune(rest[0])) {
		return s, false
	}
	return strings.TrimSpace(rest), true
}

func topLevelSemicolon(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ';':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdent(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return s != ""
}

// Names returns every named type the expression mentions, outermost first.
func (e Expr) Names() []string {
	var out []string
	for cur := &e; cur != nil; cur = cur.Elem {
		if cur.Kind == ExprNamed {
			out = append(out, cur.Name)
		}
	}
	return out
}
