package types

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims a declared name and converts it to NFC so that visually
// identical identifiers compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Table stores named declarations in declaration order.
type Table struct {
	decls  []*Decl
	byName map[string]int
}

// NewTable constructs an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]int, 32)}
}

// Declare adds d to the table. Names must be unique and must not shadow a primitive.
func (t *Table) Declare(d Decl) error {
	if t == nil {
		return fmt.Errorf("nil type table")
	}
	d.Name = NormalizeName(d.Name)
	if d.Name == "" {
		return fmt.Errorf("type declaration without a name")
	}
	if !isIdent(d.Name) {
		return fmt.Errorf("invalid type name %q", d.Name)
	}
	if _, ok := LookupPrim(d.Name); ok {
		return fmt.Errorf("type %q shadows a primitive", d.Name)
	}
	if _, ok := t.byName[d.Name]; ok {
		return fmt.Errorf("duplicate type %q", d.Name)
	}
	d.Attrs.AlignOverride = cloneIntPtr(d.Attrs.AlignOverride)
	t.byName[d.Name] = len(t.decls)
	t.decls = append(t.decls, &d)
	return nil
}

// Lookup finds a declaration by name.
func (t *Table) Lookup(name string) (*Decl, bool) {
	if t == nil {
		return nil, false
	}
	idx, ok := t.byName[NormalizeName(name)]
	if !ok {
		return nil, false
	}
	return t.decls[idx], true
}

// Decls returns declarations in declaration order.
// The returned slice must not be modified.
func (t *Table) Decls() []*Decl {
	if t == nil {
		return nil
	}
	return t.decls
}

// Len returns the number of declarations.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.decls)
}

// Undeclared returns, per declaration, the referenced names that are not in the table.
func (t *Table) Undeclared() map[string][]string {
	if t == nil {
		return nil
	}
	var out map[string][]string
	for _, d := range t.decls {
		for _, ref := range d.Refs() {
			if _, ok := t.byName[ref]; ok {
				continue
			}
			if slices.Contains(out[d.Name], ref) {
				continue
			}
			if out == nil {
				out = make(map[string][]string)
			}
			out[d.Name] = append(out[d.Name], ref)
		}
	}
	return out
}
