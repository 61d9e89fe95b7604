package layout

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"layoutcalc/internal/types"
)

// Engine computes memory layout for the named declarations of a type table.
//
// Results and errors are memoised per (type, strategy). An Engine is not safe
// for concurrent use; the pure Compute functions are.
type Engine struct {
	Target Target
	Types  *types.Table

	// Strategy applies to declarations without an explicit repr.
	// The zero value means StrategyDefault.
	Strategy Strategy

	cache *cache
}

// New creates a new Engine for the specified target.
func New(target Target, table *types.Table) *Engine {
	return &Engine{
		Target: target,
		Types:  table,
		cache:  newCache(),
	}
}

// layoutState is the chain of declarations being laid out. index is keyed by
// name alone: a type that contains itself has infinite size whatever strategy
// each occurrence uses.
type layoutState struct {
	stack []cacheKey
	index map[string]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		stack: nil,
		index: make(map[string]int, 32),
	}
}

// StrategyOf returns the strategy a declaration is laid out with when reached by name.
func (e *Engine) StrategyOf(name string) Strategy {
	if e == nil {
		return StrategyDefault
	}
	decl, _ := e.Types.Lookup(name)
	return e.strategyFor(decl)
}

func (e *Engine) strategyFor(decl *types.Decl) Strategy {
	if decl != nil {
		switch decl.Attrs.Repr {
		case types.ReprDefault:
			return StrategyDefault
		case types.ReprSequential:
			return StrategySequential
		}
	}
	if e.Strategy == 0 {
		return StrategyDefault
	}
	return e.Strategy
}

// LayoutOf computes and caches the layout of a named type using its own repr.
func (e *Engine) LayoutOf(name string) (LayoutResult, error) {
	if e == nil {
		return emptyLayout(), nil
	}
	return e.LayoutWith(name, e.StrategyOf(name))
}

// LayoutWith lays the named type out under strategy. Types it contains keep their own repr.
func (e *Engine) LayoutWith(name string, strategy Strategy) (LayoutResult, error) {
	if e == nil {
		return emptyLayout(), nil
	}
	entry, err := e.layoutOf(name, strategy, newLayoutState())
	if err != nil {
		return entry.Layout, err
	}
	return entry.Layout, nil
}

// Descriptor returns the resolved descriptor the named type was laid out from.
func (e *Engine) Descriptor(name string, strategy Strategy) (TypeDescriptor, error) {
	if e == nil {
		return TypeDescriptor{}, nil
	}
	entry, err := e.layoutOf(name, strategy, newLayoutState())
	if err != nil {
		return entry.Desc, err
	}
	return entry.Desc, nil
}

// LayoutOfExpr computes the size and alignment of any type expression.
func (e *Engine) LayoutOfExpr(expr types.Expr) (FieldDescriptor, error) {
	if e == nil {
		return FieldDescriptor{Size: 0, Align: 1}, nil
	}
	fl, err := e.exprLayout(expr, newLayoutState())
	if err != nil {
		return fl, err
	}
	return fl, nil
}

// SizeOf returns the size of a named type in bytes.
func (e *Engine) SizeOf(name string) (int, error) {
	l, err := e.LayoutOf(name)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a named type in bytes.
func (e *Engine) AlignOf(name string) (int, error) {
	l, err := e.LayoutOf(name)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *Engine) FieldOffset(name string, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(name)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, fmt.Errorf("%s has no field #%d", name, fieldIdx)
	}
	return l.FieldOffsets[fieldIdx], nil
}

func (e *Engine) layoutOf(name string, strategy Strategy, state *layoutState) (*cacheEntry, *LayoutError) {
	if e.cache == nil {
		e.cache = newCache()
	}
	name = types.NormalizeName(name)
	key := cacheKey{Name: name, Strategy: strategy}
	if cached, ok := e.cache.get(key); ok {
		return cached, cached.Err
	}

	if idx, ok := state.index[name]; ok {
		cycle := make([]string, 0, len(state.stack)-idx+1)
		for _, k := range state.stack[idx:] {
			cycle = append(cycle, k.Name)
		}
		cycle = append(cycle, name)
		err := &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  name,
			Cycle: cycle,
		}
		entry := &cacheEntry{Layout: emptyLayout(), Err: err}
		e.cache.put(key, entry)
		return entry, err
	}

	decl, ok := e.Types.Lookup(name)
	if !ok {
		err := &LayoutError{Kind: LayoutErrUnknownType, Reason: fmt.Sprintf("%s is not declared", name)}
		return &cacheEntry{Layout: emptyLayout(), Err: err}, err
	}

	state.index[name] = len(state.stack)
	state.stack = append(state.stack, key)
	desc, err := e.describe(decl, strategy, state)
	res := emptyLayout()
	if err == nil {
		res, err = compute(&desc, strategy)
	}
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, name)

	entry := &cacheEntry{Desc: desc, Layout: res, Err: err}
	e.cache.put(key, entry)
	return entry, err
}

// describe resolves every member of decl to a FieldDescriptor.
func (e *Engine) describe(decl *types.Decl, strategy Strategy, state *layoutState) (TypeDescriptor, *LayoutError) {
	td := TypeDescriptor{Name: decl.Name, Packed: decl.Attrs.Packed}
	if decl.Attrs.AlignOverride != nil {
		if *decl.Attrs.AlignOverride == 0 {
			return td, invalidf(&td, "", "align(0) is not a valid alignment")
		}
		td.AlignOverride = *decl.Attrs.AlignOverride
	}

	switch decl.Kind {
	case types.DeclStruct:
		td.Kind = KindStruct
		td.Fields = make([]FieldDescriptor, 0, len(decl.Fields))
		for i, f := range decl.Fields {
			fl, err := e.exprLayout(f.Type, state)
			if err != nil {
				return td, attribute(err, decl.Name, memberLabel("field", i, f.Name))
			}
			fl.Name = f.Name
			td.Fields = append(td.Fields, fl)
		}

	case types.DeclEnum:
		td.Kind = KindTaggedUnion
		td.Variants = make([]FieldDescriptor, 0, len(decl.Variants))
		for i, v := range decl.Variants {
			pl, err := e.payloadLayout(v.Payload, strategy, state)
			if err != nil {
				return td, attribute(err, decl.Name, memberLabel("variant", i, v.Name))
			}
			pl.Name = v.Name
			td.Variants = append(td.Variants, pl)
		}
		if decl.Tag != nil {
			if decl.Tag.Kind != types.ExprPrim || !decl.Tag.Prim.IsInteger() {
				return td, invalidf(&td, "discriminant", "discriminant type %s is not an integer", decl.Tag)
			}
			tl, err := e.exprLayout(*decl.Tag, state)
			if err != nil {
				return td, attribute(err, decl.Name, "discriminant")
			}
			tl.Name = "tag"
			td.Discriminant = &tl
		}

	default:
		return td, invalidf(&td, "", "unknown declaration kind %s", decl.Kind)
	}
	return td, nil
}

// attribute pins an error raised while resolving a member to the declaration
// that owns it. Errors that already name a nested type are left alone.
func attribute(err *LayoutError, typeName, member string) *LayoutError {
	if err.Type != "" {
		return err
	}
	out := *err
	out.Type = typeName
	out.Field = member
	return &out
}

// payloadLayout treats a multi-value payload as an anonymous struct laid out
// with the enclosing enum's strategy.
func (e *Engine) payloadLayout(payload []types.Expr, strategy Strategy, state *layoutState) (FieldDescriptor, *LayoutError) {
	switch len(payload) {
	case 0:
		return FieldDescriptor{Size: 0, Align: 1}, nil
	case 1:
		return e.exprLayout(payload[0], state)
	}
	fields := make([]FieldDescriptor, 0, len(payload))
	for _, p := range payload {
		fl, err := e.exprLayout(p, state)
		if err != nil {
			return fl, err
		}
		fields = append(fields, fl)
	}
	tuple := Struct("", fields...)
	res, err := compute(&tuple, strategy)
	if err != nil {
		return FieldDescriptor{}, err
	}
	return FieldDescriptor{Size: res.Size, Align: res.Align}, nil
}

func (e *Engine) exprLayout(expr types.Expr, state *layoutState) (FieldDescriptor, *LayoutError) {
	switch expr.Kind {
	case types.ExprPrim:
		fl, ok := e.Target.PrimitiveLayout(expr.Prim)
		if !ok {
			return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{
				Kind:   LayoutErrUnsized,
				Reason: fmt.Sprintf("%s has no static size; place it behind a pointer", expr),
			}
		}
		return fl, nil

	case types.ExprNamed:
		decl, ok := e.Types.Lookup(expr.Name)
		if !ok {
			return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{
				Kind:   LayoutErrUnknownType,
				Reason: fmt.Sprintf("%s is not declared", expr.Name),
			}
		}
		entry, err := e.layoutOf(decl.Name, e.strategyFor(decl), state)
		if err != nil {
			return FieldDescriptor{Size: 0, Align: 1}, err
		}
		return FieldDescriptor{Size: entry.Layout.Size, Align: entry.Layout.Align}, nil

	case types.ExprPointer:
		for _, name := range expr.Names() {
			if _, ok := e.Types.Lookup(name); !ok {
				return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{
					Kind:   LayoutErrUnknownType,
					Reason: fmt.Sprintf("%s is not declared", name),
				}
			}
		}
		if expr.Elem != nil && expr.Elem.IsUnsized() {
			return e.Target.fatPtrLayout(), nil
		}
		return e.Target.ptrLayout(), nil

	case types.ExprArray:
		if expr.Elem == nil {
			return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Reason: "array without element type"}
		}
		el, err := e.exprLayout(*expr.Elem, state)
		if err != nil {
			return el, err
		}
		n, convErr := safecast.Conv[int](expr.Len)
		if convErr != nil {
			return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Err: convErr}
		}
		stride := roundUp(el.Size, el.Align)
		if stride > 0 && n > math.MaxInt/stride {
			return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{
				Kind: LayoutErrLengthConversion,
				Err:  fmt.Errorf("%s: %d elements of %d bytes overflow", expr, n, stride),
			}
		}
		return FieldDescriptor{Size: stride * n, Align: el.Align}, nil

	case types.ExprSlice:
		return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{
			Kind:   LayoutErrUnsized,
			Reason: fmt.Sprintf("%s has no static size; place it behind a pointer", expr),
		}

	default:
		return FieldDescriptor{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Reason: "invalid type expression"}
	}
}

// CachedLayouts reports how many (type, strategy) results the engine has memoised.
func (e *Engine) CachedLayouts() int {
	if e == nil {
		return 0
	}
	return e.cache.len()
}
