package manifest

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/layout"
	"layoutcalc/internal/types"
)

// Format is the syntax of a descriptor file.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// DetectFormat picks the syntax from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// File is one decoded descriptor document.
type File struct {
	Path   string
	Format Format
	// Target is the triple the file asks for, empty when it names none
	// or names an unknown one.
	Target string
	Types  *types.Table
	// Unresolved lists declarations that reference undeclared types.
	// They were reported already and are not laid out.
	Unresolved map[string]bool
	// Digest is the SHA-256 of the raw file content.
	Digest [32]byte
}

// Load reads and decodes path. Per-declaration problems go to r.
func Load(path string, r diag.Reporter) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	return Decode(path, data, r)
}

// Decode decodes data as the descriptor file path.
func Decode(path string, data []byte, r diag.Reporter) (*File, error) {
	format := DetectFormat(path)
	var (
		raw rawFile
		err error
	)
	switch format {
	case FormatTOML:
		raw, err = decodeTOML(path, data, r)
	case FormatYAML:
		raw, err = decodeYAML(path, data, r)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f := build(path, raw, r)
	f.Format = format
	f.Digest = sha256.Sum256(data)
	return f, nil
}

func build(path string, raw rawFile, r diag.Reporter) *File {
	f := &File{
		Path:  path,
		Types: types.NewTable(),
	}
	if triple := strings.TrimSpace(raw.Target); triple != "" {
		if tgt, ok := layout.LookupTarget(triple); ok {
			f.Target = tgt.Triple
		} else {
			diag.ReportError(r, diag.ManUnknownTarget, diag.Location{File: path},
				fmt.Sprintf("unknown target %q", triple))
		}
	}

	for i := range raw.Types {
		decl, ok := declFromRaw(path, i, &raw.Types[i], r)
		if !ok {
			continue
		}
		if err := f.Types.Declare(decl); err != nil {
			code := diag.ManSyntax
			if _, dup := f.Types.Lookup(decl.Name); dup {
				code = diag.ManDuplicateType
			}
			diag.ReportError(r, code, diag.Location{File: path, Type: decl.Name}, err.Error())
		}
	}

	for name, missing := range f.Types.Undeclared() {
		if f.Unresolved == nil {
			f.Unresolved = make(map[string]bool)
		}
		f.Unresolved[name] = true
		for _, m := range missing {
			diag.ReportError(r, diag.ManUndeclaredType, diag.Location{File: path, Type: name},
				fmt.Sprintf("%s refers to undeclared type %s", name, m))
		}
	}
	return f
}

func declFromRaw(path string, idx int, rt *rawType, r diag.Reporter) (types.Decl, bool) {
	name := types.NormalizeName(rt.Name)
	loc := diag.Location{File: path, Type: name}
	if name == "" {
		loc.Type = fmt.Sprintf("type #%d", idx)
		diag.ReportError(r, diag.ManSyntax, loc, "declaration has no name")
		return types.Decl{}, false
	}

	kind, err := declKind(rt)
	if err != nil {
		diag.ReportError(r, diag.ManBadKind, loc, err.Error())
		return types.Decl{}, false
	}
	repr, err := types.ParseRepr(rt.Repr)
	if err != nil {
		diag.ReportError(r, diag.ManBadRepr, loc, err.Error())
		return types.Decl{}, false
	}

	decl := types.Decl{
		Name:  name,
		Kind:  kind,
		Attrs: types.LayoutAttrs{Repr: repr, Packed: rt.Packed},
	}
	if rt.Align != nil {
		if *rt.Align < 0 {
			diag.ReportError(r, diag.ManBadAlign, loc, fmt.Sprintf("align(%d) is negative", *rt.Align))
			return types.Decl{}, false
		}
		align := *rt.Align
		decl.Attrs.AlignOverride = &align
	}

	ok := true
	switch kind {
	case types.DeclStruct:
		ok = structMembers(&decl, loc, rt, r)
	case types.DeclEnum:
		ok = enumMembers(&decl, loc, rt, r)
	}
	return decl, ok
}

// declKind honours an explicit kind and otherwise infers it from the members.
func declKind(rt *rawType) (types.DeclKind, error) {
	if strings.TrimSpace(rt.Kind) == "" {
		if len(rt.Variants) > 0 {
			return types.DeclEnum, nil
		}
		return types.DeclStruct, nil
	}
	kind, err := types.ParseDeclKind(rt.Kind)
	if err != nil {
		return kind, err
	}
	switch {
	case kind == types.DeclStruct && len(rt.Variants) > 0:
		return kind, fmt.Errorf("struct cannot declare variants")
	case kind == types.DeclStruct && rt.Tag != "":
		return kind, fmt.Errorf("struct cannot declare a tag")
	case kind == types.DeclEnum && len(rt.Fields) > 0:
		return kind, fmt.Errorf("enum cannot declare fields; use variant payloads")
	}
	return kind, nil
}

func structMembers(decl *types.Decl, loc diag.Location, rt *rawType, r diag.Reporter) bool {
	seen := make(map[string]bool, len(rt.Fields))
	decl.Fields = make([]types.Field, 0, len(rt.Fields))
	for i, rf := range rt.Fields {
		member := loc
		member.Field = memberLabel("field", i, rf.Name)
		if rf.Name != "" {
			if seen[rf.Name] {
				diag.ReportError(r, diag.ManDuplicateMember, member, fmt.Sprintf("field %q declared twice", rf.Name))
				return false
			}
			seen[rf.Name] = true
		}
		expr, err := types.ParseExpr(rf.Type)
		if err != nil {
			diag.ReportError(r, diag.ManBadTypeExpr, member, err.Error())
			return false
		}
		decl.Fields = append(decl.Fields, types.Field{Name: rf.Name, Type: expr})
	}
	return true
}

func enumMembers(decl *types.Decl, loc diag.Location, rt *rawType, r diag.Reporter) bool {
	seen := make(map[string]bool, len(rt.Variants))
	decl.Variants = make([]types.Variant, 0, len(rt.Variants))
	for i, rv := range rt.Variants {
		member := loc
		member.Field = memberLabel("variant", i, rv.Name)
		if rv.Name != "" {
			if seen[rv.Name] {
				diag.ReportError(r, diag.ManDuplicateMember, member, fmt.Sprintf("variant %q declared twice", rv.Name))
				return false
			}
			seen[rv.Name] = true
		}
		v := types.Variant{Name: rv.Name, Payload: make([]types.Expr, 0, len(rv.Payload))}
		for _, src := range rv.Payload {
			expr, err := types.ParseExpr(src)
			if err != nil {
				diag.ReportError(r, diag.ManBadTypeExpr, member, err.Error())
				return false
			}
			v.Payload = append(v.Payload, expr)
		}
		decl.Variants = append(decl.Variants, v)
	}
	if strings.TrimSpace(rt.Tag) != "" {
		tag, err := types.ParseExpr(rt.Tag)
		if err != nil {
			member := loc
			member.Field = "discriminant"
			diag.ReportError(r, diag.ManBadTypeExpr, member, err.Error())
			return false
		}
		decl.Tag = &tag
	}
	return true
}

func memberLabel(what string, idx int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s #%d", what, idx)
	}
	return fmt.Sprintf("%s #%d (%s)", what, idx, name)
}
