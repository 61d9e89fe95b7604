package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/types"
)

func load(t *testing.T, name string) (*File, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	f, err := Load(filepath.Join("testdata", name), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	return f, bag
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestLoadTOMLSamples(t *testing.T) {
	f, bag := load(t, "samples.toml")
	assert.Zero(t, bag.Len(), "unexpected diagnostics: %s", diag.FormatShort(bag.Items(), true))

	assert.Equal(t, FormatTOML, f.Format)
	assert.Equal(t, "x86_64-linux-gnu", f.Target)
	require.Equal(t, 5, f.Types.Len())

	names := make([]string, 0, f.Types.Len())
	for _, d := range f.Types.Decls() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"A", "B", "CA", "CEnum", "Header"}, names)

	ca, ok := f.Types.Lookup("CA")
	require.True(t, ok)
	assert.Equal(t, types.ReprSequential, ca.Attrs.Repr)
	assert.Equal(t, "i64", ca.Fields[1].Type.String())

	enum, _ := f.Types.Lookup("CEnum")
	assert.Equal(t, types.DeclEnum, enum.Kind, "kind is inferred from variants")
	assert.Len(t, enum.Variants, 4)

	hdr, _ := f.Types.Lookup("Header")
	require.NotNil(t, hdr.Attrs.AlignOverride)
	assert.Equal(t, 16, *hdr.Attrs.AlignOverride)
	assert.Equal(t, "*const Header", hdr.Fields[1].Type.String())
	assert.Empty(t, f.Unresolved)
}

func TestLoadYAML(t *testing.T) {
	f, bag := load(t, "shapes.yaml")
	assert.Zero(t, bag.Len(), "unexpected diagnostics: %s", diag.FormatShort(bag.Items(), true))
	assert.Equal(t, FormatYAML, f.Format)
	assert.Equal(t, "aarch64-linux-gnu", f.Target)

	shape, ok := f.Types.Lookup("Shape")
	require.True(t, ok)
	require.NotNil(t, shape.Tag)
	assert.Equal(t, "u8", shape.Tag.String())
	assert.Empty(t, shape.Variants[0].Payload)
	assert.Len(t, shape.Variants[1].Payload, 3)

	pkt, _ := f.Types.Lookup("Packet")
	assert.True(t, pkt.Attrs.Packed)
	assert.Equal(t, types.DeclStruct, pkt.Kind)
}

func TestLoadReportsPerTypeProblems(t *testing.T) {
	f, bag := load(t, "broken.toml")

	got := codes(bag)
	for _, want := range []diag.Code{
		diag.ManUnknownKey,
		diag.ManDuplicateType,
		diag.ManBadTypeExpr,
		diag.ManBadRepr,
		diag.ManBadKind,
		diag.ManDuplicateMember,
		diag.ManUndeclaredType,
		diag.ManSyntax,
	} {
		assert.Contains(t, got, want)
	}
	assert.True(t, bag.HasErrors())

	// Good survives, Dangling is declared but flagged once per missing name.
	_, ok := f.Types.Lookup("Good")
	assert.True(t, ok)
	assert.True(t, f.Unresolved["Dangling"])
	undeclared := 0
	for _, d := range bag.Items() {
		if d.Code == diag.ManUndeclaredType {
			undeclared++
			assert.Equal(t, "Dangling", d.Primary.Type)
		}
	}
	assert.Equal(t, 1, undeclared)

	for _, name := range []string{"BadExpr", "BadRepr", "Mixed", "Dup", "u32"} {
		_, ok := f.Types.Lookup(name)
		assert.False(t, ok, "%s should have been skipped", name)
	}
}

func TestDecodeErrors(t *testing.T) {
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}

	_, err := Decode("types.json", []byte("{}"), r)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Decode("bad.toml", []byte("[[type]\nname ="), r)
	assert.True(t, errors.Is(err, ErrSyntax))

	_, err = Decode("bad.yaml", []byte("type: [\n"), r)
	assert.True(t, errors.Is(err, ErrSyntax))

	_, err = Load(filepath.Join("testdata", "missing.toml"), r)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDecodeYAMLUnknownKeysWarn(t *testing.T) {
	bag := diag.NewBag(10)
	f, err := Decode("x.yml", []byte("type:\n  - name: P\n    colour: red\n"), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Types.Len())
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.ManUnknownKey, bag.Items()[0].Code)
	assert.Equal(t, diag.SevWarning, bag.Items()[0].Severity)
}

func TestDecodeEmptyAndUnknownTarget(t *testing.T) {
	bag := diag.NewBag(10)
	f, err := Decode("empty.yaml", nil, diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	assert.Zero(t, f.Types.Len())

	f, err = Decode("t.toml", []byte(`target = "pdp11"`), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	assert.Empty(t, f.Target)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.ManUnknownTarget, bag.Items()[0].Code)
}

func TestDigestTracksContent(t *testing.T) {
	a, err := Decode("a.toml", []byte(`target = "i686-linux-gnu"`), nil)
	require.NoError(t, err)
	b, err := Decode("b.toml", []byte(`target = "wasm32-unknown-unknown"`), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, b.Digest)
}
