package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
)

func typeLayout(t *testing.T, td layout.TypeDescriptor, s layout.Strategy) driver.TypeLayout {
	t.Helper()
	res, err := layout.Compute(td, s)
	require.NoError(t, err)
	return driver.TypeLayout{Name: td.Name, Kind: td.Kind, Strategy: s, Desc: td, Layout: res}
}

func sampleResult(t *testing.T) *driver.Result {
	t.Helper()
	b := layout.Struct("B", layout.Field("first", 8, 8), layout.Field("second", 4, 4))
	shape := layout.TaggedUnion("Shape", nil, layout.Field("Circle", 4, 4), layout.Field("Empty", 0, 1))

	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.LayRecursiveUnsized,
		diag.Location{File: "shapes.toml", Type: "Node"},
		"Node contains itself by value").WithNote("cycle: Node -> Node"))

	return &driver.Result{
		RunID: "run-1",
		Files: []driver.FileResult{{
			Path:   "shapes.toml",
			Target: "x86_64-unknown-linux-gnu",
			Types: []driver.TypeLayout{
				typeLayout(t, b, layout.StrategyDefault),
				typeLayout(t, shape, layout.StrategySequential),
			},
			Bag: bag,
		}},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatPretty,
		"pretty":   FormatPretty,
		"JSON":     FormatJSON,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		" msgpack": FormatMsgpack,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
	assert.True(t, FormatMsgpack.Binary())
	assert.False(t, FormatJSON.Binary())
}

func TestWritePretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), FormatPretty, Options{}))
	out := buf.String()

	assert.Contains(t, out, "shapes.toml (x86_64-unknown-linux-gnu)")
	assert.Contains(t, out, "struct B [default]  size 16  align 8  padding 4")
	assert.Contains(t, out, "aaaaaaaa bbbb....")
	assert.Contains(t, out, "enum Shape [sequential]  size 8  align 4  padding 0")
	assert.Contains(t, out, "TTTTPPPP")
	assert.Contains(t, out, "error LAY2002 Node: Node contains itself by value")
	assert.Contains(t, out, "note: cycle: Node -> Node")
	assert.Contains(t, out, "2 layouts in 1 file; 1 error, 0 warnings")
	assert.NotContains(t, out, "\x1b[", "colour must be off unless requested")
}

func TestWritePrettyMemoryOrder(t *testing.T) {
	td := layout.Struct("S", layout.Field("small", 1, 1), layout.Field("big", 8, 8))
	res := &driver.Result{Files: []driver.FileResult{{
		Path:  "s.toml",
		Types: []driver.TypeLayout{typeLayout(t, td, layout.StrategyDefault)},
		Bag:   diag.NewBag(0),
	}}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatPretty, Options{}))
	out := buf.String()
	assert.Less(t, strings.Index(out, "big"), strings.Index(out, "small"))
	assert.Contains(t, out, "bbbbbbbb a.......")
}

func TestByteMapLimit(t *testing.T) {
	td := layout.Struct("Big", layout.Field("buf", 128, 8))
	res := &driver.Result{Files: []driver.FileResult{{
		Path:  "big.toml",
		Types: []driver.TypeLayout{typeLayout(t, td, layout.StrategySequential)},
	}}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatPretty, Options{}))
	assert.NotContains(t, buf.String(), "aaaaaaaa")

	buf.Reset()
	require.NoError(t, Write(&buf, res, FormatPretty, Options{ByteMapLimit: 128}))
	assert.Contains(t, buf.String(), "aaaaaaaa")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), FormatJSON, Options{}))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, SummaryDoc{Files: 1, Types: 2, Errors: 1}, doc.Summary)
	require.Len(t, doc.Files, 1)
	require.Len(t, doc.Files[0].Types, 2)

	b := doc.Files[0].Types[0]
	assert.Equal(t, "struct", b.Kind)
	assert.Equal(t, 16, b.Size)
	require.Len(t, b.Fields, 2)
	require.NotNil(t, b.Fields[1].Offset)
	assert.Equal(t, 8, *b.Fields[1].Offset)

	shape := doc.Files[0].Types[1]
	assert.Equal(t, "tagged-union", shape.Kind)
	require.NotNil(t, shape.Tag)
	assert.Equal(t, TagDoc{Size: 4, Align: 4, Offset: 0}, *shape.Tag)
	assert.Equal(t, &RegionDoc{Offset: 4, Size: 4, Align: 4}, shape.Payload)

	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "LAY2002", doc.Diagnostics[0].Code)
	assert.Equal(t, []string{"cycle: Node -> Node"}, doc.Diagnostics[0].Notes)
}

func TestWriteMsgpackMatchesBuild(t *testing.T) {
	res := sampleResult(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatMsgpack, Options{}))

	var doc Document
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, Build(res), doc)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), FormatMarkdown, Options{}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Layout report\n"))
	assert.Contains(t, out, "## `shapes.toml` (x86_64-unknown-linux-gnu)")
	assert.Contains(t, out, "### struct `B` (default)")
	assert.Contains(t, out, "| Member | Offset | Size | Align |")
	assert.Contains(t, out, "| second | 8 | 4 | 4 |")
	assert.Contains(t, out, "| &lt;tag&gt; | 0 | 4 | 4 |")
	assert.Contains(t, out, "- **error** `LAY2002` shapes.toml:Node: Node contains itself by value")
}

func TestWriteMarkdownStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleResult(t), FormatMarkdown, Options{Styled: true, Width: 60}))
	assert.NotEmpty(t, strings.TrimSpace(buf.String()))
}

func TestBuildNil(t *testing.T) {
	assert.Equal(t, Document{}, Build(nil))
	assert.Equal(t, "# Layout report\n", Markdown(nil))
}
