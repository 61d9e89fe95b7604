package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/layout"
	"layoutcalc/internal/observ"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const samplesTOML = `
[[type]]
name = "B"
fields = [{ name = "first", type = "i64" }, { name = "second", type = "i32" }]

[[type]]
name = "CA"
repr = "c"
fields = [{ name = "a", type = "i32" }, { name = "b", type = "i64" }]

[[type]]
name = "CEnum"
repr = "c"
variants = [{ name = "A", payload = ["i32"] }, { name = "B", payload = ["i32"] }]
`

const recursiveYAML = `
type:
  - name: Node
    fields:
      - {name: value, type: i32}
      - {name: next, type: Node}
  - name: Ok
    fields:
      - {name: p, type: "*const Node"}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func layoutsByName(fr FileResult) map[string]TypeLayout {
	out := make(map[string]TypeLayout, len(fr.Types))
	for _, tl := range fr.Types {
		out[tl.Name+"/"+tl.Strategy.String()] = tl
	}
	return out
}

func TestRunLaysOutFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", samplesTOML)
	b := writeFile(t, dir, "b.yaml", recursiveYAML)

	res, err := Run(context.Background(), []string{a, b}, Options{Jobs: 2, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.NotEmpty(t, res.RunID)

	first := res.Files[0]
	assert.Equal(t, a, first.Path)
	assert.Equal(t, "x86_64-linux-gnu", first.Target)
	assert.False(t, first.Bag.HasErrors(), diag.FormatShort(first.Bag.Items(), true))

	got := layoutsByName(first)
	require.Len(t, got, 3)
	assert.Equal(t, 16, got["B/default"].Layout.Size)
	assert.Equal(t, 16, got["CA/sequential"].Layout.Size)
	assert.Equal(t, []int{0, 8}, got["CA/sequential"].Layout.FieldOffsets)
	assert.Equal(t, 8, got["CEnum/sequential"].Layout.Size)
	assert.Equal(t, layout.KindTaggedUnion, got["CEnum/sequential"].Kind)

	second := res.Files[1]
	require.True(t, second.Bag.HasErrors())
	var codes []diag.Code
	for _, d := range second.Bag.Items() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.LayRecursiveUnsized)
	assert.Len(t, second.Types, 1, "Ok holds a pointer and still lays out")
	assert.True(t, res.HasErrors())
	assert.Equal(t, second.Bag.Len(), res.Diagnostics().Len())
}

func TestRunBothStrategies(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", `
[[type]]
name = "S"
fields = [{ name = "a", type = "u8" }, { name = "b", type = "u64" }, { name = "c", type = "u8" }]
`)
	res, err := Run(context.Background(), []string{a}, Options{
		Strategies: []layout.Strategy{layout.StrategyDefault, layout.StrategySequential},
	})
	require.NoError(t, err)
	got := layoutsByName(res.Files[0])
	assert.Equal(t, 16, got["S/default"].Layout.Size)
	assert.Equal(t, 24, got["S/sequential"].Layout.Size)
}

func TestRunFileTargetAndOverride(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", `
target = "i686-linux-gnu"

[[type]]
name = "P"
repr = "c"
fields = [{ name = "a", type = "u32" }, { name = "b", type = "u64" }]
`)
	res, err := Run(context.Background(), []string{a}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "i686-linux-gnu", res.Files[0].Target)
	assert.Equal(t, 12, res.Files[0].Types[0].Layout.Size)

	res, err = Run(context.Background(), []string{a}, Options{Target: layout.Wasm32(), ForceTarget: true})
	require.NoError(t, err)
	assert.Equal(t, "wasm32-unknown-unknown", res.Files[0].Target)
	assert.Equal(t, 16, res.Files[0].Types[0].Layout.Size)
}

func TestRunReportsLoadFailures(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.toml")
	unsupported := writeFile(t, dir, "types.json", "{}")
	broken := writeFile(t, dir, "broken.toml", "[[type]\n")

	res, err := Run(context.Background(), []string{missing, unsupported, broken}, Options{})
	require.NoError(t, err)

	want := []diag.Code{diag.IOLoadFileError, diag.ManUnsupportedFile, diag.ManSyntax}
	for i, code := range want {
		items := res.Files[i].Bag.Items()
		require.Len(t, items, 1, "file %d", i)
		assert.Equal(t, code, items[0].Code, "file %d", i)
		assert.Equal(t, res.Files[i].Path, items[0].Primary.File)
	}
}

func TestRunUsesDiskCache(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", samplesTOML)
	b := writeFile(t, dir, "b.yaml", recursiveYAML)
	cache, err := OpenDiskCache(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	opts := Options{Cache: cache, Timer: observ.NewTimer()}
	cold, err := Run(context.Background(), []string{a, b}, opts)
	require.NoError(t, err)
	warm, err := Run(context.Background(), []string{a, b}, opts)
	require.NoError(t, err)

	for i := range cold.Files {
		assert.False(t, cold.Files[i].Cached)
		assert.True(t, warm.Files[i].Cached)
		if diff := cmp.Diff(cold.Files[i].Types, warm.Files[i].Types, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("cached layouts differ (-cold +warm):\n%s", diff)
		}
		if diff := cmp.Diff(cold.Files[i].Bag.Items(), warm.Files[i].Bag.Items(), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("cached diagnostics differ (-cold +warm):\n%s", diff)
		}
	}

	opts.Strategies = []layout.Strategy{layout.StrategySequential}
	other, err := Run(context.Background(), []string{a}, opts)
	require.NoError(t, err)
	assert.False(t, other.Files[0].Cached, "different settings must miss")

	require.NoError(t, cache.DropAll())
	again, err := Run(context.Background(), []string{a}, Options{Cache: cache})
	require.NoError(t, err)
	assert.False(t, again.Files[0].Cached)
}

func TestRunEmitsProgress(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", samplesTOML)
	b := writeFile(t, dir, "b.yaml", recursiveYAML)

	events := make(chan Event, 8)
	var (
		mu   sync.Mutex
		seen []Event
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			mu.Lock()
			seen = append(seen, ev)
			mu.Unlock()
		}
	}()

	_, err := Run(context.Background(), []string{a, b}, Options{Sink: ChannelSink{Ch: events}})
	close(events)
	wg.Wait()
	require.NoError(t, err)

	final := map[string]Status{}
	for _, ev := range seen {
		final[ev.File] = ev.Status
	}
	assert.Equal(t, StatusDone, final[a])
	assert.Equal(t, StatusError, final[b])
	assert.True(t, slices.ContainsFunc(seen, func(ev Event) bool { return ev.Status == StatusQueued }))
}

func TestRunHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", samplesTOML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, []string{a, a, a}, Options{Jobs: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	for _, fr := range res.Files {
		assert.NotNil(t, fr.Bag)
	}
}

func TestRunNoFiles(t *testing.T) {
	res, err := Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.False(t, res.HasErrors())
}

func TestRunSourceSkipsDisk(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	require.NoError(t, err)

	res := RunSource(context.Background(), "builtin.toml", []byte(samplesTOML), Options{Cache: cache})
	require.Len(t, res.Files, 1)
	fr := res.Files[0]
	assert.Equal(t, "builtin.toml", fr.Path)
	assert.False(t, fr.Cached)
	assert.Len(t, fr.Types, 3)

	entries, err := os.ReadDir(cache.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "RunSource must not populate the disk cache")
}

func TestLayoutDiagnosticAttributesNestedTypes(t *testing.T) {
	err := &layout.LayoutError{Kind: layout.LayoutErrUnsized, Type: "Inner", Field: "field #0 (s)", Reason: "str has no static size"}
	d := layoutDiagnostic("x.toml", "Outer", err)
	assert.Equal(t, diag.LayUnsized, d.Code)
	assert.Equal(t, diag.Location{File: "x.toml", Type: "Outer"}, d.Primary)
	require.Len(t, d.Notes, 2)
	assert.Contains(t, d.Notes[0].Msg, "Inner")

	d = layoutDiagnostic("x.toml", "Outer", errors.New("boom"))
	assert.Equal(t, diag.UnknownCode, d.Code)
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a, b := DigestString("a"), DigestString("b")
	assert.NotEqual(t, Combine(a, b), Combine(b, a))
	assert.False(t, Combine(a).IsZero())
}
