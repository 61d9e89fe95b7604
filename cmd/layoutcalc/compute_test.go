package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutcalc/internal/layout"
)

func TestParseStrategies(t *testing.T) {
	cases := map[string][]layout.Strategy{
		"":           nil,
		"auto":       nil,
		"default":    {layout.StrategyDefault},
		"C":          {layout.StrategySequential},
		"sequential": {layout.StrategySequential},
		"both":       {layout.StrategyDefault, layout.StrategySequential},
	}
	for in, want := range cases {
		got, err := parseStrategies(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseStrategies("packed")
	assert.Error(t, err)
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.toml", "notes.txt", projectConfigName} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.toml"), 0o755))

	single := filepath.Join(dir, "a.toml")
	got, err := expandInputs([]string{dir, single, "missing.toml"})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "b.yaml"), "missing.toml"}, got)

	_, err = expandInputs([]string{t.TempDir()})
	assert.Error(t, err)
}

func TestStringSetting(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", "", "")
	flags.String("format", "pretty", "")

	assert.Equal(t, "i686-linux-gnu", stringSetting(flags, "target", "i686-linux-gnu"))
	assert.Equal(t, "pretty", stringSetting(flags, "format", ""))

	require.NoError(t, flags.Parse([]string{"--target", "wasm32-unknown-unknown"}))
	assert.Equal(t, "wasm32-unknown-unknown", stringSetting(flags, "target", "i686-linux-gnu"))
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readUIMode("maybe")
	assert.Error(t, err)
	assert.True(t, shouldUseTUI(uiModeOn))
	assert.False(t, shouldUseTUI(uiModeOff))
}

func TestWriteSampleExprs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSampleExprs(&buf, layout.X86_64LinuxGNU()))
	out := buf.String()
	assert.Contains(t, out, "expressions (x86_64-linux-gnu)")
	assert.Regexp(t, `&str\s+size 16  align  8`, out)
	assert.Regexp(t, `\[usize; 3\]\s+size 24  align  8`, out)

	buf.Reset()
	require.NoError(t, writeSampleExprs(&buf, layout.I686LinuxGNU()))
	assert.Regexp(t, `usize\s+size  4  align  4`, buf.String())
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderVersionJSON(&buf, versionInfo{Version: "1.2.3", DefaultTarget: "x86_64-linux-gnu", CacheSchema: 1}))

	var got versionInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, versionInfo{Version: "1.2.3", DefaultTarget: "x86_64-linux-gnu", CacheSchema: 1}, got)
	assert.NotContains(t, buf.String(), "git_commit")
}

func TestCollectVersionInfo(t *testing.T) {
	short := collectVersionInfo(false)
	assert.Equal(t, layout.X86_64LinuxGNU().Triple, short.DefaultTarget)
	assert.NotZero(t, short.CacheSchema)
	assert.Empty(t, short.Targets)

	full := collectVersionInfo(true)
	assert.Len(t, full.Targets, len(layout.Targets()))
	assert.Equal(t, []string{"default", "sequential"}, full.Strategies)
	assert.NotEmpty(t, full.GitCommit)

	var buf bytes.Buffer
	renderVersionPretty(&buf, full, true)
	assert.Contains(t, buf.String(), "default target: "+full.DefaultTarget)
	assert.Contains(t, buf.String(), "wasm32-unknown-unknown")
}
