package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"layoutcalc/internal/layout"
	"layoutcalc/internal/report"
)

const projectConfigName = "layoutcalc.toml"

type projectConfig struct {
	Path     string         `toml:"-"`
	Defaults defaultsConfig `toml:"defaults"`
	Cache    cacheConfig    `toml:"cache"`
}

type defaultsConfig struct {
	Target   string `toml:"target"`
	Strategy string `toml:"strategy"`
	Format   string `toml:"format"`
	Jobs     int    `toml:"jobs"`
}

type cacheConfig struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func findProjectConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, projectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadNearestProjectConfig returns the zero config when no layoutcalc.toml
// exists above startDir.
func loadNearestProjectConfig(startDir string) (projectConfig, error) {
	path, ok, err := findProjectConfig(startDir)
	if err != nil || !ok {
		return projectConfig{}, err
	}
	return loadProjectConfig(path)
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return projectConfig{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path

	d := cfg.Defaults
	if meta.IsDefined("defaults", "target") {
		if _, ok := layout.LookupTarget(d.Target); !ok {
			return projectConfig{}, fmt.Errorf("%s: [defaults].target: unknown target %q", path, d.Target)
		}
	}
	if meta.IsDefined("defaults", "strategy") {
		if _, err := parseStrategies(d.Strategy); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [defaults].strategy: %w", path, err)
		}
	}
	if meta.IsDefined("defaults", "format") {
		if _, err := report.ParseFormat(d.Format); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [defaults].format: %w", path, err)
		}
	}
	if d.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [defaults].jobs must not be negative", path)
	}
	if dir := strings.TrimSpace(cfg.Cache.Dir); dir != "" && !filepath.IsAbs(dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), filepath.FromSlash(dir))
	}
	return cfg, nil
}

func (c projectConfig) cacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}
