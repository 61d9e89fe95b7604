package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
	"layoutcalc/internal/manifest"
	"layoutcalc/internal/observ"
	"layoutcalc/internal/report"
)

var computeCmd = &cobra.Command{
	Use:   "compute [files or directories...]",
	Short: "Lay out every type declared in descriptor files",
	Long: `Lay out every type declared in TOML or YAML descriptor files.

Directories are expanded to the .toml, .yaml and .yml files they contain.
Defaults come from the nearest layoutcalc.toml; flags override them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompute,
}

func init() {
	f := computeCmd.Flags()
	f.String("strategy", "auto", "layout strategy (auto|default|sequential|both)")
	f.String("target", "", "target triple for files that name none (see `layoutcalc targets`)")
	f.Bool("force-target", false, "use --target even when a file names its own target")
	f.String("format", "pretty", "output format (pretty|json|markdown|msgpack)")
	f.StringP("output", "o", "", "write the report to this file instead of stdout")
	f.IntP("jobs", "j", 0, "files processed in parallel (0 = GOMAXPROCS)")
	f.Bool("cache", true, "reuse layouts from the disk cache")
	f.Bool("no-cache", false, "disable the disk cache")
	f.String("cache-dir", "", "disk cache directory (default $XDG_CACHE_HOME/layoutcalc)")
	f.Bool("refresh-cache", false, "drop cached layouts before running")
	f.String("ui", "auto", "progress UI (auto|on|off)")
	f.Bool("watch", false, "recompute whenever an input file changes")
}

type computeSettings struct {
	files          []string
	strategies     []layout.Strategy
	target         layout.Target
	forceTarget    bool
	format         report.Format
	output         string
	jobs           int
	maxDiagnostics int
	cache          *driver.DiskCache
	ui             uiMode
	watch          bool
	timings        bool
}

func runCompute(cmd *cobra.Command, args []string) error {
	timer := observ.NewTimer()
	var s computeSettings
	err := timer.Measure("config", func() error {
		var err error
		s, err = resolveComputeSettings(cmd, args)
		return err
	})
	if err != nil {
		return err
	}

	if s.watch {
		return watchAndCompute(cmd.Context(), cmd, s)
	}

	failed, err := computeOnce(cmd.Context(), cmd, s, timer)
	if s.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if err != nil {
		return err
	}
	if failed {
		return errHasDiagnostics
	}
	return nil
}

// computeOnce runs the driver and renders the report. It reports whether any
// error diagnostic was produced.
func computeOnce(ctx context.Context, cmd *cobra.Command, s computeSettings, timer *observ.Timer) (bool, error) {
	opts := driver.Options{
		Target:         s.target,
		ForceTarget:    s.forceTarget,
		Strategies:     s.strategies,
		Jobs:           s.jobs,
		MaxDiagnostics: s.maxDiagnostics,
		Cache:          s.cache,
		Logger:         logger,
		Timer:          timer,
	}

	var res *driver.Result
	err := timer.Measure("compute", func() error {
		var err error
		if !s.watch && shouldUseTUI(s.ui) {
			res, err = runWithUI(ctx, "layoutcalc compute", s.files, opts)
		} else {
			res, err = driver.Run(ctx, s.files, opts)
		}
		return err
	})
	if err != nil {
		return false, err
	}

	err = timer.Measure("render", func() error {
		return renderReport(cmd, res, s)
	})
	return res.HasErrors(), err
}

func renderReport(cmd *cobra.Command, res *driver.Result, s computeSettings) error {
	var out io.Writer = cmd.OutOrStdout()
	toStdout := s.output == "" || s.output == "-"
	if toStdout {
		if s.format.Binary() && isTerminal(os.Stdout) {
			return fmt.Errorf("refusing to write %s to a terminal; use --output", s.format)
		}
	} else {
		f, err := os.Create(s.output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		out = f
	}

	opts := report.Options{
		Color:  colorEnabled && toStdout,
		Styled: toStdout && isTerminal(os.Stdout),
		Width:  terminalWidth(os.Stdout),
	}
	if err := report.Write(out, res, s.format, opts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if f, ok := out.(*os.File); ok && !toStdout {
		return f.Sync()
	}
	return nil
}

func resolveComputeSettings(cmd *cobra.Command, args []string) (computeSettings, error) {
	var s computeSettings
	cfg, err := loadNearestProjectConfig(".")
	if err != nil {
		return s, err
	}
	if cfg.Path != "" {
		logger.Debug("project config loaded", zap.String("path", cfg.Path))
	}
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if s.files, err = expandInputs(args); err != nil {
		return s, err
	}

	if s.strategies, err = parseStrategies(stringSetting(flags, "strategy", cfg.Defaults.Strategy)); err != nil {
		return s, err
	}

	triple := stringSetting(flags, "target", cfg.Defaults.Target)
	target, ok := layout.LookupTarget(triple)
	if !ok {
		return s, fmt.Errorf("unknown target %q (see `layoutcalc targets`)", triple)
	}
	s.target = target
	if s.forceTarget, err = flags.GetBool("force-target"); err != nil {
		return s, err
	}

	if s.format, err = report.ParseFormat(stringSetting(flags, "format", cfg.Defaults.Format)); err != nil {
		return s, err
	}
	if s.output, err = flags.GetString("output"); err != nil {
		return s, err
	}

	if s.jobs, err = flags.GetInt("jobs"); err != nil {
		return s, err
	}
	if !flags.Changed("jobs") && cfg.Defaults.Jobs > 0 {
		s.jobs = cfg.Defaults.Jobs
	}
	if s.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return s, err
	}

	uiValue, err := flags.GetString("ui")
	if err != nil {
		return s, err
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return s, err
	}
	if s.watch, err = flags.GetBool("watch"); err != nil {
		return s, err
	}
	if s.timings, err = root.GetBool("timings"); err != nil {
		return s, err
	}

	s.cache, err = openCache(flags, cfg)
	return s, err
}

// stringSetting prefers an explicitly set flag, then the project config, then the flag default.
func stringSetting(flags *pflag.FlagSet, name, fromConfig string) string {
	value, _ := flags.GetString(name)
	if flags.Changed(name) || strings.TrimSpace(fromConfig) == "" {
		return value
	}
	return fromConfig
}

func openCache(flags *pflag.FlagSet, cfg projectConfig) (*driver.DiskCache, error) {
	enabled := cfg.cacheEnabled()
	if flags.Changed("cache") {
		enabled, _ = flags.GetBool("cache")
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		enabled = false
	}
	if !enabled {
		return nil, nil
	}

	dir := stringSetting(flags, "cache-dir", cfg.Cache.Dir)
	if dir == "" {
		var err error
		if dir, err = driver.DefaultCacheDir("layoutcalc"); err != nil {
			logger.Warn("disk cache disabled", zap.Error(err))
			return nil, nil
		}
	}
	cache, err := driver.OpenDiskCache(dir)
	if err != nil {
		logger.Warn("disk cache disabled", zap.String("dir", dir), zap.Error(err))
		return nil, nil
	}
	if refresh, _ := flags.GetBool("refresh-cache"); refresh {
		if err := cache.DropAll(); err != nil {
			return nil, fmt.Errorf("refresh cache: %w", err)
		}
		logger.Info("disk cache cleared", zap.String("dir", dir))
	}
	return cache, nil
}

// parseStrategies maps a --strategy value to the driver's strategy list.
// "auto" (nil) lets each declaration use its own repr.
func parseStrategies(value string) ([]layout.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return nil, nil
	case "both":
		return []layout.Strategy{layout.StrategyDefault, layout.StrategySequential}, nil
	}
	s, err := layout.ParseStrategy(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --strategy value %q (expected auto|default|sequential|both)", value)
	}
	return []layout.Strategy{s}, nil
}

// expandInputs replaces directories with the descriptor files they contain.
// Missing paths are kept so the driver reports them.
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			files = append(files, filepath.Clean(arg))
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || e.Name() == projectConfigName {
				continue
			}
			if manifest.DetectFormat(e.Name()) == manifest.FormatUnknown {
				continue
			}
			files = append(files, filepath.Join(arg, e.Name()))
		}
	}
	seen := make(map[string]bool, len(files))
	files = slices.DeleteFunc(files, func(p string) bool {
		if seen[p] {
			return true
		}
		seen[p] = true
		return false
	})
	if len(files) == 0 {
		return nil, fmt.Errorf("no descriptor files found in %s", strings.Join(args, ", "))
	}
	return files, nil
}
