package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"layoutcalc/internal/prof"
	"layoutcalc/internal/version"
)

// errHasDiagnostics signals that the run printed error diagnostics. It only
// sets the exit code.
var errHasDiagnostics = errors.New("layout errors reported")

var (
	logger       = zap.NewNop()
	traceCleanup func(failed bool)
	profSession  *prof.Session
	colorEnabled bool
)

var rootCmd = &cobra.Command{
	Use:   "layoutcalc",
	Short: "Type layout calculator",
	Long: `layoutcalc computes the size, alignment and field offsets of struct and
tagged-union declarations under the default (reordering) and sequential
(C-compatible) layout strategies.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		colorMode, err := root.PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		colorEnabled, err = resolveColor(colorMode)
		if err != nil {
			return err
		}
		color.NoColor = !colorEnabled

		quiet, err := root.PersistentFlags().GetBool("quiet")
		if err != nil {
			return err
		}
		levelName, err := root.PersistentFlags().GetString("log-level")
		if err != nil {
			return err
		}
		logger, err = newLogger(levelName, quiet)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		traceCleanup, err = setupTracing(cmd)
		if err != nil {
			return err
		}
		profSession, err = setupProfiling(cmd)
		return err
	},
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(primitivesCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 256, "maximum number of diagnostics kept per file")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to this file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace output format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if perr := profSession.Stop(); perr != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", perr)
	}
	if traceCleanup != nil {
		traceCleanup(err != nil)
	}
	_ = logger.Sync()

	if err != nil {
		if !errors.Is(err, errHasDiagnostics) {
			fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func resolveColor(mode string) (bool, error) {
	switch mode {
	case "", "auto":
		return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "", nil
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}
