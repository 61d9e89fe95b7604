package main

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
	"layoutcalc/internal/manifest"
	"layoutcalc/internal/report"
	"layoutcalc/internal/types"
)

// builtinSamples is the reference set of declarations shown by `layoutcalc primitives`.
//
//go:embed samples.toml
var builtinSamples []byte

// sampleExprs are shown before the declared samples in pretty output.
var sampleExprs = []string{"bool", "u16", "usize", "char", "A", "B", "&mut B", "*mut B", "&str", "[usize; 3]"}

var primitivesCmd = &cobra.Command{
	Use:   "primitives",
	Short: "Show layouts of the built-in sample types",
	RunE: func(cmd *cobra.Command, args []string) error {
		triple, err := cmd.Flags().GetString("target")
		if err != nil {
			return err
		}
		target, ok := layout.LookupTarget(triple)
		if !ok {
			return fmt.Errorf("unknown target %q (see `layoutcalc targets`)", triple)
		}
		formatName, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}

		if format == report.FormatPretty {
			if err := writeSampleExprs(cmd.OutOrStdout(), target); err != nil {
				return err
			}
		}
		res := driver.RunSource(cmd.Context(), "builtin.toml", builtinSamples, driver.Options{
			Target:      target,
			ForceTarget: true,
			Logger:      logger,
		})
		if err := report.Write(cmd.OutOrStdout(), res, format, report.Options{Color: colorEnabled}); err != nil {
			return err
		}
		if res.HasErrors() {
			return errHasDiagnostics
		}
		return nil
	},
}

func init() {
	primitivesCmd.Flags().String("target", "", "target triple")
	primitivesCmd.Flags().String("format", "pretty", "output format (pretty|json|markdown)")
}

func writeSampleExprs(w io.Writer, target layout.Target) error {
	bag := diag.NewBag(16)
	file, err := manifest.Decode("builtin.toml", builtinSamples, diag.BagReporter{Bag: bag})
	if err != nil {
		return fmt.Errorf("built-in samples: %w", err)
	}
	eng := layout.New(target, file.Types)

	width := 0
	for _, src := range sampleExprs {
		width = max(width, runewidth.StringWidth(src))
	}
	fmt.Fprintf(w, "expressions (%s)\n", target.Triple)
	for _, src := range sampleExprs {
		fl, err := eng.LayoutOfExpr(types.MustParseExpr(src))
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		fmt.Fprintf(w, "  %s  size %2d  align %2d\n", runewidth.FillRight(src, width), fl.Size, fl.Align)
	}
	_, err = fmt.Fprintln(w)
	return err
}
