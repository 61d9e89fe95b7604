package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
	"layoutcalc/internal/version"
)

// versionInfo is what a build knows about itself: release metadata plus the
// layout capabilities compiled in.
type versionInfo struct {
	Version       string   `json:"version"`
	GitCommit     string   `json:"git_commit,omitempty"`
	BuildDate     string   `json:"build_date,omitempty"`
	DefaultTarget string   `json:"default_target"`
	Targets       []string `json:"targets,omitempty"`
	Strategies    []string `json:"strategies,omitempty"`
	CacheSchema   uint16   `json:"cache_schema"`
}

var (
	versionFormat string
	versionFull   bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "also show commit, build date, targets and strategies")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show layoutcalc build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := collectVersionInfo(versionFull)
		switch strings.ToLower(versionFormat) {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), info)
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), info, versionFull)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func collectVersionInfo(full bool) versionInfo {
	info := versionInfo{
		Version:       cmp.Or(strings.TrimSpace(version.Version), "dev"),
		DefaultTarget: layout.X86_64LinuxGNU().Triple,
		CacheSchema:   driver.CacheSchemaVersion(),
	}
	if !full {
		return info
	}
	info.GitCommit = cmp.Or(strings.TrimSpace(version.GitCommit), "unknown")
	info.BuildDate = cmp.Or(strings.TrimSpace(version.BuildDate), "unknown")
	for _, t := range layout.Targets() {
		info.Targets = append(info.Targets, t.Triple)
	}
	for _, s := range []layout.Strategy{layout.StrategyDefault, layout.StrategySequential} {
		info.Strategies = append(info.Strategies, s.String())
	}
	return info
}

func renderVersionPretty(out io.Writer, info versionInfo, full bool) {
	fmt.Fprintln(out, version.Line())
	fmt.Fprintf(out, "default target: %s\n", info.DefaultTarget)
	if !full {
		return
	}
	fmt.Fprintf(out, "commit:         %s\n", info.GitCommit)
	fmt.Fprintf(out, "built:          %s\n", info.BuildDate)
	fmt.Fprintf(out, "targets:        %s\n", strings.Join(info.Targets, ", "))
	fmt.Fprintf(out, "strategies:     %s\n", strings.Join(info.Strategies, ", "))
	fmt.Fprintf(out, "cache schema:   v%d\n", info.CacheSchema)
}

func renderVersionJSON(out io.Writer, info versionInfo) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
