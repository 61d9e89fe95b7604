package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"layoutcalc/internal/layout"
)

type targetPayload struct {
	Triple    string `json:"triple"`
	Default   bool   `json:"default,omitempty"`
	PtrSize   int    `json:"ptr_size"`
	PtrAlign  int    `json:"ptr_align"`
	I64Align  int    `json:"i64_align"`
	I128Align int    `json:"i128_align"`
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List supported target triples",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		def, _ := layout.LookupTarget("")
		targets := layout.Targets()

		switch format {
		case "json":
			payload := make([]targetPayload, 0, len(targets))
			for _, t := range targets {
				payload = append(payload, targetPayload{
					Triple:    t.Triple,
					Default:   t.Triple == def.Triple,
					PtrSize:   t.PtrSize,
					PtrAlign:  t.PtrAlign,
					I64Align:  t.I64Align,
					I128Align: t.I128Align,
				})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		case "pretty", "":
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}

		width := 0
		for _, t := range targets {
			width = max(width, runewidth.StringWidth(t.Triple))
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  ptr    i64  i128\n", runewidth.FillRight("triple", width))
		for _, t := range targets {
			name := runewidth.FillRight(t.Triple, width)
			if t.Triple == def.Triple {
				name = color.New(color.Bold).Sprint(name)
			}
			fmt.Fprintf(out, "%s  %d/%d  %3d  %4d\n", name, t.PtrSize, t.PtrAlign, t.I64Align, t.I128Align)
		}
		return nil
	},
}

func init() {
	targetsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}
