package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
)

func writeMarkdown(w io.Writer, res *driver.Result, opts Options) error {
	md := Markdown(res)
	if !opts.Styled {
		_, err := io.WriteString(w, md)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(opts.Width),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Markdown renders res as a GitHub-flavoured markdown document.
func Markdown(res *driver.Result) string {
	var sb strings.Builder
	sb.WriteString("# Layout report\n")
	if res == nil {
		return sb.String()
	}

	for i := range res.Files {
		fr := &res.Files[i]
		fmt.Fprintf(&sb, "\n## `%s`", fr.Path)
		if fr.Target != "" {
			fmt.Fprintf(&sb, " (%s)", fr.Target)
		}
		sb.WriteString("\n")

		for _, tl := range fr.Types {
			l := tl.Layout
			kind := "struct"
			if tl.Kind == layout.KindTaggedUnion {
				kind = "enum"
			}
			fmt.Fprintf(&sb, "\n### %s `%s` (%s)\n\n", kind, tl.Name, tl.Strategy)
			fmt.Fprintf(&sb, "Size **%d**, align **%d**, padding %d.\n\n", l.Size, l.Align, l.Padding(tl.Desc))

			rows := memberRows(tl)
			if len(rows) == 0 {
				continue
			}
			sb.WriteString("| Member | Offset | Size | Align |\n|---|---:|---:|---:|\n")
			for _, r := range rows {
				fmt.Fprintf(&sb, "| %s | %d | %d | %d |\n", escapeCell(r.name), r.offset, r.size, r.align)
			}
		}
	}

	bag := res.Diagnostics()
	if bag.Len() > 0 {
		sb.WriteString("\n## Diagnostics\n\n")
		for _, d := range bag.Items() {
			fmt.Fprintf(&sb, "- **%s** `%s` %s: %s\n",
				strings.ToLower(d.Severity.String()), d.Code.ID(), d.Primary.String(), d.Message)
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "<", "&lt;", ">", "&gt;").Replace(s)
}
