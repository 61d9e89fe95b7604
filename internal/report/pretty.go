package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/driver"
	"layoutcalc/internal/layout"
)

type palette struct {
	file, name, dim, err, warn, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		file: color.New(color.Bold),
		name: color.New(color.FgCyan, color.Bold),
		dim:  color.New(color.Faint),
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.file, p.name, p.dim, p.err, p.warn, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.note
	}
}

type row struct {
	name                string
	offset, size, align int
}

func writePretty(w io.Writer, res *driver.Result, opts Options) error {
	if res == nil {
		return nil
	}
	p := newPalette(opts.Color)
	var sb strings.Builder
	doc := Build(res)

	for i := range res.Files {
		fr := &res.Files[i]
		header := fr.Path
		var meta []string
		if fr.Target != "" {
			meta = append(meta, fr.Target)
		}
		if fr.Cached {
			meta = append(meta, "cached")
		}
		if len(meta) > 0 {
			header += " (" + strings.Join(meta, ", ") + ")"
		}
		sb.WriteString(p.file.Sprint(header))
		sb.WriteByte('\n')

		for _, tl := range fr.Types {
			writeType(&sb, p, tl, opts)
		}
		for _, d := range fr.Bag.Items() {
			writeDiagnostic(&sb, p, d)
		}
		sb.WriteByte('\n')
	}

	s := doc.Summary
	fmt.Fprintf(&sb, "%d %s in %d %s", s.Types, plural(s.Types, "layout"), s.Files, plural(s.Files, "file"))
	if s.Cached > 0 {
		fmt.Fprintf(&sb, " (%d cached)", s.Cached)
	}
	if s.Errors > 0 || s.Warnings > 0 {
		fmt.Fprintf(&sb, "; %s, %s",
			p.err.Sprintf("%d %s", s.Errors, plural(s.Errors, "error")),
			p.warn.Sprintf("%d %s", s.Warnings, plural(s.Warnings, "warning")))
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func writeType(sb *strings.Builder, p palette, tl driver.TypeLayout, opts Options) {
	l := tl.Layout
	kind := "struct"
	if tl.Kind == layout.KindTaggedUnion {
		kind = "enum"
	}
	fmt.Fprintf(sb, "  %s %s [%s]  size %d  align %d  padding %d\n",
		kind, p.name.Sprint(tl.Name), tl.Strategy, l.Size, l.Align, l.Padding(tl.Desc))

	rows := memberRows(tl)
	if len(rows) > 0 {
		width := runewidth.StringWidth("member")
		for _, r := range rows {
			width = max(width, runewidth.StringWidth(r.name))
		}
		fmt.Fprintf(sb, "    %s  %6s  %5s  %5s\n", p.dim.Sprint(runewidth.FillRight("member", width)), "offset", "size", "align")
		for _, r := range rows {
			off := "-"
			if r.offset >= 0 {
				off = fmt.Sprint(r.offset)
			}
			fmt.Fprintf(sb, "    %s  %6s  %5d  %5d\n", runewidth.FillRight(r.name, width), off, r.size, r.align)
		}
	}
	if l.Size > 0 && l.Size <= opts.ByteMapLimit {
		sb.WriteString("    ")
		sb.WriteString(colorPadding(p, ByteMap(tl)))
		sb.WriteByte('\n')
	}
}

// memberRows lists struct fields in memory order, or the tag and the variants
// of a tagged union. Variants share the payload offset.
func memberRows(tl driver.TypeLayout) []row {
	l := tl.Layout
	var rows []row
	switch tl.Kind {
	case layout.KindStruct:
		for i, f := range tl.Desc.Fields {
			r := row{name: memberName(f.Name, i), offset: -1, size: f.Size, align: f.Align}
			if i < len(l.FieldOffsets) {
				r.offset = l.FieldOffsets[i]
			}
			if i < len(l.FieldAligns) {
				r.align = l.FieldAligns[i]
			}
			rows = append(rows, r)
		}
		slices.SortStableFunc(rows, func(a, b row) int { return cmp.Compare(a.offset, b.offset) })
	case layout.KindTaggedUnion:
		if l.Tagged {
			rows = append(rows, row{name: "<tag>", offset: l.TagOffset, size: l.TagSize, align: l.TagAlign})
		}
		for i, v := range tl.Desc.Variants {
			rows = append(rows, row{name: memberName(v.Name, i), offset: l.PayloadOffset, size: v.Size, align: v.Align})
		}
	}
	return rows
}

func memberName(name string, idx int) string {
	if name == "" {
		return fmt.Sprintf("#%d", idx)
	}
	return name
}

// ByteMap draws one character per byte of the type, grouped by eight:
// struct fields get a letter by declaration index ('a', 'b', ...), a union's
// tag is 'T' and its payload 'P'. Padding is '.'.
func ByteMap(tl driver.TypeLayout) string {
	l := tl.Layout
	cells := make([]byte, l.Size)
	for i := range cells {
		cells[i] = '.'
	}
	fill := func(off, size int, c byte) {
		for i := off; i < off+size && i < len(cells); i++ {
			if i >= 0 {
				cells[i] = c
			}
		}
	}
	switch tl.Kind {
	case layout.KindStruct:
		for i, f := range tl.Desc.Fields {
			if i < len(l.FieldOffsets) {
				fill(l.FieldOffsets[i], f.Size, byte('a'+i%26))
			}
		}
	case layout.KindTaggedUnion:
		if l.Tagged {
			fill(l.TagOffset, l.TagSize, 'T')
		}
		fill(l.PayloadOffset, l.PayloadSize, 'P')
	}

	var sb strings.Builder
	for i, c := range cells {
		if i > 0 && i%8 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func colorPadding(p palette, m string) string {
	var sb strings.Builder
	for _, r := range m {
		if r == '.' {
			sb.WriteString(p.dim.Sprint("."))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func writeDiagnostic(sb *strings.Builder, p palette, d diag.Diagnostic) {
	sev := strings.ToLower(d.Severity.String())
	fmt.Fprintf(sb, "  %s %s", p.severity(d.Severity).Sprint(sev), d.Code.ID())
	if d.Primary.Type != "" {
		fmt.Fprintf(sb, " %s", d.Primary.Type)
		if d.Primary.Field != "" {
			fmt.Fprintf(sb, " (%s)", d.Primary.Field)
		}
	}
	fmt.Fprintf(sb, ": %s\n", d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(sb, "    %s %s\n", p.note.Sprint("note:"), n.Msg)
	}
}
