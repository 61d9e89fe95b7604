package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"layoutcalc/internal/driver"
)

// Format selects a renderer.
type Format string

const (
	FormatPretty   Format = "pretty"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatMsgpack  Format = "msgpack"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatJSON, FormatMarkdown, FormatMsgpack:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pretty|json|markdown|msgpack)", s)
	}
}

// Binary reports whether the format must not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatMsgpack
}

// Options tune the human-oriented renderers.
type Options struct {
	// Color enables ANSI colours in pretty output.
	Color bool
	// Styled renders markdown for a terminal instead of emitting raw markdown.
	Styled bool
	// Width is the terminal width used for wrapping; 0 means 80.
	Width int
	// ByteMapLimit caps the size of types drawn as a byte map; 0 means 64.
	ByteMapLimit int
}

// Write renders res to w.
func Write(w io.Writer, res *driver.Result, format Format, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.ByteMapLimit <= 0 {
		opts.ByteMapLimit = 64
	}
	switch format {
	case FormatPretty, "":
		return writePretty(w, res, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Build(res))
	case FormatMarkdown:
		return writeMarkdown(w, res, opts)
	case FormatMsgpack:
		data, err := msgpack.Marshal(Build(res))
		if err != nil {
			return fmt.Errorf("encode msgpack: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
