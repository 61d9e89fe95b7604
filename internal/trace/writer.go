package trace

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// WriterTracer formats events onto an io.Writer through a buffer.
type WriterTracer struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	dst    io.Writer
	level  Level
	format Format
}

// NewWriter creates a tracer writing to w. FormatAuto means text.
func NewWriter(w io.Writer, level Level, format Format) *WriterTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &WriterTracer{buf: bufio.NewWriter(w), dst: w, level: level, format: format}
}

// Emit writes ev unless the level filters it. LevelError never streams.
func (t *WriterTracer) Emit(ev Event) {
	if t.level == LevelError || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// ошибки записи трассы не должны ронять прогон
	_, _ = t.buf.Write(FormatEvent(&ev, t.format))
}

func (t *WriterTracer) Level() Level { return t.level }

// Flush pushes buffered events to the destination.
func (t *WriterTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Flush()
}

// Close flushes and closes the destination unless it is a standard stream.
func (t *WriterTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if f, ok := t.dst.(*os.File); ok && (f == os.Stderr || f == os.Stdout) {
		return nil
	}
	if c, ok := t.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
