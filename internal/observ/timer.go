// Package observ measures the phases of a layoutcalc run for --timings.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer collects phase durations. Phases may overlap: the driver times
// every file from its own worker goroutine.
type Timer struct {
	mu     sync.Mutex
	phases []phase
}

type phase struct {
	name  string
	start time.Time
	end   time.Time
	note  string
}

func NewTimer() *Timer { return &Timer{} }

// Start opens a phase. Calling the returned func closes it with a note;
// only the first call counts. A nil Timer hands out a no-op.
func (t *Timer) Start(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name, start: time.Now()})
	t.mu.Unlock()

	var once sync.Once
	return func(note string) {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.phases[idx].end = time.Now()
			t.phases[idx].note = note
		})
	}
}

// Measure times fn; a failing fn leaves the note "failed".
func (t *Timer) Measure(name string, fn func() error) error {
	stop := t.Start(name)
	err := fn()
	if err != nil {
		stop("failed")
	} else {
		stop("")
	}
	return err
}

// PhaseReport is one closed phase in milliseconds.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report summarises the timer. TotalMS is wall-clock time from the first
// start to the last end, not the sum of overlapping phases.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report lists closed phases in start order; open ones are skipped.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var rep Report
	var first, last time.Time
	for _, p := range t.phases {
		if p.end.IsZero() {
			continue
		}
		if first.IsZero() || p.start.Before(first) {
			first = p.start
		}
		if p.end.After(last) {
			last = p.end
		}
		rep.Phases = append(rep.Phases, PhaseReport{Name: p.name, DurationMS: millis(p.end.Sub(p.start)), Note: p.note})
	}
	if len(rep.Phases) > 0 {
		rep.TotalMS = millis(last.Sub(first))
	}
	return rep
}

// Summary renders the report for a terminal.
func (t *Timer) Summary() string {
	rep := t.Report()
	width := len("total")
	for _, p := range rep.Phases {
		width = max(width, len(p.Name))
	}
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range rep.Phases {
		fmt.Fprintf(&sb, "  %-*s %8.2f ms", width, p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(&sb, "  (%s)", p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-*s %8.2f ms\n", width, "total", rep.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
