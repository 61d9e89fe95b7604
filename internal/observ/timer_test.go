package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	stop := tm.Start("load")
	time.Sleep(time.Millisecond)
	stop("2 files")
	stop("ignored")
	if err := tm.Measure("render", func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("Measure must return fn's error")
	}
	tm.Start("never closed")

	rep := tm.Report()
	if len(rep.Phases) != 2 {
		t.Fatalf("got %d phases, want 2: %+v", len(rep.Phases), rep.Phases)
	}
	if rep.Phases[0].Note != "2 files" || rep.Phases[1].Note != "failed" {
		t.Fatalf("unexpected notes: %+v", rep.Phases)
	}
	if rep.TotalMS < rep.Phases[0].DurationMS {
		t.Fatalf("total %.3f shorter than a phase %.3f", rep.TotalMS, rep.Phases[0].DurationMS)
	}
	s := tm.Summary()
	if !strings.Contains(s, "load") || !strings.Contains(s, "(2 files)") || !strings.Contains(s, "total") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Start("file")("")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 16 {
		t.Fatalf("got %d phases, want 16", got)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Start("x")("")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer records nothing")
	}
	if !strings.Contains(tm.Summary(), "total") {
		t.Fatalf("nil timer still renders a summary")
	}
}
