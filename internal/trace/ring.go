package trace

import (
	"io"
	"sync"
)

// Ring keeps the most recent events in memory so they can be dumped when a
// run fails.
type Ring struct {
	mu     sync.Mutex
	events []Event
	start  int // index of the oldest event once the ring is full
	level  Level
}

// NewRing creates a Ring holding up to capacity events.
func NewRing(capacity int, level Level) *Ring {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Ring{events: make([]Event, 0, capacity), level: level}
}

func (r *Ring) Emit(ev Event) {
	if !r.level.ShouldEmit(ev.Scope) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) < cap(r.events) {
		r.events = append(r.events, ev)
		return
	}
	r.events[r.start] = ev
	r.start = (r.start + 1) % len(r.events)
}

// Events returns the kept events, oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.start:]...)
	return append(out, r.events[:r.start]...)
}

// Dump writes the kept events to w.
func (r *Ring) Dump(w io.Writer, format Format) error {
	events := r.Events()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) Level() Level { return r.level }
func (r *Ring) Close() error { return nil }

type tee struct {
	level   Level
	tracers []Tracer
}

// Tee fans events out to every tracer.
func Tee(level Level, tracers ...Tracer) Tracer {
	return &tee{level: level, tracers: tracers}
}

func (t *tee) Emit(ev Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *tee) Level() Level { return t.level }

func (t *tee) Close() error {
	var first error
	for _, tr := range t.tracers {
		if err := tr.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RingOf finds the Ring behind t, looking through Tee.
func RingOf(t Tracer) *Ring {
	switch tt := t.(type) {
	case *Ring:
		return tt
	case *tee:
		for _, tr := range tt.tracers {
			if r := RingOf(tr); r != nil {
				return r
			}
		}
	}
	return nil
}
