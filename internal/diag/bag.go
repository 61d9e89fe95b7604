package diag

import (
	"cmp"
	"math"
	"slices"

	"fortio.org/safecast"
)

// Bag collects the diagnostics of one descriptor file up to a limit.
// A nil *Bag reads as empty.
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag creates a bag holding at most limit diagnostics, clamped to [0, 65535].
func NewBag(limit int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(max(limit, 0), 64)),
		max:   clampLimit(limit),
	}
}

func clampLimit(n int) uint16 {
	v, err := safecast.Conv[uint16](n)
	switch {
	case err == nil:
		return v
	case n < 0:
		return 0
	default:
		return math.MaxUint16
	}
}

// Add appends d and reports false once the limit is reached.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 { return b.max }

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

func (b *Bag) HasErrors() bool   { return b.worst() >= SevError }
func (b *Bag) HasWarnings() bool { return b.worst() >= SevWarning }

func (b *Bag) worst() Severity {
	if b.Len() == 0 {
		return SevInfo
	}
	return slices.MaxFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Compare(x.Severity, y.Severity)
	}).Severity
}

// Merge appends other's diagnostics, raising the limit so none are lost
// unless the total exceeds 65535.
func (b *Bag) Merge(other *Bag) {
	if other.Len() == 0 {
		return
	}
	b.max = max(b.max, clampLimit(len(b.items)+len(other.items)))
	room := int(b.max) - len(b.items)
	b.items = append(b.items, other.items[:min(room, len(other.items))]...)
}

// Sort orders by file, type, severity (worst first), then code.
func (b *Bag) Sort() {
	if b == nil {
		return
	}
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Type, y.Primary.Type),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup drops repeats, keeping the first occurrence.
func (b *Bag) Dedup() {
	if b == nil {
		return
	}
	seen := make(map[identity]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		id := d.identity()
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		return false
	})
}
