package diag

// Reporter принимает диагностики от загрузчика и движка раскладки.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter пишет в *Bag; nil Bag молча отбрасывает всё.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// DedupReporter forwards each distinct diagnostic once.
type DedupReporter struct {
	next Reporter
	seen map[identity]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[identity]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	id := d.identity()
	if _, dup := r.seen[id]; dup {
		return
	}
	r.seen[id] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}

func ReportError(r Reporter, code Code, primary Location, msg string) {
	if r != nil {
		r.Report(NewError(code, primary, msg))
	}
}

func ReportWarning(r Reporter, code Code, primary Location, msg string) {
	if r != nil {
		r.Report(NewWarning(code, primary, msg))
	}
}
