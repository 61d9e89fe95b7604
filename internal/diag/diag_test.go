package diag

import (
	"testing"
)

func TestFormatShort(t *testing.T) {
	diags := []Diagnostic{
		NewError(LayRecursiveUnsized, Location{File: "shapes.toml", Type: "Node"}, "cycle: Node -> Node\nsecond").
			WithNote("place the field behind a pointer"),
		NewWarning(ManUnknownKey, Location{File: "shapes.toml"}, "unknown key type.0.colour"),
	}

	expected := "error LAY2002 shapes.toml:Node cycle: Node -> Node second\n" +
		"note LAY2002 shapes.toml:Node place the field behind a pointer\n" +
		"warning MAN1002 shapes.toml unknown key type.0.colour"

	if got := FormatShort(diags, true); got != expected {
		t.Fatalf("unexpected diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(3)
	loc := Location{File: "b.toml", Type: "T"}
	b.Add(NewWarning(ManUnknownKey, loc, "x"))
	b.Add(NewError(LayUnsized, loc, "y"))
	b.Add(NewError(LayUnsized, loc, "y"))
	if b.Add(NewError(LayUnsized, Location{File: "a.toml"}, "z")) {
		t.Fatalf("bag should be full")
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("dedup left %d items, want 2", b.Len())
	}
	b.Sort()
	if b.Items()[0].Severity != SevError {
		t.Fatalf("errors should sort before warnings: %+v", b.Items())
	}

	other := NewBag(2)
	other.Add(NewError(IOLoadFileError, Location{File: "a.toml"}, "missing"))
	b.Merge(other)
	b.Sort()
	if b.Len() != 3 || b.Items()[0].Primary.File != "a.toml" {
		t.Fatalf("merge/sort mismatch: %+v", b.Items())
	}
}

func TestNewBagClampsLimit(t *testing.T) {
	if got := NewBag(1 << 20).Cap(); got != 65535 {
		t.Fatalf("cap = %d, want 65535", got)
	}
	if got := NewBag(-1).Cap(); got != 0 {
		t.Fatalf("cap = %d, want 0", got)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	for range 3 {
		ReportError(r, ManDuplicateType, Location{File: "x.toml", Type: "A"}, "A declared twice")
	}
	ReportWarning(r, ManUnknownKey, Location{File: "x.toml"}, "extra")
	if bag.Len() != 2 {
		t.Fatalf("got %d diagnostics, want 2", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		ManSyntax:            "MAN1001",
		LayInvalidDescriptor: "LAY2001",
		IOLoadFileError:      "IO3001",
		ObsTimings:           "OBS4001",
		UnknownCode:          "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d: got %s, want %s", code, got, want)
		}
	}
	if Code(9999).Title() != "Unknown error" {
		t.Fatalf("unknown codes fall back to the generic title")
	}
}

func TestWithNoteCopies(t *testing.T) {
	base := NewError(LayUnsized, Location{File: "a.toml", Type: "S"}, "str has no static size").WithNote("first")
	a := base.WithNote("a")
	b := base.WithNote("b")
	if len(base.Notes) != 1 || a.Notes[1].Msg != "a" || b.Notes[1].Msg != "b" {
		t.Fatalf("notes share storage: base=%v a=%v b=%v", base.Notes, a.Notes, b.Notes)
	}
}

func TestNilBagIsEmpty(t *testing.T) {
	var b *Bag
	if b.Len() != 0 || b.HasErrors() || b.HasWarnings() || b.Items() != nil {
		t.Fatalf("nil bag should read as empty")
	}
	b.Sort()
	b.Dedup()
}

func TestLocationAndSeverityStrings(t *testing.T) {
	cases := map[Location]string{
		{File: "a.toml"}:                          "a.toml",
		{File: "a.toml", Type: "S"}:               "a.toml:S",
		{File: "a.toml", Type: "S", Field: "x"}:   "a.toml:S (x)",
		{Type: "S"}:                               "S",
	}
	for loc, want := range cases {
		if got := loc.String(); got != want {
			t.Errorf("%+v: got %q, want %q", loc, got, want)
		}
	}
	if SevWarning.String() != "WARNING" || Severity(7).String() != "UNKNOWN" {
		t.Fatalf("unexpected severity names")
	}
}
