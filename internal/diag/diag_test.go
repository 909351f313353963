package diag

import (
	"testing"
)

func TestFormatShortDiagnostics(t *testing.T) {
	unit := "/workspace/units/demo.toml"
	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaUninitRead,
			Message:  "read of x",
			Primary:  Location{File: unit, Index: 4, Path: "main/body[1]"},
		},
		NewError(SemaUnresolvedSymbol, Location{File: unit, Index: 2, Path: "fn add/body[0]"}, "first line\nsecond").
			WithNote(Location{File: unit, Index: 0, Path: "globals[0]"}, "did you mean y"),
	}

	expected := "note SEM3005 units/demo.toml:globals[0] did you mean y\n" +
		"error SEM3005 units/demo.toml:fn add/body[0] first line second\n" +
		"warning SEM3011 units/demo.toml:main/body[1] read of x"

	if got := FormatShortDiagnostics(diags, "/workspace", true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatShortDiagnostics(nil, "", true); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestBagLimitAndCounts(t *testing.T) {
	bag := NewBag(2)
	loc := Location{File: "a.toml", Index: 1}
	if !bag.Add(NewError(SemaTypeMismatch, loc, "one")) {
		t.Fatalf("first add rejected")
	}
	if !bag.Add(NewWarning(SemaUninitRead, loc, "two")) {
		t.Fatalf("second add rejected")
	}
	if bag.Add(NewError(SemaTypeMismatch, loc, "three")) {
		t.Fatalf("add past the limit accepted")
	}
	errs, warns := bag.Counts()
	if errs != 1 || warns != 1 || !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("unexpected counts errs=%d warns=%d", errs, warns)
	}
	if NewBag(-1).Cap() != 0 || NewBag(1<<20).Cap() != 65535 {
		t.Fatalf("limits outside uint16 must be clamped")
	}
}

func TestBagSortDedupMerge(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewWarning(SemaUninitRead, Location{File: "b.toml", Index: 0}, "w"))
	bag.Add(NewWarning(SemaUninitRead, Location{File: "a.toml", Index: 3}, "w"))
	bag.Add(NewError(SemaTypeMismatch, Location{File: "a.toml", Index: 3}, "e"))
	bag.Add(NewError(SemaDuplicateSymbol, Location{File: "a.toml", Index: 1}, "d"))
	bag.Add(NewError(SemaDuplicateSymbol, Location{File: "a.toml", Index: 1}, "d"))

	bag.Dedup()
	if bag.Len() != 4 {
		t.Fatalf("expected 4 diagnostics after dedup, got %d", bag.Len())
	}
	bag.Sort()
	want := []Code{SemaDuplicateSymbol, SemaTypeMismatch, SemaUninitRead, SemaUninitRead}
	for i, d := range bag.Items() {
		if d.Code != want[i] {
			t.Fatalf("item %d: got %s, want %s", i, d.Code.ID(), want[i].ID())
		}
	}
	if bag.Items()[3].Primary.File != "b.toml" {
		t.Fatalf("expected b.toml last, got %s", bag.Items()[3].Primary)
	}

	other := NewBag(5)
	other.Add(NewError(IOLoadFailed, Location{File: "c.toml"}, "gone"))
	small := NewBag(4)
	for _, d := range bag.Items() {
		small.Add(d)
	}
	small.Merge(other)
	if small.Len() != 5 || small.Cap() != 5 {
		t.Fatalf("merge must grow the limit, got len=%d cap=%d", small.Len(), small.Cap())
	}
}

func TestReportersDedupAndBuild(t *testing.T) {
	bag := NewBag(10)
	rep := NewDedupReporter(BagReporter{Bag: bag})
	loc := Location{File: "a.toml", Index: 2, Path: "main/body[2]"}

	ReportWarning(rep, SemaUninitRead, loc, "x is read before assignment").Emit()
	ReportWarning(rep, SemaUninitRead, loc, "x is read before assignment").Emit()
	b := ReportError(rep, SemaUnresolvedSymbol, loc, "z").WithNote(loc, "first use")
	b.Emit()
	b.Emit()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
	if got := bag.Items()[1]; len(got.Notes) != 1 || got.Code.ID() != "SEM3005" {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		UnitMalformed:       "UNT2001",
		SemaDuplicateSymbol: "SEM3002",
		GenLabelProtocol:    "GEN4001",
		IOLoadFailed:        "IO5001",
		ProjManifestInvalid: "PRJ6002",
		UnknownCode:         "E0000",
	}
	for c, want := range cases {
		if c.ID() != want {
			t.Errorf("code %d: got %s, want %s", c, c.ID(), want)
		}
	}
	if SemaTypeMismatch.String() != "[SEM3010]: Type mismatch" {
		t.Fatalf("unexpected String: %s", SemaTypeMismatch.String())
	}
}

func TestSeverityLabels(t *testing.T) {
	tests := []struct {
		sev   Severity
		str   string
		label string
		valid bool
	}{
		{SevInfo, "INFO", "info", true},
		{SevWarning, "WARNING", "warning", true},
		{SevError, "ERROR", "error", true},
		{Severity(9), "UNKNOWN", "info", false},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.str {
			t.Fatalf("String(%d) = %q, want %q", tt.sev, got, tt.str)
		}
		if got := tt.sev.Label(); got != tt.label {
			t.Fatalf("Label(%d) = %q, want %q", tt.sev, got, tt.label)
		}
		if got := tt.sev.Valid(); got != tt.valid {
			t.Fatalf("Valid(%d) = %v, want %v", tt.sev, got, tt.valid)
		}
	}
}
