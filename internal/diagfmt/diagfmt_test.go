package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"jasmc/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	primary := diag.Location{File: "/home/user/project/src/test.toml", Index: 3, Path: "main/body[0]"}
	bag.Add(diag.NewError(diag.SemaUnresolvedSymbol, primary, "undeclared identifier: \"x\"").
		WithNote(diag.Location{File: primary.File, Index: 1, Path: "globals[1]"}, "similar name \"y\" declared here"))
	bag.Add(diag.NewWarning(diag.SemaUninitRead, diag.Location{File: primary.File, Index: 4, Path: "main/body[1]"}, "variable \"a\" is read before it is assigned"))
	return bag
}

func TestPrettyPathModes(t *testing.T) {
	bag := sampleBag()
	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/src/test.toml:main/body[0]"},
		{"relative", PathModeRelative, "src/test.toml:main/body[0]"},
		{"basename", PathModeBasename, "test.toml:main/body[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
			out := buf.String()
			if !strings.Contains(out, tt.contains) {
				t.Fatalf("expected %q in:\n%s", tt.contains, out)
			}
			if !strings.Contains(out, "ERROR SEM3005") || !strings.Contains(out, "WARNING SEM3011") {
				t.Fatalf("missing severity or code:\n%s", out)
			}
			if strings.Contains(out, "note:") {
				t.Fatalf("notes printed without ShowNotes:\n%s", out)
			}
		})
	}
}

func TestPrettyNotesSummaryAndWidth(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, sampleBag(), PrettyOpts{
		PathMode:  PathModeBasename,
		ShowNotes: true,
		Summary:   true,
		Width:     12,
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "  note: ") || !strings.Contains(lines[1], "test.toml:globals[1]") {
		t.Fatalf("unexpected note line %q", lines[1])
	}
	if !strings.HasSuffix(lines[0], "undeclared …") {
		t.Fatalf("message not clipped: %q", lines[0])
	}
	if lines[3] != "1 error, 1 warning" {
		t.Fatalf("unexpected summary %q", lines[3])
	}
}

func TestPrettyColor(t *testing.T) {
	var plain, colored bytes.Buffer
	Pretty(&plain, sampleBag(), PrettyOpts{})
	Pretty(&colored, sampleBag(), PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output contains escapes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escapes")
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || out.Errors != 1 || out.Warnings != 1 {
		t.Fatalf("unexpected counts %+v", out)
	}
	first := out.Diagnostics[0]
	if first.Severity != "ERROR" || first.Code != "SEM3005" || first.Location.File != "test.toml" || first.Location.Index != 3 {
		t.Fatalf("unexpected first diagnostic %+v", first)
	}
	if len(first.Notes) != 1 || first.Notes[0].Location.Path != "globals[1]" {
		t.Fatalf("unexpected notes %+v", first.Notes)
	}

	buf.Reset()
	if err := JSON(&buf, sampleBag(), JSONOpts{Max: 1}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	out = DiagnosticsOutput{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 1 || out.Diagnostics[0].Notes != nil {
		t.Fatalf("Max/IncludeNotes ignored: %+v", out)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "jasmc", ToolVersion: "0.1.0", InvocationArgs: []string{"check", "a.toml"}}
	if err := Sarif(&buf, sampleBag(), meta); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Invocations []struct {
				ExecutionSuccessful bool `json:"executionSuccessful"`
			} `json:"invocations"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					LogicalLocations []struct {
						FullyQualifiedName string `json:"fullyQualifiedName"`
					} `json:"logicalLocations"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "jasmc" || len(run.Tool.Driver.Rules) != 2 || run.Tool.Driver.Rules[0].ID != "SEM3005" {
		t.Fatalf("unexpected driver %+v", run.Tool.Driver)
	}
	if len(run.Invocations) != 1 || run.Invocations[0].ExecutionSuccessful {
		t.Fatalf("invocation must report failure: %+v", run.Invocations)
	}
	if len(run.Results) != 2 || run.Results[1].Level != "warning" || run.Results[0].Locations[0].LogicalLocations[0].FullyQualifiedName != "main/body[0]" {
		t.Fatalf("unexpected results %+v", run.Results)
	}
}
