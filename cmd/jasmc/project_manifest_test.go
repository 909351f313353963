package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "jasmc.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadProjectManifestFromSubdir(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[package]
name = "demo"

[build]
units = ["src", "extra/one.toml"]
out_dir = "out"
max_stack = 32
label_prefix = "M"
cache = false
`)
	sub := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := loadProjectManifest(sub)
	if err != nil || !ok {
		t.Fatalf("loadProjectManifest: ok=%v err=%v", ok, err)
	}
	wantRoot, err := filepath.Abs(root)
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if m.Root != wantRoot {
		t.Fatalf("root = %q, want %q", m.Root, wantRoot)
	}
	units := m.unitPaths()
	want := []string{filepath.Join(wantRoot, "src"), filepath.Join(wantRoot, "extra", "one.toml")}
	if len(units) != len(want) {
		t.Fatalf("units = %v, want %v", units, want)
	}
	for i := range want {
		if units[i] != want[i] {
			t.Fatalf("units[%d] = %q, want %q", i, units[i], want[i])
		}
	}
	if got := m.outDir(); got != filepath.Join(wantRoot, "out") {
		t.Fatalf("outDir = %q", got)
	}
	if m.cacheEnabled() {
		t.Fatalf("cache should be disabled")
	}
	if m.Config.Build.MaxStack != 32 || m.Config.Build.LabelPrefix != "M" {
		t.Fatalf("build config = %+v", m.Config.Build)
	}
}

func TestLoadProjectManifestDefaults(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	m, ok, err := loadProjectManifest(root)
	if err != nil || !ok {
		t.Fatalf("loadProjectManifest: ok=%v err=%v", ok, err)
	}
	if units := m.unitPaths(); len(units) != 1 || units[0] != m.Root {
		t.Fatalf("units = %v, want [%s]", units, m.Root)
	}
	if m.outDir() != "" {
		t.Fatalf("outDir = %q, want empty", m.outDir())
	}
	if !m.cacheEnabled() {
		t.Fatalf("cache should default to enabled")
	}
}

func TestLoadProjectConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no package", "[build]\njobs = 2\n", "missing [package]"},
		{"no name", "[package]\n", "missing [package].name"},
		{"unknown key", "[package]\nname = \"x\"\n[build]\nopt_level = 2\n", "unknown key build.opt_level"},
		{"negative stack", "[package]\nname = \"x\"\n[build]\nmax_stack = -1\n", "max_stack must not be negative"},
		{"negative jobs", "[package]\nname = \"x\"\n[build]\njobs = -4\n", "jobs must not be negative"},
		{"bad toml", "[package\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := loadProjectConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("readUIMode(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadColorModeExplicit(t *testing.T) {
	if on, err := readColorMode("on"); err != nil || !on {
		t.Fatalf("on: %v %v", on, err)
	}
	if on, err := readColorMode("off"); err != nil || on {
		t.Fatalf("off: %v %v", on, err)
	}
	if _, err := readColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid color mode")
	}
}

func TestRemoveOutputsOnlyTouchesJasm(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A.jasm", "B.jasm", "keep.toml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	removed, err := removeOutputs(dir)
	if err != nil {
		t.Fatalf("removeOutputs: %v", err)
	}
	if len(removed) != 2 || filepath.Base(removed[0]) != "A.jasm" || filepath.Base(removed[1]) != "B.jasm" {
		t.Fatalf("removed = %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.toml")); err != nil {
		t.Fatalf("keep.toml should survive: %v", err)
	}
	if removed, err := removeOutputs(filepath.Join(dir, "missing")); err != nil || len(removed) != 0 {
		t.Fatalf("missing dir: %v %v", removed, err)
	}
}
