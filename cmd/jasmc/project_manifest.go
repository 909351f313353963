package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"jasmc/internal/driver"
)

const noManifestMessage = "no jasmc.toml found\nplease name the units explicitly, e.g.:\n  jasmc build path/to/unit.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Build   buildConfig   `toml:"build"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type buildConfig struct {
	Units       []string `toml:"units"`
	OutDir      string   `toml:"out_dir"`
	MaxStack    int      `toml:"max_stack"`
	MaxLocals   int      `toml:"max_locals"`
	LabelPrefix string   `toml:"label_prefix"`
	Jobs        int      `toml:"jobs"`
	Cache       *bool    `toml:"cache"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, driver.ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	b := cfg.Build
	switch {
	case b.MaxStack < 0:
		return projectConfig{}, fmt.Errorf("%s: [build].max_stack must not be negative", path)
	case b.MaxLocals < 0:
		return projectConfig{}, fmt.Errorf("%s: [build].max_locals must not be negative", path)
	case b.Jobs < 0:
		return projectConfig{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	return cfg, nil
}

// unitPaths resolves [build].units against the manifest root; an empty list
// means every unit under the root.
func (m *projectManifest) unitPaths() []string {
	if len(m.Config.Build.Units) == 0 {
		return []string{m.Root}
	}
	out := make([]string, 0, len(m.Config.Build.Units))
	for _, u := range m.Config.Build.Units {
		out = append(out, m.resolve(u))
	}
	return out
}

func (m *projectManifest) outDir() string {
	if m.Config.Build.OutDir == "" {
		return ""
	}
	return m.resolve(m.Config.Build.OutDir)
}

func (m *projectManifest) cacheEnabled() bool {
	return m.Config.Build.Cache == nil || *m.Config.Build.Cache
}

func (m *projectManifest) resolve(rel string) string {
	p := filepath.FromSlash(strings.TrimSpace(rel))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
