package diagfmt

import (
	"path/filepath"

	"jasmc/internal/diag"
)

func formatPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		base := baseDir
		if base == "" && mode == PathModeRelative {
			base = "."
		}
		if base != "" && filepath.IsAbs(path) != filepath.IsAbs(base) {
			if abs, err := filepath.Abs(base); err == nil {
				base = abs
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		return diag.RelativePath(path, base)
	}
	return filepath.ToSlash(path)
}

func formatLocation(loc diag.Location, mode PathMode, baseDir string) diag.Location {
	loc.File = formatPath(loc.File, mode, baseDir)
	return loc
}
