package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"jasmc/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the output cache and published .jasm files",
	Long: `Drop the output cache under $XDG_CACHE_HOME/jasmc. Inside a project the
.jasm files in [build].out_dir are removed as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	cacheOnly, err := cmd.Flags().GetBool("cache-only")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	cache, err := driver.OpenDiskCache(cacheAppName)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	if !quiet {
		fmt.Fprintf(out, "cleared cache %s\n", cache.Dir())
	}
	if cacheOnly {
		return nil
	}

	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	manifest, ok, err := loadProjectManifest(baseDir)
	if err != nil {
		return err
	}
	if !ok || manifest.outDir() == "" {
		if !quiet {
			fmt.Fprintln(out, "no [build].out_dir configured; outputs left in place")
		}
		return nil
	}
	removed, err := removeOutputs(manifest.outDir())
	if err != nil {
		return err
	}
	if !quiet {
		for _, p := range removed {
			fmt.Fprintf(out, "removed %s\n", formatPathForOutput(manifest.Root, p))
		}
	}
	return nil
}

// removeOutputs deletes *.jasm files directly inside dir.
func removeOutputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %q: %w", dir, err)
	}
	removed := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jasm") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			return sortedKeys(removed), fmt.Errorf("failed to remove %q: %w", p, err)
		}
		removed[p] = struct{}{}
	}
	return sortedKeys(removed), nil
}

func init() {
	cleanCmd.Flags().Bool("cache-only", false, "keep published .jasm files")
}
