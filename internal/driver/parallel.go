package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"jasmc/internal/buildpipeline"
	"jasmc/internal/trace"
)

// UnitExt is the extension of unit descriptions.
const UnitExt = ".toml"

// ListUnits expands paths into a sorted, de-duplicated list of unit files.
// Directories are walked recursively for *.toml, skipping jasmc.toml.
func ListUnits(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if path == root {
				add(path)
				return nil
			}
			if strings.HasSuffix(path, UnitExt) && d.Name() != ManifestName {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// ManifestName is the project file that is never treated as a unit.
const ManifestName = "jasmc.toml"

// CompileAll compiles units in parallel. Results keep the order of paths.
// Units never share compiler state; the only cross-unit check is that two
// units of one call do not publish the same output file.
func CompileAll(ctx context.Context, paths []string, opts *Options) ([]*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if len(paths) == 0 {
		return nil, nil
	}
	ctx, span := trace.StartSpan(ctx, trace.ScopeDriver, "compile_all")
	defer span.End(fmt.Sprintf("%d units", len(paths)))

	shared := *opts
	if shared.claims == nil {
		shared.claims = newOutputClaims()
	}

	for _, p := range paths {
		buildpipeline.Emit(shared.Progress, buildpipeline.Event{Unit: p, Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := CompileFile(gctx, path, &shared)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
