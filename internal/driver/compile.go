package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jasmc/internal/buildpipeline"
	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/trace"
	"jasmc/internal/unit"
)

// CompileFile loads the unit at path and compiles it. Problems with the unit
// itself are reported in Result.Bag; the error return is reserved for
// cancellation.
func CompileFile(ctx context.Context, path string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	start := time.Now()
	ctx, span := trace.StartSpan(ctx, trace.ScopeUnit, "unit:"+filepath.Base(path))
	defer span.End("")

	buildpipeline.Emit(opts.Progress, buildpipeline.Event{Unit: path, Stage: buildpipeline.StageLoad, Status: buildpipeline.StatusWorking})
	done := opts.Timer.Track("load " + filepath.Base(path))
	u, err := unit.Load(path)
	done("")
	if err != nil {
		res := &Result{Path: path, Bag: diag.NewBag(opts.maxDiagnostics())}
		code := diag.IOLoadFailed
		if errors.Is(err, unit.ErrMalformed) {
			code = diag.UnitMalformed
		}
		res.Bag.Add(diag.NewError(code, diag.Location{File: path}, err.Error()))
		finish(opts, res, buildpipeline.StageLoad, start)
		return res, nil
	}
	return compileUnit(ctx, u, opts, start)
}

// Compile compiles an already decoded unit.
func Compile(ctx context.Context, u *unit.Unit, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	return compileUnit(ctx, u, opts, time.Now())
}

func compileUnit(ctx context.Context, u *unit.Unit, opts *Options, start time.Time) (*Result, error) {
	res := &Result{
		Path:    u.Path,
		Program: u.Program,
		Bag:     diag.NewBag(opts.maxDiagnostics()),
	}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	if !u.Validate(rep) {
		finish(opts, res, buildpipeline.StageLoad, start)
		return res, nil
	}

	cgOpts := opts.Codegen
	if cgOpts == (codegen.Options{}) {
		cgOpts = codegen.DefaultOptions()
	}
	cgOpts = cgOpts.WithDefaults()
	key := cacheKey(u.Source, cgOpts)
	if opts.Cache != nil && !opts.DumpSymbols {
		var payload CachePayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			diag.ReportWarning(rep, diag.IOCacheFailed, diag.Location{File: u.Path}, err.Error()).Emit()
		}
		if hit && payload.Program == u.Program {
			payload.restore(rep, u.Path)
			if !opts.CheckOnly {
				publish(ctx, u, opts, res, rep, payload.Text)
			}
			res.Cached = !res.Bag.HasErrors()
			res.Lines = payload.Lines
			finish(opts, res, buildpipeline.StagePublish, start)
			return res, nil
		}
	}

	stage := buildpipeline.StageEmit
	if opts.CheckOnly {
		stage = buildpipeline.StageCheck
	}
	buildpipeline.Emit(opts.Progress, buildpipeline.Event{Unit: u.Path, Stage: stage, Status: buildpipeline.StatusWorking})
	pctx, span := trace.StartSpan(ctx, trace.ScopePass, string(stage))
	done := opts.Timer.Track(string(stage) + " " + u.Name())

	var buf bytes.Buffer
	gen := codegen.New(&buf, u.Program, cgOpts)
	c := newCompiler(pctx, u, rep, gen, cgOpts)
	if opts.DumpSymbols {
		c.dump = &bytes.Buffer{}
	}
	c.program()
	if err := gen.Close(); err != nil && !c.failed {
		c.fail(u.Main.Pos, err)
	}
	res.Lines = gen.Lines()
	if c.dump != nil {
		res.Symbols = c.dump.String()
	}

	done(fmt.Sprintf("%d lines", res.Lines))
	span.WithExtra("lines", fmt.Sprint(res.Lines)).End("")
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if res.Bag.HasErrors() {
		finish(opts, res, stage, start)
		return res, nil
	}
	if opts.Cache != nil {
		if err := opts.Cache.Put(key, newCachePayload(u.Program, buf.Bytes(), res.Lines, res.Bag)); err != nil {
			diag.ReportWarning(rep, diag.IOCacheFailed, diag.Location{File: u.Path}, err.Error()).Emit()
		}
	}
	if !opts.CheckOnly {
		publish(ctx, u, opts, res, rep, buf.Bytes())
	}
	finish(opts, res, buildpipeline.StagePublish, start)
	return res, nil
}

// publish writes text to <out_dir>/<program>.jasm through a temporary file
// and a rename, so readers never observe a partial program.
func publish(ctx context.Context, u *unit.Unit, opts *Options, res *Result, rep diag.Reporter, text []byte) {
	_, span := trace.StartSpan(ctx, trace.ScopePass, "publish")
	defer span.End("")
	buildpipeline.Emit(opts.Progress, buildpipeline.Event{Unit: u.Path, Stage: buildpipeline.StagePublish, Status: buildpipeline.StatusWorking})

	dir := opts.OutDir
	if dir == "" {
		dir = filepath.Dir(u.Path)
	}
	target := filepath.Join(dir, u.Program+".jasm")
	where := diag.Location{File: u.Path}
	if prev, ok := opts.claims.claim(target, u.Path); !ok {
		diag.ReportError(rep, diag.IOWriteFailed, where, fmt.Sprintf("%s is already produced by %s", target, prev)).Emit()
		return
	}
	if err := writeAtomic(target, text); err != nil {
		diag.ReportError(rep, diag.IOWriteFailed, where, err.Error()).Emit()
		return
	}
	res.Output = target
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".jasmc-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	// Атомарная замена
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}

func finish(opts *Options, res *Result, stage buildpipeline.Stage, start time.Time) {
	status := buildpipeline.StatusDone
	var err error
	switch {
	case res.Bag.HasErrors():
		status = buildpipeline.StatusError
		errs, _ := res.Bag.Counts()
		err = fmt.Errorf("%d error(s)", errs)
	case res.Cached:
		status = buildpipeline.StatusCached
	}
	buildpipeline.Emit(opts.Progress, buildpipeline.Event{
		Unit:    res.Path,
		Stage:   stage,
		Status:  status,
		Err:     err,
		Elapsed: time.Since(start),
	})
}
