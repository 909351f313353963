package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/diagfmt"
	"jasmc/internal/driver"
	"jasmc/internal/observ"
	"jasmc/internal/version"
)

const cacheAppName = "jasmc"

// errUnitsFailed is returned after diagnostics were already printed.
var errUnitsFailed = errors.New("compilation failed")

type globalFlags struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
}

func readGlobalFlags(cmd *cobra.Command) (globalFlags, error) {
	pf := cmd.Root().PersistentFlags()
	colorFlag, err := pf.GetString("color")
	if err != nil {
		return globalFlags{}, err
	}
	useColor, err := readColorMode(colorFlag)
	if err != nil {
		return globalFlags{}, err
	}
	quiet, err := pf.GetBool("quiet")
	if err != nil {
		return globalFlags{}, err
	}
	timings, err := pf.GetBool("timings")
	if err != nil {
		return globalFlags{}, err
	}
	maxDiagnostics, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return globalFlags{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return globalFlags{color: useColor, quiet: quiet, timings: timings, maxDiagnostics: maxDiagnostics}, nil
}

// compileRequest is what build and check share.
type compileRequest struct {
	title     string
	units     []string
	baseDir   string
	opts      driver.Options
	useTUI    bool
	format    string
	withNotes bool
}

// addCompileFlags registers the flags build and check share.
func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	cmd.Flags().Int("jobs", 0, "units compiled in parallel (0 = GOMAXPROCS)")
	cmd.Flags().Int("max-stack", 0, "max_stack budget of every method")
	cmd.Flags().Int("max-locals", 0, "max_locals budget of every method")
	cmd.Flags().String("label-prefix", "", "prefix of generated labels")
	cmd.Flags().Bool("no-indent", false, "emit instructions without indentation")
	cmd.Flags().Bool("no-cache", false, "bypass the output cache")
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json|sarif)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	cmd.Flags().Bool("fullpath", false, "print absolute paths")
}

// prepareCompile resolves units and options from args, jasmc.toml and flags.
// Flags win over the manifest.
func prepareCompile(cmd *cobra.Command, args []string, title string, g globalFlags) (*compileRequest, error) {
	flags := cmd.Flags()
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return nil, err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return nil, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	switch format {
	case "pretty", "short", "json", "sarif":
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	withNotes, err := flags.GetBool("with-notes")
	if err != nil {
		return nil, err
	}

	manifest, manifestFound, err := loadProjectManifest(".")
	if err != nil {
		return nil, err
	}

	req := &compileRequest{
		title:     title,
		format:    format,
		withNotes: withNotes,
		opts: driver.Options{
			Codegen:        codegen.DefaultOptions(),
			MaxDiagnostics: g.maxDiagnostics,
		},
	}
	useCache := true
	var roots []string
	switch {
	case len(args) > 0:
		roots = args
	case manifestFound:
		roots = manifest.unitPaths()
	default:
		return nil, errors.New(noManifestMessage)
	}
	if manifestFound {
		b := manifest.Config.Build
		req.baseDir = manifest.Root
		req.opts.OutDir = manifest.outDir()
		req.opts.Jobs = b.Jobs
		if b.MaxStack > 0 {
			req.opts.Codegen.MaxStack = b.MaxStack
		}
		if b.MaxLocals > 0 {
			req.opts.Codegen.MaxLocals = b.MaxLocals
		}
		if b.LabelPrefix != "" {
			req.opts.Codegen.LabelPrefix = b.LabelPrefix
		}
		useCache = manifest.cacheEnabled()
	} else if cwd, cwdErr := os.Getwd(); cwdErr == nil {
		req.baseDir = cwd
	}

	if flags.Changed("jobs") {
		if req.opts.Jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-stack") {
		if req.opts.Codegen.MaxStack, err = flags.GetInt("max-stack"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-locals") {
		if req.opts.Codegen.MaxLocals, err = flags.GetInt("max-locals"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("label-prefix") {
		if req.opts.Codegen.LabelPrefix, err = flags.GetString("label-prefix"); err != nil {
			return nil, err
		}
	}
	noIndent, err := flags.GetBool("no-indent")
	if err != nil {
		return nil, err
	}
	req.opts.Codegen.Indent = !noIndent
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	if useCache && !noCache {
		cache, cacheErr := driver.OpenDiskCache(cacheAppName)
		if cacheErr != nil {
			if !g.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "cache disabled: %v\n", cacheErr)
			}
		} else {
			req.opts.Cache = cache
		}
	}
	if g.timings {
		req.opts.Timer = observ.NewTimer()
	}

	req.units, err = driver.ListUnits(roots)
	if err != nil {
		return nil, err
	}
	if len(req.units) == 0 {
		return nil, fmt.Errorf("no units (*%s) found", driver.UnitExt)
	}
	req.useTUI = shouldUseTUI(uiModeValue) && !g.quiet && format == "pretty"
	return req, nil
}

// runCompile compiles the request, prints diagnostics and timings, and
// returns errUnitsFailed when any unit failed.
func runCompile(cmd *cobra.Command, req *compileRequest, g globalFlags) ([]*driver.Result, error) {
	tr, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}
	defer tr.close()

	ctx := cmd.Context()
	var results []*driver.Result
	if req.useTUI {
		results, err = runCompileWithUI(ctx, req.title, req.units, req.opts)
	} else {
		results, err = driver.CompileAll(ctx, req.units, &req.opts)
	}
	if err != nil {
		tr.dumpRing()
		return results, err
	}

	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return results, err
	}
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()
	if err := printDiagnostics(out, results, req, g, pathMode, os.Args[1:]); err != nil {
		return results, fmt.Errorf("failed to format diagnostics: %w", err)
	}
	if g.timings {
		if err := printTimings(cmd.ErrOrStderr(), req.opts.Timer, req.format); err != nil {
			return results, err
		}
	}

	for _, res := range results {
		if res.Failed() {
			tr.dumpRing()
			return results, errUnitsFailed
		}
	}
	return results, nil
}

func printDiagnostics(out io.Writer, results []*driver.Result, req *compileRequest, g globalFlags, pathMode diagfmt.PathMode, argv []string) error {
	switch req.format {
	case "json":
		bags := make(map[string]*diag.Bag, len(results))
		for _, res := range results {
			res.Bag.Sort()
			bags[res.Path] = res.Bag
		}
		return diagfmt.JSONByUnit(out, bags, diagfmt.JSONOpts{
			PathMode:     pathMode,
			BaseDir:      req.baseDir,
			IncludeNotes: req.withNotes,
		})
	case "sarif":
		merged := diag.NewBag(g.maxDiagnostics * max(len(results), 1))
		for _, res := range results {
			merged.Merge(res.Bag)
		}
		merged.Sort()
		return diagfmt.Sarif(out, merged, diagfmt.SarifRunMeta{
			ToolName:       cacheAppName,
			ToolVersion:    version.Version,
			InvocationArgs: argv,
		})
	case "short":
		var all []diag.Diagnostic
		for _, res := range results {
			all = append(all, res.Bag.Items()...)
		}
		if s := diag.FormatShortDiagnostics(all, req.baseDir, req.withNotes); s != "" {
			_, err := fmt.Fprintln(out, s)
			return err
		}
		return nil
	}

	var errs, warns int
	for _, res := range results {
		res.Bag.Sort()
		diagfmt.Pretty(out, res.Bag, diagfmt.PrettyOpts{
			Color:     g.color,
			PathMode:  pathMode,
			BaseDir:   req.baseDir,
			ShowNotes: req.withNotes,
		})
		e, w := res.Bag.Counts()
		errs += e
		warns += w
	}
	if g.quiet {
		return nil
	}
	for _, res := range results {
		switch {
		case res.Output != "":
			status := "wrote"
			if res.Cached {
				status = "cached"
			}
			fmt.Fprintf(out, "%s %s (%d lines)\n", status, formatPathForOutput(req.baseDir, res.Output), res.Lines)
		case res.Symbols != "":
			fmt.Fprintf(out, "symbols of %s:\n%s", formatPathForOutput(req.baseDir, res.Path), res.Symbols)
		}
	}
	if errs > 0 || warns > 0 {
		fmt.Fprintf(out, "%d unit(s): %d error(s), %d warning(s)\n", len(results), errs, warns)
	}
	return nil
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// sortedKeys is used by clean for stable output.
func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
