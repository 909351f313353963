package driver

import (
	"sync"

	"jasmc/internal/buildpipeline"
	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/observ"
)

const defaultMaxDiagnostics = 100

// Options configures compilation of one or more units.
type Options struct {
	// OutDir receives <program>.jasm; defaults to the unit's directory.
	OutDir         string
	Codegen        codegen.Options
	MaxDiagnostics int
	// Jobs bounds CompileAll concurrency; <= 0 means GOMAXPROCS.
	Jobs int
	// CheckOnly runs every pass but never writes output.
	CheckOnly bool
	// DumpSymbols records the scope stack at the end of every method body
	// into Result.Symbols.
	DumpSymbols bool

	Cache    *DiskCache
	Progress buildpipeline.ProgressSink
	Timer    *observ.Timer

	claims *outputClaims
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

// Result describes one compiled unit.
type Result struct {
	Path    string // unit description
	Program string
	Output  string // published .jasm, empty when nothing was written
	Lines   int
	Cached  bool
	Bag     *diag.Bag
	Symbols string
}

// Failed reports whether the unit produced errors.
func (r *Result) Failed() bool {
	return r == nil || r.Bag == nil || r.Bag.HasErrors()
}

// outputClaims stops two units of one build from writing the same file.
type outputClaims struct {
	mu    sync.Mutex
	owner map[string]string
}

func newOutputClaims() *outputClaims {
	return &outputClaims{owner: make(map[string]string)}
}

// claim records unit as the writer of path and returns the previous owner.
func (c *outputClaims) claim(path, unit string) (string, bool) {
	if c == nil {
		return "", true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.owner[path]; ok && prev != unit {
		return prev, false
	}
	c.owner[path] = unit
	return "", true
}
