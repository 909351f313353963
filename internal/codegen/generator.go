package codegen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	DefaultMaxStack    = 15
	DefaultMaxLocals   = 15
	DefaultLabelPrefix = "L"
)

// Options tunes the emitted text.
type Options struct {
	MaxStack    int
	MaxLocals   int
	LabelPrefix string
	// Indent nests instructions with tabs; the assembler ignores leading whitespace.
	Indent bool
}

// DefaultOptions returns the budgets used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxStack:    DefaultMaxStack,
		MaxLocals:   DefaultMaxLocals,
		LabelPrefix: DefaultLabelPrefix,
		Indent:      true,
	}
}

// WithDefaults fills unset budgets.
func (o Options) WithDefaults() Options {
	if o.MaxStack <= 0 {
		o.MaxStack = DefaultMaxStack
	}
	if o.MaxLocals <= 0 {
		o.MaxLocals = DefaultMaxLocals
	}
	if o.LabelPrefix == "" {
		o.LabelPrefix = DefaultLabelPrefix
	}
	return o
}

type phase uint8

const (
	phaseIdle phase = iota // before ProgramStart
	phaseProgram           // inside class body, outside methods
	phaseMethod            // inside a method body
	phaseDone              // after ProgramEnd
	phaseClosed
)

// Generator writes one .jasm program.
type Generator struct {
	w      *bufio.Writer
	closer io.Closer
	class  string
	opts   Options

	phase  phase
	depth  int
	method *methodFrame
	print  int // open print brackets

	labels *labelTable
	lines  int

	// terminal is set while the last instruction never falls through.
	terminal bool
}

// New wraps w. The caller keeps ownership of w; Close only flushes it.
func New(w io.Writer, class string, opts Options) *Generator {
	opts = opts.WithDefaults()
	return &Generator{
		w:      bufio.NewWriter(w),
		class:  class,
		opts:   opts,
		labels: newLabelTable(opts.LabelPrefix),
	}
}

// Create opens path for writing and returns a generator owning the file.
// Close must be called on every path; it releases the file even when the
// program was left incomplete.
func Create(path, class string, opts Options) (*Generator, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	g := New(f, class, opts)
	g.closer = f
	return g, nil
}

// Class returns the program name used to qualify globals and calls.
func (g *Generator) Class() string { return g.class }

// Lines reports how many lines were emitted so far.
func (g *Generator) Lines() int { return g.lines }

// LabelsReserved reports the value of the label counter.
func (g *Generator) LabelsReserved() int { return g.labels.counter }

// Close flushes the stream and releases it if the generator owns it. Closing
// an unfinished program still releases the stream but reports ErrSequence.
func (g *Generator) Close() error {
	if g.phase == phaseClosed {
		return ErrClosed
	}
	var errs []error
	if g.phase != phaseDone && g.phase != phaseIdle {
		errs = append(errs, fmt.Errorf("%w: program %q closed before ProgramEnd", ErrSequence, g.class))
	}
	if err := g.w.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush output: %w", err))
	}
	if g.closer != nil {
		if err := g.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	g.phase = phaseClosed
	return errors.Join(errs...)
}

func (g *Generator) ensureOpen() error {
	if g.phase == phaseClosed {
		return ErrClosed
	}
	return nil
}

func (g *Generator) requirePhase(want phase, what string) error {
	if err := g.ensureOpen(); err != nil {
		return err
	}
	if g.phase != want {
		return fmt.Errorf("%w: %s %s", ErrSequence, what, g.phaseHint())
	}
	return nil
}

func (g *Generator) phaseHint() string {
	switch g.phase {
	case phaseIdle:
		return "before ProgramStart"
	case phaseProgram:
		return "outside a method body"
	case phaseMethod:
		return fmt.Sprintf("inside method %q", g.method.name)
	case phaseDone:
		return "after ProgramEnd"
	default:
		return "after Close"
	}
}

// line writes one instruction. Write errors are deferred to Close by bufio.
func (g *Generator) line(format string, args ...any) {
	if g.opts.Indent && g.depth > 0 {
		_, _ = g.w.WriteString(strings.Repeat("\t", g.depth))
	}
	_, _ = fmt.Fprintf(g.w, format, args...)
	_ = g.w.WriteByte('\n')
	g.lines++
	g.terminal = false
}

func (g *Generator) qualified(id string) string {
	return g.class + "." + id
}
