package driver

import (
	"bytes"
	"context"
	"fmt"

	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/symbols"
	"jasmc/internal/trace"
	"jasmc/internal/unit"
	"jasmc/internal/value"
)

// compiler is the semantic-action layer for one unit: it walks statements in
// program order, keeps the scope stack in step, types every expression via
// static scalar values and drives the generator.
type compiler struct {
	ctx  context.Context
	u    *unit.Unit
	rep  diag.Reporter
	st   *symbols.Stack
	out  *codegen.Generator
	opts codegen.Options

	fn     *symbols.Function // nil inside main
	bases  []int             // frame slot of local 0, per scope depth
	static map[*unit.Expr]value.Value
	// locals that were written at least once; globals start zeroed
	assigned map[*symbols.Variable]bool

	failed bool // an error was reported
	broken bool // stop driving the generator
	dump   *bytes.Buffer
}

func newCompiler(ctx context.Context, u *unit.Unit, rep diag.Reporter, out *codegen.Generator, opts codegen.Options) *compiler {
	return &compiler{
		ctx:      ctx,
		u:        u,
		rep:      rep,
		st:       symbols.NewStack(),
		out:      out,
		opts:     opts,
		bases:    []int{0},
		static:   make(map[*unit.Expr]value.Value),
		assigned: make(map[*symbols.Variable]bool),
	}
}

func (c *compiler) errorf(code diag.Code, at unit.Pos, format string, args ...any) {
	c.failed = true
	c.broken = true
	diag.ReportError(c.rep, code, c.u.Where(at), fmt.Sprintf(format, args...)).Emit()
}

func (c *compiler) warnf(code diag.Code, at unit.Pos, format string, args ...any) {
	diag.ReportWarning(c.rep, code, c.u.Where(at), fmt.Sprintf(format, args...)).Emit()
}

// fail reports err under the code its sentinel maps to.
func (c *compiler) fail(at unit.Pos, err error) {
	c.errorf(codeFor(err), at, "%v", err)
}

// emit runs one generator step unless an earlier error made the output moot.
func (c *compiler) emit(at unit.Pos, step func(g *codegen.Generator) error) {
	if c.broken {
		return
	}
	if err := step(c.out); err != nil {
		c.fail(at, err)
	}
}

func (c *compiler) program() {
	c.emit(unit.Pos{}, (*codegen.Generator).ProgramStart)
	for i := range c.u.Globals {
		c.declare(&c.u.Globals[i])
	}
	for i := range c.u.Functions {
		c.function(&c.u.Functions[i])
	}
	c.main()
	c.emit(c.u.Main.Pos, (*codegen.Generator).ProgramEnd)
}

func (c *compiler) function(f *unit.Function) {
	prev := c.ctx
	ctx, span := trace.StartSpan(c.ctx, trace.ScopePass, "fn "+f.Name)
	c.ctx = ctx
	defer func() {
		span.End("")
		c.ctx = prev
	}()

	fn := symbols.NewFunction(f.Name, nil, symbols.Void)
	for _, p := range f.Params {
		k, _ := value.ParseKind(p.Kind)
		fn.AddParam(k)
	}
	if f.Returns != "" {
		k, _ := value.ParseKind(f.Returns)
		fn.SetReturn(k)
	}
	// recursion: the function is visible inside its own body
	if _, err := c.st.Insert(fn); err != nil {
		c.fail(f.Pos, err)
		return
	}

	c.fn = fn
	defer func() { c.fn = nil }()
	c.emit(f.Pos, func(g *codegen.Generator) error { return g.BeginFunction(fn) })
	c.enter(true)
	for i, p := range f.Params {
		v := symbols.NewVariable(p.Name, fn.Params()[i])
		if c.insertLocal(v, f.Pos) {
			c.assigned[v] = true
		}
	}
	c.block(f.Body)
	if ret, ok := fn.Returns(); ok && !endsInReturn(f.Body) {
		c.errorf(diag.SemaMissingReturn, f.Pos, "function %q must end with a return of %s", f.Name, ret)
	}
	c.dumpScopes("fn " + f.Name)
	c.leave(f.Pos)
	c.emit(f.Pos, (*codegen.Generator).EndFunction)
}

func (c *compiler) main() {
	prev := c.ctx
	ctx, span := trace.StartSpan(c.ctx, trace.ScopePass, "main")
	c.ctx = ctx
	defer func() {
		span.End("")
		c.ctx = prev
	}()

	at := c.u.Main.Pos
	c.emit(at, (*codegen.Generator).BeginMain)
	c.enter(true)
	c.block(c.u.Main.Body)
	c.dumpScopes("main")
	c.leave(at)
	c.emit(at, (*codegen.Generator).EndMain)
}

func endsInReturn(body []unit.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	last := &body[len(body)-1]
	switch last.Kind {
	case unit.StmtReturn:
		return true
	case unit.StmtBlock:
		return endsInReturn(last.Body)
	case unit.StmtIf:
		return len(last.Else) > 0 && endsInReturn(last.Then) && endsInReturn(last.Else)
	}
	return false
}

// enter opens a scope. Method scopes restart frame slots at 0; nested block
// scopes continue after the locals their parent has declared so far.
func (c *compiler) enter(method bool) {
	base := 0
	if !method {
		base = c.bases[len(c.bases)-1] + c.st.Top().Slots()
	}
	c.st.Enter()
	c.bases = append(c.bases[:c.st.Depth()-1], base)
}

func (c *compiler) leave(at unit.Pos) {
	if err := c.st.Leave(); err != nil {
		c.fail(at, err)
		return
	}
	c.bases = c.bases[:c.st.Depth()]
}

// frameSlot converts a scope-local slot of the variable name into its slot
// in the method frame.
func (c *compiler) frameSlot(name string, loc symbols.Location) (symbols.Location, error) {
	if loc.IsGlobal() {
		return loc, nil
	}
	depth, err := c.st.ScopeOf(name)
	if err != nil {
		return symbols.Location{}, err
	}
	return symbols.Local(c.bases[depth] + loc.Slot), nil
}

func (c *compiler) insertLocal(v *symbols.Variable, at unit.Pos) bool {
	slot, err := c.st.Insert(v)
	if err != nil {
		c.fail(at, err)
		return false
	}
	if frame := c.bases[len(c.bases)-1] + slot; frame >= c.opts.MaxLocals {
		c.errorf(diag.SemaTooManyLocals, at, "local %q needs frame slot %d but max_locals is %d", v.Name(), frame, c.opts.MaxLocals)
		return false
	}
	return true
}

func (c *compiler) dumpScopes(title string) {
	if c.dump == nil {
		return
	}
	fmt.Fprintf(c.dump, "%s:\n", title)
	_ = c.st.Dump(c.dump)
}

func (c *compiler) block(stmts []unit.Stmt) {
	for i := range stmts {
		if c.ctx.Err() != nil {
			return
		}
		c.stmt(&stmts[i])
	}
}

// nested runs stmts in a fresh block scope.
func (c *compiler) nested(at unit.Pos, stmts []unit.Stmt) {
	c.enter(false)
	c.block(stmts)
	c.leave(at)
}
