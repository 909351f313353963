package driver

import (
	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/symbols"
	"jasmc/internal/trace"
	"jasmc/internal/unit"
	"jasmc/internal/value"
)

func (c *compiler) stmt(s *unit.Stmt) {
	trace.Point(trace.FromContext(c.ctx), trace.ScopeStmt, string(s.Kind), s.Pos.Path, trace.CurrentSpan(c.ctx))

	switch s.Kind {
	case unit.StmtVar, unit.StmtConst, unit.StmtArray:
		c.declare(s)
	case unit.StmtAssign:
		c.assign(s)
	case unit.StmtPrint, unit.StmtPrintln:
		c.print(s)
	case unit.StmtIf:
		c.ifStmt(s)
	case unit.StmtWhile:
		c.while(s)
	case unit.StmtReturn:
		c.ret(s)
	case unit.StmtCall:
		c.callStmt(s)
	case unit.StmtBlock:
		c.nested(s.Pos, s.Body)
	}
}

// declare handles var/const/array in the current scope; at global scope a
// var becomes a static field.
func (c *compiler) declare(s *unit.Stmt) {
	switch s.Kind {
	case unit.StmtVar:
		c.declareVar(s)
	case unit.StmtConst:
		c.declareConst(s)
	case unit.StmtArray:
		c.declareArray(s)
	}
}

func (c *compiler) declareVar(s *unit.Stmt) {
	kind, _ := value.ParseKind(s.Type)
	if !codegen.Storable(kind) {
		c.errorf(diag.GenUnsupported, s.Pos, "variable %q: %s variables have no storage", s.Name, kind)
		return
	}
	var init value.Value
	if s.Value != nil {
		v, ok := c.typeOf(s.Value, s.Pos)
		if !ok {
			return
		}
		if v.Kind() != kind {
			c.errorf(diag.SemaTypeMismatch, s.Pos, "cannot initialize %s variable %q with %s", kind, s.Name, v.Kind())
			return
		}
		init = v
	}
	v := symbols.NewVariable(s.Name, kind)

	if c.st.AtGlobal() {
		if s.Value != nil && !init.Initialized() {
			c.errorf(diag.GenUnsupported, s.Pos, "global %q needs a constant initializer", s.Name)
			return
		}
		if _, err := c.st.Insert(v); err != nil {
			c.fail(s.Pos, err)
			return
		}
		c.assigned[v] = true
		if s.Value != nil {
			c.emit(s.Pos, func(g *codegen.Generator) error { return g.DeclareGlobalInit(s.Name, init) })
		} else {
			c.emit(s.Pos, func(g *codegen.Generator) error { return g.DeclareGlobal(s.Name, kind) })
		}
		return
	}

	// initializer is evaluated before the name is visible
	if s.Value != nil {
		c.emitExpr(s.Value, s.Pos)
	}
	if !c.insertLocal(v, s.Pos) {
		return
	}
	if s.Value == nil {
		return
	}
	c.assigned[v] = true
	c.store(s.Pos, s.Name)
}

func (c *compiler) declareConst(s *unit.Stmt) {
	v, ok := c.typeOf(s.Value, s.Pos)
	if !ok {
		return
	}
	if s.Type != "" {
		if kind, _ := value.ParseKind(s.Type); kind != v.Kind() {
			c.errorf(diag.SemaTypeMismatch, s.Pos, "constant %q declared %s but initialized with %s", s.Name, kind, v.Kind())
			return
		}
	}
	if !v.Initialized() {
		c.errorf(diag.SemaError, s.Pos, "constant %q needs a constant initializer", s.Name)
		return
	}
	k, err := symbols.NewConstant(s.Name, v)
	if err != nil {
		c.fail(s.Pos, err)
		return
	}
	if _, err := c.st.Insert(k); err != nil {
		c.fail(s.Pos, err)
	}
}

func (c *compiler) declareArray(s *unit.Stmt) {
	kind, _ := value.ParseKind(s.Type)
	arr, err := symbols.NewArray(s.Name, kind, s.Length)
	if err != nil {
		c.fail(s.Pos, err)
		return
	}
	for i, lit := range s.Values {
		v, err := value.FromLiteral(lit)
		if err == nil {
			err = arr.SetAt(i, v)
		}
		if err != nil {
			c.errorf(codeFor(err), s.Pos, "array %q element %d: %v", s.Name, i, err)
			return
		}
	}
	if _, err := c.st.Insert(arr); err != nil {
		c.fail(s.Pos, err)
	}
}

// resolveVar resolves name for a write.
func (c *compiler) resolveVar(at unit.Pos, name string) (*symbols.Variable, bool) {
	sym, err := c.st.Lookup(name)
	if err != nil {
		c.fail(at, err)
		return nil, false
	}
	switch sym := sym.(type) {
	case *symbols.Variable:
		return sym, true
	case *symbols.Constant:
		c.errorf(diag.SemaAssignToConstant, at, "cannot assign to constant %q", name)
	default:
		c.errorf(diag.SemaNotAddressable, at, "cannot assign to %s %q", sym.Decl(), name)
	}
	return nil, false
}

func (c *compiler) store(at unit.Pos, name string) {
	loc, err := c.st.SlotOf(name)
	if err == nil {
		loc, err = c.frameSlot(name, loc)
	}
	if err != nil {
		c.fail(at, err)
		return
	}
	c.emit(at, func(g *codegen.Generator) error { return g.Store(name, loc) })
}

func (c *compiler) assign(s *unit.Stmt) {
	v, ok := c.typeOf(s.Value, s.Pos)
	target, found := c.resolveVar(s.Pos, s.Name)
	if !ok || !found {
		return
	}
	if v.Kind() != target.Kind() {
		c.errorf(diag.SemaTypeMismatch, s.Pos, "cannot assign %s to %s variable %q", v.Kind(), target.Kind(), s.Name)
		return
	}
	c.emitExpr(s.Value, s.Pos)
	c.assigned[target] = true
	c.store(s.Pos, s.Name)
}

func (c *compiler) print(s *unit.Stmt) {
	v, ok := c.typeOf(s.Value, s.Pos)
	if !ok {
		return
	}
	c.emit(s.Pos, (*codegen.Generator).PrintBegin)
	c.emitExpr(s.Value, s.Pos)
	newline := s.Kind == unit.StmtPrintln
	c.emit(s.Pos, func(g *codegen.Generator) error { return g.PrintEnd(v.Kind(), newline) })
}

// condition types and emits a Boolean test expression.
func (c *compiler) condition(e *unit.Expr, at unit.Pos) bool {
	v, ok := c.typeOf(e, at)
	if !ok {
		return false
	}
	if v.Kind() != value.KindBoolean {
		c.errorf(diag.SemaTypeMismatch, at, "condition must be %s, got %s", value.KindBoolean, v.Kind())
		return false
	}
	c.emitExpr(e, at)
	return true
}

func (c *compiler) ifStmt(s *unit.Stmt) {
	c.condition(s.Cond, s.Pos)
	var blk *codegen.IfBlock
	c.emit(s.Pos, func(g *codegen.Generator) (err error) {
		blk, err = g.IfBegin()
		return err
	})
	c.nested(s.Pos, s.Then)
	if len(s.Else) > 0 {
		c.emit(s.Pos, func(g *codegen.Generator) error { return g.Else(blk) })
		c.nested(s.Pos, s.Else)
	}
	c.emit(s.Pos, func(g *codegen.Generator) error { return g.IfEnd(blk) })
}

func (c *compiler) while(s *unit.Stmt) {
	var loop *codegen.Loop
	c.emit(s.Pos, func(g *codegen.Generator) (err error) {
		loop, err = g.LoopBegin()
		return err
	})
	c.condition(s.Cond, s.Pos)
	c.emit(s.Pos, func(g *codegen.Generator) error { return g.LoopTest(loop) })
	c.nested(s.Pos, s.Body)
	c.emit(s.Pos, func(g *codegen.Generator) error { return g.LoopEnd(loop) })
}

func (c *compiler) ret(s *unit.Stmt) {
	if c.fn == nil {
		if s.Value != nil {
			c.errorf(diag.SemaReturnOutsideFn, s.Pos, "main cannot return a value")
			return
		}
		c.emit(s.Pos, (*codegen.Generator).ReturnVoid)
		return
	}
	want, hasResult := c.fn.Returns()
	switch {
	case !hasResult && s.Value != nil:
		c.errorf(diag.SemaTypeMismatch, s.Pos, "function %q returns no value", c.fn.Name())
	case hasResult && s.Value == nil:
		c.errorf(diag.SemaMissingReturn, s.Pos, "function %q must return %s", c.fn.Name(), want)
	case !hasResult:
		c.emit(s.Pos, (*codegen.Generator).ReturnVoid)
	default:
		v, ok := c.typeOf(s.Value, s.Pos)
		if !ok {
			return
		}
		if v.Kind() != want {
			c.errorf(diag.SemaTypeMismatch, s.Pos, "function %q returns %s, not %s", c.fn.Name(), want, v.Kind())
			return
		}
		c.emitExpr(s.Value, s.Pos)
		c.emit(s.Pos, (*codegen.Generator).ReturnValue)
	}
}

func (c *compiler) callStmt(s *unit.Stmt) {
	call := &unit.Expr{Call: s.Name, Args: s.Args}
	fn, ok := c.typeCall(call, s.Pos)
	if !ok {
		return
	}
	c.emitCall(call, fn, s.Pos)
	if _, hasResult := fn.Returns(); hasResult {
		c.emit(s.Pos, (*codegen.Generator).Pop)
	}
}
