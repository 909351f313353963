package driver

import (
	"errors"

	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/symbols"
	"jasmc/internal/unit"
	"jasmc/internal/value"
)

// typeOf computes the static value of e: constants fold to initialized
// values, anything touching a variable or a call is uninitialized of its
// kind. Errors are reported once here; emitExpr relies on the cached result.
func (c *compiler) typeOf(e *unit.Expr, at unit.Pos) (value.Value, bool) {
	if v, ok := c.static[e]; ok {
		return v, true
	}
	v, ok := c.evaluate(e, at)
	if ok {
		c.static[e] = v
	}
	return v, ok
}

func (c *compiler) evaluate(e *unit.Expr, at unit.Pos) (value.Value, bool) {
	switch e.Form() {
	case unit.FormLiteral:
		v, err := e.Literal()
		if err != nil {
			c.fail(at, err)
			return value.Value{}, false
		}
		return v, true

	case unit.FormRef:
		return c.typeRef(e.Ref, at)

	case unit.FormOp:
		op, _ := value.ParseOp(e.Op)
		lhs, ok := c.typeOf(e.L, at)
		if !ok {
			return value.Value{}, false
		}
		var (
			v   value.Value
			err error
		)
		if op.IsUnary() {
			v, err = value.Unary(op, lhs)
		} else {
			rhs, ok := c.typeOf(e.R, at)
			if !ok {
				return value.Value{}, false
			}
			v, err = value.Binary(op, lhs, rhs)
		}
		if err != nil {
			if errors.Is(err, value.ErrDivisionByZero) {
				c.errorf(diag.SemaDivisionByZero, at, "constant expression divides by zero")
			} else {
				c.fail(at, err)
			}
			return value.Value{}, false
		}
		return v, true

	case unit.FormCall:
		fn, ok := c.typeCall(e, at)
		if !ok {
			return value.Value{}, false
		}
		ret, hasResult := fn.Returns()
		if !hasResult {
			c.errorf(diag.SemaTypeMismatch, at, "function %q returns no value", fn.Name())
			return value.Value{}, false
		}
		return value.Uninit(ret), true
	}
	c.errorf(diag.UnitMalformed, at, "malformed expression")
	return value.Value{}, false
}

func (c *compiler) typeRef(name string, at unit.Pos) (value.Value, bool) {
	sym, err := c.st.Lookup(name)
	if err != nil {
		c.fail(at, err)
		return value.Value{}, false
	}
	switch sym := sym.(type) {
	case *symbols.Constant:
		return sym.Value(), true
	case *symbols.Variable:
		if !c.assigned[sym] {
			c.warnf(diag.SemaUninitRead, at, "variable %q is read before it is assigned", name)
		}
		return value.Uninit(sym.Kind()), true
	case *symbols.Function:
		c.errorf(diag.SemaNotAddressable, at, "function %q used as a value", name)
	default:
		c.errorf(diag.SemaNotAddressable, at, "%s %q has no scalar storage", sym.Decl(), name)
	}
	return value.Value{}, false
}

// typeCall resolves the callee and checks the arguments against it.
func (c *compiler) typeCall(e *unit.Expr, at unit.Pos) (*symbols.Function, bool) {
	sym, err := c.st.Lookup(e.Call)
	if err != nil {
		c.fail(at, err)
		return nil, false
	}
	fn, isFn := sym.(*symbols.Function)
	if !isFn {
		c.errorf(diag.SemaNotCallable, at, "%s %q is not callable", sym.Decl(), e.Call)
		return nil, false
	}
	kinds := make([]value.Kind, 0, len(e.Args))
	ok := true
	for i := range e.Args {
		v, argOK := c.typeOf(&e.Args[i], at)
		ok = ok && argOK
		kinds = append(kinds, v.Kind())
	}
	if !ok {
		return nil, false
	}
	if len(kinds) != fn.Arity() {
		c.errorf(diag.SemaArityMismatch, at, "%q takes %d arguments, got %d", fn.Name(), fn.Arity(), len(kinds))
		return nil, false
	}
	if err := fn.CheckArgKinds(kinds); err != nil {
		c.fail(at, err)
		return nil, false
	}
	return fn, true
}

// emitExpr pushes e. Subtrees with a known value are emitted as a single
// constant.
func (c *compiler) emitExpr(e *unit.Expr, at unit.Pos) {
	if c.broken {
		return
	}
	v, ok := c.static[e]
	if !ok {
		return
	}
	if v.Initialized() {
		c.emit(at, func(g *codegen.Generator) error { return g.LoadConst(v) })
		return
	}

	switch e.Form() {
	case unit.FormRef:
		loc, err := c.st.SlotOf(e.Ref)
		if err == nil {
			loc, err = c.frameSlot(e.Ref, loc)
		}
		if err != nil {
			c.fail(at, err)
			return
		}
		c.emit(at, func(g *codegen.Generator) error { return g.Load(e.Ref, loc) })

	case unit.FormOp:
		op, _ := value.ParseOp(e.Op)
		c.emitExpr(e.L, at)
		if op.IsUnary() {
			c.emit(at, func(g *codegen.Generator) error { return g.Operation(op) })
			return
		}
		c.emitExpr(e.R, at)
		if op.IsRelational() {
			c.emit(at, func(g *codegen.Generator) error { return g.Relation(op) })
			return
		}
		c.emit(at, func(g *codegen.Generator) error { return g.Operation(op) })

	case unit.FormCall:
		sym, err := c.st.Lookup(e.Call)
		if err != nil {
			c.fail(at, err)
			return
		}
		if fn, isFn := sym.(*symbols.Function); isFn {
			c.emitCall(e, fn, at)
		}
	}
}

func (c *compiler) emitCall(e *unit.Expr, fn *symbols.Function, at unit.Pos) {
	for i := range e.Args {
		c.emitExpr(&e.Args[i], at)
	}
	c.emit(at, func(g *codegen.Generator) error { return g.Invoke(fn, len(e.Args)) })
}
