package unit

import (
	"fmt"

	"jasmc/internal/diag"
	"jasmc/internal/value"
)

// Validate reports structural problems: unknown statement or expression
// forms, missing fields, unparseable kinds and operators, out-of-range
// literals. Name resolution and typing are left to the driver. It returns
// false when at least one error was reported.
func (u *Unit) Validate(r diag.Reporter) bool {
	v := validator{u: u, r: r}
	for _, key := range u.Unknown {
		diag.ReportWarning(r, diag.UnitMalformed, diag.Location{File: u.Path}, "unknown key "+key+" ignored").Emit()
	}
	if u.Program == "" {
		v.errorf(diag.UnitMissingField, Pos{}, "program name is missing")
	}
	for i := range u.Globals {
		s := &u.Globals[i]
		if !s.Kind.Declares() {
			v.errorf(diag.UnitUnknownStmt, s.Pos, "statement %q is not allowed at global scope", s.Kind)
			continue
		}
		v.stmt(s)
	}
	for i := range u.Functions {
		fn := &u.Functions[i]
		if fn.Name == "" {
			v.errorf(diag.UnitMissingField, fn.Pos, "function name is missing")
		}
		if fn.Name == "main" {
			v.errorf(diag.SemaDuplicateSymbol, fn.Pos, "function main is reserved for the entry point")
		}
		for j, p := range fn.Params {
			if p.Name == "" {
				v.errorf(diag.UnitMissingField, fn.Pos, "parameter %d has no name", j+1)
			}
			v.kind(p.Kind, fn.Pos)
		}
		if fn.Returns != "" {
			v.kind(fn.Returns, fn.Pos)
		}
		v.block(fn.Body)
	}
	v.block(u.Main.Body)
	return !v.failed
}

type validator struct {
	u      *Unit
	r      diag.Reporter
	failed bool
}

func (v *validator) errorf(code diag.Code, at Pos, format string, args ...any) {
	v.failed = true
	diag.ReportError(v.r, code, v.u.Where(at), fmt.Sprintf(format, args...)).Emit()
}

func (v *validator) kind(name string, at Pos) {
	if _, err := value.ParseKind(name); err != nil {
		v.errorf(diag.UnitUnknownKind, at, "unknown kind %q", name)
	}
}

func (v *validator) block(stmts []Stmt) {
	for i := range stmts {
		v.stmt(&stmts[i])
	}
}

func (v *validator) need(ok bool, s *Stmt, field string) bool {
	if !ok {
		v.errorf(diag.UnitMissingField, s.Pos, "%s statement needs %q", s.Kind, field)
	}
	return ok
}

func (v *validator) stmt(s *Stmt) {
	switch s.Kind {
	case StmtVar:
		v.need(s.Name != "", s, "name")
		if v.need(s.Type != "", s, "kind") {
			v.kind(s.Type, s.Pos)
		}
		if s.Value != nil {
			v.expr(s.Value, s.Pos)
		}
	case StmtConst:
		v.need(s.Name != "", s, "name")
		if s.Type != "" {
			v.kind(s.Type, s.Pos)
		}
		if v.need(s.Value != nil, s, "value") {
			v.expr(s.Value, s.Pos)
		}
	case StmtArray:
		v.need(s.Name != "", s, "name")
		if v.need(s.Type != "", s, "kind") {
			v.kind(s.Type, s.Pos)
		}
		if s.Length <= 0 {
			v.errorf(diag.UnitBadArrayShape, s.Pos, "array %q needs a positive length", s.Name)
		} else if len(s.Values) > s.Length {
			v.errorf(diag.UnitBadArrayShape, s.Pos, "array %q has %d initializers for length %d", s.Name, len(s.Values), s.Length)
		}
		for _, lit := range s.Values {
			if _, err := value.FromLiteral(lit); err != nil {
				v.errorf(diag.UnitBadLiteral, s.Pos, "array %q: %v", s.Name, err)
			}
		}
	case StmtAssign:
		v.need(s.Name != "", s, "name")
		if v.need(s.Value != nil, s, "value") {
			v.expr(s.Value, s.Pos)
		}
	case StmtPrint, StmtPrintln:
		if v.need(s.Value != nil, s, "value") {
			v.expr(s.Value, s.Pos)
		}
	case StmtIf:
		if v.need(s.Cond != nil, s, "cond") {
			v.expr(s.Cond, s.Pos)
		}
		v.block(s.Then)
		v.block(s.Else)
	case StmtWhile:
		if v.need(s.Cond != nil, s, "cond") {
			v.expr(s.Cond, s.Pos)
		}
		v.block(s.Body)
	case StmtReturn:
		if s.Value != nil {
			v.expr(s.Value, s.Pos)
		}
	case StmtCall:
		v.need(s.Name != "", s, "name")
		for i := range s.Args {
			v.expr(&s.Args[i], s.Pos)
		}
	case StmtBlock:
		v.block(s.Body)
	case "":
		v.errorf(diag.UnitMissingField, s.Pos, "statement has no \"stmt\" tag")
	default:
		v.errorf(diag.UnitUnknownStmt, s.Pos, "unknown statement %q", s.Kind)
	}
}

func (v *validator) expr(e *Expr, at Pos) {
	switch e.Form() {
	case FormLiteral:
		if _, err := e.Literal(); err != nil {
			v.errorf(diag.UnitBadLiteral, at, "%v", err)
		}
	case FormRef:
	case FormOp:
		op, ok := value.ParseOp(e.Op)
		if !ok {
			v.errorf(diag.UnitUnknownOp, at, "unknown operator %q", e.Op)
			return
		}
		if e.L == nil {
			v.errorf(diag.UnitMissingField, at, "operator %s needs operand \"l\"", op)
			return
		}
		v.expr(e.L, at)
		switch {
		case op.IsUnary() && e.R != nil:
			v.errorf(diag.UnitMalformed, at, "unary operator %s takes no \"r\" operand", op)
		case !op.IsUnary() && e.R == nil:
			v.errorf(diag.UnitMissingField, at, "operator %s needs operand \"r\"", op)
		case e.R != nil:
			v.expr(e.R, at)
		}
	case FormCall:
		for i := range e.Args {
			v.expr(&e.Args[i], at)
		}
	default:
		v.errorf(diag.UnitMalformed, at, "expression must set exactly one of int, float, char, str, bool, ref, op, call")
	}
}
