// Package unit models the resolved-program description that a front end
// hands to the compiler core, and loads it from TOML.
//
// A unit has a program name, global declarations, functions and a main
// body. Statements and expressions are tagged tables:
//
//	program = "Demo"
//
//	[[globals]]
//	stmt = "var"
//	name = "limit"
//	kind = "int"
//	value = { int = 10 }
//
//	[[main.body]]
//	stmt  = "println"
//	value = { op = "+", l = { ref = "limit" }, r = { int = 1 } }
package unit

import (
	"fmt"

	"jasmc/internal/diag"
	"jasmc/internal/value"
)

// StmtKind tags a statement table.
type StmtKind string

const (
	StmtVar     StmtKind = "var"
	StmtConst   StmtKind = "const"
	StmtArray   StmtKind = "array"
	StmtAssign  StmtKind = "assign"
	StmtPrint   StmtKind = "print"
	StmtPrintln StmtKind = "println"
	StmtIf      StmtKind = "if"
	StmtWhile   StmtKind = "while"
	StmtReturn  StmtKind = "return"
	StmtCall    StmtKind = "call"
	StmtBlock   StmtKind = "block"
)

// Declares reports whether the statement introduces a name.
func (k StmtKind) Declares() bool {
	return k == StmtVar || k == StmtConst || k == StmtArray
}

// Unit is one compilation unit. Path and Source are filled by Load.
type Unit struct {
	Program   string     `toml:"program"`
	Globals   []Stmt     `toml:"globals"`
	Functions []Function `toml:"functions"`
	Main      Main       `toml:"main"`

	Path    string   `toml:"-"`
	Source  []byte   `toml:"-"`
	Unknown []string `toml:"-"` // keys the decoder did not consume
}

type Main struct {
	Body []Stmt `toml:"body"`
	Pos  Pos    `toml:"-"`
}

type Param struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`
}

type Function struct {
	Name    string  `toml:"name"`
	Params  []Param `toml:"params"`
	Returns string  `toml:"returns"` // empty for void
	Body    []Stmt  `toml:"body"`
	Pos     Pos     `toml:"-"`
}

// Stmt is a tagged statement; which fields apply depends on Kind.
type Stmt struct {
	Kind   StmtKind `toml:"stmt"`
	Name   string   `toml:"name"`   // declared/assigned/called name
	Type   string   `toml:"kind"`   // declared kind
	Length int      `toml:"length"` // array length
	Values []any    `toml:"values"` // array initializer literals
	Value  *Expr    `toml:"value"`  // initializer, rhs, printed or returned value
	Args   []Expr   `toml:"args"`   // call arguments
	Cond   *Expr    `toml:"cond"`
	Then   []Stmt   `toml:"then"`
	Else   []Stmt   `toml:"else"`
	Body   []Stmt   `toml:"body"`
	Pos    Pos      `toml:"-"`
}

// Expr is a tagged expression: exactly one of the literal fields, Ref, Op or
// Call is set.
type Expr struct {
	Int   *int64   `toml:"int"`
	Float *float64 `toml:"float"`
	Char  *string  `toml:"char"`
	Str   *string  `toml:"str"`
	Bool  *bool    `toml:"bool"`
	Ref   string   `toml:"ref"`
	Op    string   `toml:"op"`
	L     *Expr    `toml:"l"`
	R     *Expr    `toml:"r"`
	Call  string   `toml:"call"`
	Args  []Expr   `toml:"args"`
}

// ExprForm classifies an Expr.
type ExprForm uint8

const (
	FormInvalid ExprForm = iota
	FormLiteral
	FormRef
	FormOp
	FormCall
)

// Form returns the expression's form, or FormInvalid when zero or several
// forms are set.
func (e *Expr) Form() ExprForm {
	if e == nil {
		return FormInvalid
	}
	form, n := FormInvalid, 0
	if e.Int != nil || e.Float != nil || e.Char != nil || e.Str != nil || e.Bool != nil {
		form, n = FormLiteral, n+countSet(e.Int != nil, e.Float != nil, e.Char != nil, e.Str != nil, e.Bool != nil)
	}
	if e.Ref != "" {
		form, n = FormRef, n+1
	}
	if e.Op != "" {
		form, n = FormOp, n+1
	}
	if e.Call != "" {
		form, n = FormCall, n+1
	}
	if n != 1 {
		return FormInvalid
	}
	return form
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// Literal converts a literal expression to an initialized value.
func (e *Expr) Literal() (value.Value, error) {
	var raw any
	switch {
	case e == nil:
		return value.Value{}, fmt.Errorf("%w: missing literal", ErrMalformed)
	case e.Int != nil:
		raw = *e.Int
	case e.Float != nil:
		raw = *e.Float
	case e.Str != nil:
		raw = *e.Str
	case e.Bool != nil:
		raw = *e.Bool
	case e.Char != nil:
		r := []rune(*e.Char)
		if len(r) != 1 {
			return value.Value{}, fmt.Errorf("%w: char literal %q must hold exactly one character", ErrBadLiteral, *e.Char)
		}
		return value.Char(r[0]), nil
	default:
		return value.Value{}, fmt.Errorf("%w: not a literal", ErrMalformed)
	}
	v, err := value.FromLiteral(raw)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", ErrBadLiteral, err)
	}
	return v, nil
}

// Pos locates a statement: Index is its ordinal in program order.
type Pos struct {
	Index int
	Path  string
}

// Where converts p to a diagnostic location inside u.
func (u *Unit) Where(p Pos) diag.Location {
	return diag.Location{File: u.Path, Index: p.Index, Path: p.Path}
}

// Name is the unit's display name: the program name, or the file path.
func (u *Unit) Name() string {
	if u.Program != "" {
		return u.Program
	}
	return u.Path
}
