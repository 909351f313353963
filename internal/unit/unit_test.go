package unit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jasmc/internal/diag"
	"jasmc/internal/value"
)

const demoUnit = `
program = "Demo"
extra = 1

[[globals]]
stmt = "var"
name = "limit"
kind = "int"
value = { int = 10 }

[[globals]]
stmt = "const"
name = "greeting"
value = { str = "hi" }

[[functions]]
name = "add"
returns = "int"
params = [ { name = "a", kind = "int" }, { name = "b", kind = "int" } ]

[[functions.body]]
stmt = "return"
value = { op = "+", l = { ref = "a" }, r = { ref = "b" } }

[[main.body]]
stmt = "if"
cond = { op = "<=", l = { ref = "limit" }, r = { int = 3 } }
then = [ { stmt = "println", value = { ref = "greeting" } } ]
else = [ { stmt = "print", value = { call = "add", args = [ { int = 1 }, { int = 2 } ] } } ]
`

func TestParseNumbersStatementsInProgramOrder(t *testing.T) {
	u, err := Parse("demo.toml", []byte(demoUnit))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Program != "Demo" || len(u.Globals) != 2 || len(u.Functions) != 1 || len(u.Main.Body) != 1 {
		t.Fatalf("unexpected shape: %+v", u)
	}

	ifStmt := u.Main.Body[0]
	cases := []struct {
		got  Pos
		want Pos
	}{
		{u.Globals[0].Pos, Pos{0, "globals[0]"}},
		{u.Globals[1].Pos, Pos{1, "globals[1]"}},
		{u.Functions[0].Pos, Pos{2, "fn add"}},
		{u.Functions[0].Body[0].Pos, Pos{3, "fn add/body[0]"}},
		{u.Main.Pos, Pos{4, "main"}},
		{ifStmt.Pos, Pos{5, "main/body[0]"}},
		{ifStmt.Then[0].Pos, Pos{6, "main/body[0].then[0]"}},
		{ifStmt.Else[0].Pos, Pos{7, "main/body[0].else[0]"}},
	}
	for i, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("case %d: got %+v, want %+v", i, tc.got, tc.want)
		}
	}

	if len(u.Unknown) != 1 || u.Unknown[0] != "extra" {
		t.Fatalf("expected the unknown key to be recorded, got %v", u.Unknown)
	}
	if f := ifStmt.Cond.Form(); f != FormOp {
		t.Fatalf("cond form = %d", f)
	}
	call := ifStmt.Else[0].Value
	if call.Form() != FormCall || call.Call != "add" || len(call.Args) != 2 {
		t.Fatalf("unexpected call expression %+v", call)
	}
	if u.Where(ifStmt.Pos).String() != "demo.toml:main/body[0]" {
		t.Fatalf("unexpected location %s", u.Where(ifStmt.Pos))
	}

	bag := diag.NewBag(10)
	if !u.Validate(diag.BagReporter{Bag: bag}) {
		t.Fatalf("valid unit rejected: %+v", bag.Items())
	}
	if bag.Len() != 1 || bag.Items()[0].Severity != diag.SevWarning {
		t.Fatalf("expected a single unknown-key warning, got %+v", bag.Items())
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.toml")
	if err := os.WriteFile(path, []byte(demoUnit), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	u, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if u.Path != path || string(u.Source) != demoUnit || u.Name() != "Demo" {
		t.Fatalf("unexpected unit metadata %q %q", u.Path, u.Name())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if _, err := Parse("bad.toml", []byte("program = ")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestValidateReportsStructuralErrors(t *testing.T) {
	src := `
[[globals]]
stmt = "print"
value = { int = 1 }

[[globals]]
stmt = "array"
name = "xs"
kind = "int"
length = 1
values = [1, 2]

[[main.body]]
stmt = "var"
name = "x"
kind = "decimal"

[[main.body]]
stmt = "assign"
name = "x"
value = { int = 1, ref = "y" }

[[main.body]]
stmt = "println"
value = { op = "**", l = { int = 1 }, r = { int = 2 } }

[[main.body]]
stmt = "println"
value = { op = "neg", l = { int = 1 }, r = { int = 2 } }

[[main.body]]
stmt = "print"
value = { int = 3000000000 }

[[main.body]]
stmt = "goto"

[[main.body]]
stmt = "while"
`
	u, err := Parse("bad.toml", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bag := diag.NewBag(50)
	if u.Validate(diag.BagReporter{Bag: bag}) {
		t.Fatalf("invalid unit accepted")
	}
	want := []diag.Code{
		diag.UnitMissingField,  // program
		diag.UnitUnknownStmt,   // print at global scope
		diag.UnitBadArrayShape, // 2 values for length 1
		diag.UnitUnknownKind,   // decimal
		diag.UnitMalformed,     // two forms
		diag.UnitUnknownOp,     // **
		diag.UnitMalformed,     // unary with r
		diag.UnitBadLiteral,    // out of int32 range
		diag.UnitUnknownStmt,   // goto
		diag.UnitMissingField,  // while without cond
	}
	items := bag.Items()
	if len(items) != len(want) {
		t.Fatalf("got %d diagnostics, want %d: %+v", len(items), len(want), items)
	}
	for i, code := range want {
		if items[i].Code != code {
			t.Errorf("diagnostic %d: got %s (%s), want %s", i, items[i].Code.ID(), items[i].Message, code.ID())
		}
	}
}

func TestExprLiteral(t *testing.T) {
	one := int64(1)
	ch := "λ"
	bad := "ab"
	if v, err := (&Expr{Int: &one}).Literal(); err != nil || !v.Equal(value.Int(1)) {
		t.Fatalf("int literal: %v %v", v, err)
	}
	if v, err := (&Expr{Char: &ch}).Literal(); err != nil || v.Kind() != value.KindChar {
		t.Fatalf("char literal: %v %v", v, err)
	}
	if _, err := (&Expr{Char: &bad}).Literal(); !errors.Is(err, ErrBadLiteral) {
		t.Fatalf("expected ErrBadLiteral, got %v", err)
	}
	if _, err := (&Expr{Ref: "x"}).Literal(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if (&Expr{}).Form() != FormInvalid {
		t.Fatalf("empty expression must be invalid")
	}
}
