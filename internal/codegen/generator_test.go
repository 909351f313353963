package codegen

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jasmc/internal/symbols"
	"jasmc/internal/value"
)

func newTestGenerator(t *testing.T) (*Generator, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Indent = false
	return New(&buf, "Demo", opts), &buf
}

func emitted(t *testing.T, g *Generator, buf *bytes.Buffer) []string {
	t.Helper()
	if err := g.w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	var out []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func expectLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q\nfull output:\n%s", i+1, got[i], want[i], strings.Join(got, "\n"))
		}
	}
}

func TestProgramSkeleton(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.DeclareGlobal("counter", value.KindInteger))
	mustOK(t, g.DeclareGlobalInit("limit", value.Int(10)))
	mustOK(t, g.BeginMain())
	mustOK(t, g.LoadGlobal("limit"))
	mustOK(t, g.StoreGlobal("counter"))
	mustOK(t, g.EndMain())
	mustOK(t, g.ProgramEnd())

	expectLines(t, emitted(t, g, buf), []string{
		"class Demo {",
		"field static int counter",
		"field static int limit = 10",
		"method public static void main(java.lang.String[])",
		"max_stack 15",
		"max_locals 15",
		"{",
		"getstatic int Demo.limit",
		"putstatic int Demo.counter",
		"return",
		"}",
		"}",
	})
	mustOK(t, g.Close())
}

func TestRelationLowering(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())
	// labels handed out earlier must not collide with the relation's labels
	earlier, err := g.Reserve(3)
	mustOK(t, err)
	for _, l := range earlier {
		mustOK(t, g.DefineLabel(l))
	}
	mustOK(t, g.w.Flush())
	buf.Reset()

	mustOK(t, g.LoadLocal(0))
	mustOK(t, g.LoadLocal(1))
	mustOK(t, g.Relation(value.OpLessEq))

	got := emitted(t, g, buf)
	expectLines(t, got, []string{
		"iload 0",
		"iload 1",
		"isub",
		"ifle L3",
		"iconst_0",
		"goto L4",
		"L3:",
		"iconst_1",
		"L4:",
	})

	counts := map[string]int{}
	for _, line := range got[2:] {
		switch {
		case line == "isub":
			counts["sub"]++
		case strings.HasPrefix(line, "if"):
			counts["branch"]++
		case strings.HasSuffix(line, ":"):
			counts["label"]++
		case strings.HasPrefix(line, "iconst_"):
			counts["push"]++
		}
	}
	if counts["sub"] != 1 || counts["branch"] != 1 || counts["label"] != 2 || counts["push"] != 2 {
		t.Fatalf("unexpected instruction mix %v", counts)
	}
}

func TestRelationConditions(t *testing.T) {
	cases := map[value.Op]string{
		value.OpLess:      "iflt",
		value.OpGreater:   "ifgt",
		value.OpEq:        "ifeq",
		value.OpLessEq:    "ifle",
		value.OpGreaterEq: "ifge",
		value.OpNotEq:     "ifne",
	}
	for op, mnemonic := range cases {
		g, buf := newTestGenerator(t)
		mustOK(t, g.ProgramStart())
		mustOK(t, g.BeginMain())
		mustOK(t, g.Relation(op))
		got := emitted(t, g, buf)
		found := false
		for _, line := range got {
			if line == mnemonic+" L0" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: missing %q in\n%s", op, mnemonic+" L0", strings.Join(got, "\n"))
		}
	}

	g, _ := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())
	if err := g.Relation(value.OpAdd); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for +, got %v", err)
	}
}

func TestIfElseLowering(t *testing.T) {
	st := symbols.NewStack()
	st.Enter()
	for _, name := range []string{"a", "b"} {
		_, err := st.Insert(symbols.NewVariable(name, value.KindInteger))
		mustOK(t, err)
	}
	locA, err := st.SlotOf("a")
	mustOK(t, err)
	locB, err := st.SlotOf("b")
	mustOK(t, err)

	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())

	// if (a <= b) { print(a) } else { print(b) }
	mustOK(t, g.Load("a", locA))
	mustOK(t, g.Load("b", locB))
	mustOK(t, g.Relation(value.OpLessEq))
	blk, err := g.IfBegin()
	mustOK(t, err)
	mustOK(t, g.PrintBegin())
	mustOK(t, g.Load("a", locA))
	mustOK(t, g.PrintEnd(value.KindInteger, false))
	mustOK(t, g.Else(blk))
	mustOK(t, g.PrintBegin())
	mustOK(t, g.Load("b", locB))
	mustOK(t, g.PrintEnd(value.KindInteger, false))
	mustOK(t, g.IfEnd(blk))

	mustOK(t, g.EndMain())
	mustOK(t, g.ProgramEnd())

	got := emitted(t, g, buf)
	expectLines(t, got, []string{
		"class Demo {",
		"method public static void main(java.lang.String[])",
		"max_stack 15",
		"max_locals 15",
		"{",
		"iload 0",
		"iload 1",
		"isub",
		"ifle L0",
		"iconst_0",
		"goto L1",
		"L0:",
		"iconst_1",
		"L1:",
		"ifeq L2",
		"getstatic java.io.PrintStream java.lang.System.out",
		"iload 0",
		"invokevirtual void java.io.PrintStream.print(int)",
		"goto L3",
		"L2:",
		"getstatic java.io.PrintStream java.lang.System.out",
		"iload 1",
		"invokevirtual void java.io.PrintStream.print(int)",
		"L3:",
		"return",
		"}",
		"}",
	})

	seen := map[string]bool{}
	for _, line := range got {
		if strings.HasSuffix(line, ":") {
			if seen[line] {
				t.Fatalf("label %s defined twice", line)
			}
			seen[line] = true
		}
	}
}

func TestIfElseAfterReturnSkipsJoin(t *testing.T) {
	pick := symbols.NewFunction("pick", []value.Kind{value.KindBoolean}, value.KindInteger)
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginFunction(pick))
	mustOK(t, g.LoadLocal(0))
	blk, err := g.IfBegin()
	mustOK(t, err)
	mustOK(t, g.LoadInt(1))
	mustOK(t, g.ReturnValue())
	mustOK(t, g.Else(blk))
	mustOK(t, g.LoadInt(2))
	mustOK(t, g.ReturnValue())
	mustOK(t, g.IfEnd(blk))
	mustOK(t, g.EndFunction())
	mustOK(t, g.ProgramEnd())

	expectLines(t, emitted(t, g, buf), []string{
		"class Demo {",
		"method public static int pick(int)",
		"max_stack 15",
		"max_locals 15",
		"{",
		"iload 0",
		"ifeq L0",
		"sipush 1",
		"ireturn",
		"L0:",
		"sipush 2",
		"ireturn",
		"}",
		"}",
	})
	if n := g.LabelsReserved(); n != 1 {
		t.Fatalf("reserved %d labels, want 1", n)
	}
}

func TestIfWithoutElse(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())
	mustOK(t, g.LoadBool(true))
	blk, err := g.IfBegin()
	mustOK(t, err)
	mustOK(t, g.PrintBegin())
	mustOK(t, g.LoadString("yes"))
	mustOK(t, g.PrintEnd(value.KindString, true))
	mustOK(t, g.IfEnd(blk))
	mustOK(t, g.EndMain())

	got := emitted(t, g, buf)
	expectLines(t, got[5:], []string{
		"iconst_1",
		"ifeq L0",
		"getstatic java.io.PrintStream java.lang.System.out",
		`ldc "yes"`,
		"invokevirtual void java.io.PrintStream.println(java.lang.String)",
		"L0:",
		"return",
		"}",
	})
	if err := g.IfEnd(blk); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("closing an if twice must fail, got %v", err)
	}
}

func TestNestedIfThreadsOwnLabels(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())

	mustOK(t, g.LoadBool(true))
	outer, err := g.IfBegin()
	mustOK(t, err)
	mustOK(t, g.LoadBool(false))
	inner, err := g.IfBegin()
	mustOK(t, err)
	mustOK(t, g.Else(inner))
	mustOK(t, g.IfEnd(inner))
	mustOK(t, g.Else(outer))
	mustOK(t, g.IfEnd(outer))
	mustOK(t, g.EndMain())

	expectLines(t, emitted(t, g, buf)[5:], []string{
		"iconst_1",
		"ifeq L0",
		"iconst_0",
		"ifeq L1",
		"goto L2",
		"L1:",
		"L2:",
		"goto L3",
		"L0:",
		"L3:",
		"return",
		"}",
	})
}

func TestWhileLowering(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())
	loop, err := g.LoopBegin()
	mustOK(t, err)
	mustOK(t, g.LoadLocal(0))
	mustOK(t, g.LoadInt(10))
	mustOK(t, g.Relation(value.OpLess))
	mustOK(t, g.LoopTest(loop))
	mustOK(t, g.LoadLocal(0))
	mustOK(t, g.LoadInt(1))
	mustOK(t, g.Operation(value.OpAdd))
	mustOK(t, g.StoreLocal(0))
	mustOK(t, g.LoopEnd(loop))
	mustOK(t, g.EndMain())

	expectLines(t, emitted(t, g, buf)[5:], []string{
		"L0:",
		"iload 0",
		"sipush 10",
		"isub",
		"iflt L2",
		"iconst_0",
		"goto L3",
		"L2:",
		"iconst_1",
		"L3:",
		"ifeq L1",
		"iload 0",
		"sipush 1",
		"iadd",
		"istore 0",
		"goto L0",
		"L1:",
		"return",
		"}",
	})
}

func TestLabelProtocolViolations(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())

	if err := g.DefineLabel("L0"); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("defining an unreserved label must fail, got %v", err)
	}
	if err := g.Goto("L7"); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("jumping to an unreserved label must fail, got %v", err)
	}
	ls, err := g.Reserve(2)
	mustOK(t, err)
	mustOK(t, g.DefineLabel(ls[0]))
	if err := g.DefineLabel(ls[0]); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("defining a label twice must fail, got %v", err)
	}
	if err := g.EndMain(); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("ending a method with %s undefined must fail, got %v", ls[1], err)
	}
	if _, err := g.Reserve(0); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("reserving zero labels must fail, got %v", err)
	}
	if err := g.Else(nil); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("else without if must fail, got %v", err)
	}

	// rejected instructions leave no text behind
	for _, line := range emitted(t, g, buf) {
		if line == "goto L7" || strings.Count(line, "L0:") > 1 {
			t.Fatalf("rejected instruction leaked into output: %q", line)
		}
	}
}

func TestLabelsBelongToOneMethod(t *testing.T) {
	f := symbols.NewFunction("f", nil, symbols.Void)
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	early, err := g.Reserve(1)
	mustOK(t, err)
	mustOK(t, g.BeginFunction(f))
	ls, err := g.Reserve(1)
	mustOK(t, err)
	mustOK(t, g.DefineLabel(ls[0]))
	mustOK(t, g.DefineLabel(early[0]))
	mustOK(t, g.EndFunction())

	mustOK(t, g.BeginMain())
	if err := g.Goto(ls[0]); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("goto into another method must fail, got %v", err)
	}
	if err := g.Branch(CondEQ, early[0]); !errors.Is(err, ErrLabelProtocol) {
		t.Fatalf("branch to a label bound by another method must fail, got %v", err)
	}
	own, err := g.Reserve(1)
	mustOK(t, err)
	mustOK(t, g.Goto(own[0]))
	mustOK(t, g.DefineLabel(own[0]))
	mustOK(t, g.EndMain())
	mustOK(t, g.ProgramEnd())

	lines := emitted(t, g, buf)
	mainAt := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "method public static void main") {
			mainAt = i
		}
	}
	if mainAt < 0 {
		t.Fatalf("main not emitted:\n%s", strings.Join(lines, "\n"))
	}
	for _, line := range lines[mainAt:] {
		if line == "goto "+string(ls[0]) || line == "ifeq "+string(early[0]) {
			t.Fatalf("rejected jump leaked into main: %q", line)
		}
	}
}

func TestLabelsAreUniqueAcrossRun(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	for _, name := range []string{"f", "g"} {
		mustOK(t, g.BeginFunction(symbols.NewFunction(name, nil, symbols.Void)))
		for i := 0; i < 3; i++ {
			mustOK(t, g.LoadInt(1))
			mustOK(t, g.LoadInt(2))
			mustOK(t, g.Relation(value.OpLess))
			mustOK(t, g.Pop())
		}
		mustOK(t, g.EndFunction())
	}
	mustOK(t, g.ProgramEnd())

	seen := map[string]bool{}
	for _, line := range emitted(t, g, buf) {
		if strings.HasSuffix(line, ":") {
			if seen[line] {
				t.Fatalf("label %s defined twice across the run", line)
			}
			seen[line] = true
		}
	}
	if len(seen) != 12 || g.LabelsReserved() != 12 {
		t.Fatalf("expected 12 labels, got %d (counter %d)", len(seen), g.LabelsReserved())
	}
}

func TestFunctionsAndCalls(t *testing.T) {
	add := symbols.NewFunction("add", []value.Kind{value.KindInteger, value.KindInteger}, value.KindInteger)
	log := symbols.NewFunction("log", []value.Kind{value.KindBoolean}, symbols.Void)

	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginFunction(add))
	mustOK(t, g.LoadLocal(0))
	mustOK(t, g.LoadLocal(1))
	mustOK(t, g.Operation(value.OpAdd))
	mustOK(t, g.ReturnValue())
	if err := g.ReturnVoid(); !errors.Is(err, ErrSequence) {
		t.Fatalf("bare return from int method must fail, got %v", err)
	}
	mustOK(t, g.EndFunction())
	mustOK(t, g.BeginFunction(log))
	mustOK(t, g.EndFunction())
	mustOK(t, g.BeginMain())
	mustOK(t, g.LoadInt(1))
	if err := g.Invoke(add, 1); !errors.Is(err, ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}
	mustOK(t, g.LoadInt(2))
	mustOK(t, g.Invoke(add, 2))
	mustOK(t, g.Pop())
	mustOK(t, g.LoadBool(true))
	mustOK(t, g.Invoke(log, 1))
	mustOK(t, g.EndMain())
	mustOK(t, g.ProgramEnd())

	expectLines(t, emitted(t, g, buf), []string{
		"class Demo {",
		"method public static int add(int, int)",
		"max_stack 15",
		"max_locals 15",
		"{",
		"iload 0",
		"iload 1",
		"iadd",
		"ireturn",
		"}",
		"method public static void log(int)",
		"max_stack 15",
		"max_locals 15",
		"{",
		"return",
		"}",
		"method public static void main(java.lang.String[])",
		"max_stack 15",
		"max_locals 15",
		"{",
		"sipush 1",
		"sipush 2",
		"invokestatic int Demo.add(int, int)",
		"pop",
		"iconst_1",
		"invokestatic void Demo.log(int)",
		"return",
		"}",
		"}",
	})
}

func TestConstantsAndOperations(t *testing.T) {
	g, buf := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())
	mustOK(t, g.LoadInt(32767))
	mustOK(t, g.LoadInt(-32768))
	mustOK(t, g.LoadInt(40000))
	mustOK(t, g.LoadString("say \"hi\"\n"))
	mustOK(t, g.LoadString("e\u0301"))
	mustOK(t, g.LoadConst(value.Char('A')))
	for _, op := range []value.Op{value.OpSub, value.OpMul, value.OpDiv, value.OpRem, value.OpNeg, value.OpAnd, value.OpOr, value.OpNot} {
		mustOK(t, g.Operation(op))
	}
	if err := g.Operation(value.OpLess); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("comparisons must go through Relation, got %v", err)
	}
	if err := g.LoadConst(value.Uninit(value.KindInteger)); !errors.Is(err, value.ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}

	expectLines(t, emitted(t, g, buf)[5:], []string{
		"sipush 32767",
		"sipush -32768",
		"ldc 40000",
		`ldc "say \"hi\"\n"`,
		"ldc \"\u00e9\"",
		"sipush 65",
		"isub",
		"imul",
		"idiv",
		"irem",
		"ineg",
		"iand",
		"ior",
		"iconst_1",
		"ixor",
	})
}

func TestSequencing(t *testing.T) {
	g, _ := newTestGenerator(t)
	if err := g.LoadInt(1); !errors.Is(err, ErrSequence) {
		t.Fatalf("instruction before ProgramStart must fail, got %v", err)
	}
	mustOK(t, g.ProgramStart())
	if err := g.ProgramStart(); !errors.Is(err, ErrSequence) {
		t.Fatalf("second ProgramStart must fail, got %v", err)
	}
	mustOK(t, g.BeginMain())
	if err := g.DeclareGlobal("x", value.KindInteger); !errors.Is(err, ErrSequence) {
		t.Fatalf("field inside a method must fail, got %v", err)
	}
	if err := g.BeginMain(); !errors.Is(err, ErrSequence) {
		t.Fatalf("nested method must fail, got %v", err)
	}
	if err := g.PrintEnd(value.KindInteger, false); !errors.Is(err, ErrSequence) {
		t.Fatalf("PrintEnd without PrintBegin must fail, got %v", err)
	}
	mustOK(t, g.PrintBegin())
	if err := g.EndMain(); !errors.Is(err, ErrSequence) {
		t.Fatalf("ending a method inside a print must fail, got %v", err)
	}
	if err := g.PrintEnd(value.KindFloat, false); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("printing a Float must fail, got %v", err)
	}
	if err := g.DeclareGlobalInit("s", value.Str("x")); !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}

	if err := g.BeginFunction(nil); !errors.Is(err, ErrSequence) {
		t.Fatalf("method header without a function must fail, got %v", err)
	}

	if err := g.Close(); !errors.Is(err, ErrSequence) {
		t.Fatalf("closing an unfinished program must report ErrSequence, got %v", err)
	}
	if err := g.LoadInt(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("emission after Close must fail with ErrClosed, got %v", err)
	}
	if err := g.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("double Close must fail with ErrClosed, got %v", err)
	}
}

func TestCreateReleasesFileOnEarlyFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Demo.jasm")
	g, err := Create(path, "Demo", DefaultOptions())
	mustOK(t, err)
	mustOK(t, g.ProgramStart())
	mustOK(t, g.BeginMain())
	if err := g.Close(); !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
	data, err := os.ReadFile(path)
	mustOK(t, err)
	if !strings.HasPrefix(string(data), "class Demo {\n") {
		t.Fatalf("flushed output missing, got %q", data)
	}
	if !strings.Contains(string(data), "\tmethod public static void main") {
		t.Fatalf("expected indented method header, got %q", data)
	}
	mustOK(t, os.Remove(path))
}

func TestUnsupportedStorage(t *testing.T) {
	g, _ := newTestGenerator(t)
	mustOK(t, g.ProgramStart())
	if err := g.DeclareGlobal("s", value.KindString); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	fn := symbols.NewFunction("f", []value.Kind{value.KindFloat}, symbols.Void)
	if err := g.BeginFunction(fn); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
