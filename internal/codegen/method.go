package codegen

import (
	"fmt"
	"strings"

	"jasmc/internal/symbols"
	"jasmc/internal/value"
)

type methodFrame struct {
	name string
	ret  value.Kind // symbols.Void for void methods
}

func (m *methodFrame) void() bool { return m.ret == symbols.Void }

// signature renders "(<params>)" and the return type of fn.
func signature(fn *symbols.Function) (ret string, params string, err error) {
	types := make([]string, 0, fn.Arity())
	for i, k := range fn.Params() {
		t, err := storageType(k)
		if err != nil {
			return "", "", fmt.Errorf("function %q parameter %d: %w", fn.Name(), i+1, err)
		}
		types = append(types, t)
	}
	ret = "void"
	if k, ok := fn.Returns(); ok {
		t, err := storageType(k)
		if err != nil {
			return "", "", fmt.Errorf("function %q result: %w", fn.Name(), err)
		}
		ret = t
	}
	return ret, "(" + strings.Join(types, ", ") + ")", nil
}

// BeginFunction emits the method header derived from fn: signature line,
// stack/locals budgets and the opening brace.
func (g *Generator) BeginFunction(fn *symbols.Function) error {
	if fn == nil {
		return fmt.Errorf("%w: method header without a function", ErrSequence)
	}
	if err := g.requirePhase(phaseProgram, "method "+fn.Name()); err != nil {
		return err
	}
	ret, params, err := signature(fn)
	if err != nil {
		return err
	}
	retKind, _ := fn.Returns()
	g.openMethod(&methodFrame{name: fn.Name(), ret: retKind},
		fmt.Sprintf("method public static %s %s%s", ret, fn.Name(), params))
	return nil
}

// BeginMain emits the synthesized program entry point.
func (g *Generator) BeginMain() error {
	if err := g.requirePhase(phaseProgram, "method main"); err != nil {
		return err
	}
	g.openMethod(&methodFrame{name: "main", ret: symbols.Void},
		"method public static void main(java.lang.String[])")
	return nil
}

func (g *Generator) openMethod(m *methodFrame, header string) {
	g.line("%s", header)
	g.line("max_stack %d", g.opts.MaxStack)
	g.line("max_locals %d", g.opts.MaxLocals)
	g.line("{")
	g.depth++
	g.method = m
	g.phase = phaseMethod
	g.labels.enterMethod()
}

// EndFunction closes the current method. Void methods get a trailing
// "return"; value-returning methods must end with ReturnValue.
func (g *Generator) EndFunction() error {
	if err := g.requirePhase(phaseMethod, "method end"); err != nil {
		return err
	}
	if g.print != 0 {
		return fmt.Errorf("%w: method %q ends inside a print", ErrSequence, g.method.name)
	}
	if err := g.checkPendingLabels("method " + g.method.name); err != nil {
		return err
	}
	if g.method.void() {
		g.line("return")
	}
	g.depth--
	g.line("}")
	g.method = nil
	g.phase = phaseProgram
	g.labels.leaveMethod()
	return nil
}

// EndMain closes the entry point.
func (g *Generator) EndMain() error {
	if g.method != nil && g.method.name != "main" {
		return fmt.Errorf("%w: EndMain inside method %q", ErrSequence, g.method.name)
	}
	return g.EndFunction()
}

// ReturnValue emits ireturn for the value on the stack.
func (g *Generator) ReturnValue() error {
	if err := g.requirePhase(phaseMethod, "ireturn"); err != nil {
		return err
	}
	if g.method.void() {
		return fmt.Errorf("%w: value return from void method %q", ErrSequence, g.method.name)
	}
	g.line("ireturn")
	g.terminal = true
	return nil
}

// ReturnVoid emits return.
func (g *Generator) ReturnVoid() error {
	if err := g.requirePhase(phaseMethod, "return"); err != nil {
		return err
	}
	if !g.method.void() {
		return fmt.Errorf("%w: bare return from method %q returning %s", ErrSequence, g.method.name, g.method.ret)
	}
	g.line("return")
	g.terminal = true
	return nil
}

// Invoke emits a static call to fn; argc is the number of argument values the
// caller pushed and must equal fn's arity.
func (g *Generator) Invoke(fn *symbols.Function, argc int) error {
	if err := g.requirePhase(phaseMethod, "invokestatic"); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: call to unresolved function", ErrSequence)
	}
	if argc != fn.Arity() {
		return fmt.Errorf("%w: %q takes %d arguments, %d pushed", ErrArity, fn.Name(), fn.Arity(), argc)
	}
	ret, params, err := signature(fn)
	if err != nil {
		return err
	}
	g.line("invokestatic %s %s%s", ret, g.qualified(fn.Name()), params)
	return nil
}
