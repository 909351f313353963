package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"jasmc/internal/symbols"
	"jasmc/internal/value"
)

// ProgramStart opens the class wrapper.
func (g *Generator) ProgramStart() error {
	if err := g.requirePhase(phaseIdle, "program start"); err != nil {
		return err
	}
	g.line("class %s {", g.class)
	g.depth++
	g.phase = phaseProgram
	return nil
}

// ProgramEnd closes the class wrapper.
func (g *Generator) ProgramEnd() error {
	if err := g.requirePhase(phaseProgram, "program end"); err != nil {
		return err
	}
	if err := g.checkPendingLabels("program " + g.class); err != nil {
		return err
	}
	g.depth--
	g.line("}")
	g.phase = phaseDone
	return nil
}

// storageType maps a scalar kind to the field/local type of the target.
// Booleans are stored as 0/1 ints.
func storageType(k value.Kind) (string, error) {
	switch k {
	case value.KindInteger, value.KindBoolean:
		return "int", nil
	default:
		return "", fmt.Errorf("%w: %s storage", ErrUnsupported, k)
	}
}

// Storable reports whether variables of kind k can live in a field or a
// local slot.
func Storable(k value.Kind) bool {
	_, err := storageType(k)
	return err == nil
}

// DeclareGlobal emits "field static int <id>".
func (g *Generator) DeclareGlobal(id string, kind value.Kind) error {
	if err := g.requirePhase(phaseProgram, "field declaration"); err != nil {
		return err
	}
	typ, err := storageType(kind)
	if err != nil {
		return fmt.Errorf("global %q: %w", id, err)
	}
	g.line("field static %s %s", typ, id)
	return nil
}

// DeclareGlobalInit emits a field with a constant initializer.
func (g *Generator) DeclareGlobalInit(id string, v value.Value) error {
	if err := g.requirePhase(phaseProgram, "field declaration"); err != nil {
		return err
	}
	typ, err := storageType(v.Kind())
	if err != nil {
		return fmt.Errorf("global %q: %w", id, err)
	}
	n, ok := intImage(v)
	if !ok {
		return fmt.Errorf("global %q: %w: initializer must be an initialized constant", id, ErrUnsupported)
	}
	g.line("field static %s %s = %d", typ, id, n)
	return nil
}

func intImage(v value.Value) (int32, bool) {
	if n, ok := v.Int(); ok {
		return n, true
	}
	if b, ok := v.Bool(); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (g *Generator) LoadGlobal(id string) error {
	if err := g.requirePhase(phaseMethod, "getstatic"); err != nil {
		return err
	}
	g.line("getstatic int %s", g.qualified(id))
	return nil
}

func (g *Generator) StoreGlobal(id string) error {
	if err := g.requirePhase(phaseMethod, "putstatic"); err != nil {
		return err
	}
	g.line("putstatic int %s", g.qualified(id))
	return nil
}

func (g *Generator) LoadLocal(slot int) error {
	if err := g.requirePhase(phaseMethod, "iload"); err != nil {
		return err
	}
	if slot < 0 {
		return fmt.Errorf("%w: iload %d", ErrUnsupported, slot)
	}
	g.line("iload %d", slot)
	return nil
}

func (g *Generator) StoreLocal(slot int) error {
	if err := g.requirePhase(phaseMethod, "istore"); err != nil {
		return err
	}
	if slot < 0 {
		return fmt.Errorf("%w: istore %d", ErrUnsupported, slot)
	}
	g.line("istore %d", slot)
	return nil
}

// Load pushes the variable at loc, as resolved by symbols.Stack.SlotOf.
func (g *Generator) Load(id string, loc symbols.Location) error {
	if loc.IsGlobal() {
		return g.LoadGlobal(id)
	}
	return g.LoadLocal(loc.Slot)
}

// Store pops into the variable at loc.
func (g *Generator) Store(id string, loc symbols.Location) error {
	if loc.IsGlobal() {
		return g.StoreGlobal(id)
	}
	return g.StoreLocal(loc.Slot)
}

// LoadInt pushes an integer constant: sipush inside the 16-bit range, ldc
// otherwise.
func (g *Generator) LoadInt(n int32) error {
	if err := g.requirePhase(phaseMethod, "integer constant"); err != nil {
		return err
	}
	if _, err := safecast.Conv[int16](n); err != nil {
		g.line("ldc %d", n)
		return nil
	}
	g.line("sipush %d", n)
	return nil
}

// LoadString pushes a string constant.
func (g *Generator) LoadString(s string) error {
	if err := g.requirePhase(phaseMethod, "string constant"); err != nil {
		return err
	}
	g.line("ldc %s", quote(s))
	return nil
}

// LoadBool pushes iconst_1 or iconst_0.
func (g *Generator) LoadBool(b bool) error {
	if err := g.requirePhase(phaseMethod, "boolean constant"); err != nil {
		return err
	}
	if b {
		g.line("iconst_1")
	} else {
		g.line("iconst_0")
	}
	return nil
}

// LoadConst pushes an initialized constant of any storable or printable kind.
func (g *Generator) LoadConst(v value.Value) error {
	if !v.Initialized() {
		return fmt.Errorf("%w: %w: constant of kind %s", ErrUnsupported, value.ErrUninitialized, v.Kind())
	}
	switch v.Kind() {
	case value.KindInteger:
		n, _ := v.Int()
		return g.LoadInt(n)
	case value.KindBoolean:
		b, _ := v.Bool()
		return g.LoadBool(b)
	case value.KindString:
		s, _ := v.Str()
		return g.LoadString(s)
	case value.KindChar:
		c, _ := v.Char()
		return g.LoadInt(int32(c))
	default:
		return fmt.Errorf("%w: %s constant", ErrUnsupported, v.Kind())
	}
}

// Pop discards the top of the stack.
func (g *Generator) Pop() error {
	if err := g.requirePhase(phaseMethod, "pop"); err != nil {
		return err
	}
	g.line("pop")
	return nil
}

var opMnemonics = map[value.Op]string{
	value.OpAdd: "iadd",
	value.OpSub: "isub",
	value.OpMul: "imul",
	value.OpDiv: "idiv",
	value.OpRem: "irem",
	value.OpNeg: "ineg",
	value.OpAnd: "iand",
	value.OpOr:  "ior",
}

// Operation emits an arithmetic or bitwise instruction over the operand(s)
// already on the stack. Logical not is lowered to "iconst_1; ixor".
// Comparisons go through Relation.
func (g *Generator) Operation(op value.Op) error {
	if err := g.requirePhase(phaseMethod, "operation"); err != nil {
		return err
	}
	if op == value.OpNot {
		g.line("iconst_1")
		g.line("ixor")
		return nil
	}
	m, ok := opMnemonics[op]
	if !ok {
		return fmt.Errorf("%w: operator %s has no direct instruction", ErrUnsupported, op)
	}
	g.line("%s", m)
	return nil
}

// PrintBegin pushes the stream receiver for a following print.
func (g *Generator) PrintBegin() error {
	if err := g.requirePhase(phaseMethod, "print"); err != nil {
		return err
	}
	g.line("getstatic java.io.PrintStream java.lang.System.out")
	g.print++
	return nil
}

// PrintEnd invokes print/println for a value of kind k on the stack.
func (g *Generator) PrintEnd(k value.Kind, newline bool) error {
	if err := g.requirePhase(phaseMethod, "print"); err != nil {
		return err
	}
	if g.print == 0 {
		return fmt.Errorf("%w: print end without PrintBegin", ErrSequence)
	}
	var arg string
	switch k {
	case value.KindInteger:
		arg = "int"
	case value.KindBoolean:
		arg = "boolean"
	case value.KindString:
		arg = "java.lang.String"
	case value.KindChar:
		arg = "char"
	default:
		return fmt.Errorf("%w: print of %s", ErrUnsupported, k)
	}
	name := "print"
	if newline {
		name = "println"
	}
	g.print--
	g.line("invokevirtual void java.io.PrintStream.%s(%s)", name, arg)
	return nil
}

// quote renders s as an assembler string literal after NFC normalization.
func quote(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				b.WriteString(strconv.FormatInt(int64(r)|0x100, 16)[1:])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
