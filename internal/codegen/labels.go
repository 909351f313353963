package codegen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Label is a branch target name, unique across one generator.
type Label string

// Labels is a batch returned by Reserve.
type Labels []Label

type labelState uint8

const (
	labelReserved labelState = iota + 1
	labelDefined
)

type labelTable struct {
	prefix  string
	counter int
	state   map[Label]labelState
	// owner maps a label to the method it belongs to; 0 means not yet bound.
	owner   map[Label]int
	method  int // ordinal of the open method, 0 outside methods
	opened  int
}

func newLabelTable(prefix string) *labelTable {
	return &labelTable{
		prefix: prefix,
		state:  make(map[Label]labelState),
		owner:  make(map[Label]int),
	}
}

func (t *labelTable) reserve(n int) Labels {
	out := make(Labels, n)
	for i := range out {
		out[i] = Label(t.prefix + strconv.Itoa(t.counter+i))
		t.state[out[i]] = labelReserved
		t.owner[out[i]] = t.method
	}
	t.counter += n
	return out
}

func (t *labelTable) enterMethod() {
	t.opened++
	t.method = t.opened
}

func (t *labelTable) leaveMethod() { t.method = 0 }

// bind ties l to the open method. Labels reserved between methods are bound
// by their first use.
func (t *labelTable) bind(l Label) bool {
	switch t.owner[l] {
	case t.method:
		return true
	case 0:
		t.owner[l] = t.method
		return true
	}
	return false
}

// pending lists reserved labels that were never defined, in reservation order.
func (t *labelTable) pending() []Label {
	var out []Label
	for l, st := range t.state {
		if st == labelReserved {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b Label) int {
		return t.ordinal(a) - t.ordinal(b)
	})
	return out
}

func (t *labelTable) ordinal(l Label) int {
	n, err := strconv.Atoi(strings.TrimPrefix(string(l), t.prefix))
	if err != nil {
		return -1
	}
	return n
}

// Reserve hands out n fresh labels and advances the counter by n. The batch
// is owned by the caller; reserving again never invalidates it.
func (g *Generator) Reserve(n int) (Labels, error) {
	if err := g.ensureOpen(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: reserve %d labels", ErrLabelProtocol, n)
	}
	return g.labels.reserve(n), nil
}

// DefineLabel emits "<label>:" for a reserved, not yet defined label.
func (g *Generator) DefineLabel(l Label) error {
	if err := g.requirePhase(phaseMethod, "label definition"); err != nil {
		return err
	}
	switch g.labels.state[l] {
	case labelReserved:
	case labelDefined:
		return fmt.Errorf("%w: label %s defined twice", ErrLabelProtocol, l)
	default:
		return fmt.Errorf("%w: label %s defined before reservation", ErrLabelProtocol, l)
	}
	if !g.labels.bind(l) {
		return fmt.Errorf("%w: label %s belongs to another method", ErrLabelProtocol, l)
	}
	g.labels.state[l] = labelDefined
	g.line("%s:", l)
	return nil
}

// Goto emits an unconditional jump.
func (g *Generator) Goto(l Label) error {
	return g.jump("goto", l)
}

// Cond selects a conditional branch on the int at the top of the stack.
type Cond uint8

const (
	CondLT Cond = iota + 1 // iflt
	CondGT                 // ifgt
	CondEQ                 // ifeq
	CondLE                 // ifle
	CondGE                 // ifge
	CondNE                 // ifne
)

var condMnemonics = [...]string{
	CondLT: "iflt",
	CondGT: "ifgt",
	CondEQ: "ifeq",
	CondLE: "ifle",
	CondGE: "ifge",
	CondNE: "ifne",
}

func (c Cond) String() string {
	if c >= CondLT && c <= CondNE {
		return condMnemonics[c]
	}
	return fmt.Sprintf("Cond(%d)", c)
}

// Branch emits a conditional jump.
func (g *Generator) Branch(c Cond, l Label) error {
	if c < CondLT || c > CondNE {
		return fmt.Errorf("%w: invalid branch condition %d", ErrUnsupported, c)
	}
	return g.jump(condMnemonics[c], l)
}

func (g *Generator) jump(mnemonic string, l Label) error {
	if err := g.requirePhase(phaseMethod, mnemonic); err != nil {
		return err
	}
	if _, ok := g.labels.state[l]; !ok {
		return fmt.Errorf("%w: %s to unreserved label %s", ErrLabelProtocol, mnemonic, l)
	}
	if !g.labels.bind(l) {
		return fmt.Errorf("%w: %s to label %s of another method", ErrLabelProtocol, mnemonic, l)
	}
	g.line("%s %s", mnemonic, l)
	g.terminal = mnemonic == "goto"
	return nil
}

func (g *Generator) checkPendingLabels(where string) error {
	pending := g.labels.pending()
	if len(pending) == 0 {
		return nil
	}
	names := make([]string, len(pending))
	for i, l := range pending {
		names[i] = string(l)
	}
	return fmt.Errorf("%w: %s leaves labels undefined: %s", ErrLabelProtocol, where, strings.Join(names, ", "))
}
