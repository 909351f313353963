package codegen

import (
	"fmt"

	"jasmc/internal/value"
)

var relationConds = map[value.Op]Cond{
	value.OpLess:      CondLT,
	value.OpGreater:   CondGT,
	value.OpEq:        CondEQ,
	value.OpLessEq:    CondLE,
	value.OpGreaterEq: CondGE,
	value.OpNotEq:     CondNE,
}

// RelationCond maps a comparison operator to the branch taken when it holds.
func RelationCond(op value.Op) (Cond, bool) {
	c, ok := relationConds[op]
	return c, ok
}

// Relation lowers a comparison of the two ints on the stack into a 0/1 value:
//
//	isub
//	if<cond> Ltrue
//	iconst_0
//	goto Ljoin
//	Ltrue:
//	iconst_1
//	Ljoin:
func (g *Generator) Relation(op value.Op) error {
	if err := g.requirePhase(phaseMethod, "relation"); err != nil {
		return err
	}
	cond, ok := relationConds[op]
	if !ok {
		return fmt.Errorf("%w: %s is not a relational operator", ErrUnsupported, op)
	}
	ls, err := g.Reserve(2)
	if err != nil {
		return err
	}
	truthy, join := ls[0], ls[1]

	g.line("isub")
	if err := g.Branch(cond, truthy); err != nil {
		return err
	}
	if err := g.LoadBool(false); err != nil {
		return err
	}
	if err := g.Goto(join); err != nil {
		return err
	}
	if err := g.DefineLabel(truthy); err != nil {
		return err
	}
	if err := g.LoadBool(true); err != nil {
		return err
	}
	return g.DefineLabel(join)
}

// IfBlock threads the labels of one if/else statement.
type IfBlock struct {
	falseTarget Label
	join        Label
	hasElse     bool
	closed      bool
}

// IfBegin consumes the condition on the stack: it reserves the false target
// and branches there when the condition is zero.
func (g *Generator) IfBegin() (*IfBlock, error) {
	if err := g.requirePhase(phaseMethod, "if"); err != nil {
		return nil, err
	}
	ls, err := g.Reserve(1)
	if err != nil {
		return nil, err
	}
	b := &IfBlock{falseTarget: ls[0]}
	if err := g.Branch(CondEQ, b.falseTarget); err != nil {
		return nil, err
	}
	return b, nil
}

// Else ends the if body: it reserves the join label, jumps over the else
// body, and defines the false target where the else body begins. An if body
// that ends in return or goto needs no join.
func (g *Generator) Else(b *IfBlock) error {
	if b == nil || b.closed || b.hasElse {
		return fmt.Errorf("%w: else without an open if", ErrLabelProtocol)
	}
	if err := g.requirePhase(phaseMethod, "else"); err != nil {
		return err
	}
	if g.terminal {
		b.hasElse = true
		return g.DefineLabel(b.falseTarget)
	}
	ls, err := g.Reserve(1)
	if err != nil {
		return err
	}
	b.join = ls[0]
	b.hasElse = true
	if err := g.Goto(b.join); err != nil {
		return err
	}
	return g.DefineLabel(b.falseTarget)
}

// IfEnd defines the join label after an else body, or the false target when
// there was no else.
func (g *Generator) IfEnd(b *IfBlock) error {
	if b == nil || b.closed {
		return fmt.Errorf("%w: if closed twice", ErrLabelProtocol)
	}
	b.closed = true
	if b.hasElse {
		if b.join == "" {
			return nil
		}
		return g.DefineLabel(b.join)
	}
	return g.DefineLabel(b.falseTarget)
}

// Loop threads the labels of one while statement.
type Loop struct {
	begin  Label
	exit   Label
	tested bool
	closed bool
}

// LoopBegin defines the loop head; the condition is emitted next.
func (g *Generator) LoopBegin() (*Loop, error) {
	if err := g.requirePhase(phaseMethod, "while"); err != nil {
		return nil, err
	}
	ls, err := g.Reserve(2)
	if err != nil {
		return nil, err
	}
	l := &Loop{begin: ls[0], exit: ls[1]}
	if err := g.DefineLabel(l.begin); err != nil {
		return nil, err
	}
	return l, nil
}

// LoopTest consumes the condition and leaves the loop when it is zero.
func (g *Generator) LoopTest(l *Loop) error {
	if l == nil || l.tested || l.closed {
		return fmt.Errorf("%w: loop test out of order", ErrLabelProtocol)
	}
	l.tested = true
	return g.Branch(CondEQ, l.exit)
}

// LoopEnd jumps back to the head and defines the exit label.
func (g *Generator) LoopEnd(l *Loop) error {
	if l == nil || !l.tested || l.closed {
		return fmt.Errorf("%w: loop end out of order", ErrLabelProtocol)
	}
	l.closed = true
	if err := g.Goto(l.begin); err != nil {
		return err
	}
	return g.DefineLabel(l.exit)
}
