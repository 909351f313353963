package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// NoSlot is reported for declarations that do not occupy a local slot.
const NoSlot = -1

type entry struct {
	slot int
	sym  Symbol
}

// Scope is one level of the symbol table. Variables receive sequential slots
// starting at 0 in declaration order; other declarations get NoSlot.
type Scope struct {
	index    map[string]entry
	order    []string
	nextSlot int
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{index: make(map[string]entry)}
}

// Insert declares sym in this scope and returns its slot (NoSlot for
// non-variables).
func (s *Scope) Insert(sym Symbol) (int, error) {
	if sym == nil {
		return NoSlot, fmt.Errorf("insert: nil symbol")
	}
	name := sym.Name()
	if _, exists := s.index[name]; exists {
		return NoSlot, fmt.Errorf("%w: %q", ErrDuplicateDeclaration, name)
	}
	slot := NoSlot
	if sym.Decl() == DeclVariable {
		// операнд iload/istore не шире u16
		if _, err := safecast.Conv[uint16](s.nextSlot); err != nil {
			return NoSlot, fmt.Errorf("%w: %q needs slot %d: %w", ErrTooManyLocals, name, s.nextSlot, err)
		}
		slot = s.nextSlot
		s.nextSlot++
	}
	s.index[name] = entry{slot: slot, sym: sym}
	s.order = append(s.order, name)
	return slot, nil
}

// Lookup returns the symbol declared under name in this scope.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	e, ok := s.index[name]
	return e.sym, ok
}

// SlotOf returns the slot of a variable declared in this scope. ok is false
// when the name is absent or its declaration has no slot.
func (s *Scope) SlotOf(name string) (int, bool) {
	e, ok := s.index[name]
	if !ok || e.slot == NoSlot {
		return NoSlot, false
	}
	return e.slot, true
}

// Has reports whether name is declared in this scope.
func (s *Scope) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len reports the number of declarations.
func (s *Scope) Len() int { return len(s.order) }

// Slots reports how many slots were handed out.
func (s *Scope) Slots() int { return s.nextSlot }

// Symbols returns declarations in insertion order.
func (s *Scope) Symbols() []Symbol {
	out := make([]Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.index[name].sym)
	}
	return out
}
