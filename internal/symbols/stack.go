package symbols

import (
	"fmt"
	"io"
)

// LocationKind tells the code generator how to address a variable.
type LocationKind uint8

const (
	LocLocal LocationKind = iota + 1
	LocGlobal
)

func (k LocationKind) String() string {
	switch k {
	case LocLocal:
		return "local"
	case LocGlobal:
		return "global"
	default:
		return "invalid"
	}
}

// Location is the outcome of slot resolution. Slot is only meaningful for
// LocLocal; globals are addressed by name.
type Location struct {
	Kind LocationKind
	Slot int
}

// Global is the location of every variable declared in the global scope.
var Global = Location{Kind: LocGlobal, Slot: NoSlot}

// Local returns the location of a local slot.
func Local(slot int) Location { return Location{Kind: LocLocal, Slot: slot} }

// IsGlobal reports whether the variable lives in the global scope.
func (l Location) IsGlobal() bool { return l.Kind == LocGlobal }

func (l Location) String() string {
	if l.Kind == LocLocal {
		return fmt.Sprintf("local %d", l.Slot)
	}
	return l.Kind.String()
}

// Stack is the chain of live scopes. Index 0 is the global scope and is never
// removed.
type Stack struct {
	scopes []*Scope
}

// NewStack returns a stack holding only the global scope.
func NewStack() *Stack {
	return &Stack{scopes: []*Scope{NewScope()}}
}

// Enter pushes a fresh scope.
func (st *Stack) Enter() {
	st.scopes = append(st.scopes, NewScope())
}

// Leave pops the innermost scope and discards its declarations.
func (st *Stack) Leave() error {
	if len(st.scopes) <= 1 {
		return ErrScopeUnderflow
	}
	st.scopes[len(st.scopes)-1] = nil
	st.scopes = st.scopes[:len(st.scopes)-1]
	return nil
}

// Depth reports the number of live scopes, including the global one.
func (st *Stack) Depth() int { return len(st.scopes) }

// AtGlobal reports whether declarations currently land in the global scope.
func (st *Stack) AtGlobal() bool { return len(st.scopes) == 1 }

// Top returns the innermost scope.
func (st *Stack) Top() *Scope { return st.scopes[len(st.scopes)-1] }

// GlobalScope returns the permanent outermost scope.
func (st *Stack) GlobalScope() *Scope { return st.scopes[0] }

// Insert declares sym in the innermost scope.
func (st *Stack) Insert(sym Symbol) (int, error) {
	return st.Top().Insert(sym)
}

// Lookup walks from the innermost scope outwards and returns the first match.
func (st *Stack) Lookup(name string) (Symbol, error) {
	sym, _, err := st.find(name)
	return sym, err
}

// SlotOf resolves name to a storage location. The nearest declaration wins;
// if it sits in the global scope the outcome is Global, otherwise its local
// slot. Names bound to declarations without storage yield ErrNotAddressable.
func (st *Stack) SlotOf(name string) (Location, error) {
	sym, depth, err := st.find(name)
	if err != nil {
		return Location{}, err
	}
	if sym.Decl() != DeclVariable {
		return Location{}, fmt.Errorf("%w: %q is a %s", ErrNotAddressable, name, sym.Decl())
	}
	if depth == 0 {
		return Global, nil
	}
	slot, _ := st.scopes[depth].SlotOf(name)
	return Local(slot), nil
}

// Resolve combines Lookup and SlotOf for variables; for other declarations
// the location is the zero Location.
func (st *Stack) Resolve(name string) (Symbol, Location, error) {
	sym, depth, err := st.find(name)
	if err != nil {
		return nil, Location{}, err
	}
	if sym.Decl() != DeclVariable {
		return sym, Location{}, nil
	}
	if depth == 0 {
		return sym, Global, nil
	}
	slot, _ := st.scopes[depth].SlotOf(name)
	return sym, Local(slot), nil
}

// ScopeOf returns the index of the scope holding the nearest declaration of
// name; 0 is the global scope.
func (st *Stack) ScopeOf(name string) (int, error) {
	_, depth, err := st.find(name)
	return depth, err
}

func (st *Stack) find(name string) (Symbol, int, error) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i].Lookup(name); ok {
			return sym, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %q", ErrUndeclared, name)
}

// Dump writes every live scope, innermost first.
func (st *Stack) Dump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "================= Start of SymbolTable List ================"); err != nil {
		return err
	}
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if _, err := fmt.Fprintf(w, "---------- scope %d ----------\n", i); err != nil {
			return err
		}
		for _, sym := range st.scopes[i].Symbols() {
			if _, err := fmt.Fprintln(w, sym.Describe()); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "=================  End of SymbolTable List  ================")
	return err
}
