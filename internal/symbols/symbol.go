package symbols

import (
	"fmt"
	"slices"
	"strings"

	"jasmc/internal/value"
)

// DeclKind classifies how a name was declared.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclConstant
	DeclVariable
	DeclFunction
	DeclArray
)

func (k DeclKind) String() string {
	switch k {
	case DeclConstant:
		return "Constant"
	case DeclVariable:
		return "Variable"
	case DeclFunction:
		return "Function"
	case DeclArray:
		return "Array"
	default:
		return "invalid"
	}
}

// Symbol is a named declaration. The set of implementations is closed:
// *Variable, *Constant, *Array and *Function.
type Symbol interface {
	Name() string
	Decl() DeclKind
	// Describe renders a one-line summary used by Stack.Dump.
	Describe() string
	sealed()
}

// Variable is a mutable scalar and the only declaration that receives a slot.
type Variable struct {
	name string
	val  value.Value
}

// NewVariable declares an uninitialized variable of the given kind.
func NewVariable(name string, kind value.Kind) *Variable {
	return &Variable{name: name, val: value.Uninit(kind)}
}

// NewVariableWith declares a variable holding v.
func NewVariableWith(name string, v value.Value) *Variable {
	return &Variable{name: name, val: v}
}

func (v *Variable) Name() string       { return v.name }
func (v *Variable) Decl() DeclKind     { return DeclVariable }
func (v *Variable) Kind() value.Kind   { return v.val.Kind() }
func (v *Variable) Value() value.Value { return v.val }
func (v *Variable) Initialized() bool  { return v.val.Initialized() }
func (*Variable) sealed()              {}

// Set stores a new value; its kind must match the declared kind.
func (v *Variable) Set(nv value.Value) error {
	if err := v.val.Assign(nv); err != nil {
		return fmt.Errorf("variable %q: %w", v.name, err)
	}
	return nil
}

func (v *Variable) Describe() string {
	s := fmt.Sprintf("id: %s, declaration: %s, type: %s", v.name, DeclVariable, v.val.Kind())
	if v.val.Initialized() {
		s += ", value: " + v.val.String()
	}
	return s
}

// Constant is a named, read-only, initialized scalar.
type Constant struct {
	name string
	val  value.Value
}

// NewConstant requires an initialized value.
func NewConstant(name string, v value.Value) (*Constant, error) {
	if !v.Initialized() {
		return nil, fmt.Errorf("constant %q: %w", name, value.ErrUninitialized)
	}
	return &Constant{name: name, val: v}, nil
}

func (c *Constant) Name() string       { return c.name }
func (c *Constant) Decl() DeclKind     { return DeclConstant }
func (c *Constant) Kind() value.Kind   { return c.val.Kind() }
func (c *Constant) Value() value.Value { return c.val }
func (*Constant) sealed()              {}

func (c *Constant) Describe() string {
	return fmt.Sprintf("id: %s, declaration: %s, type: %s, value: %s", c.name, DeclConstant, c.val.Kind(), c.val)
}

// Array is a fixed-length sequence of scalars of one kind. Each element is
// initialized independently.
type Array struct {
	name  string
	kind  value.Kind
	elems []value.Value
}

// NewArray declares an array of length uninitialized elements.
func NewArray(name string, kind value.Kind, length int) (*Array, error) {
	if length <= 0 {
		return nil, fmt.Errorf("array %q: length must be positive, got %d", name, length)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("array %q: %w: invalid element kind %s", name, ErrTypeMismatch, kind)
	}
	elems := make([]value.Value, length)
	for i := range elems {
		elems[i] = value.Uninit(kind)
	}
	return &Array{name: name, kind: kind, elems: elems}, nil
}

func (a *Array) Name() string          { return a.name }
func (a *Array) Decl() DeclKind        { return DeclArray }
func (a *Array) ElemKind() value.Kind  { return a.kind }
func (a *Array) Len() int              { return len(a.elems) }
func (*Array) sealed()                 {}

// At returns the element at index i.
func (a *Array) At(i int) (value.Value, error) {
	if i < 0 || i >= len(a.elems) {
		return value.Value{}, fmt.Errorf("array %q: %w: index %d, length %d", a.name, ErrIndexOutOfRange, i, len(a.elems))
	}
	return a.elems[i], nil
}

// SetAt replaces the element at index i.
func (a *Array) SetAt(i int, v value.Value) error {
	if i < 0 || i >= len(a.elems) {
		return fmt.Errorf("array %q: %w: index %d, length %d", a.name, ErrIndexOutOfRange, i, len(a.elems))
	}
	if err := a.elems[i].Assign(v); err != nil {
		return fmt.Errorf("array %q[%d]: %w", a.name, i, err)
	}
	return nil
}

// Assign moves in a whole new element sequence. It must have exactly the
// declared length and element kind; on error the array is left unchanged.
func (a *Array) Assign(vals []value.Value) error {
	if len(vals) != len(a.elems) {
		return fmt.Errorf("array %q: %w: assigning %d elements to length %d", a.name, ErrTypeMismatch, len(vals), len(a.elems))
	}
	for i, v := range vals {
		if v.Kind() != a.kind {
			return fmt.Errorf("array %q[%d]: %w: %s element in %s array", a.name, i, ErrTypeMismatch, v.Kind(), a.kind)
		}
	}
	a.elems = slices.Clone(vals)
	return nil
}

// Values returns a copy of the elements.
func (a *Array) Values() []value.Value {
	return slices.Clone(a.elems)
}

func (a *Array) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s, declaration: %s, type: %s, length: %d, value: {", a.name, DeclArray, a.kind, len(a.elems))
	for i, v := range a.elems {
		if v.Initialized() {
			fmt.Fprintf(&b, " %d:%s,", i, v)
		}
	}
	b.WriteString("}")
	return b.String()
}

// Void marks a function without a return value.
const Void = value.KindInvalid

// Function is a signature: ordered parameter kinds and an optional return kind.
type Function struct {
	name   string
	params []value.Kind
	ret    value.Kind
}

// NewFunction declares a function signature. Pass Void for ret when the
// function returns nothing.
func NewFunction(name string, params []value.Kind, ret value.Kind) *Function {
	return &Function{name: name, params: slices.Clone(params), ret: ret}
}

func (f *Function) Name() string   { return f.name }
func (f *Function) Decl() DeclKind { return DeclFunction }
func (*Function) sealed()          {}

// AddParam appends a parameter kind, for callers that build the signature
// while walking a parameter list.
func (f *Function) AddParam(kind value.Kind) { f.params = append(f.params, kind) }

// SetReturn sets the return kind; Void clears it.
func (f *Function) SetReturn(kind value.Kind) { f.ret = kind }

// Params returns a copy of the parameter kinds.
func (f *Function) Params() []value.Kind { return slices.Clone(f.params) }

// Arity is the number of parameters.
func (f *Function) Arity() int { return len(f.params) }

// Returns reports the return kind; ok is false for void functions.
func (f *Function) Returns() (value.Kind, bool) {
	return f.ret, f.ret != Void
}

// CheckArgKinds validates a call site's argument kinds against the signature.
func (f *Function) CheckArgKinds(kinds []value.Kind) error {
	if len(kinds) != len(f.params) {
		return fmt.Errorf("call to %q: %w: want %d arguments, got %d", f.name, ErrTypeMismatch, len(f.params), len(kinds))
	}
	for i, k := range kinds {
		if k != f.params[i] {
			return fmt.Errorf("call to %q: %w: argument %d is %s, want %s", f.name, ErrTypeMismatch, i+1, k, f.params[i])
		}
	}
	return nil
}

// CheckArgs validates call-site argument values. Only kinds matter;
// uninitialized arguments are accepted.
func (f *Function) CheckArgs(args []value.Value) error {
	kinds := make([]value.Kind, len(args))
	for i, a := range args {
		kinds[i] = a.Kind()
	}
	return f.CheckArgKinds(kinds)
}

func (f *Function) Describe() string {
	names := make([]string, len(f.params))
	for i, p := range f.params {
		names[i] = p.String()
	}
	return fmt.Sprintf("id: %s, declaration: %s, input_types: {%s}, return_type: %s",
		f.name, DeclFunction, strings.Join(names, ", "), f.ret)
}
