package value

import (
	"fmt"
	"math"
)

// Op enumerates the scalar operators.
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpEq
	OpNotEq
	OpAnd
	OpOr
	OpNeg
	OpNot
)

var opNames = [...]string{
	OpInvalid:   "<invalid>",
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpRem:       "%",
	OpLess:      "<",
	OpGreater:   ">",
	OpLessEq:    "<=",
	OpGreaterEq: ">=",
	OpEq:        "==",
	OpNotEq:     "!=",
	OpAnd:       "&&",
	OpOr:        "||",
	OpNeg:       "neg",
	OpNot:       "!",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// ParseOp maps an operator token to its Op. Unary minus is spelled "neg".
func ParseOp(s string) (Op, bool) {
	for i, name := range opNames {
		if i != int(OpInvalid) && name == s {
			return Op(i), true
		}
	}
	return OpInvalid, false
}

// IsRelational reports whether op is one of the six comparisons.
func (op Op) IsRelational() bool { return op >= OpLess && op <= OpNotEq }

// IsArithmetic reports whether op is a binary arithmetic operator.
func (op Op) IsArithmetic() bool { return op >= OpAdd && op <= OpRem }

// IsLogical reports whether op is a binary logical connective.
func (op Op) IsLogical() bool { return op == OpAnd || op == OpOr }

// IsUnary reports whether op takes a single operand.
func (op Op) IsUnary() bool { return op == OpNeg || op == OpNot }

type resultRule uint8

const (
	resultOperand resultRule = iota
	resultBoolean
)

// opSpec lists admitted operand families and how the result kind is derived.
type opSpec struct {
	operands family
	result   resultRule
}

var binarySpecs = map[Op]opSpec{
	OpAdd:       {operands: familyNumeric, result: resultOperand},
	OpSub:       {operands: familyNumeric, result: resultOperand},
	OpMul:       {operands: familyNumeric, result: resultOperand},
	OpDiv:       {operands: familyNumeric, result: resultOperand},
	OpRem:       {operands: familyInteger, result: resultOperand},
	OpLess:      {operands: familyOrdered, result: resultBoolean},
	OpGreater:   {operands: familyOrdered, result: resultBoolean},
	OpLessEq:    {operands: familyOrdered, result: resultBoolean},
	OpGreaterEq: {operands: familyOrdered, result: resultBoolean},
	OpEq:        {operands: familyEquatable, result: resultBoolean},
	OpNotEq:     {operands: familyEquatable, result: resultBoolean},
	OpAnd:       {operands: familyBoolean, result: resultBoolean},
	OpOr:        {operands: familyBoolean, result: resultBoolean},
}

var unarySpecs = map[Op]opSpec{
	OpNeg: {operands: familyNumeric, result: resultOperand},
	OpNot: {operands: familyBoolean, result: resultOperand},
}

// ResultKind reports the kind produced by applying op to operands of kind k,
// or an error when op does not admit k.
func ResultKind(op Op, k Kind) (Kind, error) {
	spec, ok := binarySpecs[op]
	if !ok {
		spec, ok = unarySpecs[op]
	}
	if !ok {
		return KindInvalid, fmt.Errorf("%w: unknown operator %s", ErrTypeMismatch, op)
	}
	if spec.operands&k.family() == 0 {
		return KindInvalid, fmt.Errorf("%w: operator %s is not defined for %s", ErrTypeMismatch, op, k)
	}
	if spec.result == resultBoolean {
		return KindBoolean, nil
	}
	return k, nil
}

// Binary applies a binary operator. Operand kinds are checked first and must
// match exactly; a kind error is reported even for uninitialized operands.
// If either operand is uninitialized the result is an uninitialized value of
// the operator's result kind.
func Binary(op Op, lhs, rhs Value) (Value, error) {
	if _, ok := binarySpecs[op]; !ok {
		return Value{}, fmt.Errorf("%w: %s is not a binary operator", ErrTypeMismatch, op)
	}
	if lhs.kind != rhs.kind {
		return Value{}, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, lhs.kind, op, rhs.kind)
	}
	kind, err := ResultKind(op, lhs.kind)
	if err != nil {
		return Value{}, err
	}
	if !lhs.Initialized() || !rhs.Initialized() {
		return Uninit(kind), nil
	}

	switch {
	case op.IsArithmetic():
		return arith(op, lhs, rhs)
	case op.IsRelational():
		return compare(op, lhs, rhs)
	default:
		a, _ := lhs.Bool()
		b, _ := rhs.Bool()
		if op == OpAnd {
			return Bool(a && b), nil
		}
		return Bool(a || b), nil
	}
}

// Unary applies negation or logical not.
func Unary(op Op, operand Value) (Value, error) {
	if _, ok := unarySpecs[op]; !ok {
		return Value{}, fmt.Errorf("%w: %s is not a unary operator", ErrTypeMismatch, op)
	}
	kind, err := ResultKind(op, operand.kind)
	if err != nil {
		return Value{}, err
	}
	if !operand.Initialized() {
		return Uninit(kind), nil
	}
	switch p := operand.data.(type) {
	case intPayload:
		return Int(-int32(p)), nil
	case floatPayload:
		return Float(-float32(p)), nil
	case boolPayload:
		return Bool(!bool(p)), nil
	}
	return Uninit(kind), nil
}

func Add(lhs, rhs Value) (Value, error) { return Binary(OpAdd, lhs, rhs) }
func Sub(lhs, rhs Value) (Value, error) { return Binary(OpSub, lhs, rhs) }
func Mul(lhs, rhs Value) (Value, error) { return Binary(OpMul, lhs, rhs) }
func Div(lhs, rhs Value) (Value, error) { return Binary(OpDiv, lhs, rhs) }
func Less(lhs, rhs Value) (Value, error) { return Binary(OpLess, lhs, rhs) }
func Equal(lhs, rhs Value) (Value, error) { return Binary(OpEq, lhs, rhs) }
func And(lhs, rhs Value) (Value, error) { return Binary(OpAnd, lhs, rhs) }

func arith(op Op, lhs, rhs Value) (Value, error) {
	switch a := lhs.data.(type) {
	case intPayload:
		b := rhs.data.(intPayload)
		switch op {
		case OpAdd:
			return Int(int32(a + b)), nil
		case OpSub:
			return Int(int32(a - b)), nil
		case OpMul:
			return Int(int32(a * b)), nil
		case OpDiv:
			if b == 0 {
				return Value{}, fmt.Errorf("%w: %d / 0", ErrDivisionByZero, a)
			}
			return Int(int32(a / b)), nil
		case OpRem:
			if b == 0 {
				return Value{}, fmt.Errorf("%w: %d %% 0", ErrDivisionByZero, a)
			}
			return Int(int32(a % b)), nil
		}
	case floatPayload:
		b := rhs.data.(floatPayload)
		switch op {
		case OpAdd:
			return Float(float32(a + b)), nil
		case OpSub:
			return Float(float32(a - b)), nil
		case OpMul:
			return Float(float32(a * b)), nil
		case OpDiv:
			return Float(float32(a / b)), nil
		}
	}
	return Value{}, fmt.Errorf("%w: operator %s is not defined for %s", ErrTypeMismatch, op, lhs.kind)
}

// compare returns -1, 0 or 1 ordering for the payloads and maps it through op.
func compare(op Op, lhs, rhs Value) (Value, error) {
	var cmp int
	switch a := lhs.data.(type) {
	case intPayload:
		cmp = cmpOrdered(a, rhs.data.(intPayload))
	case floatPayload:
		b := rhs.data.(floatPayload)
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			// NaN is unordered: only != holds
			return Bool(op == OpNotEq), nil
		}
		cmp = cmpOrdered(a, b)
	case boolPayload:
		cmp = cmpOrdered(boolRank(bool(a)), boolRank(bool(rhs.data.(boolPayload))))
	case charPayload:
		cmp = cmpOrdered(a, rhs.data.(charPayload))
	case stringPayload:
		cmp = cmpOrdered(a, rhs.data.(stringPayload))
	default:
		return Value{}, fmt.Errorf("%w: cannot compare %s", ErrTypeMismatch, lhs.kind)
	}

	switch op {
	case OpLess:
		return Bool(cmp < 0), nil
	case OpGreater:
		return Bool(cmp > 0), nil
	case OpLessEq:
		return Bool(cmp <= 0), nil
	case OpGreaterEq:
		return Bool(cmp >= 0), nil
	case OpEq:
		return Bool(cmp == 0), nil
	case OpNotEq:
		return Bool(cmp != 0), nil
	}
	return Value{}, fmt.Errorf("%w: %s is not a comparison", ErrTypeMismatch, op)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[T ~int | ~int32 | ~float32 | ~string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
