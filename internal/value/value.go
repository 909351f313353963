package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"
)

var (
	// ErrTypeMismatch reports an operation applied to incompatible kinds.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDivisionByZero reports integer division or remainder by zero.
	ErrDivisionByZero = errors.New("integer division by zero")
	// ErrUninitialized reports a read of a value that holds no payload.
	ErrUninitialized = errors.New("uninitialized value")
)

// payload is the closed set of scalar representations.
type payload interface{ isPayload() }

type intPayload int32
type floatPayload float32
type charPayload rune
type stringPayload string
type boolPayload bool

func (intPayload) isPayload()    {}
func (floatPayload) isPayload()  {}
func (charPayload) isPayload()   {}
func (stringPayload) isPayload() {}
func (boolPayload) isPayload()   {}

// Value is a scalar of a fixed kind that may or may not hold a payload.
// The zero Value is an uninitialized value of KindInvalid.
type Value struct {
	kind Kind
	data payload // nil while uninitialized
}

// Uninit returns an uninitialized value of the given kind.
func Uninit(kind Kind) Value { return Value{kind: kind} }

func Int(v int32) Value     { return Value{kind: KindInteger, data: intPayload(v)} }
func Float(v float32) Value { return Value{kind: KindFloat, data: floatPayload(v)} }
func Char(v rune) Value     { return Value{kind: KindChar, data: charPayload(v)} }
func Str(v string) Value    { return Value{kind: KindString, data: stringPayload(v)} }
func Bool(v bool) Value     { return Value{kind: KindBoolean, data: boolPayload(v)} }

// FromLiteral converts a decoded literal (as produced by encoding/json or a TOML
// decoder) into a Value. Integers must fit into 32 bits.
func FromLiteral(lit any) (Value, error) {
	switch v := lit.(type) {
	case int64:
		n, err := safecast.Conv[int32](v)
		if err != nil {
			return Value{}, fmt.Errorf("integer literal %d out of range: %w", v, err)
		}
		return Int(n), nil
	case int:
		n, err := safecast.Conv[int32](v)
		if err != nil {
			return Value{}, fmt.Errorf("integer literal %d out of range: %w", v, err)
		}
		return Int(n), nil
	case int32:
		return Int(v), nil
	case float64:
		if math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
			return Value{}, fmt.Errorf("float literal %g out of range", v)
		}
		return Float(float32(v)), nil
	case float32:
		return Float(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return Str(v), nil
	case nil:
		return Value{}, fmt.Errorf("%w: missing literal", ErrUninitialized)
	default:
		return Value{}, fmt.Errorf("unsupported literal %T", lit)
	}
}

// Kind reports the declared kind of the value.
func (v Value) Kind() Kind { return v.kind }

// Initialized reports whether the value holds a payload.
func (v Value) Initialized() bool { return v.data != nil }

func (v Value) Int() (int32, bool) {
	p, ok := v.data.(intPayload)
	return int32(p), ok
}

func (v Value) Float() (float32, bool) {
	p, ok := v.data.(floatPayload)
	return float32(p), ok
}

func (v Value) Char() (rune, bool) {
	p, ok := v.data.(charPayload)
	return rune(p), ok
}

func (v Value) Str() (string, bool) {
	p, ok := v.data.(stringPayload)
	return string(p), ok
}

func (v Value) Bool() (bool, bool) {
	p, ok := v.data.(boolPayload)
	return bool(p), ok
}

// SetInt stores an integer payload and marks the value initialized.
func (v *Value) SetInt(n int32) error {
	return v.set(KindInteger, intPayload(n))
}

func (v *Value) SetFloat(f float32) error {
	return v.set(KindFloat, floatPayload(f))
}

func (v *Value) SetChar(c rune) error {
	return v.set(KindChar, charPayload(c))
}

func (v *Value) SetStr(s string) error {
	return v.set(KindString, stringPayload(s))
}

func (v *Value) SetBool(b bool) error {
	return v.set(KindBoolean, boolPayload(b))
}

// Assign replaces v with other; both must share a kind. An uninitialized
// other leaves v uninitialized.
func (v *Value) Assign(other Value) error {
	if v.kind != other.kind {
		return fmt.Errorf("%w: cannot assign %s to %s", ErrTypeMismatch, other.kind, v.kind)
	}
	v.data = other.data
	return nil
}

func (v *Value) set(kind Kind, p payload) error {
	if v.kind != kind {
		return fmt.Errorf("%w: cannot store %s into %s", ErrTypeMismatch, kind, v.kind)
	}
	v.data = p
	return nil
}

// Equal reports structural equality: same kind, same initialization state
// and same payload.
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.data == other.data
}

func (v Value) String() string {
	switch p := v.data.(type) {
	case nil:
		return "<uninit>"
	case intPayload:
		return strconv.FormatInt(int64(p), 10)
	case floatPayload:
		return strconv.FormatFloat(float64(p), 'g', -1, 32)
	case charPayload:
		return string(rune(p))
	case stringPayload:
		return string(p)
	case boolPayload:
		return strconv.FormatBool(bool(p))
	}
	return "<invalid>"
}
