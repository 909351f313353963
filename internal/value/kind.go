package value

import (
	"fmt"
	"strings"
)

// Kind enumerates the scalar kinds of the source language.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindChar
	KindString
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindChar:
		return "Char"
	case KindString:
		return "String"
	case KindBoolean:
		return "Boolean"
	case KindInvalid:
		return "None"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Valid reports whether k names one of the scalar kinds.
func (k Kind) Valid() bool {
	return k >= KindInteger && k <= KindBoolean
}

// ParseKind accepts both the long names and the source-level keywords.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return KindInteger, nil
	case "float", "real":
		return KindFloat, nil
	case "char":
		return KindChar, nil
	case "string", "str":
		return KindString, nil
	case "bool", "boolean":
		return KindBoolean, nil
	default:
		return KindInvalid, fmt.Errorf("unknown scalar kind %q (expected int|float|char|string|bool)", s)
	}
}

// family groups kinds for operator admission checks.
type family uint8

const (
	familyNone    family = 0
	familyInteger family = 1 << iota
	familyFloat
	familyChar
	familyString
	familyBoolean
)

const (
	familyNumeric   = familyInteger | familyFloat
	familyOrdered   = familyNumeric | familyBoolean
	familyEquatable = familyOrdered | familyString | familyChar
)

func (k Kind) family() family {
	switch k {
	case KindInteger:
		return familyInteger
	case KindFloat:
		return familyFloat
	case KindChar:
		return familyChar
	case KindString:
		return familyString
	case KindBoolean:
		return familyBoolean
	default:
		return familyNone
	}
}
