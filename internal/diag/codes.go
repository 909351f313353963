package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Описание программы (unit)
	UnitInfo          Code = 2000
	UnitMalformed     Code = 2001
	UnitUnknownKind   Code = 2002
	UnitUnknownOp     Code = 2003
	UnitBadLiteral    Code = 2004
	UnitUnknownStmt   Code = 2005
	UnitMissingField  Code = 2006
	UnitBadArrayShape Code = 2007

	// Семантика
	SemaInfo             Code = 3000
	SemaError            Code = 3001
	SemaDuplicateSymbol  Code = 3002
	SemaNotAddressable   Code = 3003
	SemaAssignToConstant Code = 3004
	SemaUnresolvedSymbol Code = 3005
	SemaNotCallable      Code = 3006
	SemaArityMismatch    Code = 3007
	SemaReturnOutsideFn  Code = 3008
	SemaMissingReturn    Code = 3009
	SemaTypeMismatch     Code = 3010
	SemaUninitRead       Code = 3011
	SemaScopeUnderflow   Code = 3012
	SemaDivisionByZero   Code = 3013
	SemaTooManyLocals    Code = 3014
	SemaIndexOutOfRange  Code = 3015

	// Генерация кода
	GenInfo          Code = 4000
	GenLabelProtocol Code = 4001
	GenSequence      Code = 4002
	GenUnsupported   Code = 4003
	GenArity         Code = 4004

	// Ввод-вывод
	IOInfo        Code = 5000
	IOLoadFailed  Code = 5001
	IOWriteFailed Code = 5002
	IOCacheFailed Code = 5003

	// Проект
	ProjInfo            Code = 6000
	ProjManifestMissing Code = 6001
	ProjManifestInvalid Code = 6002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		UnitInfo:             "Unit information",
		UnitMalformed:        "Malformed unit description",
		UnitUnknownKind:      "Unknown scalar kind",
		UnitUnknownOp:        "Unknown operator",
		UnitBadLiteral:       "Literal does not fit its kind",
		UnitUnknownStmt:      "Unknown statement",
		UnitMissingField:     "Required field is missing",
		UnitBadArrayShape:    "Invalid array declaration",
		SemaInfo:             "Semantic information",
		SemaError:            "Semantic error",
		SemaDuplicateSymbol:  "Duplicate symbol",
		SemaNotAddressable:   "Symbol has no storage",
		SemaAssignToConstant: "Assignment to constant",
		SemaUnresolvedSymbol: "Unresolved symbol",
		SemaNotCallable:      "Symbol is not a function",
		SemaArityMismatch:    "Wrong number of arguments",
		SemaReturnOutsideFn:  "Return outside of a function",
		SemaMissingReturn:    "Missing return value",
		SemaTypeMismatch:     "Type mismatch",
		SemaUninitRead:       "Read of uninitialized variable",
		SemaScopeUnderflow:   "Scope underflow",
		SemaDivisionByZero:   "Constant division by zero",
		SemaTooManyLocals:    "Too many locals",
		SemaIndexOutOfRange:  "Index out of range",
		GenInfo:              "Codegen information",
		GenLabelProtocol:     "Label protocol violation",
		GenSequence:          "Emission out of sequence",
		GenUnsupported:       "Construct not supported by target",
		GenArity:             "Call arity mismatch",
		IOInfo:               "I/O information",
		IOLoadFailed:         "Cannot load unit",
		IOWriteFailed:        "Cannot write output",
		IOCacheFailed:        "Output cache failure",
		ProjInfo:             "Project information",
		ProjManifestMissing:  "Project manifest not found",
		ProjManifestInvalid:  "Invalid project manifest",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("UNT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
