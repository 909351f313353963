package driver

import (
	"errors"
	"io/fs"

	"jasmc/internal/codegen"
	"jasmc/internal/diag"
	"jasmc/internal/symbols"
	"jasmc/internal/unit"
	"jasmc/internal/value"
)

// codeFor maps a sentinel error to its diagnostic code. Codegen sentinels are
// checked first: they may wrap value errors.
func codeFor(err error) diag.Code {
	switch {
	case errors.Is(err, codegen.ErrLabelProtocol):
		return diag.GenLabelProtocol
	case errors.Is(err, codegen.ErrSequence), errors.Is(err, codegen.ErrClosed):
		return diag.GenSequence
	case errors.Is(err, codegen.ErrUnsupported):
		return diag.GenUnsupported
	case errors.Is(err, codegen.ErrArity):
		return diag.GenArity
	case errors.Is(err, symbols.ErrDuplicateDeclaration):
		return diag.SemaDuplicateSymbol
	case errors.Is(err, symbols.ErrUndeclared):
		return diag.SemaUnresolvedSymbol
	case errors.Is(err, symbols.ErrNotAddressable):
		return diag.SemaNotAddressable
	case errors.Is(err, symbols.ErrScopeUnderflow):
		return diag.SemaScopeUnderflow
	case errors.Is(err, symbols.ErrTooManyLocals):
		return diag.SemaTooManyLocals
	case errors.Is(err, symbols.ErrIndexOutOfRange):
		return diag.SemaIndexOutOfRange
	case errors.Is(err, value.ErrDivisionByZero):
		return diag.SemaDivisionByZero
	case errors.Is(err, value.ErrTypeMismatch):
		return diag.SemaTypeMismatch
	case errors.Is(err, unit.ErrBadLiteral):
		return diag.UnitBadLiteral
	case errors.Is(err, unit.ErrMalformed):
		return diag.UnitMalformed
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return diag.IOLoadFailed
	}
	return diag.SemaError
}
