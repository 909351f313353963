package symbols

import (
	"errors"

	"jasmc/internal/value"
)

var (
	// ErrDuplicateDeclaration reports a second declaration of a name in one scope.
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	// ErrUndeclared reports a name that no live scope declares.
	ErrUndeclared = errors.New("undeclared identifier")
	// ErrScopeUnderflow reports an attempt to leave the global scope.
	ErrScopeUnderflow = errors.New("scope underflow")
	// ErrNotAddressable reports a name that resolves to a declaration without storage.
	ErrNotAddressable = errors.New("not an addressable variable")
	// ErrIndexOutOfRange reports an array access outside the declared length.
	ErrIndexOutOfRange = errors.New("array index out of range")
	// ErrTooManyLocals reports a scope whose slot counter no longer fits an operand.
	ErrTooManyLocals = errors.New("too many local variables")
	// ErrTypeMismatch is shared with the value package so callers can test one sentinel.
	ErrTypeMismatch = value.ErrTypeMismatch
)
