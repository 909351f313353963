package unit

import "errors"

var (
	ErrMalformed  = errors.New("malformed unit")
	ErrBadLiteral = errors.New("bad literal")
)
