package codegen

import "errors"

var (
	// ErrLabelProtocol reports a label used before reservation, defined twice,
	// or left undefined at the end of a method.
	ErrLabelProtocol = errors.New("label protocol violation")
	// ErrSequence reports program/method/print brackets emitted out of order.
	ErrSequence = errors.New("emission out of sequence")
	// ErrClosed reports emission after the output stream was closed.
	ErrClosed = errors.New("output stream closed")
	// ErrUnsupported reports a construct the target dialect cannot express.
	ErrUnsupported = errors.New("unsupported by target")
	// ErrArity reports a call site whose argument count disagrees with the callee.
	ErrArity = errors.New("call arity mismatch")
)
