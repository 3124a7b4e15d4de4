package value

import "errors"

// Errors specific to the value model, grounded on
// original_source/libs/nada-value/src/errors.rs's dedicated error taxonomy,
// kept distinct from the shared compile/runtime errors in package errs.
var (
	ErrTypeMismatch   = errors.New("value: type mismatch")
	ErrArity          = errors.New("value: array/tuple/object arity mismatch")
	ErrUnknownField   = errors.New("value: unknown object field")
	ErrBlobChunkCount = errors.New("value: blob chunk count mismatch on reassembly")
)
