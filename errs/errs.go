// Package errs collects the sentinel error values shared across nilcore's
// packages, grouped by the taxonomy in spec §7.
package errs

import "errors"

// Crypto errors.
var (
	ErrDivByZero                = errors.New("nilcore: division by zero")
	ErrModuloMismatch           = errors.New("nilcore: modulo tag mismatch")
	ErrValueLength              = errors.New("nilcore: encoded value has wrong length")
	ErrMismatchedAbscissas      = errors.New("nilcore: mismatched abscissas in interpolation")
	ErrCoefficientNotFound      = errors.New("nilcore: lagrange coefficient not found for abscissa")
	ErrNotASquare               = errors.New("nilcore: element has no square root in this field")
	ErrAuxInfoMissing           = errors.New("nilcore: ecdsa aux-info missing")
	ErrAuxInfoCorrupt           = errors.New("nilcore: ecdsa aux-info corrupt")
	ErrAuxInfoVersionMismatch   = errors.New("nilcore: ecdsa aux-info version mismatch")
	ErrSignatureAggregationFail = errors.New("nilcore: signature aggregation failed")
)

// InputValidation / compile-time errors.
var (
	ErrProgramCyclic       = errors.New("nilcore: program graph is cyclic")
	ErrRecursiveFunction   = errors.New("nilcore: recursive function call detected")
	ErrUnknownType         = errors.New("nilcore: unknown or malformed type")
	ErrOperationUnsupported = errors.New("nilcore: operation not supported for operand types")
	ErrTypeMismatch        = errors.New("nilcore: type mismatch")
	ErrProtocolMemory      = errors.New("nilcore: protocol memory error")
)

// Planning errors.
var (
	ErrStepCreation   = errors.New("nilcore: failed to create execution step")
	ErrProtocolNotFound = errors.New("nilcore: protocol not found")
	ErrDecode         = errors.New("nilcore: decode error")
)

// NotEnoughElements is returned by the planner when the preprocessing
// provider cannot satisfy a requirement for the given kind.
type NotEnoughElements struct {
	Kind string
}

func (e *NotEnoughElements) Error() string {
	return "nilcore: not enough preprocessing elements of kind " + e.Kind
}

// PreprocessingExhausted is the resource-layer counterpart raised directly
// by the preprocessing buffer when a reservation cannot be satisfied.
type PreprocessingExhausted struct {
	Kind string
}

func (e *PreprocessingExhausted) Error() string {
	return "nilcore: preprocessing buffer exhausted for kind " + e.Kind
}

// PreprocessingDataMissing is returned when a reserved Range falls on a gap
// never covered by any produced chunk (a bookkeeping bug: Reserve should
// never hand out offsets Produce hasn't backed with data).
type PreprocessingDataMissing struct {
	Kind string
}

func (e *PreprocessingDataMissing) Error() string {
	return "nilcore: preprocessing data missing for kind " + e.Kind
}

// Execution errors.
var (
	ErrUnexpectedShareDegree = errors.New("nilcore: unexpected share degree")
	ErrJarDuplicateParty     = errors.New("nilcore: duplicate party in jar")
	ErrMessageOutOfRound     = errors.New("nilcore: message out of round")
)

// AbortFromSubmachine wraps a reason a nested state machine aborted with.
type AbortFromSubmachine struct {
	Reason error
}

func (e *AbortFromSubmachine) Error() string {
	return "nilcore: aborted: " + e.Reason.Error()
}

func (e *AbortFromSubmachine) Unwrap() error { return e.Reason }

// WithSourceRef decorates an error with the source-ref index of the MIR
// operation it originated from, so an IDE-style collaborator can point at
// the offending line (spec §7 "user-visible behaviour").
type WithSourceRef struct {
	Err       error
	SourceRef int
}

func (e *WithSourceRef) Error() string { return e.Err.Error() }
func (e *WithSourceRef) Unwrap() error { return e.Err }

// AtSourceRef wraps err with a source-ref index, unless err is nil.
func AtSourceRef(err error, ref int) error {
	if err == nil {
		return nil
	}
	return &WithSourceRef{Err: err, SourceRef: ref}
}
