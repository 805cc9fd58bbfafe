package polaram

import "errors"

// Input errors.
var (
	// ErrMalformedTensorEntry is returned for any tensor/matrix file entry that is not
	// a "! label" line followed by exactly n rows of n numbers. The whole read fails.
	ErrMalformedTensorEntry = errors.New("polaram: malformed tensor entry")

	// ErrInvalidShape is returned when a matrix handed to the Mueller builder is not 3x3.
	ErrInvalidShape = errors.New("polaram: invalid matrix shape")

	// ErrInvalidParameter flags a tunable that is not a positive integer (or otherwise out of range).
	ErrInvalidParameter = errors.New("polaram: invalid parameter")
)

// Numerical errors.
var (
	// ErrEigenDecompositionFailed aborts a run: without eigenvalues there is no analytic reference.
	ErrEigenDecompositionFailed = errors.New("polaram: eigen decomposition failed")
)

// Internal consistency errors.
var (
	// ErrHeaderMismatch means a result and its accumulator slot disagree on the mode label.
	ErrHeaderMismatch = errors.New("polaram: header mismatch")
)

// Convergence.
var (
	// ErrValidationFailed is returned when the caller declines to extend an unconverged run.
	ErrValidationFailed = errors.New("polaram: validation failed")
)

// Instruction interpreter errors.
var (
	ErrUnknownInstruction      = errors.New("polaram: unknown instruction")
	ErrInstructionArguments    = errors.New("polaram: invalid instruction arguments")
	ErrUnsupportedPolarization = errors.New("polaram: unsupported polarization for raman scattering")
)

// Run store errors.
var (
	// ErrRunNotFound is returned by the store for unknown run ids.
	ErrRunNotFound = errors.New("polaram: run not found")
	// ErrTensorMismatch means a resumed run was started from different tensor values.
	ErrTensorMismatch = errors.New("polaram: tensors differ from the stored run")
)
