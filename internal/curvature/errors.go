package curvature

import "errors"

var (
	// ErrInvalidOperation is returned for operation names outside the
	// supported set.
	ErrInvalidOperation = errors.New("curvature: invalid operation")

	// ErrInvalidSubstitution is returned when a substitution does not parse,
	// makes a result undefined (r = 0) or pushes it past what the algebra
	// layer represents (r = r^99999).
	ErrInvalidSubstitution = errors.New("curvature: invalid substitution")

	// ErrInvalidFormat is returned for unknown output formats.
	ErrInvalidFormat = errors.New("curvature: invalid format")

	// ErrSymbolicComputation wraps every failure of the algebra layer,
	// including cancellation.
	ErrSymbolicComputation = errors.New("curvature: symbolic computation failed")
)
