package symbolic

import (
	"errors"
	"fmt"
)

var (
	// ErrSingular is returned when a matrix or a rational function has no
	// inverse (zero pivot column, division by zero).
	ErrSingular = errors.New("symbolic: singular or zero divisor")

	// ErrParse is returned when an expression string or JSON tree is malformed.
	ErrParse = errors.New("symbolic: parse error")

	// ErrUnsupported is returned for expressions outside what the canonical
	// simplifier can represent (huge exponents, foreign node types).
	ErrUnsupported = errors.New("symbolic: unsupported expression")

	// ErrDimension is returned when matrix shapes do not agree.
	ErrDimension = errors.New("symbolic: dimension mismatch")

	errExponentOverflow = fmt.Errorf("%w: exponent above 255", ErrUnsupported)
)
