package curvature

import "fmt"

// Operation names a derived quantity.
type Operation string

const (
	OpTensor      Operation = "tensor"
	OpRiemann     Operation = "riemann"
	OpRicci       Operation = "ricci"
	OpRicciScalar Operation = "ricciScalar"
	OpWeyl        Operation = "weylTensor"
	OpKretschmann Operation = "kretschmann"
)

var operations = []Operation{OpTensor, OpRiemann, OpRicci, OpRicciScalar, OpWeyl, OpKretschmann}

// Operations lists every supported operation.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// ParseOperation matches s exactly against the operation names.
func ParseOperation(s string) (Operation, error) {
	for _, op := range operations {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperation, s)
}

// Format selects how results are serialized.
type Format string

const (
	FormatString Format = "string"
	FormatLaTeX  Format = "latex"
	FormatJSON   Format = "json"
)

// ParseFormat accepts the format names; the empty string means FormatString.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatString:
		return FormatString, nil
	case FormatLaTeX, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}
