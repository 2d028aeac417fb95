package curvature

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/njchilds90/gocurvature/symbolic"
)

// Value is anything the engine can hand back to a transport.
type Value interface {
	String() string
	LaTeX() string
	JSON() (string, error)
}

// Render serializes v in the requested format.
func Render(v Value, f Format) (string, error) {
	switch f {
	case "", FormatString:
		return v.String(), nil
	case FormatLaTeX:
		return v.LaTeX(), nil
	case FormatJSON:
		return v.JSON()
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, f)
}

// ============================================================
// Tensor: rank 2 or rank 4, all indices lowered
// ============================================================

// Tensor stores components in row-major order over Dim()^Rank() slots.
type Tensor struct {
	symbol string
	coords []string
	rank   int
	comps  []symbolic.Expr
}

func newTensor(symbol string, coords []string, rank int) *Tensor {
	size := 1
	for i := 0; i < rank; i++ {
		size *= len(coords)
	}
	comps := make([]symbolic.Expr, size)
	for i := range comps {
		comps[i] = symbolic.N(0)
	}
	return &Tensor{symbol: symbol, coords: coords, rank: rank, comps: comps}
}

// TensorFromMatrix wraps a square matrix as a rank-2 tensor.
func TensorFromMatrix(symbol string, coords []string, m *symbolic.Matrix) *Tensor {
	t := newTensor(symbol, coords, 2)
	for i := range coords {
		for j := range coords {
			t.set(m.Get(i, j), i, j)
		}
	}
	return t
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != t.rank {
		panic(fmt.Sprintf("curvature: %d indices for rank %d tensor", len(idx), t.rank))
	}
	off := 0
	for _, i := range idx {
		if i < 0 || i >= len(t.coords) {
			panic(fmt.Sprintf("curvature: index %d out of range", i))
		}
		off = off*len(t.coords) + i
	}
	return off
}

// At returns the component at the given indices.
func (t *Tensor) At(idx ...int) symbolic.Expr { return t.comps[t.offset(idx)] }

func (t *Tensor) set(v symbolic.Expr, idx ...int) { t.comps[t.offset(idx)] = v }

func (t *Tensor) Rank() int        { return t.rank }
func (t *Tensor) Dim() int         { return len(t.coords) }
func (t *Tensor) Symbol() string   { return t.symbol }
func (t *Tensor) Coords() []string { return append([]string(nil), t.coords...) }

// IsZero reports whether every component is the number zero.
func (t *Tensor) IsZero() bool {
	for _, c := range t.comps {
		if !isZero(c) {
			return false
		}
	}
	return true
}

// Matrix returns a rank-2 tensor as a matrix.
func (t *Tensor) Matrix() *symbolic.Matrix {
	if t.rank != 2 {
		panic("curvature: Matrix of rank " + fmt.Sprint(t.rank) + " tensor")
	}
	d := t.Dim()
	return symbolic.MatrixFromSlice(d, d, append([]symbolic.Expr(nil), t.comps...))
}

// Map returns a tensor of the same shape with fn applied to every component.
func (t *Tensor) Map(fn func(symbolic.Expr) symbolic.Expr) *Tensor {
	out := &Tensor{symbol: t.symbol, coords: t.coords, rank: t.rank, comps: make([]symbolic.Expr, len(t.comps))}
	for i, c := range t.comps {
		out.comps[i] = fn(c)
	}
	return out
}

// String renders nested lists, so a rank-2 tensor reads like a matrix:
// [[a, b], [c, d]].
func (t *Tensor) String() string {
	var sb strings.Builder
	t.writeNested(&sb, 0, 0)
	return sb.String()
}

func (t *Tensor) writeNested(sb *strings.Builder, level, base int) {
	d := t.Dim()
	sb.WriteByte('[')
	for i := 0; i < d; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		if level == t.rank-1 {
			sb.WriteString(t.comps[base*d+i].String())
			continue
		}
		t.writeNested(sb, level+1, base*d+i)
	}
	sb.WriteByte(']')
}

// LaTeX renders a rank-2 tensor as a pmatrix and a rank-4 tensor as the
// aligned list of its nonzero components.
func (t *Tensor) LaTeX() string {
	if t.rank == 2 {
		return t.Matrix().LaTeX()
	}
	names := make([]string, len(t.coords))
	for i, c := range t.coords {
		names[i] = symbolic.S(c).LaTeX()
	}
	var lines []string
	idx := make([]int, t.rank)
	for off, c := range t.comps {
		if isZero(c) {
			continue
		}
		rem := off
		for k := t.rank - 1; k >= 0; k-- {
			idx[k] = rem % len(t.coords)
			rem /= len(t.coords)
		}
		sub := make([]string, t.rank)
		for k, i := range idx {
			sub[k] = names[i]
		}
		lines = append(lines, fmt.Sprintf("%s_{%s} &= %s", t.symbol, strings.Join(sub, " "), c.LaTeX()))
	}
	if len(lines) == 0 {
		return "0"
	}
	return "\\begin{aligned}" + strings.Join(lines, " \\\\ ") + "\\end{aligned}"
}

// JSON encodes the tensor with its components as nested expression trees.
func (t *Tensor) JSON() (string, error) {
	doc := map[string]interface{}{
		"type":       "tensor",
		"symbol":     t.symbol,
		"rank":       t.rank,
		"coords":     t.coords,
		"components": t.nestedJSON(0, 0),
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

func (t *Tensor) nestedJSON(level, base int) []interface{} {
	d := t.Dim()
	out := make([]interface{}, d)
	for i := 0; i < d; i++ {
		if level == t.rank-1 {
			out[i] = symbolic.JSONTree(t.comps[base*d+i])
			continue
		}
		out[i] = t.nestedJSON(level+1, base*d+i)
	}
	return out
}

// ============================================================
// Scalar
// ============================================================

// Scalar is a single invariant such as the Ricci or Kretschmann scalar.
type Scalar struct {
	Symbol string
	Expr   symbolic.Expr
}

func (s *Scalar) String() string { return s.Expr.String() }
func (s *Scalar) LaTeX() string  { return s.Expr.LaTeX() }

func (s *Scalar) JSON() (string, error) {
	b, err := json.Marshal(map[string]interface{}{
		"type":   "scalar",
		"symbol": s.Symbol,
		"value":  symbolic.JSONTree(s.Expr),
	})
	return string(b), err
}

func isZero(e symbolic.Expr) bool {
	n, ok := e.(*symbolic.Num)
	return ok && n.IsZero()
}
