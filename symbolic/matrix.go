package symbolic

import (
	"fmt"
	"strings"
)

// ============================================================
// Matrix: symbolic matrix
// ============================================================

type Matrix struct {
	rows, cols int
	data       [][]Expr
}

func NewMatrix(rows, cols int) *Matrix {
	data := make([][]Expr, rows)
	for i := range data {
		data[i] = make([]Expr, cols)
		for j := range data[i] {
			data[i][j] = N(0)
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

func MatrixFromSlice(rows, cols int, entries []Expr) *Matrix {
	if len(entries) != rows*cols {
		panic(fmt.Sprintf("symbolic: MatrixFromSlice needs %d entries, got %d", rows*cols, len(entries)))
	}
	m := NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i][j] = entries[i*cols+j]
		}
	}
	return m
}

// Diagonal builds a square matrix with the given diagonal and zeros elsewhere.
func Diagonal(entries ...Expr) *Matrix {
	m := NewMatrix(len(entries), len(entries))
	for i, e := range entries {
		m.data[i][i] = e
	}
	return m
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("symbolic: matrix index out of range [%d,%d] for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row][col]
}
func (m *Matrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	m.data[row][col] = val
}
func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i][j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

func (m *Matrix) LaTeX() string {
	var sb strings.Builder
	sb.WriteString("\\begin{pmatrix}")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(" \\\\ ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(" & ")
			}
			sb.WriteString(m.data[i][j].LaTeX())
		}
	}
	sb.WriteString("\\end{pmatrix}")
	return sb.String()
}

func (m *Matrix) Transpose() *Matrix {
	result := NewMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[j][i] = m.data[i][j]
		}
	}
	return result
}

// IsSymmetric reports whether m equals its transpose, comparing entries
// structurally first and canonically when the structures differ.
func (m *Matrix) IsSymmetric() bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i + 1; j < m.cols; j++ {
			a, b := m.data[i][j], m.data[j][i]
			if !a.Equal(b) && !Equivalent(a, b) {
				return false
			}
		}
	}
	return true
}

// Rat converts every entry into ring.
func (m *Matrix) Rat(ring *Ring) ([][]*Rat, error) {
	out := make([][]*Rat, m.rows)
	for i := range out {
		out[i] = make([]*Rat, m.cols)
		for j := range out[i] {
			q, err := ring.FromExpr(m.data[i][j])
			if err != nil {
				return nil, fmt.Errorf("entry [%d,%d]: %w", i, j, err)
			}
			out[i][j] = q
		}
	}
	return out, nil
}

// MatrixFromRat renders a grid of rational functions.
func MatrixFromRat(q [][]*Rat) *Matrix {
	rows := len(q)
	cols := 0
	if rows > 0 {
		cols = len(q[0])
	}
	m := NewMatrix(rows, cols)
	for i := range q {
		for j := range q[i] {
			m.data[i][j] = q[i][j].Expr()
		}
	}
	return m
}

// Det computes the determinant by elimination over canonical rational
// functions.
func (m *Matrix) Det() (Expr, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("%w: Det of %dx%d matrix", ErrDimension, m.rows, m.cols)
	}
	ring := NewRing()
	q, err := m.Rat(ring)
	if err != nil {
		return nil, err
	}
	return DetRat(q).Expr(), nil
}

func (m *Matrix) Inverse() (*Matrix, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("%w: Inverse of %dx%d matrix", ErrDimension, m.rows, m.cols)
	}
	ring := NewRing()
	q, err := m.Rat(ring)
	if err != nil {
		return nil, err
	}
	inv, err := InvertRat(q)
	if err != nil {
		return nil, err
	}
	return MatrixFromRat(inv), nil
}

// pivotRow picks the simplest nonzero entry in column col at or below row.
func pivotRow(a [][]*Rat, col, from int) int {
	best := -1
	for i := from; i < len(a); i++ {
		if a[i][col].IsZero() {
			continue
		}
		if best < 0 || a[i][col].Size() < a[best][col].Size() {
			best = i
		}
	}
	return best
}

// DetRat computes the determinant of a square grid by Gaussian elimination.
func DetRat(q [][]*Rat) *Rat {
	n := len(q)
	if n == 0 {
		panic("symbolic: DetRat of empty matrix")
	}
	ring := q[0][0].ring
	a := make([][]*Rat, n)
	for i := range q {
		a[i] = append([]*Rat(nil), q[i]...)
	}
	det := ring.One()
	for col := 0; col < n; col++ {
		p := pivotRow(a, col, col)
		if p < 0 {
			return ring.Zero()
		}
		if p != col {
			a[p], a[col] = a[col], a[p]
			det = det.Neg()
		}
		pivot := a[col][col]
		det = det.Mul(pivot)
		inv, err := pivot.Inv()
		if err != nil {
			return ring.Zero()
		}
		for i := col + 1; i < n; i++ {
			if a[i][col].IsZero() {
				continue
			}
			f := a[i][col].Mul(inv)
			for j := col; j < n; j++ {
				a[i][j] = a[i][j].Sub(f.Mul(a[col][j]))
			}
		}
	}
	return det
}

// InvertRat inverts a square grid by Gauss–Jordan elimination. It fails with
// ErrSingular when some column has no nonzero pivot.
func InvertRat(q [][]*Rat) ([][]*Rat, error) {
	n := len(q)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrDimension)
	}
	ring := q[0][0].ring
	a := make([][]*Rat, n)
	inv := make([][]*Rat, n)
	for i := range q {
		if len(q[i]) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrDimension, i, len(q[i]), n)
		}
		a[i] = append([]*Rat(nil), q[i]...)
		inv[i] = make([]*Rat, n)
		for j := range inv[i] {
			inv[i][j] = ring.Zero()
		}
		inv[i][i] = ring.One()
	}
	for col := 0; col < n; col++ {
		p := pivotRow(a, col, col)
		if p < 0 {
			return nil, fmt.Errorf("%w: no pivot in column %d", ErrSingular, col)
		}
		a[p], a[col] = a[col], a[p]
		inv[p], inv[col] = inv[col], inv[p]

		pinv, err := a[col][col].Inv()
		if err != nil {
			return nil, err
		}
		for j := 0; j < n; j++ {
			a[col][j] = a[col][j].Mul(pinv)
			inv[col][j] = inv[col][j].Mul(pinv)
		}
		for i := 0; i < n; i++ {
			if i == col || a[i][col].IsZero() {
				continue
			}
			f := a[i][col]
			for j := 0; j < n; j++ {
				a[i][j] = a[i][j].Sub(f.Mul(a[col][j]))
				inv[i][j] = inv[i][j].Sub(f.Mul(inv[col][j]))
			}
		}
	}
	return inv, nil
}

// ApplySub substitutes value for varName in every entry.
func (m *Matrix) ApplySub(varName string, value Expr) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = m.data[i][j].Sub(varName, value).Simplify()
		}
	}
	return result
}

func (m *Matrix) ApplyDiff(varName string) *Matrix {
	result := NewMatrix(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			result.data[i][j] = m.data[i][j].Diff(varName).Simplify()
		}
	}
	return result
}

func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i][i] = N(1)
	}
	return m
}

func (m *Matrix) toJSON() map[string]interface{} {
	rows := make([]interface{}, m.rows)
	for i := range m.data {
		row := make([]interface{}, m.cols)
		for j, e := range m.data[i] {
			row[j] = e.toJSON()
		}
		rows[i] = row
	}
	return map[string]interface{}{"type": "matrix", "rows": m.rows, "cols": m.cols, "data": rows}
}
