package symbolic_test

import (
	"errors"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

func TestMatrix_StringAndLaTeX(t *testing.T) {
	m := symbolic.Diagonal(symbolic.N(-1), pow(x, 2))
	if m.String() != "[[-1, 0], [0, x^2]]" {
		t.Errorf("unexpected String: %s", m.String())
	}
	if m.LaTeX() != `\begin{pmatrix}-1 & 0 \\ 0 & x^{2}\end{pmatrix}` {
		t.Errorf("unexpected LaTeX: %s", m.LaTeX())
	}
}

func TestMatrix_Det(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, symbolic.N(1), symbolic.N(1), x})
	d, err := m.Det()
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "x^2 - 1" {
		t.Errorf("want x^2 - 1, got %s", d)
	}
	if _, err := symbolic.NewMatrix(2, 3).Det(); !errors.Is(err, symbolic.ErrDimension) {
		t.Errorf("want ErrDimension, got %v", err)
	}
}

func TestMatrix_Inverse(t *testing.T) {
	entries := []symbolic.Expr{
		x, symbolic.N(1), symbolic.N(0),
		symbolic.N(1), x, symbolic.SinOf(theta),
		symbolic.N(0), symbolic.SinOf(theta), y,
	}
	m := symbolic.MatrixFromSlice(3, 3, entries)
	inv, err := m.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	// m * inv must be the identity.
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			terms := make([]symbolic.Expr, 3)
			for k := 0; k < 3; k++ {
				terms[k] = symbolic.Product(m.Get(i, k), inv.Get(k, j))
			}
			got := mustCanonical(t, symbolic.Sum(terms...)).String()
			want := "0"
			if i == j {
				want = "1"
			}
			if got != want {
				t.Errorf("(m*inv)[%d][%d]: want %s, got %s", i, j, want, got)
			}
		}
	}
	if !inv.IsSymmetric() {
		t.Error("inverse of a symmetric matrix should be symmetric")
	}
}

func TestMatrix_Inverse_Singular(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{x, y, symbolic.MulOf(symbolic.N(2), x), symbolic.MulOf(symbolic.N(2), y)})
	if _, err := m.Inverse(); !errors.Is(err, symbolic.ErrSingular) {
		t.Errorf("want ErrSingular, got %v", err)
	}
}

func TestMatrix_IsSymmetric(t *testing.T) {
	// Entries that differ structurally but agree canonically.
	a := symbolic.Product(x, pow(x, -1), y)
	m := symbolic.MatrixFromSlice(2, 2, []symbolic.Expr{symbolic.N(1), a, y, symbolic.N(1)})
	if !m.IsSymmetric() {
		t.Error("matrix should be symmetric")
	}
	m.Set(1, 0, x)
	if m.IsSymmetric() {
		t.Error("matrix should not be symmetric")
	}
}

func TestMatrix_ApplySub(t *testing.T) {
	m := symbolic.Diagonal(x, pow(x, 2))
	got := m.ApplySub("x", symbolic.N(3))
	if got.String() != "[[3, 0], [0, 9]]" {
		t.Errorf("unexpected result: %s", got)
	}
}

func TestMatrixToJSON(t *testing.T) {
	s, err := symbolic.MatrixToJSON(symbolic.Identity(1))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"cols":1,"data":[[{"type":"num","value":"1"}]],"rows":1,"type":"matrix"}`
	if s != want {
		t.Errorf("want %s, got %s", want, s)
	}
}
