package symbolic_test

import (
	"errors"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

func TestParse_RoundTrip(t *testing.T) {
	r, rs := symbolic.S("r"), symbolic.S("rs")
	exprs := []symbolic.Expr{
		symbolic.N(7),
		symbolic.F(-3, 4),
		symbolic.AddOf(symbolic.N(1), neg(symbolic.MulOf(rs, pow(r, -1)))),
		symbolic.MulOf(symbolic.N(-48), pow(symbolic.S("M"), 2), pow(r, -6)),
		neg(symbolic.MulOf(pow(r, 2), pow(symbolic.SinOf(theta), 2))),
		symbolic.MulOf(pow(symbolic.Fn("a", symbolic.S("t")), 2), pow(symbolic.AddOf(symbolic.N(1), neg(symbolic.MulOf(symbolic.S("k"), pow(r, 2)))), -1)),
		symbolic.MulOf(symbolic.N(2), symbolic.Diff(symbolic.Diff(symbolic.Fn("a", symbolic.S("t")), "t"), "t")),
		symbolic.SqrtOf(symbolic.AddOf(x, y)),
		symbolic.MulOf(x, pow(y, -1), pow(symbolic.S("z"), -1)),
	}
	for _, e := range exprs {
		s := e.String()
		got, err := symbolic.Parse(s)
		if err != nil {
			t.Errorf("Parse(%q): %v", s, err)
			continue
		}
		if got.String() != s {
			t.Errorf("round trip of %q gave %q", s, got.String())
		}
	}
}

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"-x^2", "-x^2"},
		{"2*x + 3*x", "5*x"},
		{"x - y - x", "-y"},
		{"(x + 1)^2", "(x + 1)^2"},
		{"1/2*x", "x/2"},
		{"  sin( theta ) ", "sin(theta)"},
	}
	for _, tt := range tests {
		got, err := symbolic.Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Parse(%q): want %s, got %s", tt.in, tt.want, got.String())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "x +", "(x", "x y", "1/0", "D[a]", "D[a", "3 $ 4"} {
		if _, err := symbolic.Parse(in); !errors.Is(err, symbolic.ErrParse) {
			t.Errorf("Parse(%q): want ErrParse, got %v", in, err)
		}
	}
}

func TestParseMatrix(t *testing.T) {
	m, err := symbolic.ParseMatrix("[[1, x], [x, y^2]]")
	if err != nil {
		t.Fatal(err)
	}
	if m.Rows() != 2 || m.Cols() != 2 {
		t.Fatalf("want 2x2, got %dx%d", m.Rows(), m.Cols())
	}
	if m.Get(1, 1).String() != "y^2" {
		t.Errorf("want y^2, got %s", m.Get(1, 1))
	}
	if !m.IsSymmetric() {
		t.Error("matrix should be symmetric")
	}
}

func TestParseMatrix_Errors(t *testing.T) {
	for _, in := range []string{"[[1, 2], [3]]", "[1, 2]", "[[1, 2]", "[[1]] x"} {
		if _, err := symbolic.ParseMatrix(in); !errors.Is(err, symbolic.ErrParse) {
			t.Errorf("ParseMatrix(%q): want ErrParse, got %v", in, err)
		}
	}
}

// ============================================================
// JSON tests
// ============================================================

func TestToJSON_Num(t *testing.T) {
	s, err := symbolic.ToJSON(symbolic.F(1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if s != `{"type":"num","value":"1/2"}` {
		t.Errorf("unexpected JSON: %s", s)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	e := symbolic.MulOf(symbolic.N(2), x, pow(symbolic.SinOf(theta), 2), pow(symbolic.Fn("a", symbolic.S("t")), -1))
	s, err := symbolic.ToJSON(e)
	if err != nil {
		t.Fatal(err)
	}
	back, err := symbolic.ParseJSON(s)
	if err != nil {
		t.Fatal(err)
	}
	if back.String() != e.String() {
		t.Errorf("want %s, got %s", e, back)
	}
}

func TestFromJSON_Errors(t *testing.T) {
	for _, in := range []string{`{}`, `{"type":"num","value":"abc"}`, `{"type":"pow","base":{"type":"sym","name":"x"}}`, `{"type":"wat"}`, `[`} {
		if _, err := symbolic.ParseJSON(in); !errors.Is(err, symbolic.ErrParse) {
			t.Errorf("ParseJSON(%s): want ErrParse, got %v", in, err)
		}
	}
}
