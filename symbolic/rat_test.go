package symbolic_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/njchilds90/gocurvature/symbolic"
)

var (
	x     = symbolic.S("x")
	y     = symbolic.S("y")
	theta = symbolic.S("theta")
)

func pow(b symbolic.Expr, n int64) symbolic.Expr { return symbolic.PowOf(b, symbolic.N(n)) }
func neg(e symbolic.Expr) symbolic.Expr           { return symbolic.MulOf(symbolic.N(-1), e) }

func mustCanonical(t *testing.T, e symbolic.Expr) symbolic.Expr {
	t.Helper()
	out, err := symbolic.Canonical(e)
	if err != nil {
		t.Fatalf("Canonical(%s): %v", e, err)
	}
	return out
}

func TestCanonical_CancelsCommonFactor(t *testing.T) {
	// (x^2 - 1)/(x - 1) = x + 1
	e := symbolic.Product(
		symbolic.AddOf(pow(x, 2), symbolic.N(-1)),
		pow(symbolic.AddOf(x, symbolic.N(-1)), -1),
	)
	if got := mustCanonical(t, e).String(); got != "x + 1" {
		t.Errorf("want x + 1, got %s", got)
	}
}

func TestCanonical_SelfQuotient(t *testing.T) {
	e := symbolic.Product(x, pow(x, -1))
	if got := mustCanonical(t, e).String(); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestCanonical_ExpandsSquares(t *testing.T) {
	// (x + y)^2 - x^2 - 2xy - y^2 = 0
	e := symbolic.Sum(
		pow(symbolic.AddOf(x, y), 2),
		neg(pow(x, 2)),
		symbolic.MulOf(symbolic.N(-2), x, y),
		neg(pow(y, 2)),
	)
	if got := mustCanonical(t, e).String(); got != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestCanonical_Pythagorean(t *testing.T) {
	e := symbolic.Sum(pow(symbolic.SinOf(theta), 2), pow(symbolic.CosOf(theta), 2))
	if got := mustCanonical(t, e).String(); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestCanonical_CosSquaredOverOneMinusSinSquared(t *testing.T) {
	e := symbolic.Product(
		pow(symbolic.CosOf(theta), 2),
		pow(symbolic.AddOf(symbolic.N(1), neg(pow(symbolic.SinOf(theta), 2))), -1),
	)
	if got := mustCanonical(t, e).String(); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestCanonical_CotangentTimesTangent(t *testing.T) {
	cot := symbolic.Product(symbolic.CosOf(theta), pow(symbolic.SinOf(theta), -1))
	e := symbolic.Product(cot, symbolic.TanOf(theta))
	if got := mustCanonical(t, e).String(); got != "1" {
		t.Errorf("want 1, got %s", got)
	}
}

func TestCanonical_OrderIndependent(t *testing.T) {
	a := mustCanonical(t, symbolic.Sum(pow(y, 2), x, symbolic.N(3))).String()
	b := mustCanonical(t, symbolic.Sum(symbolic.N(3), x, pow(y, 2))).String()
	if a != b {
		t.Errorf("canonical forms differ: %s vs %s", a, b)
	}
}

func TestCanonical_DivisionByZero(t *testing.T) {
	e := symbolic.Product(x, pow(symbolic.Sum(x, neg(x)), -1))
	if _, err := symbolic.Canonical(e); !errors.Is(err, symbolic.ErrSingular) {
		t.Errorf("want ErrSingular, got %v", err)
	}
}

func TestDeepSimplify_FallsBack(t *testing.T) {
	e := symbolic.Product(x, pow(symbolic.Sum(x, neg(x)), -1))
	if got := symbolic.DeepSimplify(e); got == nil {
		t.Error("DeepSimplify should return the light simplification on failure")
	}
}

func TestEquivalent(t *testing.T) {
	a := symbolic.Product(symbolic.SinOf(theta), symbolic.SinOf(theta))
	b := symbolic.AddOf(symbolic.N(1), neg(pow(symbolic.CosOf(theta), 2)))
	if !symbolic.Equivalent(a, b) {
		t.Errorf("sin^2 should be equivalent to 1 - cos^2")
	}
	if symbolic.Equivalent(a, symbolic.N(1)) {
		t.Errorf("sin^2 should not be equivalent to 1")
	}
}

func TestRat_Arithmetic(t *testing.T) {
	r := symbolic.NewRing()
	rx := r.Var("x")
	one := r.One()
	// 1/(x-1) - 1/(x+1) = 2/(x^2-1)
	a, err := one.Quo(rx.Sub(one))
	if err != nil {
		t.Fatal(err)
	}
	b, err := one.Quo(rx.Add(one))
	if err != nil {
		t.Fatal(err)
	}
	lhs := a.Sub(b)
	den := rx.Mul(rx).Sub(one)
	rhs, err := r.Int(2).Quo(den)
	if err != nil {
		t.Fatal(err)
	}
	if !lhs.Equal(rhs) {
		t.Errorf("want %s, got %s", rhs, lhs)
	}
	back, err := lhs.Mul(den).Quo(r.Int(2))
	if err != nil {
		t.Fatal(err)
	}
	if back.String() != "1" {
		t.Errorf("want 1, got %s", back)
	}
}

func TestRat_Inv_Zero(t *testing.T) {
	r := symbolic.NewRing()
	if _, err := r.Zero().Inv(); !errors.Is(err, symbolic.ErrSingular) {
		t.Errorf("want ErrSingular, got %v", err)
	}
}

func TestRat_Pow(t *testing.T) {
	r := symbolic.NewRing()
	rx := r.Var("x")
	p, err := rx.Add(r.One()).Pow(3)
	if err != nil {
		t.Fatal(err)
	}
	if p.String() != "x^3 + 3*x^2 + 3*x + 1" {
		t.Errorf("want x^3 + 3*x^2 + 3*x + 1, got %s", p)
	}
	inv, err := rx.Pow(-2)
	if err != nil {
		t.Fatal(err)
	}
	if inv.String() != "1/x^2" {
		t.Errorf("want 1/x^2, got %s", inv)
	}
}

func TestRat_Diff_Quotient(t *testing.T) {
	// d/dx x^3/(x+1) = (2x^3 + 3x^2)/(x+1)^2
	r := symbolic.NewRing()
	f, err := r.FromExpr(symbolic.Product(pow(x, 3), pow(symbolic.AddOf(x, symbolic.N(1)), -1)))
	if err != nil {
		t.Fatal(err)
	}
	df, err := f.Diff("x")
	if err != nil {
		t.Fatal(err)
	}
	want, err := r.FromExpr(symbolic.Product(
		symbolic.AddOf(symbolic.MulOf(symbolic.N(2), pow(x, 3)), symbolic.MulOf(symbolic.N(3), pow(x, 2))),
		pow(symbolic.AddOf(x, symbolic.N(1)), -2),
	))
	if err != nil {
		t.Fatal(err)
	}
	if !df.Equal(want) {
		t.Errorf("want %s, got %s", want, df)
	}
}

func TestRat_Diff_Trig(t *testing.T) {
	// d/dtheta (cos/sin) = -1/sin^2
	r := symbolic.NewRing()
	cot, err := r.FromExpr(symbolic.Product(symbolic.CosOf(theta), pow(symbolic.SinOf(theta), -1)))
	if err != nil {
		t.Fatal(err)
	}
	d, err := cot.Diff("theta")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "-1/sin(theta)^2" {
		t.Errorf("want -1/sin(theta)^2, got %s", d)
	}
}

func TestRat_Diff_UndefinedFunction(t *testing.T) {
	// d/dt a(t)^2 = 2 a(t) D[a](t)
	r := symbolic.NewRing()
	a, err := r.FromExpr(pow(symbolic.Fn("a", symbolic.S("t")), 2))
	if err != nil {
		t.Fatal(err)
	}
	d, err := a.Diff("t")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2*D[a](t)*a(t)" {
		t.Errorf("want 2*D[a](t)*a(t), got %s", d)
	}
}

func TestRing_ConcurrentUse(t *testing.T) {
	r := symbolic.NewRing()
	base := symbolic.Product(
		symbolic.AddOf(pow(x, 2), neg(pow(symbolic.CosOf(theta), 2))),
		pow(symbolic.AddOf(x, symbolic.SinOf(theta)), -1),
	)
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := r.FromExpr(base)
			if err != nil {
				t.Error(err)
				return
			}
			d, err := q.Diff("theta")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = d.String()
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Errorf("result %d differs: %s vs %s", i, results[i], results[0])
		}
	}
}

func TestTrigSimplify(t *testing.T) {
	e := symbolic.AddOf(pow(symbolic.SinOf(x), 2), pow(symbolic.CosOf(x), 2))
	if got := symbolic.TrigSimplify(e).String(); got != "1" {
		t.Errorf("sin^2+cos^2 should be 1, got %s", got)
	}
	e = symbolic.AddOf(symbolic.N(1), neg(pow(symbolic.SinOf(x), 2)))
	if got := symbolic.TrigSimplify(e).String(); got != "cos(x)^2" {
		t.Errorf("1 - sin^2 should be cos(x)^2, got %s", got)
	}
}

func TestTrigSimplify_FoldsInsideLongerSums(t *testing.T) {
	a, r, th := symbolic.S("a"), symbolic.S("r"), symbolic.S("theta")
	tests := []struct {
		name string
		in   symbolic.Expr
		want string
	}{
		{
			"sigma",
			symbolic.AddOf(neg(symbolic.MulOf(pow(a, 2), pow(symbolic.SinOf(th), 2))), pow(a, 2), pow(r, 2)),
			"a^2*cos(theta)^2 + r^2",
		},
		{
			"symbolic pythagorean pair",
			symbolic.AddOf(
				symbolic.MulOf(pow(a, 2), pow(symbolic.SinOf(th), 2)),
				symbolic.MulOf(pow(a, 2), pow(symbolic.CosOf(th), 2)),
				pow(r, 2),
			),
			"a^2 + r^2",
		},
		{
			"no matching constant",
			symbolic.AddOf(neg(symbolic.MulOf(pow(a, 2), pow(symbolic.SinOf(th), 2))), pow(r, 2)),
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := symbolic.TrigSimplify(tt.in)
			if tt.want == "" {
				if got.String() != tt.in.String() {
					t.Errorf("expected %s unchanged, got %s", tt.in, got)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			if !symbolic.Equivalent(got, tt.in) {
				t.Errorf("%s is not equivalent to %s", got, tt.in)
			}
		})
	}
}
