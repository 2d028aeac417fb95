package catalog

import (
	"github.com/njchilds90/gocurvature/symbolic"
)

func n(v int64) symbolic.Expr { return symbolic.N(v) }

func neg(e symbolic.Expr) symbolic.Expr { return symbolic.MulOf(n(-1), e) }

func sq(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, n(2)) }

func inv(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, n(-1)) }

// spherical returns fresh (t, r, theta, phi) symbols.
func spherical() []*symbolic.Sym {
	return []*symbolic.Sym{symbolic.S("t"), symbolic.S("r"), symbolic.S("theta"), symbolic.S("phi")}
}

// buildSchwarzschild uses the mostly-minus form with c = 1 in the line
// element and the radius kept general as rs = 2GM/c^2:
//
//	diag(1 - rs/r, -1/(1 - rs/r), -r^2, -r^2 sin(theta)^2)
func buildSchwarzschild() *MetricTensor {
	coords := spherical()
	r, theta := coords[1], coords[2]
	G, M, c := symbolic.S("G"), symbolic.S("M"), symbolic.S("c")

	rs := symbolic.MulOf(n(2), G, M, symbolic.PowOf(c, n(-2)))
	f := symbolic.AddOf(n(1), neg(symbolic.MulOf(rs, inv(r))))
	sin2 := sq(symbolic.SinOf(theta))

	return &MetricTensor{
		Name:   Schwarzschild,
		Coords: coords,
		Components: symbolic.Diagonal(
			f,
			neg(inv(f)),
			neg(sq(r)),
			neg(symbolic.MulOf(sq(r), sin2)),
		),
		Signature: MostlyMinus,
		Params:    []string{"G", "M", "c"},
	}
}

// kerrFamily builds the Boyer-Lindquist metric with mass term m(r):
// m = r_s r for Kerr and m = r_s r - Q^2 for Kerr-Newman, where delta
// absorbs the matching charge term.
//
//	Sigma  = r^2 + a^2 cos(theta)^2
//	g_tt   = 1 - m/Sigma
//	g_rr   = -Sigma/Delta
//	g_thth = -Sigma
//	g_phph = -(r^2 + a^2 + m a^2 sin(theta)^2/Sigma) sin(theta)^2
//	g_tph  = m a sin(theta)^2/Sigma
func kerrFamily(name Name, m, delta symbolic.Expr, coords []*symbolic.Sym, params []string) *MetricTensor {
	r, theta := coords[1], coords[2]
	a := symbolic.S("a")
	sin2 := sq(symbolic.SinOf(theta))
	sigma := symbolic.AddOf(sq(r), symbolic.MulOf(sq(a), sq(symbolic.CosOf(theta))))

	gtt := symbolic.AddOf(n(1), neg(symbolic.MulOf(m, inv(sigma))))
	grr := neg(symbolic.MulOf(sigma, inv(delta)))
	gthth := neg(sigma)
	gphph := neg(symbolic.MulOf(
		symbolic.AddOf(sq(r), sq(a), symbolic.MulOf(m, sq(a), sin2, inv(sigma))),
		sin2,
	))
	gtph := symbolic.MulOf(m, a, sin2, inv(sigma))

	g := symbolic.Diagonal(gtt, grr, gthth, gphph)
	g.Set(0, 3, gtph)
	g.Set(3, 0, gtph)
	return &MetricTensor{
		Name:       name,
		Coords:     coords,
		Components: g,
		Signature:  MostlyMinus,
		Params:     params,
	}
}

func buildKerr() *MetricTensor {
	coords := spherical()
	r := coords[1]
	rs, a := symbolic.S("r_s"), symbolic.S("a")
	m := symbolic.MulOf(rs, r)
	delta := symbolic.AddOf(sq(r), neg(m), sq(a))
	return kerrFamily(Kerr, m, delta, coords, []string{"r_s", "a"})
}

// buildKerrNewman uses geometrized units with r_Q^2 = Q^2.
func buildKerrNewman() *MetricTensor {
	coords := spherical()
	r := coords[1]
	rs, a, q := symbolic.S("r_s"), symbolic.S("a"), symbolic.S("Q")
	m := symbolic.AddOf(symbolic.MulOf(rs, r), neg(sq(q)))
	delta := symbolic.AddOf(sq(r), neg(symbolic.MulOf(rs, r)), sq(a), sq(q))
	return kerrFamily(KerrNewman, m, delta, coords, []string{"r_s", "a", "Q"})
}

// buildFLRW is the mostly-plus Robertson-Walker metric:
//
//	diag(-1, a(t)^2/(1 - k r^2), a(t)^2 r^2, a(t)^2 r^2 sin(theta)^2)
func buildFLRW() *MetricTensor {
	coords := spherical()
	t, r, theta := coords[0], coords[1], coords[2]
	k := symbolic.S("k")
	a2 := sq(symbolic.Fn("a", t))

	return &MetricTensor{
		Name:   FLRW,
		Coords: coords,
		Components: symbolic.Diagonal(
			n(-1),
			symbolic.MulOf(a2, inv(symbolic.AddOf(n(1), neg(symbolic.MulOf(k, sq(r)))))),
			symbolic.MulOf(a2, sq(r)),
			symbolic.MulOf(a2, sq(r), sq(symbolic.SinOf(theta))),
		),
		Signature: MostlyPlus,
		Params:    []string{"k"},
	}
}
