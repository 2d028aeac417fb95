package catalog_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gocurvature/internal/catalog"
	"github.com/njchilds90/gocurvature/symbolic"
)

var (
	r     = symbolic.S("r")
	theta = symbolic.S("theta")
)

func sq(e symbolic.Expr) symbolic.Expr { return symbolic.PowOf(e, symbolic.N(2)) }

func TestNames(t *testing.T) {
	want := []catalog.Name{catalog.Schwarzschild, catalog.Kerr, catalog.KerrNewman, catalog.FLRW}
	if diff := cmp.Diff(want, catalog.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, catalog.Entries(), len(want))
}

func TestLookup_Unknown(t *testing.T) {
	for _, name := range []string{"Minkowski", "schwarzschild", ""} {
		_, err := catalog.Lookup(name)
		assert.ErrorIs(t, err, catalog.ErrUnknownMetric, name)
	}
}

func TestLookup_AllMetricsAreWellFormed(t *testing.T) {
	for _, name := range catalog.Names() {
		t.Run(string(name), func(t *testing.T) {
			m, err := catalog.Lookup(string(name))
			require.NoError(t, err)
			assert.Equal(t, name, m.Name)
			assert.Equal(t, 4, m.Dim())
			assert.Equal(t, []string{"t", "r", "theta", "phi"}, m.CoordNames())
			assert.NoError(t, m.Check())
			assert.NotEmpty(t, m.Params)
		})
	}
}

func TestLookup_ReturnsFreshMetric(t *testing.T) {
	a, err := catalog.Lookup("Schwarzschild")
	require.NoError(t, err)
	b, err := catalog.Lookup("Schwarzschild")
	require.NoError(t, err)
	a.Components.Set(0, 0, symbolic.N(42))
	assert.NotEqual(t, "42", b.Components.Get(0, 0).String())
}

func TestSignature(t *testing.T) {
	s, _ := catalog.Lookup("Schwarzschild")
	f, _ := catalog.Lookup("FLRW")
	assert.Equal(t, catalog.MostlyMinus, s.Signature)
	assert.Equal(t, catalog.MostlyPlus, f.Signature)
	assert.Equal(t, "-+++", f.Signature.String())
}

func TestFLRW_Diagonal(t *testing.T) {
	m, err := catalog.Lookup("FLRW")
	require.NoError(t, err)
	a2 := sq(symbolic.Fn("a", symbolic.S("t")))
	k := symbolic.S("k")
	want := []symbolic.Expr{
		symbolic.N(-1),
		symbolic.Product(a2, symbolic.PowOf(symbolic.Sum(symbolic.N(1), symbolic.Product(symbolic.N(-1), k, sq(r))), symbolic.N(-1))),
		symbolic.Product(a2, sq(r)),
		symbolic.Product(a2, sq(r), sq(symbolic.SinOf(theta))),
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			got := m.Components.Get(i, j)
			if i != j {
				assert.Equal(t, "0", got.String(), "g[%d][%d]", i, j)
				continue
			}
			assert.True(t, symbolic.Equivalent(got, want[i]), "g[%d][%d] = %s", i, i, got)
		}
	}
}

func TestSchwarzschild_RadialProduct(t *testing.T) {
	m, err := catalog.Lookup("Schwarzschild")
	require.NoError(t, err)
	prod := symbolic.Product(m.Components.Get(0, 0), m.Components.Get(1, 1))
	assert.True(t, symbolic.Equivalent(prod, symbolic.N(-1)), "g_tt*g_rr = %s", prod)
}

func TestKerrFamily_Determinant(t *testing.T) {
	a := symbolic.S("a")
	sigma := symbolic.Sum(sq(r), symbolic.Product(sq(a), sq(symbolic.CosOf(theta))))
	want := symbolic.Product(symbolic.N(-1), sq(sigma), sq(symbolic.SinOf(theta)))
	for _, name := range []string{"Kerr", "KerrNewman"} {
		t.Run(name, func(t *testing.T) {
			m, err := catalog.Lookup(name)
			require.NoError(t, err)
			det, err := m.Components.Det()
			require.NoError(t, err)
			assert.True(t, symbolic.Equivalent(det, want), "det = %s", det)
		})
	}
}

func TestKerr_ReducesToSchwarzschildAtZeroSpin(t *testing.T) {
	kerr, err := catalog.Lookup("Kerr")
	require.NoError(t, err)
	schw, err := catalog.Lookup("Schwarzschild")
	require.NoError(t, err)
	rs := symbolic.Product(symbolic.N(2), symbolic.S("G"), symbolic.S("M"), symbolic.PowOf(symbolic.S("c"), symbolic.N(-2)))
	subs := map[string]symbolic.Expr{"a": symbolic.N(0), "r_s": rs}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			got := symbolic.Replace(kerr.Components.Get(i, j), subs)
			assert.True(t, symbolic.Equivalent(got, schw.Components.Get(i, j)), "g[%d][%d]", i, j)
		}
	}
}
