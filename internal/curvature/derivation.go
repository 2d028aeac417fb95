package curvature

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/gocurvature/internal/catalog"
	"github.com/njchilds90/gocurvature/symbolic"
)

// derivation holds the intermediate quantities of one metric, all as
// canonical rational functions over a single ring. Each stage is computed on
// first use, so several operations on one engine share the Riemann tensor.
// A derivation is driven by one goroutine; only the per-component work
// inside a stage runs in parallel.
type derivation struct {
	ring    *symbolic.Ring
	coords  []string
	workers int

	g       [][]*symbolic.Rat
	ginv    [][]*symbolic.Rat
	gamma   [][][]*symbolic.Rat   // Γ^a_bc
	riemann [][][][]*symbolic.Rat // R_abcd
	ricci   [][]*symbolic.Rat     // R_bd
	scalar  *symbolic.Rat
	weyl    [][][][]*symbolic.Rat // C_abcd
}

type pair struct{ i, j int }

func newDerivation(m *catalog.MetricTensor, workers int) (*derivation, error) {
	ring := symbolic.NewRing()
	g, err := m.Components.Rat(ring)
	if err != nil {
		return nil, fmt.Errorf("metric %s: %w", m.Name, err)
	}
	return &derivation{ring: ring, coords: m.CoordNames(), workers: workers, g: g}, nil
}

func (d *derivation) dim() int { return len(d.coords) }

// upperPairs lists (i, j) with i <= j.
func (d *derivation) upperPairs() []pair {
	var out []pair
	for i := 0; i < d.dim(); i++ {
		for j := i; j < d.dim(); j++ {
			out = append(out, pair{i, j})
		}
	}
	return out
}

// strictPairs lists (i, j) with i < j.
func (d *derivation) strictPairs() []pair {
	var out []pair
	for i := 0; i < d.dim(); i++ {
		for j := i + 1; j < d.dim(); j++ {
			out = append(out, pair{i, j})
		}
	}
	return out
}

// parallel runs fn(0..n-1) on at most d.workers goroutines. It stops
// scheduling once ctx is done and turns panics into errors.
func (d *derivation) parallel(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("%w: panic: %v", symbolic.ErrUnsupported, rec)
				}
			}()
			if cerr := gctx.Err(); cerr != nil {
				return cerr
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *derivation) inverse() ([][]*symbolic.Rat, error) {
	if d.ginv == nil {
		inv, err := symbolic.InvertRat(d.g)
		if err != nil {
			return nil, fmt.Errorf("inverse metric: %w", err)
		}
		d.ginv = inv
	}
	return d.ginv, nil
}

// christoffel computes Γ^a_bc = ½ g^{ad} (∂_b g_dc + ∂_c g_db - ∂_d g_bc).
func (d *derivation) christoffel(ctx context.Context) ([][][]*symbolic.Rat, error) {
	if d.gamma != nil {
		return d.gamma, nil
	}
	ginv, err := d.inverse()
	if err != nil {
		return nil, err
	}
	n := d.dim()
	pairs := d.upperPairs()

	// dg[k][i][j] = ∂_k g_ij
	dg := cube(n)
	err = d.parallel(ctx, n*len(pairs), func(x int) error {
		k, p := x/len(pairs), pairs[x%len(pairs)]
		v, err := d.g[p.i][p.j].Diff(d.coords[k])
		if err != nil {
			return fmt.Errorf("∂_%s g_%d%d: %w", d.coords[k], p.i, p.j, err)
		}
		dg[k][p.i][p.j], dg[k][p.j][p.i] = v, v
		return nil
	})
	if err != nil {
		return nil, err
	}

	half := d.ring.FromBigRat(big.NewRat(1, 2))
	// first[dd][b][c] = Γ_{dd bc}, the symbols of the first kind.
	first := cube(n)
	err = d.parallel(ctx, n*len(pairs), func(x int) error {
		dd, p := x/len(pairs), pairs[x%len(pairs)]
		b, c := p.i, p.j
		v := d.ring.Sum(dg[b][dd][c], dg[c][dd][b], dg[dd][b][c].Neg()).Mul(half)
		first[dd][b][c], first[dd][c][b] = v, v
		return nil
	})
	if err != nil {
		return nil, err
	}

	gamma := cube(n)
	err = d.parallel(ctx, n*len(pairs), func(x int) error {
		a, p := x/len(pairs), pairs[x%len(pairs)]
		terms := make([]*symbolic.Rat, 0, n)
		for dd := 0; dd < n; dd++ {
			if ginv[a][dd].IsZero() || first[dd][p.i][p.j].IsZero() {
				continue
			}
			terms = append(terms, ginv[a][dd].Mul(first[dd][p.i][p.j]))
		}
		v := d.ring.Sum(terms...)
		gamma[a][p.i][p.j], gamma[a][p.j][p.i] = v, v
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.gamma = gamma
	return gamma, nil
}

// curvature computes the fully lowered Riemann tensor from
//
//	R^a_bcd = ∂_c Γ^a_db - ∂_d Γ^a_cb + Γ^a_ce Γ^e_db - Γ^a_de Γ^e_cb
//	R_abcd  = g_ae R^e_bcd
func (d *derivation) curvature(ctx context.Context) ([][][][]*symbolic.Rat, error) {
	if d.riemann != nil {
		return d.riemann, nil
	}
	gamma, err := d.christoffel(ctx)
	if err != nil {
		return nil, err
	}
	n := d.dim()
	pairs := d.upperPairs()

	// dgamma[k][a][b][c] = ∂_k Γ^a_bc
	dgamma := make([][][][]*symbolic.Rat, n)
	for k := range dgamma {
		dgamma[k] = cube(n)
	}
	err = d.parallel(ctx, n*n*len(pairs), func(x int) error {
		k, a, p := x/(n*len(pairs)), x/len(pairs)%n, pairs[x%len(pairs)]
		v, err := gamma[a][p.i][p.j].Diff(d.coords[k])
		if err != nil {
			return fmt.Errorf("∂_%s Γ^%d_%d%d: %w", d.coords[k], a, p.i, p.j, err)
		}
		dgamma[k][a][p.i][p.j], dgamma[k][a][p.j][p.i] = v, v
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The Riemann tensor is antisymmetric in its last pair, so only c < d
	// is derived.
	cd := d.strictPairs()
	mixed := d.hyper(n)
	err = d.parallel(ctx, n*n*len(cd), func(x int) error {
		a, b, p := x/(n*len(cd)), x/len(cd)%n, cd[x%len(cd)]
		c, dd := p.i, p.j
		terms := []*symbolic.Rat{dgamma[c][a][dd][b], dgamma[dd][a][c][b].Neg()}
		for e := 0; e < n; e++ {
			if !gamma[a][c][e].IsZero() && !gamma[e][dd][b].IsZero() {
				terms = append(terms, gamma[a][c][e].Mul(gamma[e][dd][b]))
			}
			if !gamma[a][dd][e].IsZero() && !gamma[e][c][b].IsZero() {
				terms = append(terms, gamma[a][dd][e].Mul(gamma[e][c][b]).Neg())
			}
		}
		mixed[a][b][c][dd] = d.ring.Sum(terms...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	lowered := d.hyper(n)
	err = d.parallel(ctx, n*n*len(cd), func(x int) error {
		a, b, p := x/(n*len(cd)), x/len(cd)%n, cd[x%len(cd)]
		terms := make([]*symbolic.Rat, 0, n)
		for e := 0; e < n; e++ {
			if d.g[a][e].IsZero() || mixed[e][b][p.i][p.j].IsZero() {
				continue
			}
			terms = append(terms, d.g[a][e].Mul(mixed[e][b][p.i][p.j]))
		}
		v := d.ring.Sum(terms...)
		lowered[a][b][p.i][p.j] = v
		lowered[a][b][p.j][p.i] = v.Neg()
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.riemann = lowered
	return lowered, nil
}

// ricciTensor contracts the first and third indices: R_bd = g^{ac} R_abcd.
func (d *derivation) ricciTensor(ctx context.Context) ([][]*symbolic.Rat, error) {
	if d.ricci != nil {
		return d.ricci, nil
	}
	riem, err := d.curvature(ctx)
	if err != nil {
		return nil, err
	}
	n := d.dim()
	ginv := d.ginv
	pairs := d.upperPairs()
	ricci := square(n)
	err = d.parallel(ctx, len(pairs), func(x int) error {
		b, dd := pairs[x].i, pairs[x].j
		var terms []*symbolic.Rat
		for a := 0; a < n; a++ {
			for c := 0; c < n; c++ {
				if ginv[a][c].IsZero() || riem[a][b][c][dd].IsZero() {
					continue
				}
				terms = append(terms, ginv[a][c].Mul(riem[a][b][c][dd]))
			}
		}
		v := d.ring.Sum(terms...)
		ricci[b][dd], ricci[dd][b] = v, v
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.ricci = ricci
	return ricci, nil
}

// ricciScalar is R = g^{bd} R_bd.
func (d *derivation) ricciScalar(ctx context.Context) (*symbolic.Rat, error) {
	if d.scalar != nil {
		return d.scalar, nil
	}
	ricci, err := d.ricciTensor(ctx)
	if err != nil {
		return nil, err
	}
	var terms []*symbolic.Rat
	for b := 0; b < d.dim(); b++ {
		for dd := 0; dd < d.dim(); dd++ {
			if d.ginv[b][dd].IsZero() || ricci[b][dd].IsZero() {
				continue
			}
			terms = append(terms, d.ginv[b][dd].Mul(ricci[b][dd]))
		}
	}
	d.scalar = d.ring.Sum(terms...)
	return d.scalar, nil
}

// weylTensor applies the decomposition in n dimensions:
//
//	C_abcd = R_abcd - (g_ac R_bd - g_ad R_bc + g_bd R_ac - g_bc R_ad)/(n-2)
//	         + R (g_ac g_bd - g_ad g_bc)/((n-1)(n-2))
func (d *derivation) weylTensor(ctx context.Context) ([][][][]*symbolic.Rat, error) {
	if d.weyl != nil {
		return d.weyl, nil
	}
	scalar, err := d.ricciScalar(ctx)
	if err != nil {
		return nil, err
	}
	n := d.dim()
	if n < 3 {
		return nil, fmt.Errorf("%w: Weyl tensor needs dimension 3 or more", symbolic.ErrDimension)
	}
	riem, ricci, g := d.riemann, d.ricci, d.g
	c1 := d.ring.FromBigRat(big.NewRat(-1, int64(n-2)))
	c2 := scalar.Mul(d.ring.FromBigRat(big.NewRat(1, int64((n-1)*(n-2)))))

	cd := d.strictPairs()
	weyl := d.hyper(n)
	err = d.parallel(ctx, n*n*len(cd), func(x int) error {
		a, b, p := x/(n*len(cd)), x/len(cd)%n, cd[x%len(cd)]
		c, dd := p.i, p.j
		ricciPart := d.ring.Sum(
			g[a][c].Mul(ricci[b][dd]),
			g[a][dd].Mul(ricci[b][c]).Neg(),
			g[b][dd].Mul(ricci[a][c]),
			g[b][c].Mul(ricci[a][dd]).Neg(),
		)
		metricPart := d.ring.Sum(
			g[a][c].Mul(g[b][dd]),
			g[a][dd].Mul(g[b][c]).Neg(),
		)
		v := d.ring.Sum(riem[a][b][c][dd], ricciPart.Mul(c1), metricPart.Mul(c2))
		weyl[a][b][c][dd] = v
		weyl[a][b][dd][c] = v.Neg()
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.weyl = weyl
	return weyl, nil
}

// ============================================================
// Grids
// ============================================================

func square(n int) [][]*symbolic.Rat {
	out := make([][]*symbolic.Rat, n)
	for i := range out {
		out[i] = make([]*symbolic.Rat, n)
	}
	return out
}

func cube(n int) [][][]*symbolic.Rat {
	out := make([][][]*symbolic.Rat, n)
	for i := range out {
		out[i] = square(n)
	}
	return out
}

// hyper returns an n^4 grid filled with zeros of the derivation's ring.
func (d *derivation) hyper(n int) [][][][]*symbolic.Rat {
	zero := d.ring.Zero()
	out := make([][][][]*symbolic.Rat, n)
	for i := range out {
		out[i] = cube(n)
		for j := range out[i] {
			for k := range out[i][j] {
				for l := range out[i][j][k] {
					out[i][j][k][l] = zero
				}
			}
		}
	}
	return out
}
