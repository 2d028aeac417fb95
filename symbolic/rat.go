package symbolic

import (
	"math/big"
	"sort"
)

// ============================================================
// Rat: canonical rational function
// ============================================================

type facPow struct{ id, exp int }

// Rat is num / (den * f1^e1 * ... * fk^ek) where num is a reduced integer
// polynomial, den a positive integer and the fi atomic factors registered in
// the owning Ring. A Rat is zero exactly when num is.
type Rat struct {
	ring *Ring
	num  Poly
	den  *big.Int
	fac  []facPow
}

var bigOne = big.NewInt(1)

func (r *Ring) fromPoly(p Poly) *Rat { return &Rat{ring: r, num: p, den: bigOne} }

func (r *Ring) Zero() *Rat           { return r.fromPoly(Poly{}) }
func (r *Ring) One() *Rat            { return r.fromPoly(polyInt(1)) }
func (r *Ring) Int(n int64) *Rat     { return r.fromPoly(polyInt(n)) }
func (r *Ring) Var(name string) *Rat { return r.fromPoly(polyVar(r.symbolVar(name))) }

func (r *Ring) FromBigRat(q *big.Rat) *Rat {
	return &Rat{ring: r, num: polyConst(q.Num()), den: new(big.Int).Set(q.Denom())}
}

func (a *Rat) Ring() *Ring  { return a.ring }
func (a *Rat) IsZero() bool { return a.num.IsZero() }

// IsConst reports whether a is a rational number.
func (a *Rat) IsConst() bool { return a.num.isConst() && len(a.fac) == 0 }

func (a *Rat) isPoly() bool {
	return len(a.fac) == 0 && a.den.IsInt64() && a.den.Int64() == 1
}

// Size is the number of numerator terms, a rough cost measure.
func (a *Rat) Size() int { return a.num.Len() }

func (a *Rat) Neg() *Rat {
	return &Rat{ring: a.ring, num: polyNeg(a.num), den: a.den, fac: a.fac}
}

func (a *Rat) Add(b *Rat) *Rat { return a.ring.Sum(a, b) }
func (a *Rat) Sub(b *Rat) *Rat { return a.ring.Sum(a, b.Neg()) }

func (a *Rat) Equal(b *Rat) bool { return a.Sub(b).IsZero() }

// Sum adds all terms over one common denominator and normalizes once.
func (r *Ring) Sum(terms ...*Rat) *Rat {
	nz := terms[:0:0]
	for _, t := range terms {
		if !t.IsZero() {
			nz = append(nz, t)
		}
	}
	switch len(nz) {
	case 0:
		return r.Zero()
	case 1:
		return nz[0]
	}
	lcm := new(big.Int).Set(nz[0].den)
	maxExp := map[int]int{}
	for _, t := range nz {
		if t.den.Cmp(lcm) != 0 {
			g := new(big.Int).GCD(nil, nil, lcm, t.den)
			lcm.Mul(lcm, new(big.Int).Quo(t.den, g))
		}
		for _, f := range t.fac {
			if f.exp > maxExp[f.id] {
				maxExp[f.id] = f.exp
			}
		}
	}
	common := make([]facPow, 0, len(maxExp))
	for id, e := range maxExp {
		common = append(common, facPow{id: id, exp: e})
	}
	sort.Slice(common, func(i, j int) bool { return common[i].id < common[j].id })

	acc := map[string]*big.Int{}
	for _, t := range nz {
		mult := new(big.Int).Quo(lcm, t.den)
		p := polyScale(t.num, mult)
		if missing := missingFactors(common, t.fac); len(missing) > 0 {
			p = polyMul(p, r.expandFactors(missing))
		}
		for _, tm := range p.terms {
			if cur, ok := acc[tm.mon]; ok {
				cur.Add(cur, tm.coef)
			} else {
				acc[tm.mon] = new(big.Int).Set(tm.coef)
			}
		}
	}
	num := r.reduce(polyFromMap(acc))
	return r.normalize(&Rat{ring: r, num: num, den: lcm, fac: common})
}

// missingFactors returns common / have; both sorted by id.
func missingFactors(common, have []facPow) []facPow {
	var out []facPow
	j := 0
	for _, c := range common {
		for j < len(have) && have[j].id < c.id {
			j++
		}
		e := c.exp
		if j < len(have) && have[j].id == c.id {
			e -= have[j].exp
		}
		if e > 0 {
			out = append(out, facPow{id: c.id, exp: e})
		}
	}
	return out
}

// mergeFactors multiplies two factor lists, summing exponents of equal ids.
func mergeFactors(a, b []facPow) []facPow {
	all := make([]facPow, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })
	out := all[:0]
	for _, f := range all {
		if n := len(out); n > 0 && out[n-1].id == f.id {
			out[n-1].exp += f.exp
			continue
		}
		out = append(out, f)
	}
	return out
}

// cancelFactors divides known factors out of p as far as possible and
// returns the reduced polynomial with the factors left over.
func (r *Ring) cancelFactors(p Poly, fs []facPow) (Poly, []facPow) {
	if len(fs) == 0 || p.IsZero() {
		return p, fs
	}
	out := make([]facPow, 0, len(fs))
	for _, f := range fs {
		e := f.exp
		for e > 0 && !p.isConst() {
			q, ok := r.divFactor(p, f.id)
			if !ok {
				break
			}
			p = q
			e--
		}
		if e > 0 {
			out = append(out, facPow{id: f.id, exp: e})
		}
	}
	return p, out
}

func (r *Ring) normalize(q *Rat) *Rat {
	if q.num.IsZero() {
		return r.Zero()
	}
	q.num, q.fac = r.cancelFactors(q.num, q.fac)
	if !(q.den.IsInt64() && q.den.Int64() == 1) {
		g := new(big.Int).GCD(nil, nil, q.num.content(), q.den)
		if !(g.IsInt64() && g.Int64() == 1) {
			q.num = polyDivInt(q.num, g)
			q.den = new(big.Int).Quo(q.den, g)
		}
	}
	return q
}

func (a *Rat) Mul(b *Rat) *Rat {
	r := a.ring
	if a.IsZero() || b.IsZero() {
		return r.Zero()
	}
	an, bRest := r.cancelFactors(a.num, b.fac)
	bn, aRest := r.cancelFactors(b.num, a.fac)
	ad, bd := a.den, b.den
	if g := new(big.Int).GCD(nil, nil, an.content(), bd); !(g.IsInt64() && g.Int64() == 1) {
		an = polyDivInt(an, g)
		bd = new(big.Int).Quo(bd, g)
	}
	if g := new(big.Int).GCD(nil, nil, bn.content(), ad); !(g.IsInt64() && g.Int64() == 1) {
		bn = polyDivInt(bn, g)
		ad = new(big.Int).Quo(ad, g)
	}
	num, changed := r.reduceChanged(polyMul(an, bn))
	res := &Rat{ring: r, num: num, den: new(big.Int).Mul(ad, bd), fac: mergeFactors(aRest, bRest)}
	if changed {
		return r.normalize(res)
	}
	return res
}

// Inv returns 1/a, or ErrSingular when a is zero.
func (a *Rat) Inv() (*Rat, error) {
	if a.IsZero() {
		return nil, ErrSingular
	}
	r := a.ring
	c, fs := r.factorize(a.num)
	scale := new(big.Int).Set(a.den)
	if c.Sign() < 0 {
		scale.Neg(scale)
	}
	num := polyScale(r.expandFactors(a.fac), scale)
	return r.normalize(&Rat{ring: r, num: num, den: new(big.Int).Abs(c), fac: fs}), nil
}

func (a *Rat) Quo(b *Rat) (*Rat, error) {
	inv, err := b.Inv()
	if err != nil {
		return nil, err
	}
	return a.Mul(inv), nil
}

func (a *Rat) Pow(n int) (*Rat, error) {
	if n < 0 {
		inv, err := a.Inv()
		if err != nil {
			return nil, err
		}
		return inv.Pow(-n)
	}
	result := a.ring.One()
	base := a
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.Mul(base)
		}
	}
	return result, nil
}

// Diff differentiates with respect to the symbol x. For
// a = N/(k*f1^e1*...*fk^ek) this is N'/(kD) - sum(ei*N*fi'/(kD*fi)).
func (a *Rat) Diff(x string) (*Rat, error) {
	r := a.ring
	if a.IsZero() {
		return a, nil
	}
	dn, err := r.polyDiff(a.num, x)
	if err != nil {
		return nil, err
	}
	parts := []*Rat{dn.Mul(&Rat{ring: r, num: polyInt(1), den: a.den, fac: a.fac})}
	for i, f := range a.fac {
		df, err := r.polyDiff(r.factor(f.id), x)
		if err != nil {
			return nil, err
		}
		if df.IsZero() {
			continue
		}
		fac := make([]facPow, len(a.fac))
		copy(fac, a.fac)
		fac[i].exp++
		t := r.normalize(&Rat{
			ring: r,
			num:  polyScale(a.num, big.NewInt(int64(-f.exp))),
			den:  a.den,
			fac:  fac,
		})
		parts = append(parts, t.Mul(df))
	}
	return r.Sum(parts...), nil
}

// Expr renders a as an expression tree: numerator polynomial times the
// inverse powers of its denominator factors.
func (a *Rat) Expr() Expr {
	r := a.ring
	if a.IsZero() {
		return N(0)
	}
	parts := []Expr{r.polyExpr(a.num)}
	if !(a.den.IsInt64() && a.den.Int64() == 1) {
		parts = append(parts, &Num{val: new(big.Rat).SetFrac(big.NewInt(1), a.den)})
	}
	for _, f := range a.fac {
		parts = append(parts, PowOf(r.polyExpr(r.factor(f.id)), N(int64(-f.exp))))
	}
	return MulOf(parts...)
}

func (a *Rat) String() string { return a.Expr().String() }
