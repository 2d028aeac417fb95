package symbolic

import (
	"fmt"
	"math/big"
	"sort"
	"sync"
)

// ============================================================
// Ring: kernel and factor registry for canonical simplification
// ============================================================

type kernelKind int

const (
	kernelSymbol kernelKind = iota
	kernelSin
	kernelCos
	kernelOpaque
)

// A kernel is anything treated as a polynomial variable: a symbol, sin(x) or
// cos(x) of some argument, or an opaque application such as a(t), D[a](t) or
// x^(1/2).
type kernel struct {
	kind    kernelKind
	expr    Expr
	partner int
}

type trigPair struct{ sin, cos int }

type derivKey struct {
	v int
	x string
}

// Ring owns the variables and denominator factors that Rat values refer to.
// Rats from different rings must not be mixed. A Ring is safe for concurrent
// use; Rat values are immutable.
type Ring struct {
	mu        sync.RWMutex
	kernels   []kernel
	byKey     map[string]int
	pairs     []trigPair
	factors   []Poly
	factorIDs map[string]int
	cosFactor map[int]trigPair

	powMu    sync.Mutex
	powCache map[[2]int]Poly

	memo   sync.Map // Expr -> *Rat
	derivs sync.Map // derivKey -> *Rat
}

func NewRing() *Ring {
	return &Ring{
		byKey:     map[string]int{},
		factorIDs: map[string]int{},
		cosFactor: map[int]trigPair{},
		powCache:  map[[2]int]Poly{},
	}
}

// NumVars reports how many kernels have been registered.
func (r *Ring) NumVars() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kernels)
}

// NumFactors reports how many atomic denominator factors have been registered.
func (r *Ring) NumFactors() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factors)
}

func (r *Ring) lookup(key string) (int, bool) {
	r.mu.RLock()
	i, ok := r.byKey[key]
	r.mu.RUnlock()
	return i, ok
}

func (r *Ring) registerLocked(key string, k kernel) int {
	if i, ok := r.byKey[key]; ok {
		return i
	}
	i := len(r.kernels)
	r.kernels = append(r.kernels, k)
	r.byKey[key] = i
	return i
}

func (r *Ring) symbolVar(name string) int {
	key := "s:" + name
	if i, ok := r.lookup(key); ok {
		return i
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(key, kernel{kind: kernelSymbol, expr: S(name), partner: -1})
}

func (r *Ring) opaqueVar(e Expr) int {
	key := "f:" + e.String()
	if i, ok := r.lookup(key); ok {
		return i
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(key, kernel{kind: kernelOpaque, expr: e, partner: -1})
}

// trigVar registers sin(arg) and cos(arg) together so that the pair can be
// reduced with sin² + cos² = 1. The lone cos variable also becomes a
// denominator factor, which lets 1/cos(x) cancel against 1 - sin(x)².
func (r *Ring) trigVar(kind kernelKind, arg Expr) int {
	argKey := arg.String()
	sinKey, cosKey := "sin:"+argKey, "cos:"+argKey
	want := sinKey
	if kind == kernelCos {
		want = cosKey
	}
	if i, ok := r.lookup(want); ok {
		return i
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.byKey[want]; ok {
		return i
	}
	s := len(r.kernels)
	c := s + 1
	r.registerLocked(sinKey, kernel{kind: kernelSin, expr: funcOf("sin", arg), partner: c})
	r.registerLocked(cosKey, kernel{kind: kernelCos, expr: funcOf("cos", arg), partner: s})
	pr := trigPair{sin: s, cos: c}
	r.pairs = append(r.pairs, pr)
	id := r.registerFactorLocked(polyVar(c))
	r.cosFactor[id] = pr
	if kind == kernelCos {
		return c
	}
	return s
}

func (r *Ring) kernelAt(i int) kernel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kernels[i]
}

func (r *Ring) kernelExprs() []Expr {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Expr, len(r.kernels))
	for i, k := range r.kernels {
		out[i] = k.expr
	}
	return out
}

func (r *Ring) trigPairs() []trigPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pairs
}

// ============================================================
// Factor registry
// ============================================================

func (r *Ring) registerFactorLocked(p Poly) int {
	key := p.key()
	if id, ok := r.factorIDs[key]; ok {
		return id
	}
	id := len(r.factors)
	r.factors = append(r.factors, p)
	r.factorIDs[key] = id
	return id
}

// factorID returns the id of p, registering it when new. p must be primitive
// with a positive leading coefficient.
func (r *Ring) factorID(p Poly) int {
	key := p.key()
	r.mu.RLock()
	id, ok := r.factorIDs[key]
	r.mu.RUnlock()
	if ok {
		return id
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerFactorLocked(p)
}

func (r *Ring) factor(id int) Poly {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factors[id]
}

// factorPow returns factor id raised to e, reduced.
func (r *Ring) factorPow(id, e int) Poly {
	if e == 1 {
		return r.factor(id)
	}
	k := [2]int{id, e}
	r.powMu.Lock()
	p, ok := r.powCache[k]
	r.powMu.Unlock()
	if ok {
		return p
	}
	half := r.factorPow(id, e/2)
	p = r.reduce(polyMul(half, half))
	if e%2 == 1 {
		p = r.reduce(polyMul(p, r.factor(id)))
	}
	r.powMu.Lock()
	r.powCache[k] = p
	r.powMu.Unlock()
	return p
}

func (r *Ring) expandFactors(fs []facPow) Poly {
	p := polyInt(1)
	for _, f := range fs {
		p = r.reduce(polyMul(p, r.factorPow(f.id, f.exp)))
	}
	return p
}

// divFactor divides p by factor id inside the ring. Beyond exact division
// in Z[x], a lone cos(x) divides p0 + cos(x)*p1 whenever 1 - sin(x)² divides p0.
func (r *Ring) divFactor(p Poly, id int) (Poly, bool) {
	if q, ok := polyDivExact(p, r.factor(id)); ok {
		return q, true
	}
	r.mu.RLock()
	pr, isCos := r.cosFactor[id]
	r.mu.RUnlock()
	if !isCos {
		return Poly{}, false
	}
	var p0, p1 []term
	for _, t := range p.terms {
		if monExp(t.mon, pr.cos) == 0 {
			p0 = append(p0, t)
		} else {
			p1 = append(p1, term{mon: monWith(t.mon, pr.cos, 0), coef: t.coef})
		}
	}
	if len(p0) == 0 {
		return Poly{}, false
	}
	q0, ok := polyDivExact(Poly{terms: p0}, oneMinusSinSq(pr))
	if !ok {
		return Poly{}, false
	}
	return polyAdd(Poly{terms: p1}, polyMulTerm(q0, monVar(pr.cos), bigOne)), true
}

func oneMinusSinSq(pr trigPair) Poly {
	return Poly{terms: []term{
		{mon: monWith("", pr.sin, 2), coef: big.NewInt(-1)},
		{mon: "", coef: big.NewInt(1)},
	}}
}

// factorize splits p into a signed integer content and atomic factor powers.
// Known factors are removed by trial division; whatever remains becomes a new
// atomic factor.
func (r *Ring) factorize(p Poly) (*big.Int, []facPow) {
	c := p.content()
	if p.lead().coef.Sign() < 0 {
		c.Neg(c)
	}
	p = polyDivInt(p, c)

	var out []facPow
	if m := p.minMonomial(); m != "" {
		for i := 0; i < len(m); i++ {
			if m[i] > 0 {
				out = append(out, facPow{id: r.factorID(polyVar(i)), exp: int(m[i])})
			}
		}
		p = polyDivMon(p, m)
	}
	if !p.isConst() {
		n := r.NumFactors()
		for id := 0; id < n && !p.isConst(); id++ {
			cnt := 0
			for !p.isConst() {
				q, ok := r.divFactor(p, id)
				if !ok {
					break
				}
				p = q
				cnt++
			}
			if cnt > 0 {
				out = append(out, facPow{id: id, exp: cnt})
			}
		}
	}
	if p.isConst() {
		c.Mul(c, p.constValue())
	} else {
		pc := p.content()
		if p.lead().coef.Sign() < 0 {
			pc.Neg(pc)
		}
		c.Mul(c, pc)
		p = polyDivInt(p, pc)
		out = append(out, facPow{id: r.factorID(p), exp: 1})
	}
	return c, mergeFactors(out, nil)
}

// ============================================================
// Trigonometric reduction
// ============================================================

// reduce rewrites every cos(x)^e with e >= 2 as cos(x)^(e%2)*(1 - sin(x)²)^(e/2).
// Reduced polynomials have a unique representation, so a reduced numerator
// is zero exactly when the function is.
func (r *Ring) reduce(p Poly) Poly {
	q, _ := r.reduceChanged(p)
	return q
}

func (r *Ring) reduceChanged(p Poly) (Poly, bool) {
	changed := false
	for _, pr := range r.trigPairs() {
		var ok bool
		p, ok = reducePair(p, pr)
		changed = changed || ok
	}
	return p, changed
}

func reducePair(p Poly, pr trigPair) (Poly, bool) {
	needs := false
	for _, t := range p.terms {
		if monExp(t.mon, pr.cos) >= 2 {
			needs = true
			break
		}
	}
	if !needs {
		return p, false
	}
	acc := make(map[string]*big.Int, len(p.terms)*2)
	add := func(m string, c *big.Int) {
		if cur, ok := acc[m]; ok {
			cur.Add(cur, c)
		} else {
			acc[m] = new(big.Int).Set(c)
		}
	}
	for _, t := range p.terms {
		e := monExp(t.mon, pr.cos)
		if e < 2 {
			add(t.mon, t.coef)
			continue
		}
		k := e / 2
		base := monWith(t.mon, pr.cos, e%2)
		s0 := monExp(base, pr.sin)
		for j := 0; j <= k; j++ {
			if s0+2*j > 255 {
				panic(errExponentOverflow)
			}
			c := new(big.Int).Binomial(int64(k), int64(j))
			c.Mul(c, t.coef)
			if j%2 == 1 {
				c.Neg(c)
			}
			add(monWith(base, pr.sin, s0+2*j), c)
		}
	}
	return polyFromMap(acc), true
}

// ============================================================
// Conversion from expression trees
// ============================================================

// FromExpr converts e into canonical form. Results are memoized by node
// identity, so shared subtrees are converted once.
func (r *Ring) FromExpr(e Expr) (*Rat, error) {
	if v, ok := r.memo.Load(e); ok {
		return v.(*Rat), nil
	}
	res, err := r.fromExpr(e)
	if err != nil {
		return nil, err
	}
	r.memo.Store(e, res)
	return res, nil
}

func (r *Ring) fromExpr(e Expr) (*Rat, error) {
	switch v := e.(type) {
	case *Num:
		return r.FromBigRat(v.val), nil
	case *Sym:
		return r.fromPoly(polyVar(r.symbolVar(v.name))), nil
	case *Add:
		parts := make([]*Rat, 0, len(v.terms))
		for _, t := range v.terms {
			p, err := r.FromExpr(t)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return r.Sum(parts...), nil
	case *Mul:
		// Convert every factor before multiplying: a zero factor anywhere
		// makes the product zero without any polynomial work.
		parts := make([]*Rat, 0, len(v.factors))
		for _, f := range v.factors {
			p, err := r.FromExpr(f)
			if err != nil {
				return nil, err
			}
			if p.IsZero() {
				return r.Zero(), nil
			}
			parts = append(parts, p)
		}
		acc := r.One()
		for _, p := range parts {
			acc = acc.Mul(p)
		}
		return acc, nil
	case *Pow:
		n, ok := v.exp.(*Num)
		if !ok || !n.IsInteger() {
			return r.fromPoly(polyVar(r.opaqueVar(v))), nil
		}
		ei := n.val.Num()
		if !ei.IsInt64() || ei.Int64() > maxIntPow || ei.Int64() < -maxIntPow {
			return nil, fmt.Errorf("%w: exponent %s", ErrUnsupported, ei)
		}
		base, err := r.FromExpr(v.base)
		if err != nil {
			return nil, err
		}
		return base.Pow(int(ei.Int64()))
	case *Func:
		switch v.name {
		case "sin":
			return r.fromPoly(polyVar(r.trigVar(kernelSin, v.arg))), nil
		case "cos":
			return r.fromPoly(polyVar(r.trigVar(kernelCos, v.arg))), nil
		case "tan":
			s := r.fromPoly(polyVar(r.trigVar(kernelSin, v.arg)))
			c := r.fromPoly(polyVar(r.trigVar(kernelCos, v.arg)))
			return s.Quo(c)
		}
		return r.fromPoly(polyVar(r.opaqueVar(v))), nil
	}
	return nil, fmt.Errorf("%w: node type %T", ErrUnsupported, e)
}

const maxIntPow = 1024

// Simplify converts e to canonical form and back.
func (r *Ring) Simplify(e Expr) (Expr, error) {
	q, err := r.FromExpr(e)
	if err != nil {
		return nil, err
	}
	return q.Expr(), nil
}

// varDiff is the derivative of kernel v with respect to symbol x.
func (r *Ring) varDiff(v int, x string) (*Rat, error) {
	key := derivKey{v: v, x: x}
	if d, ok := r.derivs.Load(key); ok {
		return d.(*Rat), nil
	}
	k := r.kernelAt(v)
	var d *Rat
	if k.kind == kernelSymbol {
		d = r.Zero()
		if k.expr.(*Sym).name == x {
			d = r.One()
		}
	} else {
		var err error
		d, err = r.FromExpr(k.expr.Diff(x))
		if err != nil {
			return nil, err
		}
	}
	r.derivs.Store(key, d)
	return d, nil
}

// polyDiff differentiates p with respect to symbol x by the chain rule over
// its kernels.
func (r *Ring) polyDiff(p Poly, x string) (*Rat, error) {
	acc := Poly{}
	var rats []*Rat
	for _, v := range polyVars(p) {
		dv, err := r.varDiff(v, x)
		if err != nil {
			return nil, err
		}
		if dv.IsZero() {
			continue
		}
		pv := polyDiffVar(p, v)
		if dv.isPoly() {
			acc = polyAdd(acc, polyMul(pv, dv.num))
			continue
		}
		rats = append(rats, r.fromPoly(pv).Mul(dv))
	}
	rats = append(rats, r.fromPoly(r.reduce(acc)))
	return r.Sum(rats...), nil
}

// polyExpr renders p with terms in string order, so the output does not
// depend on kernel registration order.
func (r *Ring) polyExpr(p Poly) Expr {
	if p.IsZero() {
		return N(0)
	}
	ks := r.kernelExprs()
	type keyed struct {
		e   Expr
		key string
	}
	terms := make([]keyed, len(p.terms))
	for i, t := range p.terms {
		parts := []Expr{&Num{val: new(big.Rat).SetInt(t.coef)}}
		for v := 0; v < len(t.mon); v++ {
			if e := int(t.mon[v]); e > 0 {
				parts = append(parts, PowOf(ks[v], N(int64(e))))
			}
		}
		te := MulOf(parts...)
		terms[i] = keyed{e: te, key: te.String()}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].key < terms[j].key })
	out := make([]Expr, len(terms))
	for i := range terms {
		out[i] = terms[i].e
	}
	return AddOf(out...)
}
