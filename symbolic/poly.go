package symbolic

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Monomials
// ============================================================

// A monomial is a byte string holding one exponent per ring variable, with
// trailing zero exponents trimmed. Trimming makes Go string comparison agree
// with lexicographic monomial order, so "a > b" is the lex comparison.

func monVar(i int) string {
	b := make([]byte, i+1)
	b[i] = 1
	return string(b)
}

func monExp(m string, i int) int {
	if i >= len(m) {
		return 0
	}
	return int(m[i])
}

func monMul(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		s := monExp(a, i) + monExp(b, i)
		if s > 255 {
			panic(errExponentOverflow)
		}
		buf[i] = byte(s)
	}
	return string(buf)
}

// monDivides reports whether a divides b.
func monDivides(a, b string) bool {
	if len(a) > len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

// monDiv returns b/a; a must divide b.
func monDiv(b, a string) string {
	buf := []byte(b)
	for i := 0; i < len(a); i++ {
		buf[i] -= a[i]
	}
	return monTrim(buf)
}

func monTrim(buf []byte) string {
	n := len(buf)
	for n > 0 && buf[n-1] == 0 {
		n--
	}
	return string(buf[:n])
}

func monWith(m string, i, e int) string {
	n := len(m)
	if i+1 > n {
		n = i + 1
	}
	buf := make([]byte, n)
	copy(buf, m)
	buf[i] = byte(e)
	return monTrim(buf)
}

// ============================================================
// Poly: sparse integer polynomial over ring variables
// ============================================================

type term struct {
	mon  string
	coef *big.Int
}

// Poly is a polynomial with integer coefficients. Terms are sorted by
// monomial in descending lex order and never carry a zero coefficient.
// Coefficients are shared between polynomials and must not be mutated.
type Poly struct{ terms []term }

func polyConst(c *big.Int) Poly {
	if c.Sign() == 0 {
		return Poly{}
	}
	return Poly{terms: []term{{mon: "", coef: new(big.Int).Set(c)}}}
}

func polyInt(n int64) Poly { return polyConst(big.NewInt(n)) }

func polyVar(i int) Poly {
	return Poly{terms: []term{{mon: monVar(i), coef: big.NewInt(1)}}}
}

func (p Poly) IsZero() bool { return len(p.terms) == 0 }
func (p Poly) Len() int     { return len(p.terms) }

func (p Poly) isConst() bool {
	return len(p.terms) == 0 || (len(p.terms) == 1 && p.terms[0].mon == "")
}

func (p Poly) constValue() *big.Int {
	if len(p.terms) == 0 {
		return new(big.Int)
	}
	return p.terms[0].coef
}

func (p Poly) lead() term  { return p.terms[0] }
func (p Poly) trail() term { return p.terms[len(p.terms)-1] }

func (p Poly) equal(q Poly) bool {
	if len(p.terms) != len(q.terms) {
		return false
	}
	for i := range p.terms {
		if p.terms[i].mon != q.terms[i].mon || p.terms[i].coef.Cmp(q.terms[i].coef) != 0 {
			return false
		}
	}
	return true
}

// key is a stable identity used for the factor registry.
func (p Poly) key() string {
	var sb strings.Builder
	for _, t := range p.terms {
		sb.WriteString(t.coef.String())
		sb.WriteByte(':')
		sb.WriteString(t.mon)
		sb.WriteByte(';')
	}
	return sb.String()
}

// degrees returns the maximum exponent of every variable.
func (p Poly) degrees() []int {
	var d []int
	for _, t := range p.terms {
		for len(d) < len(t.mon) {
			d = append(d, 0)
		}
		for i := 0; i < len(t.mon); i++ {
			if int(t.mon[i]) > d[i] {
				d[i] = int(t.mon[i])
			}
		}
	}
	return d
}

// minMonomial is the monomial content: the gcd of all monomials.
func (p Poly) minMonomial() string {
	if len(p.terms) == 0 {
		return ""
	}
	buf := []byte(p.terms[0].mon)
	for _, t := range p.terms[1:] {
		if len(t.mon) < len(buf) {
			buf = buf[:len(t.mon)]
		}
		for i := range buf {
			if t.mon[i] < buf[i] {
				buf[i] = t.mon[i]
			}
		}
	}
	return monTrim(buf)
}

// content returns the positive gcd of all coefficients.
func (p Poly) content() *big.Int {
	g := new(big.Int)
	for _, t := range p.terms {
		g.GCD(nil, nil, g, new(big.Int).Abs(t.coef))
		if g.IsInt64() && g.Int64() == 1 {
			break
		}
	}
	return g
}

func polyFromMap(acc map[string]*big.Int) Poly {
	ts := make([]term, 0, len(acc))
	for m, c := range acc {
		if c.Sign() != 0 {
			ts = append(ts, term{mon: m, coef: c})
		}
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].mon > ts[j].mon })
	return Poly{terms: ts}
}

func polyAdd(a, b Poly) Poly {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	out := make([]term, 0, len(a.terms)+len(b.terms))
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		ta, tb := a.terms[i], b.terms[j]
		switch {
		case ta.mon > tb.mon:
			out = append(out, ta)
			i++
		case ta.mon < tb.mon:
			out = append(out, tb)
			j++
		default:
			s := new(big.Int).Add(ta.coef, tb.coef)
			if s.Sign() != 0 {
				out = append(out, term{mon: ta.mon, coef: s})
			}
			i++
			j++
		}
	}
	out = append(out, a.terms[i:]...)
	out = append(out, b.terms[j:]...)
	return Poly{terms: out}
}

func polyNeg(p Poly) Poly {
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{mon: t.mon, coef: new(big.Int).Neg(t.coef)}
	}
	return Poly{terms: out}
}

func polySub(a, b Poly) Poly { return polyAdd(a, polyNeg(b)) }

func polyScale(p Poly, k *big.Int) Poly {
	if k.Sign() == 0 {
		return Poly{}
	}
	if k.IsInt64() && k.Int64() == 1 {
		return p
	}
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{mon: t.mon, coef: new(big.Int).Mul(t.coef, k)}
	}
	return Poly{terms: out}
}

// polyDivInt divides every coefficient by k, which must divide them exactly.
func polyDivInt(p Poly, k *big.Int) Poly {
	if k.IsInt64() && k.Int64() == 1 {
		return p
	}
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{mon: t.mon, coef: new(big.Int).Quo(t.coef, k)}
	}
	return Poly{terms: out}
}

// polyMulTerm multiplies p by c*x^m. Lex order is a monomial order, so the
// result stays sorted.
func polyMulTerm(p Poly, m string, c *big.Int) Poly {
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{mon: monMul(t.mon, m), coef: new(big.Int).Mul(t.coef, c)}
	}
	return Poly{terms: out}
}

// polyDivMon divides every monomial of p by m, which must divide them all.
func polyDivMon(p Poly, m string) Poly {
	if m == "" {
		return p
	}
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{mon: monDiv(t.mon, m), coef: t.coef}
	}
	return Poly{terms: out}
}

func polyMul(a, b Poly) Poly {
	if a.IsZero() || b.IsZero() {
		return Poly{}
	}
	if len(a.terms) == 1 {
		return polyMulTerm(b, a.terms[0].mon, a.terms[0].coef)
	}
	if len(b.terms) == 1 {
		return polyMulTerm(a, b.terms[0].mon, b.terms[0].coef)
	}
	acc := make(map[string]*big.Int, len(a.terms)+len(b.terms))
	prod := new(big.Int)
	for _, ta := range a.terms {
		for _, tb := range b.terms {
			m := monMul(ta.mon, tb.mon)
			prod.Mul(ta.coef, tb.coef)
			if c, ok := acc[m]; ok {
				c.Add(c, prod)
			} else {
				acc[m] = new(big.Int).Set(prod)
			}
		}
	}
	return polyFromMap(acc)
}

// polyDivExact returns a/b when b divides a in Z[x]. Division proceeds by
// leading-term elimination; every quotient monomial must stay inside the
// per-variable degree box deg(a)-deg(b), which bounds the work when b does
// not divide a.
func polyDivExact(a, b Poly) (Poly, bool) {
	if b.IsZero() {
		return Poly{}, false
	}
	if a.IsZero() {
		return Poly{}, true
	}
	lb, la := b.lead(), a.lead()
	if b.isConst() {
		rem := new(big.Int)
		for _, t := range a.terms {
			if rem.Rem(t.coef, lb.coef).Sign() != 0 {
				return Poly{}, false
			}
		}
		return polyDivInt(a, lb.coef), true
	}
	// A product with a multi-term polynomial never collapses to one term.
	if len(a.terms) == 1 && len(b.terms) > 1 {
		return Poly{}, false
	}
	if !monDivides(lb.mon, la.mon) || new(big.Int).Rem(la.coef, lb.coef).Sign() != 0 {
		return Poly{}, false
	}
	tb, ta := b.trail(), a.trail()
	if !monDivides(tb.mon, ta.mon) || new(big.Int).Rem(ta.coef, tb.coef).Sign() != 0 {
		return Poly{}, false
	}
	da, db := a.degrees(), b.degrees()
	if len(db) > len(da) {
		return Poly{}, false
	}
	bound := make([]int, len(da))
	for i := range da {
		d := 0
		if i < len(db) {
			d = db[i]
		}
		if d > da[i] {
			return Poly{}, false
		}
		bound[i] = da[i] - d
	}

	r := a
	var q []term
	qc, rem := new(big.Int), new(big.Int)
	for !r.IsZero() {
		lr := r.lead()
		if !monDivides(lb.mon, lr.mon) {
			return Poly{}, false
		}
		qm := monDiv(lr.mon, lb.mon)
		if len(qm) > len(bound) {
			return Poly{}, false
		}
		for i := 0; i < len(qm); i++ {
			if int(qm[i]) > bound[i] {
				return Poly{}, false
			}
		}
		qc.QuoRem(lr.coef, lb.coef, rem)
		if rem.Sign() != 0 {
			return Poly{}, false
		}
		c := new(big.Int).Set(qc)
		q = append(q, term{mon: qm, coef: c})
		r = polySub(r, polyMulTerm(b, qm, c))
	}
	return Poly{terms: q}, true
}

// polyDiffVar is the formal partial derivative with respect to variable v.
func polyDiffVar(p Poly, v int) Poly {
	acc := make([]term, 0, len(p.terms))
	for _, t := range p.terms {
		e := monExp(t.mon, v)
		if e == 0 {
			continue
		}
		acc = append(acc, term{
			mon:  monWith(t.mon, v, e-1),
			coef: new(big.Int).Mul(t.coef, big.NewInt(int64(e))),
		})
	}
	return Poly{terms: acc}
}

// polyVars lists the variables with a nonzero exponent somewhere in p.
func polyVars(p Poly) []int {
	var vs []int
	for i, d := range p.degrees() {
		if d > 0 {
			vs = append(vs, i)
		}
	}
	return vs
}
