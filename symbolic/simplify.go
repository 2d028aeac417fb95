package symbolic

import "fmt"

// ============================================================
// Structural substitution
// ============================================================

// Replace substitutes symbols by name without simplifying anything.
// Unchanged subtrees keep their identity and shared subtrees are rebuilt
// once, so the result stays as compact as the input.
func Replace(e Expr, subs map[string]Expr) Expr {
	if len(subs) == 0 {
		return e
	}
	memo := map[Expr]Expr{}
	return replaceExpr(e, subs, memo)
}

func replaceExpr(e Expr, subs map[string]Expr, memo map[Expr]Expr) Expr {
	if out, ok := memo[e]; ok {
		return out
	}
	var out Expr = e
	switch v := e.(type) {
	case *Sym:
		if val, ok := subs[v.name]; ok {
			out = val
		}
	case *Add:
		if ts, changed := replaceAll(v.terms, subs, memo); changed {
			out = &Add{terms: ts}
		}
	case *Mul:
		if fs, changed := replaceAll(v.factors, subs, memo); changed {
			out = &Mul{factors: fs}
		}
	case *Pow:
		b := replaceExpr(v.base, subs, memo)
		x := replaceExpr(v.exp, subs, memo)
		if b != v.base || x != v.exp {
			out = &Pow{base: b, exp: x}
		}
	case *Func:
		if a := replaceExpr(v.arg, subs, memo); a != v.arg {
			out = &Func{name: v.name, arg: a}
		}
	}
	memo[e] = out
	return out
}

func replaceAll(es []Expr, subs map[string]Expr, memo map[Expr]Expr) ([]Expr, bool) {
	var out []Expr
	for i, x := range es {
		y := replaceExpr(x, subs, memo)
		if y != x && out == nil {
			out = make([]Expr, len(es))
			copy(out, es[:i])
		}
		if out != nil {
			out[i] = y
		}
	}
	return out, out != nil
}

// ============================================================
// Canonical simplification
// ============================================================

// Canonical rewrites e as a reduced rational function in a fresh Ring.
// Two expressions that are equal as functions (modulo sin² + cos² = 1)
// produce the same result.
func Canonical(e Expr) (out Expr, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrUnsupported, rec)
		}
	}()
	return NewRing().Simplify(e)
}

// DeepSimplify returns the canonical form of e, or the light Simplify result
// when e cannot be represented canonically.
func DeepSimplify(e Expr) Expr {
	out, err := Canonical(e)
	if err != nil {
		return e.Simplify()
	}
	return out
}

// Equivalent reports whether a - b simplifies to zero.
func Equivalent(a, b Expr) bool {
	d, err := Canonical(Sum(a, Product(N(-1), b)))
	if err != nil {
		return false
	}
	return isNumEqual(d, 0)
}

// ============================================================
// Trig display pass
// ============================================================

// TrigSimplify folds c*sin(x)² + c*cos(x)² into c and, where it shortens the
// output, rewrites c - c*sin(x)² as c*cos(x)². It also cancels exp(ln(x)) and
// ln(exp(x)) through Simplify.
func TrigSimplify(e Expr) Expr {
	return trigSimplifyExpr(e.Simplify()).Simplify()
}

func trigSimplifyExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = trigSimplifyExpr(t)
		}
		return trigFindPythagorean(AddOf(newTerms...))
	case *Mul:
		newFactors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			newFactors[i] = trigSimplifyExpr(f)
		}
		return MulOf(newFactors...)
	case *Pow:
		return PowOf(trigSimplifyExpr(v.base), v.exp)
	case *Func:
		return funcOf(v.name, trigSimplifyExpr(v.arg)).Simplify()
	}
	return e
}

type trigTerm struct {
	funcName string
	argStr   string
	arg      Expr
	coeff    Expr
	coeffStr string
	idx      int
}

// trigSquares lists the terms of add that are c*sin(x)^2 or c*cos(x)^2,
// where c is any product not containing that square.
func trigSquares(add *Add) []trigTerm {
	var out []trigTerm
	for idx, t := range add.terms {
		num, inner := extractCoefficient(t)
		factors := []Expr{inner}
		if m, ok := inner.(*Mul); ok {
			factors = m.factors
		}
		for k, f := range factors {
			p, ok := f.(*Pow)
			if !ok || !isNumEqual(p.exp, 2) {
				continue
			}
			fn, ok := p.base.(*Func)
			if !ok || (fn.name != "sin" && fn.name != "cos") {
				continue
			}
			rest := []Expr{num}
			rest = append(rest, factors[:k]...)
			rest = append(rest, factors[k+1:]...)
			coeff := MulOf(rest...)
			out = append(out, trigTerm{fn.name, fn.arg.String(), fn.arg, coeff, coeff.String(), idx})
			break
		}
	}
	return out
}

func trigFindPythagorean(e Expr) Expr {
	add, ok := e.(*Add)
	if !ok {
		return e
	}
	trigTerms := trigSquares(add)
	if len(trigTerms) == 0 {
		return e
	}
	without := func(drop ...int) []Expr {
		var keep []Expr
	next:
		for idx, t := range add.terms {
			for _, d := range drop {
				if idx == d {
					continue next
				}
			}
			keep = append(keep, t)
		}
		return keep
	}
	for i := 0; i < len(trigTerms); i++ {
		for j := i + 1; j < len(trigTerms); j++ {
			ti, tj := trigTerms[i], trigTerms[j]
			if ti.argStr == tj.argStr && ti.funcName != tj.funcName && ti.coeffStr == tj.coeffStr {
				return trigFindPythagorean(AddOf(append(without(ti.idx, tj.idx), ti.coeff)...))
			}
		}
	}

	// c - c*sin(x)^2 -> c*cos(x)^2 wherever the pair occurs in the sum.
	rendered := make([]string, len(add.terms))
	for idx, t := range add.terms {
		rendered[idx] = t.String()
	}
	for _, tt := range trigTerms {
		if tt.funcName != "sin" {
			continue
		}
		c := MulOf(N(-1), tt.coeff)
		cs := c.String()
		for idx := range add.terms {
			if idx == tt.idx || rendered[idx] != cs {
				continue
			}
			folded := MulOf(c, PowOf(CosOf(tt.arg), N(2)))
			return trigFindPythagorean(AddOf(append(without(tt.idx, idx), folded)...))
		}
	}
	return e
}

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}
