package curvature

import (
	"context"
	"fmt"

	"github.com/njchilds90/gocurvature/symbolic"
)

// ContractKretschmann computes K = R_abcd R^abcd from the lowered Riemann
// tensor and the inverse metric:
//
//	K = Σ g^{ae} g^{bf} g^{cg} g^{dh} R_abcd R_efgh
//
// Every one of the d^8 index tuples contributes an unevaluated product, and
// the products are collected into one unevaluated sum. subs is applied to
// that sum as a whole and the result is simplified once. ctx is checked
// while the sum is assembled; the final simplification runs to completion.
func ContractKretschmann(ctx context.Context, riemann *Tensor, ginv *symbolic.Matrix, subs map[string]symbolic.Expr) (*Scalar, error) {
	if riemann.Rank() != 4 {
		return nil, fmt.Errorf("%w: Kretschmann needs a rank 4 tensor, got rank %d", symbolic.ErrDimension, riemann.Rank())
	}
	n := riemann.Dim()
	if ginv.Rows() != n || ginv.Cols() != n {
		return nil, fmt.Errorf("%w: inverse metric is %dx%d, want %dx%d", symbolic.ErrDimension, ginv.Rows(), ginv.Cols(), n, n)
	}

	size := 1
	for i := 0; i < 8; i++ {
		size *= n
	}
	terms := make([]symbolic.Expr, 0, size)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for c := 0; c < n; c++ {
				for d := 0; d < n; d++ {
					for e := 0; e < n; e++ {
						for f := 0; f < n; f++ {
							for g := 0; g < n; g++ {
								for h := 0; h < n; h++ {
									terms = append(terms, symbolic.Product(
										ginv.Get(a, e),
										ginv.Get(b, f),
										ginv.Get(c, g),
										ginv.Get(d, h),
										riemann.At(a, b, c, d),
										riemann.At(e, f, g, h),
									))
								}
							}
						}
					}
				}
			}
		}
	}

	k := symbolic.Replace(symbolic.Sum(terms...), subs)
	out, err := symbolic.Canonical(k)
	if err != nil {
		return nil, fmt.Errorf("simplify Kretschmann sum: %w", err)
	}
	return &Scalar{Symbol: "K", Expr: symbolic.TrigSimplify(out)}, nil
}
