// Package curvature derives curvature tensors and invariants from a metric:
// Christoffel symbols, the Riemann, Ricci and Weyl tensors, the Ricci scalar
// and the Kretschmann scalar.
package curvature

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/internal/catalog"
	"github.com/njchilds90/gocurvature/symbolic"
)

// Options tunes an Engine.
type Options struct {
	// Workers bounds the goroutines deriving tensor components.
	// Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

type Option func(*Options)

func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// Engine computes curvature quantities of one metric. Intermediate results
// are kept for the engine's lifetime, so asking for the Ricci scalar after
// the Riemann tensor reuses it.
type Engine struct {
	metric *catalog.MetricTensor
	opts   Options
	log    *zap.Logger

	mu    sync.Mutex
	deriv *derivation
}

// New returns an engine for metric, which must be non-nil.
func New(metric *catalog.MetricTensor, opts ...Option) *Engine {
	if metric == nil {
		panic("curvature: New with nil metric")
	}
	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Engine{
		metric: metric,
		opts:   o,
		log:    o.Logger.With(zap.String("metric", string(metric.Name))),
	}
}

// Request is one computation with its optional substitutions and output
// format.
type Request struct {
	Operation     Operation
	Substitutions map[string]symbolic.Expr
	Format        Format
}

// Compute evaluates op and renders it in the string format.
func (e *Engine) Compute(ctx context.Context, op Operation) (string, error) {
	return e.Evaluate(ctx, Request{Operation: op})
}

// Evaluate computes req and renders the result.
func (e *Engine) Evaluate(ctx context.Context, req Request) (string, error) {
	if _, err := ParseFormat(string(req.Format)); err != nil {
		return "", err
	}
	v, err := e.Value(ctx, req.Operation, req.Substitutions)
	if err != nil {
		return "", err
	}
	out, err := Render(v, req.Format)
	if err != nil {
		return "", e.fail(req.Operation, err)
	}
	return out, nil
}

// ComputeMany evaluates several operations, deriving the Riemann tensor at
// most once.
func (e *Engine) ComputeMany(ctx context.Context, ops ...Operation) (map[Operation]string, error) {
	out := make(map[Operation]string, len(ops))
	for _, op := range ops {
		s, err := e.Compute(ctx, op)
		if err != nil {
			return nil, err
		}
		out[op] = s
	}
	return out, nil
}

// Value computes op. subs replaces symbols in the result; for the
// Kretschmann scalar it is applied to the full contraction before the final
// simplification.
func (e *Engine) Value(ctx context.Context, op Operation, subs map[string]symbolic.Expr) (v Value, err error) {
	if _, perr := ParseOperation(string(op)); perr != nil {
		return nil, perr
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("panic in symbolic computation", zap.String("operation", string(op)), zap.Any("panic", rec))
			v, err = nil, fmt.Errorf("%w: %s: panic: %v", ErrSymbolicComputation, op, rec)
		}
	}()
	start := time.Now()
	v, err = e.value(ctx, op, subs)
	if err != nil {
		if len(subs) > 0 {
			switch {
			case errors.Is(err, symbolic.ErrSingular):
				return nil, fmt.Errorf("%w: result is undefined: %v", ErrInvalidSubstitution, err)
			case errors.Is(err, symbolic.ErrUnsupported):
				return nil, fmt.Errorf("%w: result cannot be simplified: %v", ErrInvalidSubstitution, err)
			}
		}
		return nil, e.fail(op, err)
	}
	e.log.Debug("computed", zap.String("operation", string(op)), zap.Duration("duration", time.Since(start)))
	return v, nil
}

func (e *Engine) value(ctx context.Context, op Operation, subs map[string]symbolic.Expr) (Value, error) {
	switch op {
	case OpTensor:
		return substituteTensor(e.Metric(), subs)
	case OpRiemann:
		t, err := e.Riemann(ctx)
		if err != nil {
			return nil, err
		}
		return substituteTensor(t, subs)
	case OpRicci:
		t, err := e.Ricci(ctx)
		if err != nil {
			return nil, err
		}
		return substituteTensor(t, subs)
	case OpRicciScalar:
		s, err := e.RicciScalar(ctx)
		if err != nil {
			return nil, err
		}
		return substituteScalar(s, subs)
	case OpWeyl:
		t, err := e.Weyl(ctx)
		if err != nil {
			return nil, err
		}
		return substituteTensor(t, subs)
	case OpKretschmann:
		return e.Kretschmann(ctx, subs)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
}

func (e *Engine) fail(op Operation, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrSymbolicComputation, e.metric.Name, op, err)
}

// ensureDerivation returns the engine's derivation, creating it on first
// use. The caller holds e.mu.
func (e *Engine) ensureDerivation() (*derivation, error) {
	if e.deriv == nil {
		d, err := newDerivation(e.metric, e.opts.Workers)
		if err != nil {
			return nil, err
		}
		e.deriv = d
	}
	return e.deriv, nil
}

// stage runs one derivation step under the engine lock and logs its
// duration.
func (e *Engine) stage(name string, fn func(d *derivation) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.ensureDerivation()
	if err != nil {
		return err
	}
	start := time.Now()
	if err := fn(d); err != nil {
		return err
	}
	e.log.Debug("stage done", zap.String("stage", name), zap.Duration("duration", time.Since(start)))
	return nil
}

// ============================================================
// Typed accessors
// ============================================================

// Metric returns the metric components as a rank-2 tensor.
func (e *Engine) Metric() *Tensor {
	return TensorFromMatrix("g", e.metric.CoordNames(), e.metric.Components)
}

// InverseMetric returns g^{ab}.
func (e *Engine) InverseMetric(ctx context.Context) (*symbolic.Matrix, error) {
	var inv [][]*symbolic.Rat
	err := e.stage("inverse", func(d *derivation) error {
		var err error
		inv, err = d.inverse()
		return err
	})
	if err != nil {
		return nil, err
	}
	return symbolic.MatrixFromRat(inv), nil
}

// Christoffel returns Γ^a_bc as a grid indexed [a][b][c].
func (e *Engine) Christoffel(ctx context.Context) ([][][]symbolic.Expr, error) {
	var gamma [][][]*symbolic.Rat
	err := e.stage("christoffel", func(d *derivation) error {
		var err error
		gamma, err = d.christoffel(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([][][]symbolic.Expr, len(gamma))
	for a := range gamma {
		out[a] = make([][]symbolic.Expr, len(gamma[a]))
		for b := range gamma[a] {
			out[a][b] = make([]symbolic.Expr, len(gamma[a][b]))
			for c, q := range gamma[a][b] {
				out[a][b][c] = display(q)
			}
		}
	}
	return out, nil
}

// Riemann returns R_abcd with all indices lowered.
func (e *Engine) Riemann(ctx context.Context) (*Tensor, error) {
	var grid [][][][]*symbolic.Rat
	err := e.stage("riemann", func(d *derivation) error {
		var err error
		grid, err = d.curvature(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.rank4("R", grid), nil
}

// Ricci returns R_bd = g^{ac} R_abcd.
func (e *Engine) Ricci(ctx context.Context) (*Tensor, error) {
	var grid [][]*symbolic.Rat
	err := e.stage("ricci", func(d *derivation) error {
		var err error
		grid, err = d.ricciTensor(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	t := newTensor("R", e.metric.CoordNames(), 2)
	for i := range grid {
		for j := range grid[i] {
			t.set(display(grid[i][j]), i, j)
		}
	}
	return t, nil
}

// RicciScalar returns R = g^{bd} R_bd.
func (e *Engine) RicciScalar(ctx context.Context) (*Scalar, error) {
	var q *symbolic.Rat
	err := e.stage("ricciScalar", func(d *derivation) error {
		var err error
		q, err = d.ricciScalar(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Scalar{Symbol: "R", Expr: display(q)}, nil
}

// Weyl returns the conformal tensor C_abcd.
func (e *Engine) Weyl(ctx context.Context) (*Tensor, error) {
	var grid [][][][]*symbolic.Rat
	err := e.stage("weyl", func(d *derivation) error {
		var err error
		grid, err = d.weylTensor(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.rank4("C", grid), nil
}

// Kretschmann contracts the Riemann tensor with itself; see
// ContractKretschmann.
func (e *Engine) Kretschmann(ctx context.Context, subs map[string]symbolic.Expr) (*Scalar, error) {
	riem, err := e.Riemann(ctx)
	if err != nil {
		return nil, err
	}
	ginv, err := e.InverseMetric(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	k, err := ContractKretschmann(ctx, riem, ginv, subs)
	if err != nil {
		return nil, err
	}
	e.log.Debug("stage done", zap.String("stage", "kretschmann"), zap.Duration("duration", time.Since(start)))
	return k, nil
}

func (e *Engine) rank4(symbol string, grid [][][][]*symbolic.Rat) *Tensor {
	t := newTensor(symbol, e.metric.CoordNames(), 4)
	for a := range grid {
		for b := range grid[a] {
			for c := range grid[a][b] {
				for d, q := range grid[a][b][c] {
					t.set(display(q), a, b, c, d)
				}
			}
		}
	}
	return t
}

// display renders a canonical value with the Pythagorean display pass.
func display(q *symbolic.Rat) symbolic.Expr {
	return symbolic.TrigSimplify(q.Expr())
}

func substituteTensor(t *Tensor, subs map[string]symbolic.Expr) (*Tensor, error) {
	if len(subs) == 0 {
		return t, nil
	}
	var firstErr error
	out := t.Map(func(c symbolic.Expr) symbolic.Expr {
		if firstErr != nil {
			return c
		}
		v, err := symbolic.Canonical(symbolic.Replace(c, subs))
		if err != nil {
			firstErr = err
			return c
		}
		return symbolic.TrigSimplify(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func substituteScalar(s *Scalar, subs map[string]symbolic.Expr) (*Scalar, error) {
	if len(subs) == 0 {
		return s, nil
	}
	v, err := symbolic.Canonical(symbolic.Replace(s.Expr, subs))
	if err != nil {
		return nil, err
	}
	return &Scalar{Symbol: s.Symbol, Expr: symbolic.TrigSimplify(v)}, nil
}
