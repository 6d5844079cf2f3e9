package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/plasmaforge/fusor/internal/physics"
)

// Evaluator abstracts the point evaluator so the solver layer works
// against the raw physics function or the memoizing wrapper alike.
type Evaluator interface {
	Evaluate(physics.PointInputs) (physics.OutputMap, error)
}

// EvalFunc adapts a plain function to the Evaluator interface.
type EvalFunc func(physics.PointInputs) (physics.OutputMap, error)

// Evaluate implements Evaluator.
func (f EvalFunc) Evaluate(in physics.PointInputs) (physics.OutputMap, error) {
	return f(in)
}

// Target is one output quantity to match. Scale normalizes the residual;
// zero means max(|Value|, 1).
type Target struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Scale float64 `json:"scale,omitempty"`
}

// Variable is one free input knob with its start value and box bounds.
type Variable struct {
	Name string  `json:"name"`
	X0   float64 `json:"x0"`
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
}

// Options bound the target-matching search.
type Options struct {
	Tol     float64
	MaxIter int
}

// DefaultOptions mirror the historical solver budgets.
func DefaultOptions() Options {
	return Options{Tol: 1e-3, MaxIter: 200}
}

// TraceStep records one objective evaluation for auditability.
type TraceStep struct {
	Iter      int                `json:"iter"`
	Values    map[string]float64 `json:"values"`
	Residuals []float64          `json:"residuals"`
	Norm      float64            `json:"norm"`
}

// SolveResult is the outcome of SolveForTargets. Trace is never nil for a
// non-trivial call.
type SolveResult struct {
	Point      physics.PointInputs `json:"-"`
	Values     map[string]float64  `json:"values"`
	Outputs    physics.OutputMap   `json:"outputs"`
	Residuals  []float64           `json:"residuals"`
	Norm       float64             `json:"norm"`
	Converged  bool                `json:"converged"`
	Iterations int                 `json:"iterations"`
	Message    string              `json:"message"`
	Trace      []TraceStep         `json:"trace"`
}

const nanPenalty = 1e12

// SolveForTargets adjusts the free variables inside their box until every
// scaled target residual is within Tol, or the iteration budget runs out.
// The search is a bounded derivative-free minimization of the squared
// residual norm; feasibility is not checked here, score the terminal
// point with the constraint ledger separately.
func SolveForTargets(ev Evaluator, base physics.PointInputs, targets []Target, vars []Variable, opt Options) (SolveResult, error) {
	if len(targets) == 0 {
		return SolveResult{}, fmt.Errorf("solve: no targets given")
	}
	if len(vars) == 0 {
		return SolveResult{}, fmt.Errorf("solve: no free variables given")
	}
	for _, t := range targets {
		if !physics.IsSchemaKey(t.Key) {
			return SolveResult{}, physics.NewConfigErrorf("target key %q is not in the output schema", t.Key)
		}
	}
	for _, v := range vars {
		if !(v.Lo < v.Hi) {
			return SolveResult{}, physics.NewConfigErrorf("variable %q: bounds [%g,%g] are not an interval", v.Name, v.Lo, v.Hi)
		}
		if _, err := base.Get(v.Name); err != nil {
			return SolveResult{}, err
		}
	}
	if opt.Tol <= 0 {
		opt.Tol = DefaultOptions().Tol
	}
	if opt.MaxIter <= 0 {
		opt.MaxIter = DefaultOptions().MaxIter
	}

	scales := make([]float64, len(targets))
	for i, t := range targets {
		scales[i] = t.Scale
		if scales[i] <= 0 || math.IsNaN(scales[i]) {
			scales[i] = math.Max(math.Abs(t.Value), 1)
		}
	}

	var trace []TraceStep

	// probe evaluates the candidate variable vector, appends a trace step
	// and returns the scaled residuals with their infinity norm.
	probe := func(x []float64) (physics.PointInputs, physics.OutputMap, []float64, float64, error) {
		ov := make(physics.Overrides, len(vars))
		vals := make(map[string]float64, len(vars))
		for i, v := range vars {
			ov[v.Name] = x[i]
			vals[v.Name] = x[i]
		}
		pt, err := base.With(ov)
		if err != nil {
			return base, nil, nil, math.NaN(), err
		}
		out, err := ev.Evaluate(pt)
		if err != nil {
			return base, nil, nil, math.NaN(), err
		}
		res := make([]float64, len(targets))
		norm := 0.0
		for i, t := range targets {
			res[i] = (out.Get(t.Key) - t.Value) / scales[i]
			if math.IsNaN(res[i]) {
				norm = math.NaN()
			} else if !math.IsNaN(norm) && math.Abs(res[i]) > norm {
				norm = math.Abs(res[i])
			}
		}
		trace = append(trace, TraceStep{Iter: len(trace), Values: vals, Residuals: res, Norm: norm})
		return pt, out, res, norm, nil
	}

	x0 := make([]float64, len(vars))
	for i, v := range vars {
		x0[i] = clampVar(v.X0, v.Lo, v.Hi)
	}

	pt0, out0, res0, norm0, err := probe(x0)
	if err != nil {
		return SolveResult{}, err
	}
	if norm0 <= opt.Tol {
		return SolveResult{
			Point:      pt0,
			Values:     trace[0].Values,
			Outputs:    out0,
			Residuals:  res0,
			Norm:       norm0,
			Converged:  true,
			Iterations: 0,
			Message:    "targets already satisfied at the base point",
			Trace:      trace,
		}, nil
	}

	budget := opt.MaxIter
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if len(trace) >= budget {
				return math.Inf(1) // budget spent, collapse the simplex
			}
			xc := make([]float64, len(x))
			for i := range x {
				xc[i] = clampVar(x[i], vars[i].Lo, vars[i].Hi)
			}
			_, _, res, norm, err := probe(xc)
			if err != nil || math.IsNaN(norm) {
				return nanPenalty
			}
			obj := 0.0
			for _, r := range res {
				obj += r * r
			}
			return obj
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   opt.Tol * opt.Tol * 1e-2,
			Relative:   1e-9,
			Iterations: 50,
		},
	}
	method := &optimize.NelderMead{
		Reflection:  1.0,
		Expansion:   2.0,
		Contraction: 0.5,
		Shrink:      0.5,
		SimplexSize: 0.2,
	}
	result, optErr := optimize.Minimize(problem, x0, settings, method)

	bestX := x0
	if result != nil && len(result.X) == len(vars) {
		bestX = make([]float64, len(vars))
		for i := range result.X {
			bestX[i] = clampVar(result.X[i], vars[i].Lo, vars[i].Hi)
		}
	}
	pt, out, res, norm, err := probe(bestX)
	if err != nil {
		return SolveResult{}, err
	}

	sr := SolveResult{
		Point:      pt,
		Values:     trace[len(trace)-1].Values,
		Outputs:    out,
		Residuals:  res,
		Norm:       norm,
		Converged:  !math.IsNaN(norm) && norm <= opt.Tol,
		Iterations: len(trace) - 1,
		Trace:      trace,
	}
	switch {
	case sr.Converged:
		sr.Message = "converged"
	case len(trace) >= budget:
		sr.Message = "iteration budget exhausted before reaching tolerance"
	case optErr != nil:
		sr.Message = fmt.Sprintf("search stalled: %v", optErr)
	default:
		sr.Message = "search stalled before reaching tolerance"
	}
	return sr, nil
}

func clampVar(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
