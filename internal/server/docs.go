package server

import (
	"github.com/plasmaforge/fusor/internal/artifact"
	"github.com/plasmaforge/fusor/internal/constraints"
	"github.com/plasmaforge/fusor/internal/solver"
)

// SolveResultDoc is the wire form of a finished solve. Residuals, norms
// and outputs can be NaN, so every float goes through the token-encoding
// artifact type.
type SolveResultDoc struct {
	Values     map[string]artifact.Float `json:"values"`
	Residuals  []artifact.Float          `json:"residuals"`
	Norm       artifact.Float            `json:"norm"`
	Converged  bool                      `json:"converged"`
	Iterations int                       `json:"iterations"`
	Message    string                    `json:"message"`
	Record     artifact.Document         `json:"record"`
	Trace      []TraceStepDoc            `json:"trace,omitempty"`
}

// TraceStepDoc keeps the per-iteration norm for auditability without
// shipping the full residual vectors.
type TraceStepDoc struct {
	Iter   int                       `json:"iter"`
	Values map[string]artifact.Float `json:"values"`
	Norm   artifact.Float            `json:"norm"`
}

func solveResultDoc(r *solver.SolveResult, limits constraints.LimitTable) SolveResultDoc {
	led := constraints.BuildLedger(r.Outputs, limits)
	doc := SolveResultDoc{
		Values:     floatMap(r.Values),
		Residuals:  make([]artifact.Float, len(r.Residuals)),
		Norm:       artifact.Float(r.Norm),
		Converged:  r.Converged,
		Iterations: r.Iterations,
		Message:    r.Message,
		Record:     artifact.New(r.Point, r.Outputs, &led),
	}
	for i, v := range r.Residuals {
		doc.Residuals[i] = artifact.Float(v)
	}
	doc.Trace = make([]TraceStepDoc, 0, len(r.Trace))
	for _, step := range r.Trace {
		doc.Trace = append(doc.Trace, TraceStepDoc{
			Iter:   step.Iter,
			Values: floatMap(step.Values),
			Norm:   artifact.Float(step.Norm),
		})
	}
	return doc
}

func floatMap(m map[string]float64) map[string]artifact.Float {
	out := make(map[string]artifact.Float, len(m))
	for k, v := range m {
		out[k] = artifact.Float(v)
	}
	return out
}
