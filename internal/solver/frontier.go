package solver

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/plasmaforge/fusor/internal/constraints"
	"github.com/plasmaforge/fusor/internal/physics"
)

// Lever is one input knob the frontier search may move, with its box.
type Lever struct {
	Name string  `json:"name"`
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
}

// FrontierSample is one evaluated candidate.
type FrontierSample struct {
	Values   map[string]float64 `json:"values"`
	Distance float64            `json:"distance"`
	Feasible bool               `json:"feasible"`
	Dominant string             `json:"dominant,omitempty"`
}

// FrontierReport summarizes a nearest-feasible search. This is a seeded
// screening device: the reported point is the nearest feasible *sample*,
// not a guaranteed nearest feasible point.
type FrontierReport struct {
	BaseFeasible bool               `json:"base_feasible"`
	BaseStatus   constraints.Status `json:"base_status"`
	BaseDominant string             `json:"base_dominant,omitempty"`
	Found        bool               `json:"found"`
	Nearest      *FrontierSample    `json:"nearest,omitempty"`
	Deltas       map[string]float64 `json:"deltas,omitempty"`
	FeasibleN    int                `json:"feasible_n"`
	SampleN      int                `json:"sample_n"`
	Seed         int64              `json:"seed"`
}

// FindNearestFeasible evaluates base and, when it fails its hard limits,
// draws nRandom uniform samples from the lever box (seeded, reproducible)
// and reports the feasible sample closest to base in normalized lever
// space. Distance ties resolve to the earlier sample.
func FindNearestFeasible(ev Evaluator, base physics.PointInputs, levers []Lever,
	limits constraints.LimitTable, nRandom int, seed int64) (FrontierReport, error) {

	if len(levers) == 0 {
		return FrontierReport{}, fmt.Errorf("frontier: no levers given")
	}
	baseVals := make([]float64, len(levers))
	for i, lv := range levers {
		if !(lv.Lo < lv.Hi) {
			return FrontierReport{}, physics.NewConfigErrorf("lever %q: bounds [%g,%g] are not an interval", lv.Name, lv.Lo, lv.Hi)
		}
		v, err := base.Get(lv.Name)
		if err != nil {
			return FrontierReport{}, err
		}
		baseVals[i] = v
	}

	report := FrontierReport{SampleN: nRandom, Seed: seed}

	baseOut, err := ev.Evaluate(base)
	if err != nil {
		return FrontierReport{}, err
	}
	baseLed := constraints.BuildLedger(baseOut, limits)
	report.BaseFeasible = baseLed.OK
	report.BaseStatus = baseLed.Status
	if baseLed.Dominant != nil {
		report.BaseDominant = baseLed.Dominant.Name
	}
	if baseLed.OK {
		vals := make(map[string]float64, len(levers))
		for i, lv := range levers {
			vals[lv.Name] = baseVals[i]
		}
		report.Found = true
		report.Nearest = &FrontierSample{Values: vals, Distance: 0, Feasible: true}
		report.Deltas = map[string]float64{}
		return report, nil
	}

	rng := rand.New(rand.NewSource(seed))
	baseNorm := normalize(baseVals, levers)

	var best *FrontierSample
	for s := 0; s < nRandom; s++ {
		x := make([]float64, len(levers))
		ov := make(physics.Overrides, len(levers))
		vals := make(map[string]float64, len(levers))
		for i, lv := range levers {
			x[i] = lv.Lo + rng.Float64()*(lv.Hi-lv.Lo)
			ov[lv.Name] = x[i]
			vals[lv.Name] = x[i]
		}
		pt, err := base.With(ov)
		if err != nil {
			return FrontierReport{}, err
		}
		out, err := ev.Evaluate(pt)
		if err != nil {
			return FrontierReport{}, err
		}
		led := constraints.BuildLedger(out, limits)
		if !led.OK {
			continue
		}
		report.FeasibleN++
		d := floats.Distance(normalize(x, levers), baseNorm, 2)
		if best == nil || d < best.Distance {
			best = &FrontierSample{Values: vals, Distance: d, Feasible: true}
		}
	}

	if best != nil {
		report.Found = true
		report.Nearest = best
		report.Deltas = make(map[string]float64, len(levers))
		for i, lv := range levers {
			report.Deltas[lv.Name] = best.Values[lv.Name] - baseVals[i]
		}
	}
	return report, nil
}

func normalize(x []float64, levers []Lever) []float64 {
	n := make([]float64, len(x))
	for i, lv := range levers {
		span := lv.Hi - lv.Lo
		if span <= 0 || math.IsNaN(span) {
			n[i] = 0
			continue
		}
		n[i] = (x[i] - lv.Lo) / span
	}
	return n
}
