// Package solver provides the bounded root-finding, target-matching and
// nearest-feasible search layers on top of the point evaluator.
package solver

import "math"

// Policy controls bisection termination behavior.
type Policy struct {
	// TreatExhaustionAsSuccess accepts the final midpoint as an
	// approximate solution when the iteration budget runs out before the
	// residual tolerance is met. This mirrors the historical behavior of
	// budgeted bound searches; set false to demand the tolerance.
	TreatExhaustionAsSuccess bool
}

// DefaultPolicy preserves exhaustion-as-success.
func DefaultPolicy() Policy {
	return Policy{TreatExhaustionAsSuccess: true}
}

// Bisect finds x in [lo,hi] with f(x) ~= target by bisection on the
// residual f(x)-target. f is assumed monotonic on the interval; if it is
// not, the result is unspecified but Bisect still terminates.
//
// Returns (lo,false) when the endpoints do not bracket the target or an
// endpoint evaluation is non-finite, and (mid,false) when a midpoint
// evaluation is non-finite. Otherwise returns the midpoint with ok=true
// once |f(mid)-target| < tol, or per pol when maxIter is exhausted.
func Bisect(f func(float64) (float64, error), lo, hi, target, tol float64, maxIter int, pol Policy) (float64, bool) {
	rLo, err := residual(f, lo, target)
	if err != nil || !isFinite(rLo) {
		return lo, false
	}
	rHi, err := residual(f, hi, target)
	if err != nil || !isFinite(rHi) {
		return lo, false
	}
	if rLo == 0 {
		return lo, true
	}
	if rHi == 0 {
		return hi, true
	}
	if rLo*rHi > 0 {
		return lo, false // no bracket
	}

	mid := lo
	for i := 0; i < maxIter; i++ {
		mid = 0.5 * (lo + hi)
		rMid, err := residual(f, mid, target)
		if err != nil || !isFinite(rMid) {
			return mid, false
		}
		if math.Abs(rMid) < tol {
			return mid, true
		}
		if rMid*rLo < 0 {
			hi = mid
		} else {
			lo = mid
			rLo = rMid
		}
	}
	return mid, pol.TreatExhaustionAsSuccess
}

func residual(f func(float64) (float64, error), x, target float64) (float64, error) {
	y, err := f(x)
	if err != nil {
		return math.NaN(), err
	}
	return y - target, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
