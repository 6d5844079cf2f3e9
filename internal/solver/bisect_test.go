package solver

import (
	"errors"
	"math"
	"testing"
)

func TestBisectFindsRoot(t *testing.T) {
	tests := []struct {
		name   string
		f      func(float64) (float64, error)
		lo, hi float64
		target float64
		want   float64
	}{
		{
			name:   "linear",
			f:      func(x float64) (float64, error) { return 2*x + 1, nil },
			lo:     -10, hi: 10, target: 5, want: 2,
		},
		{
			name:   "cubic",
			f:      func(x float64) (float64, error) { return x * x * x, nil },
			lo:     0, hi: 3, target: 8, want: 2,
		},
		{
			name:   "decreasing",
			f:      func(x float64) (float64, error) { return -x, nil },
			lo:     -5, hi: 5, target: 1, want: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, ok := Bisect(tt.f, tt.lo, tt.hi, tt.target, 1e-9, 200, DefaultPolicy())
			if !ok {
				t.Fatalf("Bisect did not converge")
			}
			if math.Abs(x-tt.want) > 1e-6 {
				t.Errorf("Bisect = %v, want %v", x, tt.want)
			}
		})
	}
}

func TestBisectExactEndpoints(t *testing.T) {
	f := func(x float64) (float64, error) { return x, nil }
	if x, ok := Bisect(f, 3, 10, 3, 1e-9, 50, DefaultPolicy()); !ok || x != 3 {
		t.Errorf("exact lo endpoint: got (%v, %v), want (3, true)", x, ok)
	}
	if x, ok := Bisect(f, -10, 7, 7, 1e-9, 50, DefaultPolicy()); !ok || x != 7 {
		t.Errorf("exact hi endpoint: got (%v, %v), want (7, true)", x, ok)
	}
}

func TestBisectNoBracket(t *testing.T) {
	f := func(x float64) (float64, error) { return x * x, nil } // positive on [1,2]
	x, ok := Bisect(f, 1, 2, -1, 1e-9, 50, DefaultPolicy())
	if ok {
		t.Error("expected failure when the target is not bracketed")
	}
	if x != 1 {
		t.Errorf("no-bracket failure should return lo, got %v", x)
	}
}

func TestBisectNonFiniteEndpoint(t *testing.T) {
	f := func(x float64) (float64, error) {
		if x < 0 {
			return math.NaN(), nil
		}
		return x, nil
	}
	if _, ok := Bisect(f, -1, 1, 0.5, 1e-9, 50, DefaultPolicy()); ok {
		t.Error("expected failure on a NaN endpoint")
	}
}

func TestBisectErrorPropagates(t *testing.T) {
	f := func(x float64) (float64, error) { return 0, errors.New("boom") }
	if _, ok := Bisect(f, 0, 1, 0.5, 1e-9, 50, DefaultPolicy()); ok {
		t.Error("expected failure when f errors")
	}
}

func TestBisectNonFiniteMidpoint(t *testing.T) {
	// Finite at the endpoints, NaN in the interior.
	f := func(x float64) (float64, error) {
		if x > 0.4 && x < 0.6 {
			return math.NaN(), nil
		}
		return x - 0.5, nil
	}
	if _, ok := Bisect(f, 0, 1, 0, 1e-12, 50, DefaultPolicy()); ok {
		t.Error("expected failure on a NaN midpoint")
	}
}

func TestBisectExhaustionPolicy(t *testing.T) {
	f := func(x float64) (float64, error) { return x, nil }

	// One iteration cannot reach a 1e-12 tolerance on [0,1].
	x, ok := Bisect(f, 0, 1, 0.3, 1e-12, 1, DefaultPolicy())
	if !ok {
		t.Error("default policy should accept the final midpoint on exhaustion")
	}
	if x != 0.5 {
		t.Errorf("exhaustion should return the last midpoint, got %v", x)
	}

	_, ok = Bisect(f, 0, 1, 0.3, 1e-12, 1, Policy{TreatExhaustionAsSuccess: false})
	if ok {
		t.Error("strict policy should report failure on exhaustion")
	}
}
