package physics

import (
	"math"
	"testing"
)

func TestReactivityDT(t *testing.T) {
	tests := []struct {
		name   string
		ti     float64
		lo, hi float64
	}{
		{
			name: "10 keV",
			ti:   10.0,
			lo:   1.0e-22,
			hi:   1.3e-22,
		},
		{
			name: "20 keV",
			ti:   20.0,
			lo:   4.0e-22,
			hi:   4.6e-22,
		},
		{
			name: "5 keV",
			ti:   5.0,
			lo:   1.0e-23,
			hi:   1.6e-23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv := ReactivityDT(tt.ti)
			if sv < tt.lo || sv > tt.hi {
				t.Errorf("ReactivityDT(%v) = %v, want within [%v, %v]", tt.ti, sv, tt.lo, tt.hi)
			}
		})
	}
}

func TestReactivityEdgeCases(t *testing.T) {
	if got := ReactivityDT(0); got != 0 {
		t.Errorf("ReactivityDT(0) = %v, want 0", got)
	}
	if got := ReactivityDT(-5); got != 0 {
		t.Errorf("ReactivityDT(-5) = %v, want 0", got)
	}
	if got := ReactivityDT(math.NaN()); !math.IsNaN(got) {
		t.Errorf("ReactivityDT(NaN) = %v, want NaN", got)
	}
}

func TestReactivityMonotoneIncreasing(t *testing.T) {
	// D-T reactivity rises with temperature across the keV range of
	// interest for magnetic confinement.
	prev := ReactivityDT(1.0)
	for ti := 2.0; ti <= 50.0; ti += 1.0 {
		sv := ReactivityDT(ti)
		if !(sv > prev) {
			t.Fatalf("reactivity not increasing at Ti=%v: %v <= %v", ti, sv, prev)
		}
		prev = sv
	}
}

func TestReactivityBranchOrdering(t *testing.T) {
	// D-D branches are roughly two orders of magnitude below D-T at the
	// same temperature.
	for _, ti := range []float64{5.0, 10.0, 20.0} {
		dt := ReactivityDT(ti)
		ddT := ReactivityDDTp(ti)
		ddN := ReactivityDDHe3n(ti)
		if !(ddT < dt) || !(ddN < dt) {
			t.Errorf("Ti=%v: D-D branches (%v, %v) should be below D-T (%v)", ti, ddT, ddN, dt)
		}
		if ddT <= 0 || ddN <= 0 {
			t.Errorf("Ti=%v: D-D branches must be positive, got %v, %v", ti, ddT, ddN)
		}
	}
}

func TestGeometry(t *testing.T) {
	r0, a, kappa := 1.81, 0.57, 1.8

	wantV := 2 * math.Pi * math.Pi * r0 * a * a * kappa
	if got := PlasmaVolume(r0, a, kappa); math.Abs(got-wantV) > 1e-12 {
		t.Errorf("PlasmaVolume = %v, want %v", got, wantV)
	}

	wantS := 4 * math.Pi * math.Pi * r0 * a * kappa
	if got := PlasmaSurface(r0, a, kappa); math.Abs(got-wantS) > 1e-12 {
		t.Errorf("PlasmaSurface = %v, want %v", got, wantS)
	}
}

func TestGreenwaldDensity(t *testing.T) {
	ip, a := 8.0, 0.57
	want := ip / (math.Pi * a * a)
	if got := GreenwaldDensity20(ip, a); math.Abs(got-want) > 1e-12 {
		t.Errorf("GreenwaldDensity20 = %v, want %v", got, want)
	}
	if got := GreenwaldDensity20(ip, 0); !math.IsNaN(got) {
		t.Errorf("GreenwaldDensity20 with a=0 should be NaN, got %v", got)
	}
}

func TestTauEScalings(t *testing.T) {
	ip, bt, ne20, ploss := 8.0, 12.2, 6.0, 50.0
	r0, a, kappa, m := 1.81, 0.57, 1.8, 2.5

	scalings := []Scaling{
		ScalingIPB98y2, ScalingITER89P, ScalingKayeGoldston,
		ScalingNeoAlcator, ScalingMirnov, ScalingShimomura,
	}
	for _, s := range scalings {
		t.Run(s.String(), func(t *testing.T) {
			tau := TauE(s, ip, bt, ne20, ploss, r0, a, kappa, m)
			if math.IsNaN(tau) || tau <= 0 {
				t.Errorf("TauE(%v) = %v, want positive finite", s, tau)
			}
		})
	}
}

func TestTauEZeroLoss(t *testing.T) {
	tau := TauE(ScalingIPB98y2, 8.0, 12.2, 6.0, 0, 1.81, 0.57, 1.8, 2.5)
	if !math.IsInf(tau, 1) {
		t.Errorf("TauE with zero loss power = %v, want +Inf", tau)
	}
}

func TestTauEIPB98CurrentDependence(t *testing.T) {
	// tau ~ Ip^0.93 at fixed everything else.
	lo := TauE(ScalingIPB98y2, 4.0, 12.2, 6.0, 50.0, 1.81, 0.57, 1.8, 2.5)
	hi := TauE(ScalingIPB98y2, 8.0, 12.2, 6.0, 50.0, 1.81, 0.57, 1.8, 2.5)
	want := math.Pow(2, 0.93)
	if math.Abs(hi/lo-want) > 1e-9 {
		t.Errorf("tau ratio for doubled current = %v, want %v", hi/lo, want)
	}
}

func TestMartinLHThreshold(t *testing.T) {
	s := PlasmaSurface(1.81, 0.57, 1.8)
	p1 := MartinLHThreshold(3.0, 12.2, s, 2.5)
	p2 := MartinLHThreshold(6.0, 12.2, s, 2.5)
	if math.IsNaN(p1) || p1 <= 0 {
		t.Fatalf("MartinLHThreshold = %v, want positive", p1)
	}
	if !(p2 > p1) {
		t.Errorf("threshold should rise with density: P(6)=%v <= P(3)=%v", p2, p1)
	}
	if got := MartinLHThreshold(0, 12.2, s, 2.5); !math.IsNaN(got) {
		t.Errorf("zero density should yield NaN, got %v", got)
	}
}

func TestLambdaQEich(t *testing.T) {
	// At Bpol = 1 T the fit collapses to the multiplier times 0.63 mm.
	if got := LambdaQEich(1.0, 1.0); math.Abs(got-0.63) > 1e-12 {
		t.Errorf("LambdaQEich(1,1) = %v, want 0.63", got)
	}
	// Narrows with poloidal field.
	if !(LambdaQEich(2.0, 1.0) < LambdaQEich(1.0, 1.0)) {
		t.Error("lambda_q should narrow as Bpol rises")
	}
	if got := LambdaQEich(0, 1.0); !math.IsNaN(got) {
		t.Errorf("LambdaQEich(0) = %v, want NaN", got)
	}
}

func TestBootstrapFractionProxy(t *testing.T) {
	tests := []struct {
		name  string
		betaN float64
		q95   float64
		cBS   float64
		want  float64
	}{
		{name: "nominal", betaN: 3.0, q95: 3.0, cBS: 0.15, want: 0.15},
		{name: "clamped high", betaN: 100, q95: 1.0, cBS: 0.5, want: 0.95},
		{name: "clamped low", betaN: -5, q95: 3.0, cBS: 0.15, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BootstrapFractionProxy(tt.betaN, tt.q95, tt.cBS)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("BootstrapFractionProxy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQ95Proxy(t *testing.T) {
	q := Q95ProxyCyl(1.81, 0.57, 12.2, 8.0, 1.8)
	if math.IsNaN(q) || q <= 0 {
		t.Fatalf("Q95ProxyCyl = %v, want positive", q)
	}
	// Halving the current doubles the proxy.
	q2 := Q95ProxyCyl(1.81, 0.57, 12.2, 4.0, 1.8)
	if math.Abs(q2/q-2) > 1e-9 {
		t.Errorf("q95 ratio for halved current = %v, want 2", q2/q)
	}
	if got := Q95ProxyCyl(1.81, 0.57, 12.2, 0, 1.8); !math.IsNaN(got) {
		t.Errorf("zero current should yield NaN, got %v", got)
	}
}
