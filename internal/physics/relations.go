package physics

import "math"

// Physical constants and unit conversions.
const (
	mu0      = 4e-7 * math.Pi // [H/m]
	keVToJ   = 1.602176634e-16
	mevToJ   = 1.602176634e-13
	eDTMeV   = 17.6 // total D-T fusion energy [MeV]
	alphaFrc = 3.52 / 17.6
	secPerYr = 3.156e7
)

// tiny is the floor applied to denominators that are physically positive.
const tiny = 1e-9

// boschHale holds the coefficients of the Bosch-Hale reactivity
// parameterization (Nucl. Fusion 32, 611). Temperatures in keV,
// reactivities in m^3/s.
type boschHale struct {
	BG   float64
	MRC2 float64
	C1   float64
	C2   float64
	C3   float64
	C4   float64
	C5   float64
	C6   float64
	C7   float64
}

var (
	bhDT = boschHale{
		BG: 34.3827, MRC2: 1.124656e6,
		C1: 1.17302e-9, C2: 1.51361e-2, C3: 7.51886e-2,
		C4: 4.60643e-3, C5: 1.35000e-2, C6: -1.06750e-4, C7: 1.36600e-5,
	}
	bhDDTp = boschHale{
		BG: 31.3970, MRC2: 9.37814e5,
		C1: 5.65718e-12, C2: 3.41267e-3, C3: 1.99167e-3,
		C4: 0, C5: 1.05060e-5, C6: 0, C7: 0,
	}
	bhDDHe3n = boschHale{
		BG: 31.3970, MRC2: 9.37814e5,
		C1: 5.43360e-12, C2: 5.85778e-3, C3: 7.68222e-3,
		C4: 0, C5: -2.96400e-6, C6: 0, C7: 0,
	}
)

// Reactivity returns <sigma*v> [m^3/s] at ion temperature Ti [keV].
// Non-positive temperatures return zero; NaN propagates.
func (c boschHale) Reactivity(Ti float64) float64 {
	if Ti <= 0 {
		return 0
	}
	numer := Ti * (c.C2 + Ti*(c.C4+Ti*c.C6))
	denom := 1 + Ti*(c.C3+Ti*(c.C5+Ti*c.C7))
	theta := Ti / (1 - numer/denom)
	xi := math.Cbrt(c.BG * c.BG / (4 * theta))
	sv := c.C1 * theta * math.Sqrt(xi/(c.MRC2*Ti*Ti*Ti)) * math.Exp(-3*xi)
	return sv * 1e-6 // cm^3/s -> m^3/s
}

// ReactivityDT is the D-T branch of the Bosch-Hale fit.
func ReactivityDT(Ti float64) float64 { return bhDT.Reactivity(Ti) }

// ReactivityDDTp is the D(d,p)T branch.
func ReactivityDDTp(Ti float64) float64 { return bhDDTp.Reactivity(Ti) }

// ReactivityDDHe3n is the D(d,n)He3 branch.
func ReactivityDDHe3n(Ti float64) float64 { return bhDDHe3n.Reactivity(Ti) }

// PlasmaVolume returns the torus volume 2*pi^2*R*a^2*kappa [m^3].
func PlasmaVolume(R0, a, kappa float64) float64 {
	return 2 * math.Pi * math.Pi * R0 * a * a * kappa
}

// PlasmaSurface returns the first-wall area proxy 4*pi^2*R*a*kappa [m^2].
func PlasmaSurface(R0, a, kappa float64) float64 {
	return 4 * math.Pi * math.Pi * R0 * a * kappa
}

// GreenwaldDensity20 returns n_GW = Ip/(pi*a^2) in 1e20 m^-3.
func GreenwaldDensity20(IpMA, a float64) float64 {
	if a <= 0 {
		return math.NaN()
	}
	return IpMA / (math.Pi * a * a)
}

// BpolOutboardMidplane returns Bpol ~ mu0*Ip/(2*pi*a) [T].
func BpolOutboardMidplane(IpMA, a float64) float64 {
	if a <= 0 {
		return math.NaN()
	}
	return mu0 * (IpMA * 1e6) / (2 * math.Pi * a)
}

// LambdaQEich returns the Eich #14 SOL width proxy
// lambda_q [mm] ~ mult * 0.63 * Bpol^-1.19.
func LambdaQEich(BpolT, mult float64) float64 {
	if BpolT <= 0 {
		return math.NaN()
	}
	return mult * 0.63 * math.Pow(BpolT, -1.19)
}

// BetaNFromBeta returns betaN = 100*beta*a*Bt/Ip.
func BetaNFromBeta(beta, a, Bt, IpMA float64) float64 {
	if IpMA <= 0 {
		return math.NaN()
	}
	return 100 * beta * a * Bt / IpMA
}

// Q95ProxyCyl is a cylindrical-equivalent safety factor proxy. Monotonic
// trends only; not an equilibrium.
func Q95ProxyCyl(R0, a, Bt, IpMA, kappa float64) float64 {
	if IpMA <= 0 {
		return math.NaN()
	}
	ipA := IpMA * 1e6
	return (2 * math.Pi * R0 * Bt / (mu0 * ipA)) * (a / math.Max(R0, tiny)) / math.Max(kappa, 1e-6)
}

// BootstrapFractionProxy returns f_bs ~ C_bs*betaN/q95, clamped to [0,0.95].
func BootstrapFractionProxy(betaN, q95, cBS float64) float64 {
	f := cBS * betaN / math.Max(q95, tiny)
	return clamp(f, 0, 0.95)
}

// MartinLHThreshold returns the Martin-2008 L-H power threshold [MW] for
// density ne20 [1e20 m^-3], field Bt [T], surface S [m^2] and effective
// ion mass M [amu].
func MartinLHThreshold(ne20, Bt, S, M float64) float64 {
	if ne20 <= 0 || Bt <= 0 || S <= 0 {
		return math.NaN()
	}
	return 0.0488 * math.Pow(ne20, 0.717) * math.Pow(Bt, 0.803) * math.Pow(S, 0.941) * (2 / math.Max(M, tiny))
}

// TauE returns the confinement time [s] predicted by the selected scaling.
// Ploss <= 0 yields +Inf (nothing to confine against); callers floor Ploss.
func TauE(s Scaling, IpMA, Bt, ne20, PlossMW, R0, a, kappa, M float64) float64 {
	if PlossMW <= 0 {
		return math.Inf(1)
	}
	eps := a / math.Max(R0, tiny)
	switch s {
	case ScalingIPB98y2:
		return 0.0562 * math.Pow(IpMA, 0.93) * math.Pow(Bt, 0.15) * math.Pow(ne20, 0.41) *
			math.Pow(PlossMW, -0.69) * math.Pow(R0, 1.97) * math.Pow(eps, 0.58) *
			math.Pow(kappa, 0.78) * math.Pow(M, 0.19)
	case ScalingITER89P:
		return 0.048 * math.Pow(IpMA, 0.85) * math.Pow(Bt, 0.20) * math.Pow(ne20, 0.10) *
			math.Pow(PlossMW, -0.50) * math.Pow(R0, 1.20) * math.Pow(a, 0.30) *
			math.Pow(kappa, 0.50) * math.Pow(M, 0.50)
	case ScalingKayeGoldston:
		return 0.055 * math.Pow(kappa, 0.28) * math.Pow(IpMA, 1.24) * math.Pow(ne20, 0.26) *
			math.Pow(R0, 1.65) * math.Sqrt(M/1.5) /
			(math.Pow(Bt, 0.09) * math.Pow(a, 0.49) * math.Pow(PlossMW, 0.58))
	case ScalingNeoAlcator:
		qStar := Q95ProxyCyl(R0, a, Bt, IpMA, kappa)
		return 0.07 * ne20 * a * R0 * R0 * qStar
	case ScalingMirnov:
		return 0.2 * a * math.Sqrt(kappa) * IpMA
	case ScalingShimomura:
		return 0.045 * R0 * a * Bt * math.Sqrt(kappa) * math.Sqrt(M)
	default:
		return math.NaN()
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
