package physics

import "math"

// Engineering proxies: radial build, magnets, exhaust, neutronics.
// These are screening relations with explicit validity limits, not
// component designs.

// CoilInnerRadius returns the radius left for the inboard TF leg after the
// plasma and in-vessel build. Non-positive means the build does not close.
func CoilInnerRadius(R0, a, tBlanket, tShield, tGap float64) float64 {
	return R0 - a - tBlanket - tShield - tGap
}

// BPeak returns the peak field on the TF conductor via 1/R scaling with an
// enhancement factor. A failed radial build yields NaN.
func BPeak(Bt, R0, rCoilInner, peakFactor float64) float64 {
	if !(rCoilInner > 0) {
		return math.NaN()
	}
	return peakFactor * Bt * R0 / rCoilInner
}

// HoopStress returns the thin-shell hoop stress (B^2/2mu0)*(R/t) [MPa].
func HoopStress(BpeakT, R, tStruct float64) float64 {
	t := math.Max(tStruct, tiny)
	return (BpeakT * BpeakT / (2 * mu0)) * (R / t) / 1e6
}

// VonMisesProxy combines hoop stress with an axial component at half the
// hoop value.
func VonMisesProxy(sigmaHoopMPa float64) float64 {
	sa := 0.5 * sigmaHoopMPa
	return math.Sqrt(sigmaHoopMPa*sigmaHoopMPa + sa*sa - sigmaHoopMPa*sa)
}

// REBCOJcNorm is a smooth REBCO critical-current surface fit, normalized to
// the 4.2 K self-field value: (1-T/92)^1.5 / (1+(B/30)^1.7).
func REBCOJcNorm(BT, tempK float64) float64 {
	if tempK >= 92 || tempK < 0 {
		return 0
	}
	return math.Pow(1-tempK/92, 1.5) / (1 + math.Pow(BT/30, 1.7))
}

// HTSMargin returns the operating margin of the TF conductor: the strain-
// degraded critical-current fraction over the fraction demanded at BPeak.
func HTSMargin(BpeakT, tempK, jcMult, strainFrac float64) float64 {
	if !(BpeakT > 0) {
		return math.NaN()
	}
	jc := REBCOJcNorm(BpeakT, tempK) * jcMult * math.Exp(-strainFrac*strainFrac)
	return jc / (BpeakT / 20)
}

// TFCurrent returns the total conductor current per coil [A] needed to
// drive Bt at R0 with n coils.
func TFCurrent(Bt, R0, nCoils float64) float64 {
	return Bt * 2 * math.Pi * R0 / (mu0 * math.Max(nCoils, 1))
}

// TFStoredEnergy returns the magnetic stored energy [J] using the bore
// volume swept by the winding pack.
func TFStoredEnergy(Bt, R0, rBore float64) float64 {
	if !(rBore > 0) {
		return math.NaN()
	}
	vBore := 2 * math.Pi * math.Pi * R0 * rBore * rBore
	return Bt * Bt / (2 * mu0) * vBore
}

// DumpVoltage returns the resistive dump voltage [kV] for stored energy
// E [J] discharged from current I [A] with time constant tau [s].
func DumpVoltage(EJ, IA, tauS float64) float64 {
	denom := math.Max(IA, tiny) * math.Max(tauS, tiny)
	return (2 * EJ / denom) / 1e3
}

// DivertorWettedArea returns A_wet = n_sp*2*pi*R0*lambda_q*f_exp [m^2]
// with lambda_q in mm.
func DivertorWettedArea(R0, lambdaQmm, fluxExp, nStrike float64) float64 {
	lamM := math.Max(lambdaQmm*1e-3, tiny)
	return math.Max(nStrike, 1) * 2 * math.Pi * R0 * lamM * math.Max(fluxExp, tiny)
}

// DivertorHeatFlux returns q_div = P_SOL*(1-f_rad_div)/A_wet [MW/m^2].
func DivertorHeatFlux(PsolMW, aWet, fRadDiv float64) float64 {
	f := clamp(fRadDiv, 0, 0.99)
	return PsolMW * (1 - f) / math.Max(aWet, tiny)
}

// MidplaneHeatFlux returns q_mp ~ P_SOL/(2*pi*R0*lambda_q) [MW/m^2].
func MidplaneHeatFlux(PsolMW, R0, lambdaQmm float64) float64 {
	lamM := math.Max(lambdaQmm*1e-3, tiny)
	return PsolMW / (2 * math.Pi * math.Max(R0, tiny) * lamM)
}

// ConnectionLength returns L_par ~ pi*q95*R0 [m].
func ConnectionLength(q95, R0 float64) float64 {
	return math.Pi * q95 * R0
}

// TBRProxy returns a tritium breeding ratio proxy from blanket coverage,
// breeder performance and thickness (0.30 m e-folding).
func TBRProxy(coverage, breedingMult, tBlanket float64) float64 {
	return coverage * breedingMult * (1 - math.Exp(-math.Max(tBlanket, 0)/0.30))
}

// NeutronWallLoad returns the mean 14.1 MeV neutron wall load [MW/m^2]:
// the neutron share of fusion power over the first-wall area.
func NeutronWallLoad(PfusMW, surfaceM2 float64) float64 {
	return (1 - alphaFrc) * PfusMW / math.Max(surfaceM2, tiny)
}

// ShieldTransmission returns the fast-neutron transmission through the
// inboard shield with a 0.25 m e-folding length.
func ShieldTransmission(tShield float64) float64 {
	return math.Exp(-math.Max(tShield, 0) / 0.25)
}

// HTSFluencePerFPY returns the fast fluence at the TF conductor per
// full-power year [n/m^2] for a given wall load and shield transmission.
func HTSFluencePerFPY(nwlMWm2, transmission float64) float64 {
	fluxN := nwlMWm2 * 1e6 / (14.1 * mevToJ) // [n/m^2/s] at the wall
	return fluxN * transmission * secPerYr
}

// HTSLifetimeYears returns calendar years to the fluence limit at the
// given availability.
func HTSLifetimeYears(fluenceLimit, fluencePerFPY, availability float64) float64 {
	rate := fluencePerFPY * clamp(availability, 0, 1)
	if !(rate > 0) {
		return math.NaN()
	}
	return fluenceLimit / rate
}
