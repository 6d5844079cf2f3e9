package physics

import "math"

// OutputMap holds the derived quantities of one design point, keyed by the
// canonical names in schema.go. Values may be NaN; they are never +-Inf.
type OutputMap map[string]float64

// Get returns the value for key, or NaN when absent.
func (o OutputMap) Get(key string) float64 {
	if v, ok := o[key]; ok {
		return v
	}
	return math.NaN()
}

// Evaluate maps a design point to its output quantities. Pure and
// deterministic: same inputs, same map. The only error condition is a
// structurally invalid point; numeric pathologies degrade to NaN entries.
//
// Blocks run in a fixed acyclic order; later blocks read earlier outputs
// but never the reverse.
func Evaluate(in PointInputs) (OutputMap, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out := make(OutputMap, len(schemaKeys))

	// Geometry. A non-positive minor radius poisons everything downstream.
	var vol, surf, aspect, eps float64
	if in.Amin > 0 {
		vol = PlasmaVolume(in.R0, in.Amin, in.Kappa)
		surf = PlasmaSurface(in.R0, in.Amin, in.Kappa)
		aspect = in.R0 / in.Amin
		eps = in.Amin / in.R0
	} else {
		vol, surf, aspect, eps = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	}
	out[KeyVolume] = vol
	out[KeySurface] = surf
	out[KeyAspectRatio] = aspect
	out[KeyEpsilon] = eps

	// Density.
	nGW := GreenwaldDensity20(in.Ip, in.Amin)
	ne20 := in.FG * nGW
	neM3 := ne20 * 1e20
	out[KeyGreenwald] = nGW
	out[KeyDensity] = ne20

	// Fusion power, 50/50 D-T.
	svDT := ReactivityDT(in.Ti)
	out[KeySigmaVDT] = svDT
	out[KeySigmaVDDTp] = ReactivityDDTp(in.Ti)
	out[KeySigmaVDDHe3n] = ReactivityDDHe3n(in.Ti)
	nD := 0.5 * neM3
	rateDT := nD * nD * svDT // reactions/m^3/s
	pfus := rateDT * eDTMeV * mevToJ * vol / 1e6
	palpha := alphaFrc * pfus * (1 - clamp(in.AlphaLossFrac, 0, 1))
	pin := in.Paux + palpha
	out[KeyPfus] = pfus
	out[KeyPalpha] = palpha
	out[KeyPin] = pin
	out[KeyQ] = pfus / math.Max(in.Paux, tiny)

	// Radiation and SOL power.
	fRad := clamp(in.FRadCore, 0, 0.95)
	pradCore := fRad * pin
	psol := math.Max(pin-pradCore, tiny)
	out[KeyPradCore] = pradCore
	out[KeyPsol] = psol
	out[KeyPsolOverR] = psol / math.Max(in.R0, tiny)
	ploss := psol
	out[KeyPloss] = ploss

	// Stored energy and confinement.
	te := in.Ti / math.Max(in.TiOverTe, tiny)
	wJ := 3 * neM3 * (te + in.Ti) * keVToJ * vol
	wMJ := wJ / 1e6
	out[KeyStoredEnergy] = wMJ
	tauE := TauE(in.Scaling, in.Ip, in.Bt, ne20, ploss, in.R0, in.Amin, in.Kappa, in.MIon) *
		math.Max(in.ConfinementMult, 0)
	tauIPB := TauE(ScalingIPB98y2, in.Ip, in.Bt, ne20, ploss, in.R0, in.Amin, in.Kappa, in.MIon)
	tauRequired := wMJ / math.Max(ploss, tiny)
	out[KeyTauE] = tauE
	out[KeyTauIPB98] = tauIPB
	out[KeyH98] = tauE / math.Max(tauIPB, tiny)
	out[KeyTauERequired] = tauRequired
	out[KeyHRequired] = tauRequired / math.Max(tauIPB, tiny)
	out[KeyPowerBalance] = ploss - wMJ/math.Max(tauE, tiny)
	out[KeyIgnitionM] = palpha / math.Max(ploss, tiny)

	// L-H access.
	plh := MartinLHThreshold(ne20, in.Bt, surf, in.MIon)
	out[KeyPLH] = plh
	out[KeyLHOk] = boolToFloat(in.Paux >= (1+in.FLHMargin)*plh, plh+in.Paux)

	// Operational limit proxies.
	pPa := neM3 * (te + in.Ti) * keVToJ
	beta := pPa / (in.Bt * in.Bt / (2 * mu0))
	betaN := BetaNFromBeta(beta, in.Amin, in.Bt, in.Ip)
	q95 := Q95ProxyCyl(in.R0, in.Amin, in.Bt, in.Ip, in.Kappa)
	out[KeyBeta] = beta
	out[KeyBetaN] = betaN
	out[KeyQ95] = q95
	out[KeyFG] = in.FG

	// Current drive and non-inductive fraction.
	fBS := BootstrapFractionProxy(betaN, q95, in.CBootstrap)
	iBS := fBS * in.Ip
	iCD := in.EtaCDAPerW * in.PCD // [A/W]*[MW] = [MA], the 1e6 factors cancel
	out[KeyFBootstrap] = fBS
	out[KeyIBootstrap] = iBS
	out[KeyICD] = iCD
	out[KeyFNI] = (iBS + iCD) / math.Max(in.Ip, tiny)

	// Radial build and magnets. A failed build leaves the magnet chain NaN.
	rCoil := CoilInnerRadius(in.R0, in.Amin, in.TBlanket, in.TShield, in.TGap)
	bPeak := BPeak(in.Bt, in.R0, rCoil, in.BPeakFactor)
	sigmaHoop := HoopStress(bPeak, rCoil, in.TStructure)
	out[KeyRCoilInner] = rCoil
	out[KeyBPeak] = bPeak
	out[KeySigmaHoop] = sigmaHoop
	out[KeySigmaVM] = VonMisesProxy(sigmaHoop)
	out[KeyJcNorm] = REBCOJcNorm(bPeak, in.HTSTemp)
	out[KeyHTSMargin] = HTSMargin(bPeak, in.HTSTemp, in.JcMult, in.StrainFrac)
	iTF := TFCurrent(in.Bt, in.R0, in.NTFCoils)
	rBore := in.Amin + in.TBlanket + in.TShield + in.TGap
	eTF := TFStoredEnergy(in.Bt, in.R0, rBore)
	out[KeyITF] = iTF / 1e6
	out[KeyETF] = eTF / 1e6
	out[KeyVDump] = DumpVoltage(eTF, iTF, in.TFDumpTau)

	// Exhaust.
	bpol := BpolOutboardMidplane(in.Ip, in.Amin)
	lambdaQ := LambdaQEich(bpol, in.LambdaQMult)
	aWet := DivertorWettedArea(in.R0, lambdaQ, in.FluxExpansion, in.NStrikePoints)
	out[KeyBpolMid] = bpol
	out[KeyLambdaQ] = lambdaQ
	out[KeyWettedArea] = aWet
	out[KeyQDiv] = DivertorHeatFlux(psol, aWet, in.FRadDiv)
	out[KeyQMidplane] = MidplaneHeatFlux(psol, in.R0, lambdaQ)
	out[KeyLParallel] = ConnectionLength(q95, in.R0)

	// Neutronics.
	nwl := NeutronWallLoad(pfus, surf)
	trans := ShieldTransmission(in.TShield)
	fluence := HTSFluencePerFPY(nwl, trans)
	out[KeyNWL] = nwl
	out[KeyTBR] = TBRProxy(in.BlanketCoverage, in.BreedingMult, in.TBlanket)
	out[KeyShieldTrans] = trans
	out[KeyHTSFluence] = fluence
	out[KeyHTSLifetime] = HTSLifetimeYears(in.HTSFluenceLimit, fluence, in.Availability)

	// Plant closure and economics.
	etaElec := ElectricEfficiency(in.TOutlet)
	pp := PlantClosure(pfus, in.Paux, in.PCD, etaElec, in.BlanketEnergyMult,
		in.EtaAuxWallplug, in.EtaCDWallplug, in.PBOP, in.PPumps, in.PCryo20K, in.CryoCOP)
	out[KeyPth] = pp.PthMW
	out[KeyEtaElec] = etaElec
	out[KeyPeGross] = pp.PeGrossMW
	out[KeyPrecirc] = pp.PrecircMW
	out[KeyPeNet] = pp.PeNetMW
	out[KeyQe] = pp.Qe
	avail := clamp(in.Availability, 0, 1)
	out[KeyAnnualNetMWh] = math.Max(pp.PeNetMW, 0) * 8760 * avail
	capex := CapexProxy(bPeak, surf, in.TShield, pp.PthMW, in.PCryo20K)
	opex := OpexProxy(pp.PrecircMW, nwl, in.Availability)
	out[KeyCapex] = capex
	out[KeyOpex] = opex
	out[KeyCOE] = COEProxy(capex, opex, in.FixedChargeRate, pp.PeNetMW, in.Availability)

	// Boundary rule: infinities never escape the map.
	for k, v := range out {
		if math.IsInf(v, 0) {
			out[k] = math.NaN()
		}
	}
	return out, nil
}

func boolToFloat(b bool, guard float64) float64 {
	if math.IsNaN(guard) {
		return math.NaN()
	}
	if b {
		return 1
	}
	return 0
}
