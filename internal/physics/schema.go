package physics

// SchemaVersion identifies the output-map layout. Adding keys bumps it;
// consumers (ledger tables, artifacts) may only rely on keys listed here.
const SchemaVersion = "outputs.v1"

// Canonical output keys, grouped by evaluation block.
const (
	KeyVolume      = "V_m3"
	KeySurface     = "S_m2"
	KeyAspectRatio = "aspect_ratio"
	KeyEpsilon     = "eps"

	KeyGreenwald = "nGW_1e20_m3"
	KeyDensity   = "ne20"

	KeySigmaVDT     = "sigmav_DT_m3_s"
	KeySigmaVDDTp   = "sigmav_DD_Tp_m3_s"
	KeySigmaVDDHe3n = "sigmav_DD_He3n_m3_s"
	KeyPfus         = "Pfus_MW"
	KeyPalpha       = "Palpha_MW"
	KeyPin          = "Pin_MW"
	KeyQ            = "Q"

	KeyPradCore = "Prad_core_MW"
	KeyPsol     = "P_SOL_MW"
	KeyPsolOverR = "P_SOL_over_R_MW_m"
	KeyPloss    = "Ploss_MW"

	KeyStoredEnergy = "W_MJ"
	KeyTauE         = "tauE_s"
	KeyTauIPB98     = "tauIPB98_s"
	KeyH98          = "H98"
	KeyTauERequired = "tauE_required_s"
	KeyHRequired    = "H_required"
	KeyPowerBalance = "power_balance_residual_MW"
	KeyIgnitionM    = "M_ignition"

	KeyPLH  = "P_LH_MW"
	KeyLHOk = "LH_ok"

	KeyBeta  = "beta"
	KeyBetaN = "betaN"
	KeyQ95   = "q95"
	KeyFG    = "fG"

	KeyFBootstrap = "f_bootstrap"
	KeyIBootstrap = "I_bootstrap_MA"
	KeyICD        = "I_cd_MA"
	KeyFNI        = "f_NI"

	KeyRCoilInner = "R_coil_inner_m"
	KeyBPeak      = "B_peak_T"
	KeySigmaHoop  = "sigma_hoop_MPa"
	KeySigmaVM    = "sigma_vm_MPa"
	KeyJcNorm     = "hts_Jc_norm"
	KeyHTSMargin  = "hts_margin"
	KeyITF        = "I_tf_MA"
	KeyETF        = "E_tf_MJ"
	KeyVDump      = "V_dump_kV"

	KeyBpolMid    = "Bpol_mid_T"
	KeyLambdaQ    = "lambda_q_mm"
	KeyWettedArea = "A_wet_m2"
	KeyQDiv       = "q_div_MW_m2"
	KeyQMidplane  = "q_midplane_MW_m2"
	KeyLParallel  = "L_par_m"

	KeyNWL          = "neutron_wall_load_MW_m2"
	KeyTBR          = "TBR"
	KeyShieldTrans  = "shield_transmission"
	KeyHTSFluence   = "hts_fluence_per_fpy"
	KeyHTSLifetime  = "hts_lifetime_yr"

	KeyPth      = "Pth_MW"
	KeyEtaElec  = "eta_elec"
	KeyPeGross  = "P_e_gross_MW"
	KeyPrecirc  = "P_recirc_MW"
	KeyPeNet    = "P_e_net_MW"
	KeyQe       = "Qe"

	KeyAnnualNetMWh = "annual_net_MWh"
	KeyCapex        = "capex_proxy_MUSD"
	KeyOpex         = "opex_proxy_MUSD_yr"
	KeyCOE          = "COE_proxy_USD_MWh"
)

// schemaKeys lists every canonical key in evaluation order.
var schemaKeys = []string{
	KeyVolume, KeySurface, KeyAspectRatio, KeyEpsilon,
	KeyGreenwald, KeyDensity,
	KeySigmaVDT, KeySigmaVDDTp, KeySigmaVDDHe3n, KeyPfus, KeyPalpha, KeyPin, KeyQ,
	KeyPradCore, KeyPsol, KeyPsolOverR, KeyPloss,
	KeyStoredEnergy, KeyTauE, KeyTauIPB98, KeyH98, KeyTauERequired, KeyHRequired,
	KeyPowerBalance, KeyIgnitionM,
	KeyPLH, KeyLHOk,
	KeyBeta, KeyBetaN, KeyQ95, KeyFG,
	KeyFBootstrap, KeyIBootstrap, KeyICD, KeyFNI,
	KeyRCoilInner, KeyBPeak, KeySigmaHoop, KeySigmaVM, KeyJcNorm, KeyHTSMargin,
	KeyITF, KeyETF, KeyVDump,
	KeyBpolMid, KeyLambdaQ, KeyWettedArea, KeyQDiv, KeyQMidplane, KeyLParallel,
	KeyNWL, KeyTBR, KeyShieldTrans, KeyHTSFluence, KeyHTSLifetime,
	KeyPth, KeyEtaElec, KeyPeGross, KeyPrecirc, KeyPeNet, KeyQe,
	KeyAnnualNetMWh, KeyCapex, KeyOpex, KeyCOE,
}

// SchemaKeys returns the canonical output keys in evaluation order.
func SchemaKeys() []string {
	out := make([]string, len(schemaKeys))
	copy(out, schemaKeys)
	return out
}

// IsSchemaKey reports whether key is part of the fixed schema. Keys with a
// "diag." prefix are the extension point and never part of the schema.
func IsSchemaKey(key string) bool {
	_, ok := schemaIndex[key]
	return ok
}

var schemaIndex = func() map[string]struct{} {
	m := make(map[string]struct{}, len(schemaKeys))
	for _, k := range schemaKeys {
		m[k] = struct{}{}
	}
	return m
}()
