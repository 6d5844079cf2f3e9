package physics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scaling selects the energy-confinement scaling law used by Evaluate.
// The set is closed; unknown values are a configuration error.
type Scaling int

const (
	ScalingIPB98y2 Scaling = iota
	ScalingITER89P
	ScalingKayeGoldston
	ScalingNeoAlcator
	ScalingMirnov
	ScalingShimomura
)

// String returns the canonical name of the scaling law.
func (s Scaling) String() string {
	switch s {
	case ScalingIPB98y2:
		return "IPB98y2"
	case ScalingITER89P:
		return "ITER89P"
	case ScalingKayeGoldston:
		return "KayeGoldston"
	case ScalingNeoAlcator:
		return "NeoAlcator"
	case ScalingMirnov:
		return "Mirnov"
	case ScalingShimomura:
		return "Shimomura"
	default:
		return fmt.Sprintf("Scaling(%d)", int(s))
	}
}

// ParseScaling maps a canonical name to a Scaling value.
func ParseScaling(name string) (Scaling, error) {
	switch strings.TrimSpace(name) {
	case "", "IPB98y2", "ipb98y2":
		return ScalingIPB98y2, nil
	case "ITER89P", "iter89p":
		return ScalingITER89P, nil
	case "KayeGoldston", "kaye-goldston":
		return ScalingKayeGoldston, nil
	case "NeoAlcator", "neo-alcator":
		return ScalingNeoAlcator, nil
	case "Mirnov", "mirnov":
		return ScalingMirnov, nil
	case "Shimomura", "shimomura":
		return ScalingShimomura, nil
	default:
		return ScalingIPB98y2, NewConfigErrorf("unknown confinement scaling %q", name)
	}
}

// PointInputs is an immutable 0-D machine design point. All knobs are
// scalars; derived quantities live in OutputMap only. Instances are value
// types: copy freely, never share pointers.
type PointInputs struct {
	// Core knobs.
	R0    float64 // major radius [m]
	Amin  float64 // minor radius [m]
	Kappa float64 // elongation
	Bt    float64 // on-axis toroidal field [T]
	Ip    float64 // plasma current [MA]
	Ti    float64 // ion temperature [keV]
	FG    float64 // Greenwald density fraction
	Paux  float64 // auxiliary heating power [MW]

	// Plasma model knobs.
	TiOverTe        float64
	MIon            float64 // effective ion mass [amu]
	FRadCore        float64 // core radiated fraction of Pin
	AlphaLossFrac   float64
	ConfinementMult float64
	CBootstrap      float64
	FLHMargin       float64 // required headroom over the L-H threshold

	// Current drive.
	PCD           float64 // launched CD power [MW]
	EtaCDAPerW    float64 // driven current per launched watt [A/W]
	EtaAuxWallplug float64
	EtaCDWallplug  float64

	// Radial build and magnets.
	TBlanket    float64 // blanket thickness [m]
	TShield     float64 // shield thickness [m]
	TGap        float64 // assembly gap [m]
	BPeakFactor float64
	TStructure  float64 // structural shell thickness [m]
	HTSTemp     float64 // coil operating temperature [K]
	JcMult      float64
	StrainFrac  float64 // strain over critical strain
	NTFCoils    float64
	TFDumpTau   float64 // dump time constant [s]

	// Exhaust.
	LambdaQMult   float64
	FluxExpansion float64
	NStrikePoints float64
	FRadDiv       float64

	// Blanket / neutronics.
	BlanketCoverage   float64
	BreedingMult      float64
	BlanketEnergyMult float64
	HTSFluenceLimit   float64 // [n/m^2]

	// Plant closure and economics.
	TOutlet         float64 // coolant outlet temperature [K]
	PBOP            float64 // balance-of-plant electric load [MW]
	PPumps          float64 // pumping power [MW]
	PCryo20K        float64 // thermal load at 20 K [MW]
	CryoCOP         float64
	Availability    float64
	FixedChargeRate float64

	Scaling Scaling
}

// Defaults returns the reference operating point. Build thicknesses are
// sized for a compact high-field machine.
func Defaults() PointInputs {
	return PointInputs{
		R0:    1.81,
		Amin:  0.57,
		Kappa: 1.8,
		Bt:    12.2,
		Ip:    8.0,
		Ti:    15.0,
		FG:    0.85,
		Paux:  20.0,

		TiOverTe:        2.0,
		MIon:            2.5,
		FRadCore:        0.20,
		AlphaLossFrac:   0.05,
		ConfinementMult: 1.0,
		CBootstrap:      0.15,
		FLHMargin:       0.0,

		PCD:            0.0,
		EtaCDAPerW:     0.04e-6,
		EtaAuxWallplug: 0.40,
		EtaCDWallplug:  0.40,

		TBlanket:    0.35,
		TShield:     0.25,
		TGap:        0.03,
		BPeakFactor: 1.05,
		TStructure:  0.35,
		HTSTemp:     20.0,
		JcMult:      1.0,
		StrainFrac:  0.3,
		NTFCoils:    18,
		TFDumpTau:   10.0,

		LambdaQMult:   1.0,
		FluxExpansion: 5.0,
		NStrikePoints: 2,
		FRadDiv:       0.7,

		BlanketCoverage:   0.85,
		BreedingMult:      1.15,
		BlanketEnergyMult: 1.10,
		HTSFluenceLimit:   3.0e22,

		TOutlet:         900.0,
		PBOP:            20.0,
		PPumps:          5.0,
		PCryo20K:        1.0,
		CryoCOP:         0.02,
		Availability:    0.75,
		FixedChargeRate: 0.10,

		Scaling: ScalingIPB98y2,
	}
}

// Overrides maps canonical knob names to replacement values.
type Overrides map[string]float64

type fieldDesc struct {
	name string
	get  func(*PointInputs) float64
	set  func(*PointInputs, float64)
}

// fieldTable fixes the canonical knob names and their encoding order.
// Declaration order here is the cache-key order; never reorder.
var fieldTable = []fieldDesc{
	{"R0", func(p *PointInputs) float64 { return p.R0 }, func(p *PointInputs, v float64) { p.R0 = v }},
	{"a", func(p *PointInputs) float64 { return p.Amin }, func(p *PointInputs, v float64) { p.Amin = v }},
	{"kappa", func(p *PointInputs) float64 { return p.Kappa }, func(p *PointInputs, v float64) { p.Kappa = v }},
	{"Bt", func(p *PointInputs) float64 { return p.Bt }, func(p *PointInputs, v float64) { p.Bt = v }},
	{"Ip", func(p *PointInputs) float64 { return p.Ip }, func(p *PointInputs, v float64) { p.Ip = v }},
	{"Ti", func(p *PointInputs) float64 { return p.Ti }, func(p *PointInputs, v float64) { p.Ti = v }},
	{"fG", func(p *PointInputs) float64 { return p.FG }, func(p *PointInputs, v float64) { p.FG = v }},
	{"Paux", func(p *PointInputs) float64 { return p.Paux }, func(p *PointInputs, v float64) { p.Paux = v }},
	{"Ti_over_Te", func(p *PointInputs) float64 { return p.TiOverTe }, func(p *PointInputs, v float64) { p.TiOverTe = v }},
	{"M_ion", func(p *PointInputs) float64 { return p.MIon }, func(p *PointInputs, v float64) { p.MIon = v }},
	{"f_rad_core", func(p *PointInputs) float64 { return p.FRadCore }, func(p *PointInputs, v float64) { p.FRadCore = v }},
	{"alpha_loss_frac", func(p *PointInputs) float64 { return p.AlphaLossFrac }, func(p *PointInputs, v float64) { p.AlphaLossFrac = v }},
	{"confinement_mult", func(p *PointInputs) float64 { return p.ConfinementMult }, func(p *PointInputs, v float64) { p.ConfinementMult = v }},
	{"C_bootstrap", func(p *PointInputs) float64 { return p.CBootstrap }, func(p *PointInputs, v float64) { p.CBootstrap = v }},
	{"f_LH_margin", func(p *PointInputs) float64 { return p.FLHMargin }, func(p *PointInputs, v float64) { p.FLHMargin = v }},
	{"P_cd", func(p *PointInputs) float64 { return p.PCD }, func(p *PointInputs, v float64) { p.PCD = v }},
	{"eta_cd_A_per_W", func(p *PointInputs) float64 { return p.EtaCDAPerW }, func(p *PointInputs, v float64) { p.EtaCDAPerW = v }},
	{"eta_aux_wallplug", func(p *PointInputs) float64 { return p.EtaAuxWallplug }, func(p *PointInputs, v float64) { p.EtaAuxWallplug = v }},
	{"eta_cd_wallplug", func(p *PointInputs) float64 { return p.EtaCDWallplug }, func(p *PointInputs, v float64) { p.EtaCDWallplug = v }},
	{"t_blanket", func(p *PointInputs) float64 { return p.TBlanket }, func(p *PointInputs, v float64) { p.TBlanket = v }},
	{"t_shield", func(p *PointInputs) float64 { return p.TShield }, func(p *PointInputs, v float64) { p.TShield = v }},
	{"t_gap", func(p *PointInputs) float64 { return p.TGap }, func(p *PointInputs, v float64) { p.TGap = v }},
	{"B_peak_factor", func(p *PointInputs) float64 { return p.BPeakFactor }, func(p *PointInputs, v float64) { p.BPeakFactor = v }},
	{"t_structure", func(p *PointInputs) float64 { return p.TStructure }, func(p *PointInputs, v float64) { p.TStructure = v }},
	{"hts_temp_K", func(p *PointInputs) float64 { return p.HTSTemp }, func(p *PointInputs, v float64) { p.HTSTemp = v }},
	{"jc_mult", func(p *PointInputs) float64 { return p.JcMult }, func(p *PointInputs, v float64) { p.JcMult = v }},
	{"strain_frac", func(p *PointInputs) float64 { return p.StrainFrac }, func(p *PointInputs, v float64) { p.StrainFrac = v }},
	{"n_tf_coils", func(p *PointInputs) float64 { return p.NTFCoils }, func(p *PointInputs, v float64) { p.NTFCoils = v }},
	{"tf_dump_tau_s", func(p *PointInputs) float64 { return p.TFDumpTau }, func(p *PointInputs, v float64) { p.TFDumpTau = v }},
	{"lambda_q_mult", func(p *PointInputs) float64 { return p.LambdaQMult }, func(p *PointInputs, v float64) { p.LambdaQMult = v }},
	{"flux_expansion", func(p *PointInputs) float64 { return p.FluxExpansion }, func(p *PointInputs, v float64) { p.FluxExpansion = v }},
	{"n_strike_points", func(p *PointInputs) float64 { return p.NStrikePoints }, func(p *PointInputs, v float64) { p.NStrikePoints = v }},
	{"f_rad_div", func(p *PointInputs) float64 { return p.FRadDiv }, func(p *PointInputs, v float64) { p.FRadDiv = v }},
	{"blanket_coverage", func(p *PointInputs) float64 { return p.BlanketCoverage }, func(p *PointInputs, v float64) { p.BlanketCoverage = v }},
	{"breeding_mult", func(p *PointInputs) float64 { return p.BreedingMult }, func(p *PointInputs, v float64) { p.BreedingMult = v }},
	{"blanket_energy_mult", func(p *PointInputs) float64 { return p.BlanketEnergyMult }, func(p *PointInputs, v float64) { p.BlanketEnergyMult = v }},
	{"hts_fluence_limit", func(p *PointInputs) float64 { return p.HTSFluenceLimit }, func(p *PointInputs, v float64) { p.HTSFluenceLimit = v }},
	{"T_outlet_K", func(p *PointInputs) float64 { return p.TOutlet }, func(p *PointInputs, v float64) { p.TOutlet = v }},
	{"P_bop", func(p *PointInputs) float64 { return p.PBOP }, func(p *PointInputs, v float64) { p.PBOP = v }},
	{"P_pumps", func(p *PointInputs) float64 { return p.PPumps }, func(p *PointInputs, v float64) { p.PPumps = v }},
	{"P_cryo_20K", func(p *PointInputs) float64 { return p.PCryo20K }, func(p *PointInputs, v float64) { p.PCryo20K = v }},
	{"cryo_COP", func(p *PointInputs) float64 { return p.CryoCOP }, func(p *PointInputs, v float64) { p.CryoCOP = v }},
	{"availability", func(p *PointInputs) float64 { return p.Availability }, func(p *PointInputs, v float64) { p.Availability = v }},
	{"fixed_charge_rate", func(p *PointInputs) float64 { return p.FixedChargeRate }, func(p *PointInputs, v float64) { p.FixedChargeRate = v }},
}

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(fieldTable))
	for i, f := range fieldTable {
		m[f.name] = i
	}
	return m
}()

// KnobNames returns the canonical override keys in declaration order.
func KnobNames() []string {
	names := make([]string, len(fieldTable))
	for i, f := range fieldTable {
		names[i] = f.name
	}
	return names
}

// With returns a copy of p with the named knobs replaced. The receiver is
// never modified. Unknown keys are a configuration error.
func (p PointInputs) With(ov Overrides) (PointInputs, error) {
	out := p
	for name, v := range ov {
		i, ok := fieldIndex[name]
		if !ok {
			return p, NewConfigErrorf("unknown input knob %q", name)
		}
		fieldTable[i].set(&out, v)
	}
	return out, nil
}

// WithScaling returns a copy of p using the given confinement scaling.
func (p PointInputs) WithScaling(s Scaling) PointInputs {
	out := p
	out.Scaling = s
	return out
}

// Get returns the value of a named knob.
func (p PointInputs) Get(name string) (float64, error) {
	i, ok := fieldIndex[name]
	if !ok {
		return math.NaN(), NewConfigErrorf("unknown input knob %q", name)
	}
	return fieldTable[i].get(&p), nil
}

// Validate checks structural fields. Everything else is allowed to be
// physically silly; silly values degrade to NaN outputs, not errors.
func (p PointInputs) Validate() error {
	if math.IsNaN(p.R0) || p.R0 <= 0 {
		return NewConfigErrorf("major radius must be positive, got %g", p.R0)
	}
	if math.IsNaN(p.Kappa) || p.Kappa <= 0 {
		return NewConfigErrorf("elongation must be positive, got %g", p.Kappa)
	}
	if math.IsNaN(p.Bt) || p.Bt <= 0 {
		return NewConfigErrorf("toroidal field must be positive, got %g", p.Bt)
	}
	if p.Scaling < ScalingIPB98y2 || p.Scaling > ScalingShimomura {
		return NewConfigErrorf("unknown confinement scaling %d", int(p.Scaling))
	}
	return nil
}

// CacheKey returns a stable content hash of the design point. Equal points
// hash equally across processes; NaN and infinities encode as tokens.
func (p PointInputs) CacheKey() string {
	var sb strings.Builder
	for i := range fieldTable {
		sb.WriteString(fieldTable[i].name)
		sb.WriteByte('=')
		sb.WriteString(encodeFloat(fieldTable[i].get(&p)))
		sb.WriteByte(';')
	}
	sb.WriteString("scaling=")
	sb.WriteString(p.Scaling.String())
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func encodeFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(v, 'x', -1, 64)
	}
}
