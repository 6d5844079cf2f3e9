// Package constraints declares engineering limits and scores evaluated
// design points against them.
package constraints

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plasmaforge/fusor/internal/physics"
)

// Sense is the comparison direction of a limit.
type Sense string

const (
	SenseLE Sense = "<="
	SenseGE Sense = ">="
)

// Severity classifies a limit as feasibility-blocking or advisory.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Limit is one declared engineering bound on an output quantity.
type Limit struct {
	Name     string   `yaml:"name"`
	Key      string   `yaml:"key"`
	Sense    Sense    `yaml:"sense"`
	Bound    float64  `yaml:"bound"`
	Severity Severity `yaml:"severity"`
	Group    string   `yaml:"group,omitempty"`
	Units    string   `yaml:"units,omitempty"`
	Note     string   `yaml:"note,omitempty"`
}

// LimitTable is an ordered set of limits. Order matters: dominance ties
// resolve to the earlier declaration.
type LimitTable []Limit

// DefaultLimits returns the built-in screening table.
func DefaultLimits() LimitTable {
	return LimitTable{
		{Name: "q95_min", Key: physics.KeyQ95, Sense: SenseGE, Bound: 2.0, Severity: SeverityHard, Group: "plasma"},
		{Name: "betaN_max", Key: physics.KeyBetaN, Sense: SenseLE, Bound: 3.0, Severity: SeverityHard, Group: "plasma"},
		{Name: "greenwald_frac", Key: physics.KeyFG, Sense: SenseLE, Bound: 1.0, Severity: SeverityHard, Group: "plasma"},
		{Name: "confinement_demand", Key: physics.KeyHRequired, Sense: SenseLE, Bound: 1.3, Severity: SeverityHard, Group: "plasma"},
		{Name: "lh_access", Key: physics.KeyLHOk, Sense: SenseGE, Bound: 1.0, Severity: SeverityHard, Group: "plasma"},
		{Name: "psol_over_r", Key: physics.KeyPsolOverR, Sense: SenseLE, Bound: 20.0, Severity: SeverityHard, Group: "exhaust", Units: "MW/m"},
		{Name: "divertor_heat_flux", Key: physics.KeyQDiv, Sense: SenseLE, Bound: 10.0, Severity: SeverityHard, Group: "exhaust", Units: "MW/m^2"},
		{Name: "peak_field", Key: physics.KeyBPeak, Sense: SenseLE, Bound: 25.0, Severity: SeverityHard, Group: "magnets", Units: "T"},
		{Name: "structural_stress", Key: physics.KeySigmaVM, Sense: SenseLE, Bound: 800.0, Severity: SeverityHard, Group: "magnets", Units: "MPa"},
		{Name: "hts_margin", Key: physics.KeyHTSMargin, Sense: SenseGE, Bound: 1.0, Severity: SeverityHard, Group: "magnets"},
		{Name: "hts_lifetime", Key: physics.KeyHTSLifetime, Sense: SenseGE, Bound: 5.0, Severity: SeveritySoft, Group: "magnets", Units: "yr"},
		{Name: "tritium_breeding", Key: physics.KeyTBR, Sense: SenseGE, Bound: 1.05, Severity: SeverityHard, Group: "neutronics"},
		{Name: "wall_load", Key: physics.KeyNWL, Sense: SenseLE, Bound: 4.0, Severity: SeverityHard, Group: "neutronics", Units: "MW/m^2"},
		{Name: "net_electric", Key: physics.KeyPeNet, Sense: SenseGE, Bound: 0.0, Severity: SeveritySoft, Group: "plant", Units: "MW",
			Note: "zero bound: margin fraction is undefined, status stays informational"},
		{Name: "coe_cap", Key: physics.KeyCOE, Sense: SenseLE, Bound: 300.0, Severity: SeveritySoft, Group: "plant", Units: "USD/MWh"},
	}
}

// Validate checks senses, severities and key spelling against the output
// schema.
func (t LimitTable) Validate() error {
	seen := make(map[string]struct{}, len(t))
	for i, l := range t {
		if l.Name == "" {
			return fmt.Errorf("limit %d: missing name", i)
		}
		if _, dup := seen[l.Name]; dup {
			return fmt.Errorf("limit %q: duplicate name", l.Name)
		}
		seen[l.Name] = struct{}{}
		if l.Sense != SenseLE && l.Sense != SenseGE {
			return fmt.Errorf("limit %q: sense must be %q or %q", l.Name, SenseLE, SenseGE)
		}
		if l.Severity != SeverityHard && l.Severity != SeveritySoft {
			return fmt.Errorf("limit %q: severity must be %q or %q", l.Name, SeverityHard, SeveritySoft)
		}
		if !physics.IsSchemaKey(l.Key) {
			return fmt.Errorf("limit %q: key %q is not in the output schema", l.Name, l.Key)
		}
	}
	return nil
}

type limitFile struct {
	Limits []Limit `yaml:"limits"`
}

// LoadLimits reads a limit table from a YAML file. Missing severities
// default to hard.
func LoadLimits(path string) (LimitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read limit table: %w", err)
	}
	var f limitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse limit table: %w", err)
	}
	t := LimitTable(f.Limits)
	for i := range t {
		if t[i].Severity == "" {
			t[i].Severity = SeverityHard
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
