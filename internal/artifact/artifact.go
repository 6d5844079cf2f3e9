// Package artifact encodes evaluated design points as versioned,
// NaN-safe JSON run records.
package artifact

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/plasmaforge/fusor/internal/constraints"
	"github.com/plasmaforge/fusor/internal/physics"
)

// SchemaVersion identifies the run-record layout.
const SchemaVersion = "run_artifact.v1"

// Float is a float64 that survives JSON round trips with NaN and
// infinities intact, encoded as the string tokens "NaN", "Infinity" and
// "-Infinity".
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	default:
		return json.Marshal(v)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = Float(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("artifact: value %s is neither number nor token", data)
	}
	switch s {
	case "NaN":
		*f = Float(math.NaN())
	case "Infinity":
		*f = Float(math.Inf(1))
	case "-Infinity":
		*f = Float(math.Inf(-1))
	default:
		return fmt.Errorf("artifact: unknown float token %q", s)
	}
	return nil
}

// RecordDoc is the serialized form of one constraint record.
type RecordDoc struct {
	Name       string `json:"name"`
	Key        string `json:"key"`
	Sense      string `json:"sense"`
	Severity   string `json:"severity"`
	Status     string `json:"status"`
	Value      Float  `json:"value"`
	Bound      Float  `json:"bound"`
	Margin     Float  `json:"margin"`
	MarginFrac Float  `json:"margin_frac"`
	Passed     bool   `json:"passed"`
}

// LedgerDoc is the serialized constraint verdict.
type LedgerDoc struct {
	OK       bool        `json:"ok"`
	Status   string      `json:"status"`
	Dominant string      `json:"dominant,omitempty"`
	Records  []RecordDoc `json:"records"`
}

// Document is one complete run record.
type Document struct {
	SchemaVersion string           `json:"schema_version"`
	OutputSchema  string           `json:"output_schema"`
	Scaling       string           `json:"scaling"`
	Inputs        map[string]Float `json:"inputs"`
	Outputs       map[string]Float `json:"outputs"`
	Ledger        *LedgerDoc       `json:"ledger,omitempty"`
}

// New assembles a run record from an evaluated point. led may be nil.
func New(in physics.PointInputs, out physics.OutputMap, led *constraints.Ledger) Document {
	doc := Document{
		SchemaVersion: SchemaVersion,
		OutputSchema:  physics.SchemaVersion,
		Scaling:       in.Scaling.String(),
		Inputs:        make(map[string]Float, len(physics.KnobNames())),
		Outputs:       make(map[string]Float, len(out)),
	}
	for _, name := range physics.KnobNames() {
		v, err := in.Get(name)
		if err != nil {
			continue // knob table and names come from the same package
		}
		doc.Inputs[name] = Float(v)
	}
	for k, v := range out {
		doc.Outputs[k] = Float(v)
	}
	if led != nil {
		ld := LedgerDoc{OK: led.OK, Status: string(led.Status)}
		if led.Dominant != nil {
			ld.Dominant = led.Dominant.Name
		}
		ld.Records = make([]RecordDoc, 0, len(led.Records))
		for _, r := range led.Records {
			ld.Records = append(ld.Records, RecordDoc{
				Name:       r.Name,
				Key:        r.Key,
				Sense:      string(r.Sense),
				Severity:   string(r.Severity),
				Status:     string(r.Status),
				Value:      Float(r.Value),
				Bound:      Float(r.Bound),
				Margin:     Float(r.Margin),
				MarginFrac: Float(r.MarginFrac),
				Passed:     r.Passed,
			})
		}
		doc.Ledger = &ld
	}
	return doc
}

// Encode renders the record as canonical indented JSON. Map keys sort
// lexically, so equal documents encode to equal bytes.
func (d Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Decode parses a run record and checks its schema version.
func Decode(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("artifact: %w", err)
	}
	if d.SchemaVersion != SchemaVersion {
		return Document{}, fmt.Errorf("artifact: unsupported schema version %q", d.SchemaVersion)
	}
	return d, nil
}
