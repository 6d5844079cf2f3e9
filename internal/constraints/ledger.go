package constraints

import (
	"math"

	"github.com/plasmaforge/fusor/internal/physics"
)

// Status classifies a single record or a whole ledger.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarn    Status = "warn"
	StatusUnknown Status = "unknown"
)

// Record is one scored limit.
type Record struct {
	Name       string   `json:"name"`
	Key        string   `json:"key"`
	Group      string   `json:"group,omitempty"`
	Units      string   `json:"units,omitempty"`
	Sense      Sense    `json:"sense"`
	Severity   Severity `json:"severity"`
	Value      float64  `json:"value"`
	Bound      float64  `json:"bound"`
	Margin     float64  `json:"margin"`
	MarginFrac float64  `json:"margin_frac"`
	Passed     bool     `json:"passed"`
	Status     Status   `json:"status"`
}

// Ledger is the scored verdict for one evaluated design point.
type Ledger struct {
	Records  []Record `json:"records"`
	Dominant *Record  `json:"dominant,omitempty"`
	OK       bool     `json:"ok"`
	Status   Status   `json:"status"`
}

// BuildLedger scores outputs against the limit table.
//
// Margin convention: margin_frac = (bound-value)/|bound| for "<=" limits
// and (value-bound)/|bound| for ">=", so positive always means satisfied.
// A zero bound or NaN value gives an unknown record, which never passes
// and never dominates.
//
// The dominant record is the hard failure with the most negative margin
// fraction; declaration order breaks ties. OK is true iff every hard
// record passed.
func BuildLedger(out physics.OutputMap, limits LimitTable) Ledger {
	led := Ledger{Records: make([]Record, 0, len(limits)), OK: true, Status: StatusPass}

	for _, l := range limits {
		value := out.Get(l.Key)
		rec := Record{
			Name:     l.Name,
			Key:      l.Key,
			Group:    l.Group,
			Units:    l.Units,
			Sense:    l.Sense,
			Severity: l.Severity,
			Value:    value,
			Bound:    l.Bound,
		}
		rec.Margin, rec.MarginFrac = margins(value, l.Bound, l.Sense)
		rec.Passed = rec.MarginFrac >= 0
		switch {
		case math.IsNaN(rec.MarginFrac):
			rec.Status = StatusUnknown
		case rec.Passed:
			rec.Status = StatusPass
		default:
			rec.Status = StatusFail
		}
		led.Records = append(led.Records, rec)
	}

	// Dominance: scan in declaration order, strict improvement only, so
	// the first of a tie wins.
	domIdx := -1
	for i := range led.Records {
		r := &led.Records[i]
		if r.Severity != SeverityHard || r.Passed {
			continue
		}
		if domIdx == -1 {
			domIdx = i
			continue
		}
		cur := led.Records[domIdx].MarginFrac
		if !math.IsNaN(r.MarginFrac) && (math.IsNaN(cur) || r.MarginFrac < cur) {
			domIdx = i
		}
	}
	if domIdx >= 0 {
		led.Dominant = &led.Records[domIdx]
	}

	for i := range led.Records {
		r := &led.Records[i]
		if r.Severity == SeverityHard && !r.Passed {
			led.OK = false
		}
	}
	led.Status = aggregateStatus(led.Records, led.OK)
	return led
}

func margins(value, bound float64, sense Sense) (margin, frac float64) {
	if math.IsNaN(value) || math.IsNaN(bound) || bound == 0 {
		return math.NaN(), math.NaN()
	}
	switch sense {
	case SenseLE:
		margin = bound - value
	default:
		margin = value - bound
	}
	return margin, margin / math.Abs(bound)
}

func aggregateStatus(records []Record, ok bool) Status {
	for _, r := range records {
		if r.Status == StatusUnknown && r.Severity == SeverityHard {
			return StatusUnknown
		}
	}
	if !ok {
		return StatusFail
	}
	warned := false
	for _, r := range records {
		if r.Severity == SeveritySoft && (r.Status == StatusFail || r.Status == StatusUnknown) {
			warned = true
		}
	}
	if warned {
		return StatusWarn
	}
	return StatusPass
}
