package interpret

import (
	"math"
	"sort"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

// Parameter is the classification record for one reading. It is created by the
// first classification pass and updated in place by the contextual adjuster.
type Parameter struct {
	Name             string               `json:"name"`
	ReportedName     string               `json:"reported_name,omitempty"`
	Value            models.OptionalFloat `json:"value"`
	RawValue         string               `json:"raw_value,omitempty"`
	Unit             string               `json:"unit"`
	Recognized       bool                 `json:"recognized"`
	Status           Status               `json:"status"`
	Severity         Severity             `json:"severity,omitempty"`
	Explanation      string               `json:"explanation,omitempty"`
	Significance     string               `json:"significance,omitempty"`
	// Deviation is signed: (value-boundary)/|boundary| in percent of the
	// crossed boundary, negative below the range and positive above it.
	Deviation        float64              `json:"deviation_percent"`
	ReferenceRange   *reference.Range     `json:"reference_range_used,omitempty"`
	RangeSource      reference.Source     `json:"range_source,omitempty"`
	Critical         *reference.Critical  `json:"-"`
	ContextualRange  string               `json:"contextual_range,omitempty"`
	OriginalStatus   Status               `json:"original_status,omitempty"`
	ContextualStatus Status               `json:"contextual_status,omitempty"`
	ContextApplied   bool                 `json:"context_applied"`
	Notes            string               `json:"notes,omitempty"`
	Confidence       float64              `json:"confidence"`
}

// Apply records a classification result together with the range it was made against.
func (p *Parameter) Apply(res Result, rng reference.Range, source reference.Source) {
	p.Status = res.Status
	p.Severity = res.Severity
	p.Explanation = res.Explanation
	p.Deviation = res.Deviation
	r := rng
	p.ReferenceRange = &r
	p.RangeSource = source
}

// Numeric returns the value when the parameter takes part in numeric aggregation.
func (p *Parameter) Numeric() (float64, bool) {
	if p == nil || !p.Recognized || !p.Status.Known() {
		return 0, false
	}
	return p.Value.Get()
}

// Measured returns the value of a recognized, numeric reading regardless of
// whether a range has been found for it yet.
func (p *Parameter) Measured() (float64, bool) {
	if p == nil || !p.Recognized || p.Status == StatusNotApplicable {
		return 0, false
	}
	return p.Value.Get()
}

// RelativeDeviation is |Deviation| as a fraction.
func (p *Parameter) RelativeDeviation() float64 {
	return math.Abs(p.Deviation) / 100
}

// Set holds the classified parameters of one report keyed by canonical name.
type Set map[string]*Parameter

// Get returns the parameter only when it can be evaluated numerically.
func (s Set) Get(name string) (*Parameter, bool) {
	p, ok := s[name]
	if !ok {
		return nil, false
	}
	if _, ok := p.Numeric(); !ok {
		return nil, false
	}
	return p, true
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns the parameters ordered by name.
func (s Set) Sorted() []*Parameter {
	out := make([]*Parameter, 0, len(s))
	for _, name := range s.Names() {
		out = append(out, s[name])
	}
	return out
}
