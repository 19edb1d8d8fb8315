package patterns

import (
	"fmt"
	"math"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Confidence caps per pattern family.
const (
	AnemiaCap    = 90.0
	KidneyCap    = 90.0
	IronCap      = 85.0
	InfectionCap = 85.0
	DefaultCap   = 80.0
)

// Finding is a detected multi-parameter pattern. Findings are built once per
// run and not modified afterwards.
type Finding struct {
	Name        string    `json:"pattern_name"`
	Confidence  float64   `json:"confidence"`
	Indicators  []string  `json:"indicators"`
	Description string    `json:"description"`
	RiskLevel   RiskLevel `json:"risk_level"`
	DataQuality string    `json:"data_quality"`
}

// family is the set of parameters one rule looks at, split into those that can
// be evaluated and the total it was designed for.
type family struct {
	params map[string]*interpret.Parameter
	total  int
}

func collect(set interpret.Set, names ...string) family {
	f := family{params: make(map[string]*interpret.Parameter, len(names)), total: len(names)}
	for _, name := range names {
		if p, ok := set.Get(name); ok {
			f.params[name] = p
		}
	}
	return f
}

func (f family) available() int {
	return len(f.params)
}

func (f family) get(name string) (*interpret.Parameter, float64, bool) {
	p, ok := f.params[name]
	if !ok {
		return nil, 0, false
	}
	v, _ := p.Numeric()
	return p, v, true
}

func (f family) quality() string {
	return fmt.Sprintf("%d/%d parameters available", f.available(), f.total)
}

func (f family) finding(name string) Finding {
	return Finding{Name: name, Indicators: []string{}, DataQuality: f.quality()}
}

func indicator(label string, p *interpret.Parameter) string {
	v, _ := p.Value.Get()
	return strings.TrimSpace(fmt.Sprintf("%s %s: %s %s", label, p.Name, reference.FormatNumber(v), p.Unit))
}

// severityFactor grows with the relative distance past the boundary and is
// log-damped so outlier readings cannot dominate.
func severityFactor(relDev float64) float64 {
	return math.Min(1+math.Log1p(relDev*2)*0.3, 1.5)
}

// deviationConfidence scores a single-marker pattern by its log distance from
// the crossed boundary.
func deviationConfidence(relDev, limit float64) float64 {
	return clamp(50+30*math.Log1p(relDev*5), limit)
}

func ratioConfidence(abnormal, available int, factor, limit float64) float64 {
	if available == 0 {
		return 0
	}
	return clamp(float64(abnormal)/float64(available)*100*factor, limit)
}

func clamp(v, limit float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return round1(math.Min(v, limit))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
