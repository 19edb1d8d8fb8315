package analysis

import (
	"math"
	"time"

	"github.com/synaptica-ai/bloodwork/pkg/contextual"
	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/patterns"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"github.com/synaptica-ai/bloodwork/pkg/risk"
)

type Report struct {
	ID                string                 `json:"id"`
	GeneratedAt       time.Time              `json:"generated_at"`
	Patient           reference.Patient      `json:"patient"`
	Parameters        []*interpret.Parameter `json:"parameters"`
	Patterns          []patterns.Finding     `json:"patterns"`
	RiskAssessment    risk.Overall           `json:"risk_assessment"`
	ContextualSummary contextual.Summary     `json:"contextual_summary"`
	Confidence        ConfidenceScores       `json:"confidence_scores"`
	Summary           string                 `json:"summary"`
	Recommendations   []string               `json:"recommendations"`
}

// ConfidenceScores are all in [0,1].
type ConfidenceScores struct {
	Extraction     float64 `json:"extraction"`
	Interpretation float64 `json:"interpretation"`
	Patterns       float64 `json:"patterns"`
	Overall        float64 `json:"overall"`
}

// Parameter returns the classified parameter by canonical name.
func (r *Report) Parameter(name string) (*interpret.Parameter, bool) {
	for _, p := range r.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (r *Report) Pattern(name string) (patterns.Finding, bool) {
	for _, f := range r.Patterns {
		if f.Name == name {
			return f, true
		}
	}
	return patterns.Finding{}, false
}

func (r *Report) Category(name string) (risk.Assessment, bool) {
	for _, a := range r.RiskAssessment.Individual {
		if a.Category == name {
			return a, true
		}
	}
	return risk.Assessment{}, false
}

func confidenceScores(readings []Reading, params []*interpret.Parameter, findings []patterns.Finding) ConfidenceScores {
	var c ConfidenceScores

	var sum float64
	for _, r := range readings {
		sum += r.Confidence
	}
	c.Extraction = mean(sum, len(readings))

	sum = 0
	known := 0
	for _, p := range params {
		if p.Status.Known() {
			sum += p.Confidence
			known++
		}
	}
	c.Interpretation = mean(sum, known)

	sum = 0
	for _, f := range findings {
		sum += f.Confidence / 100
	}
	c.Patterns = mean(sum, len(findings))

	parts := []float64{c.Extraction, c.Interpretation}
	if len(findings) > 0 {
		parts = append(parts, c.Patterns)
	}
	sum = 0
	for _, v := range parts {
		sum += v
	}
	c.Overall = mean(sum, len(parts))
	return c
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*1000) / 1000
}
