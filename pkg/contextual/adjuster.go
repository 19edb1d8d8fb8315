package contextual

import (
	"fmt"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

type Adjustment struct {
	Parameter      string           `json:"parameter"`
	OriginalStatus interpret.Status `json:"original_status"`
	NewStatus      interpret.Status `json:"new_status"`
	Reason         string           `json:"reason"`
}

type Summary struct {
	Age                models.OptionalFloat `json:"age"`
	Gender             reference.Gender     `json:"gender,omitempty"`
	AgeGroup           reference.AgeGroup   `json:"age_group"`
	ParametersAnalyzed int                  `json:"parameters_analyzed"`
	ContextApplied     int                  `json:"context_applied"`
	ParametersChanged  int                  `json:"parameters_changed"`
	Adjustments        []Adjustment         `json:"adjustments"`
}

// Adjuster reclassifies parameters against age and gender specific ranges.
type Adjuster struct {
	resolver   *reference.Resolver
	classifier *interpret.Classifier
}

func NewAdjuster(resolver *reference.Resolver, classifier *interpret.Classifier) *Adjuster {
	return &Adjuster{resolver: resolver, classifier: classifier}
}

// Adjust updates set in place. OriginalStatus is written once, on the first
// pass, so a second call with the same patient records no adjustments.
func (a *Adjuster) Adjust(set interpret.Set, patient reference.Patient) Summary {
	summary := Summary{
		Age:         patient.Age,
		Gender:      patient.Gender,
		AgeGroup:    patient.AgeGroup(),
		Adjustments: []Adjustment{},
	}

	for _, p := range set.Sorted() {
		if _, ok := p.Measured(); !ok {
			continue
		}
		summary.ParametersAnalyzed++

		if p.OriginalStatus == "" {
			p.OriginalStatus = p.Status
		}

		res, ok := a.resolver.Resolve(p.Name, patient)
		if !ok || !res.Contextual() {
			p.ContextualStatus = p.Status
			if p.ContextualRange == "" && p.ReferenceRange != nil {
				p.ContextualRange = p.ReferenceRange.String()
			}
			if p.Notes == "" {
				p.Notes = "No contextual adjustment available"
			}
			continue
		}

		summary.ContextApplied++
		result := a.classifier.Classify(p.Value, res.Range, res.Critical)
		previous := p.Status

		p.Apply(result, res.Range, res.Source)
		p.ContextApplied = true
		p.ContextualStatus = result.Status
		p.ContextualRange = res.Range.String()
		p.Notes = reason(result.Status, patient)
		if def, ok := a.resolver.Definition(p.Name); ok {
			p.Significance = interpret.Significance(def, result.Status)
		}

		if result.Status != previous {
			summary.ParametersChanged++
			summary.Adjustments = append(summary.Adjustments, Adjustment{
				Parameter:      p.Name,
				OriginalStatus: previous,
				NewStatus:      result.Status,
				Reason:         p.Notes,
			})
		}
	}

	return summary
}

func reason(status interpret.Status, patient reference.Patient) string {
	basis := patient.Describe()
	switch {
	case status == interpret.StatusNormal:
		return fmt.Sprintf("Within range for %s", basis)
	case status == interpret.StatusBorderlineLow:
		return fmt.Sprintf("Near lower limit for %s", basis)
	case status == interpret.StatusBorderlineHigh:
		return fmt.Sprintf("Near upper limit for %s", basis)
	case status.IsLow():
		return fmt.Sprintf("Below range for %s", basis)
	case status.IsHigh():
		return fmt.Sprintf("Above range for %s", basis)
	default:
		return fmt.Sprintf("Not classifiable for %s", basis)
	}
}
