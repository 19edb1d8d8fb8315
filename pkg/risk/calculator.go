package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

type Level string

const (
	LevelHigh     Level = "HIGH RISK"
	LevelModerate Level = "MODERATE RISK"
	LevelLow      Level = "LOW RISK"
	LevelMinimal  Level = "MINIMAL RISK"
)

const maxScore = 100.0

// Assessment is the score of one category.
type Assessment struct {
	Category  string   `json:"category"`
	Score     float64  `json:"score"`
	Factors   []string `json:"risk_factors"`
	Evaluated int      `json:"parameters_evaluated"`
}

type Overall struct {
	Score          float64      `json:"overall_score"`
	Level          Level        `json:"risk_level"`
	Recommendation string       `json:"recommendation"`
	Individual     []Assessment `json:"individual_risks"`
}

// Calculator applies a fixed rule set. It keeps no per-report state.
type Calculator struct {
	rules Rules
}

func NewCalculator(rules Rules) *Calculator {
	return &Calculator{rules: rules}
}

// CalculateOverallRisk scores every category and combines them as
// round(0.6*max + 0.4*mean, 1). Categories without evaluable parameters
// score 0 and still count towards the mean.
func (c *Calculator) CalculateOverallRisk(set interpret.Set, _ reference.Patient) Overall {
	overall := Overall{Individual: make([]Assessment, 0, len(c.rules.Categories))}
	scores := make([]float64, 0, len(c.rules.Categories))
	for _, cat := range c.rules.Categories {
		a := assess(cat, set)
		overall.Individual = append(overall.Individual, a)
		scores = append(scores, a.Score)
	}
	overall.Score = Combine(scores)
	overall.Level = LevelFor(overall.Score)
	overall.Recommendation = RecommendationFor(overall.Level)
	return overall
}

func assess(cat Category, set interpret.Set) Assessment {
	a := Assessment{Category: cat.Name, Factors: []string{}}
	total := 0.0
	for _, f := range cat.Factors {
		p, ok := set.Get(f.Parameter)
		if !ok {
			continue
		}
		a.Evaluated++
		if tier, ok := match(f.Tiers, p); ok {
			total += tier.Points
			a.Factors = append(a.Factors, describe(p, tier))
		}
	}
	a.Score = math.Min(total, maxScore)
	return a
}

func match(tiers []Tier, p *interpret.Parameter) (Tier, bool) {
	v, _ := p.Numeric()
	for _, t := range tiers {
		// Tiers only apply past the parameter's own (contextual) range.
		low := t.Direction == Below && p.Status.IsLow()
		high := t.Direction == Above && p.Status.IsHigh()
		if !low && !high {
			continue
		}
		if t.Threshold == nil || (low && v < *t.Threshold) || (high && v > *t.Threshold) {
			return t, true
		}
	}
	return Tier{}, false
}

func describe(p *interpret.Parameter, t Tier) string {
	v, _ := p.Value.Get()
	return strings.TrimSpace(fmt.Sprintf("%s %s: %s %s", p.Name, t.Label, reference.FormatNumber(v), p.Unit))
}

// Combine weights the worst category against the average of all of them.
func Combine(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	highest, sum := 0.0, 0.0
	for _, s := range scores {
		highest = math.Max(highest, s)
		sum += s
	}
	mean := sum / float64(len(scores))
	return math.Round((0.6*highest+0.4*mean)*10) / 10
}

func LevelFor(score float64) Level {
	switch {
	case score >= 70:
		return LevelHigh
	case score >= 40:
		return LevelModerate
	case score >= 20:
		return LevelLow
	default:
		return LevelMinimal
	}
}

func RecommendationFor(level Level) string {
	switch level {
	case LevelHigh:
		return "URGENT: Please consult a doctor immediately for comprehensive evaluation."
	case LevelModerate:
		return "ATTENTION: Schedule an appointment with your doctor for further evaluation."
	case LevelLow:
		return "ADVISORY: Consider a follow-up test in 2-4 weeks. Maintain healthy lifestyle."
	default:
		return "GOOD: Your results look generally normal. Continue regular health checkups."
	}
}
