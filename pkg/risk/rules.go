package risk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Direction string

const (
	Below Direction = "below"
	Above Direction = "above"
)

// Tier awards Points when the status is Low (Below) or High (Above) and the
// reading is past Threshold in Direction. A nil Threshold matches on the
// status alone.
type Tier struct {
	Direction Direction `yaml:"direction" json:"direction"`
	Threshold *float64  `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Points    float64   `yaml:"points" json:"points"`
	Label     string    `yaml:"label" json:"label"`
}

// Factor scores one parameter. Only the first matching tier counts.
type Factor struct {
	Parameter string `yaml:"parameter" json:"parameter"`
	Tiers     []Tier `yaml:"tiers" json:"tiers"`
}

type Category struct {
	Name    string   `yaml:"name" json:"name"`
	Factors []Factor `yaml:"factors" json:"factors"`
}

type Rules struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var rules Rules
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return Rules{}, err
	}
	if len(rules.Categories) == 0 {
		return Rules{}, errors.New("no risk categories configured")
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) Validate() error {
	seen := make(map[string]bool, len(r.Categories))
	for _, c := range r.Categories {
		if c.Name == "" {
			return errors.New("risk category without name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate risk category %s", c.Name)
		}
		seen[c.Name] = true
		for _, f := range c.Factors {
			if f.Parameter == "" || len(f.Tiers) == 0 {
				return fmt.Errorf("category %s: factor needs a parameter and tiers", c.Name)
			}
			for _, t := range f.Tiers {
				if t.Direction != Below && t.Direction != Above {
					return fmt.Errorf("category %s: %s tier has direction %q", c.Name, f.Parameter, t.Direction)
				}
				if t.Points <= 0 {
					return fmt.Errorf("category %s: %s tier must award points", c.Name, f.Parameter)
				}
			}
		}
	}
	return nil
}

func at(v float64) *float64 { return &v }

func DefaultRules() Rules {
	return Rules{Categories: []Category{
		{Name: "Anemia Risk", Factors: []Factor{
			{Parameter: "Hemoglobin", Tiers: []Tier{
				{Direction: Below, Threshold: at(8), Points: 50, Label: "severely low"},
				{Direction: Below, Threshold: at(10), Points: 30, Label: "moderately low"},
				{Direction: Below, Points: 15, Label: "low"},
			}},
			{Parameter: "RBC", Tiers: []Tier{
				{Direction: Below, Threshold: at(3.5), Points: 25, Label: "markedly low"},
				{Direction: Below, Points: 10, Label: "low"},
			}},
			{Parameter: "HCT", Tiers: []Tier{
				{Direction: Below, Threshold: at(30), Points: 25, Label: "markedly low"},
				{Direction: Below, Points: 10, Label: "low"},
			}},
		}},
		{Name: "Kidney Risk", Factors: []Factor{
			{Parameter: "Creatinine", Tiers: []Tier{
				{Direction: Above, Threshold: at(2.0), Points: 50, Label: "severely elevated"},
				{Direction: Above, Threshold: at(1.5), Points: 30, Label: "moderately elevated"},
				{Direction: Above, Points: 15, Label: "elevated"},
			}},
			{Parameter: "Urea", Tiers: []Tier{
				{Direction: Above, Threshold: at(60), Points: 30, Label: "markedly elevated"},
				{Direction: Above, Points: 15, Label: "elevated"},
			}},
			{Parameter: "Uric Acid", Tiers: []Tier{
				{Direction: Above, Threshold: at(9), Points: 20, Label: "markedly elevated"},
				{Direction: Above, Points: 10, Label: "elevated"},
			}},
		}},
		{Name: "Infection Risk", Factors: []Factor{
			{Parameter: "WBC", Tiers: []Tier{
				{Direction: Above, Threshold: at(15), Points: 60, Label: "significantly elevated"},
				{Direction: Above, Points: 30, Label: "elevated"},
				{Direction: Below, Points: 40, Label: "low"},
			}},
		}},
	}}
}
