package reference

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && !math.IsInf(r.Min, 0) && !math.IsInf(r.Max, 0) && r.Min <= r.Max
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) Width() float64 {
	return r.Max - r.Min
}

func (r Range) String() string {
	return FormatNumber(r.Min) + "-" + FormatNumber(r.Max)
}

// FormatNumber prints a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Critical holds the panic values for a parameter. Either side may be absent.
type Critical struct {
	Low  *float64 `yaml:"low,omitempty" json:"low,omitempty"`
	High *float64 `yaml:"high,omitempty" json:"high,omitempty"`
}

// ScaleRule rescales values reported in a different order of magnitude, e.g.
// WBC printed as cells/uL instead of 10^3/uL.
type ScaleRule struct {
	Above  *float64 `yaml:"above,omitempty" json:"above,omitempty"`
	Below  *float64 `yaml:"below,omitempty" json:"below,omitempty"`
	Factor float64  `yaml:"factor" json:"factor"`
}

func (s ScaleRule) Matches(v float64) bool {
	if s.Factor == 0 {
		return false
	}
	if s.Above != nil && v <= *s.Above {
		return false
	}
	if s.Below != nil && v >= *s.Below {
		return false
	}
	return s.Above != nil || s.Below != nil
}

type Definition struct {
	Unit        string             `yaml:"unit" json:"unit"`
	Description string             `yaml:"description,omitempty" json:"description,omitempty"`
	Aliases     []string           `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	General     *Range             `yaml:"general,omitempty" json:"general,omitempty"`
	Male        *Range             `yaml:"male,omitempty" json:"male,omitempty"`
	Female      *Range             `yaml:"female,omitempty" json:"female,omitempty"`
	AgeGroups   map[AgeGroup]Range `yaml:"age_groups,omitempty" json:"age_groups,omitempty"`
	Critical    *Critical          `yaml:"critical,omitempty" json:"critical,omitempty"`
	Scale       []ScaleRule        `yaml:"scale,omitempty" json:"scale,omitempty"`
	Notes       map[string]string  `yaml:"notes,omitempty" json:"notes,omitempty"`
}

func (d Definition) forGender(g Gender) *Range {
	switch g {
	case GenderMale:
		return d.Male
	case GenderFemale:
		return d.Female
	default:
		return nil
	}
}

// Rescale applies the first matching scale rule.
func (d Definition) Rescale(v float64) (float64, bool) {
	if factor, ok := d.ScaleFactor(v); ok {
		return v * factor, true
	}
	return v, false
}

// ScaleFactor returns the factor of the first scale rule matching v.
func (d Definition) ScaleFactor(v float64) (float64, bool) {
	for _, rule := range d.Scale {
		if rule.Matches(v) {
			return rule.Factor, true
		}
	}
	return 1, false
}

// Scaled multiplies both bounds by factor, rounded to 6 decimals so that
// unit conversions print cleanly.
func (r Range) Scaled(factor float64) Range {
	round := func(v float64) float64 { return math.Round(v*1e6) / 1e6 }
	out := Range{Min: round(r.Min * factor), Max: round(r.Max * factor)}
	if factor < 0 {
		out.Min, out.Max = out.Max, out.Min
	}
	return out
}

func (d Definition) clone() Definition {
	out := d
	out.Aliases = append([]string(nil), d.Aliases...)
	out.General = cloneRange(d.General)
	out.Male = cloneRange(d.Male)
	out.Female = cloneRange(d.Female)
	if d.AgeGroups != nil {
		out.AgeGroups = make(map[AgeGroup]Range, len(d.AgeGroups))
		for k, v := range d.AgeGroups {
			out.AgeGroups[k] = v
		}
	}
	if d.Critical != nil {
		out.Critical = &Critical{Low: cloneFloat(d.Critical.Low), High: cloneFloat(d.Critical.High)}
	}
	out.Scale = make([]ScaleRule, len(d.Scale))
	for i, rule := range d.Scale {
		out.Scale[i] = ScaleRule{Above: cloneFloat(rule.Above), Below: cloneFloat(rule.Below), Factor: rule.Factor}
	}
	if d.Notes != nil {
		out.Notes = make(map[string]string, len(d.Notes))
		for k, v := range d.Notes {
			out.Notes[k] = v
		}
	}
	return out
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// Table maps canonical parameter names to their range definitions.
type Table struct {
	Parameters map[string]Definition `yaml:"parameters" json:"parameters"`
}

// Load reads a YAML table. An empty path yields DefaultTable.
func Load(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultTable(), err
	}
	var table Table
	if err := yaml.Unmarshal(content, &table); err != nil {
		return Table{}, err
	}
	if len(table.Parameters) == 0 {
		return Table{}, fmt.Errorf("reference table empty")
	}
	if err := table.Validate(); err != nil {
		return Table{}, err
	}
	return table, nil
}

func (t Table) Validate() error {
	for _, name := range t.Names() {
		def := t.Parameters[name]
		if def.General == nil && def.Male == nil && def.Female == nil && len(def.AgeGroups) == 0 {
			return fmt.Errorf("parameter %s has no range", name)
		}
		for label, r := range map[string]*Range{"general": def.General, "male": def.Male, "female": def.Female} {
			if r != nil && !r.Valid() {
				return fmt.Errorf("parameter %s: invalid %s range %v", name, label, *r)
			}
		}
		for group, r := range def.AgeGroups {
			if !r.Valid() {
				return fmt.Errorf("parameter %s: invalid %s range %v", name, group, r)
			}
		}
	}
	return nil
}

// Names returns the canonical parameter names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t.Parameters))
	for name := range t.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
