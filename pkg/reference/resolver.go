package reference

import (
	"strings"
)

type Source string

const (
	SourceAgeGroup Source = "age_group"
	SourceGender   Source = "gender"
	SourceGeneral  Source = "general"
	SourceReport   Source = "report"
)

// Resolution is the range selected for one parameter and patient.
type Resolution struct {
	Parameter string    `json:"parameter"`
	Unit      string    `json:"unit"`
	Range     Range     `json:"range"`
	Critical  *Critical `json:"critical,omitempty"`
	Source    Source    `json:"source"`
	AgeGroup  AgeGroup  `json:"age_group"`
}

// Contextual reports whether the range depends on the patient's age or gender.
func (r Resolution) Contextual() bool {
	return r.Source == SourceAgeGroup || r.Source == SourceGender
}

// Resolver selects reference ranges from an immutable table. It is safe for
// concurrent use.
type Resolver struct {
	table   Table
	aliases map[string]string
}

func NewResolver(table Table) *Resolver {
	own := Table{Parameters: make(map[string]Definition, len(table.Parameters))}
	aliases := make(map[string]string)
	for _, name := range table.Names() {
		def := table.Parameters[name].clone()
		own.Parameters[name] = def
		if _, taken := aliases[normalizeName(name)]; !taken {
			aliases[normalizeName(name)] = name
		}
	}
	// Aliases never shadow a canonical name.
	for _, name := range own.Names() {
		for _, alias := range own.Parameters[name].Aliases {
			key := normalizeName(alias)
			if key == "" {
				continue
			}
			if _, taken := aliases[key]; !taken {
				aliases[key] = name
			}
		}
	}
	return &Resolver{table: own, aliases: aliases}
}

// Canonical maps a printed parameter name onto its table key.
func (r *Resolver) Canonical(name string) (string, bool) {
	canonical, ok := r.aliases[normalizeName(name)]
	return canonical, ok
}

func (r *Resolver) Definition(name string) (Definition, bool) {
	canonical, ok := r.Canonical(name)
	if !ok {
		return Definition{}, false
	}
	return r.table.Parameters[canonical].clone(), true
}

func (r *Resolver) Parameters() []string {
	return r.table.Names()
}

// Resolve returns the applicable range for name. Precedence is a non-adult
// age-group entry, then a gender entry, then the general entry.
func (r *Resolver) Resolve(name string, patient Patient) (Resolution, bool) {
	canonical, ok := r.Canonical(name)
	if !ok {
		return Resolution{}, false
	}
	def := r.table.Parameters[canonical]
	group := patient.AgeGroup()

	res := Resolution{
		Parameter: canonical,
		Unit:      def.Unit,
		AgeGroup:  group,
	}
	if def.Critical != nil {
		res.Critical = &Critical{Low: cloneFloat(def.Critical.Low), High: cloneFloat(def.Critical.High)}
	}

	for _, g := range fallbackGroups(group) {
		if rng, ok := def.AgeGroups[g]; ok {
			res.Range = rng
			res.Source = SourceAgeGroup
			return res, true
		}
	}
	if rng := def.forGender(patient.Gender); rng != nil {
		res.Range = *rng
		res.Source = SourceGender
		return res, true
	}
	if def.General != nil {
		res.Range = *def.General
		res.Source = SourceGeneral
		return res, true
	}
	return Resolution{}, false
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.NewReplacer(".", "", "_", " ", "(", " ", ")", " ", ":", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
