package reference

import (
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
)

type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// ParseGender accepts the spellings found on lab reports. The second return is
// false when the text is non-empty but not recognised.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnspecified, true
	case "m", "male", "man":
		return GenderMale, true
	case "f", "female", "woman":
		return GenderFemale, true
	default:
		return GenderUnspecified, false
	}
}

type AgeGroup string

const (
	AgeNeonate  AgeGroup = "neonate"
	AgeInfant   AgeGroup = "infant"
	AgeChild    AgeGroup = "child"
	AgeTeenager AgeGroup = "teenager"
	AgeAdult    AgeGroup = "adult"
	AgeSenior   AgeGroup = "senior"
)

// AgeGroupFor maps an age in years onto the fixed breakpoints. A missing or
// negative age is treated as adult.
func AgeGroupFor(age models.OptionalFloat) AgeGroup {
	years, ok := age.Get()
	if !ok || years < 0 {
		return AgeAdult
	}
	switch {
	case years < 1.0/12:
		return AgeNeonate
	case years < 1:
		return AgeInfant
	case years < 13:
		return AgeChild
	case years < 18:
		return AgeTeenager
	case years < 60:
		return AgeAdult
	default:
		return AgeSenior
	}
}

// fallbackGroups lists the age-group table entries consulted for a group, most
// specific first.
func fallbackGroups(group AgeGroup) []AgeGroup {
	switch group {
	case AgeNeonate:
		return []AgeGroup{AgeNeonate, AgeInfant, AgeChild}
	case AgeInfant:
		return []AgeGroup{AgeInfant, AgeChild}
	case AgeAdult:
		return nil
	default:
		return []AgeGroup{group}
	}
}

// Patient is the demographic context a report is interpreted against.
type Patient struct {
	Age    models.OptionalFloat `json:"age"`
	Gender Gender               `json:"gender,omitempty"`
}

func (p Patient) AgeGroup() AgeGroup {
	return AgeGroupFor(p.Age)
}

// Describe renders the context as used in adjustment reasons, e.g. "teenager male".
func (p Patient) Describe() string {
	desc := string(p.AgeGroup())
	if p.Gender != GenderUnspecified {
		desc += " " + string(p.Gender)
	}
	return desc
}
