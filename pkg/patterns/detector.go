package patterns

import (
	"fmt"
	"math"

	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

const (
	// Hemoglobin below this is reported as anemia even without RBC or HCT.
	severeHemoglobin   = 8.0
	moderateHemoglobin = 10.0
	// WBC above this (10^3/uL) escalates the infection label.
	significantWBC = 15.0

	diabetesGlucose    = 126.0
	diabetesHbA1c      = 6.5
	prediabetesGlucose = 100.0
	prediabetesHbA1c   = 5.7

	metabolicTriglycerides = 150.0
	metabolicGlucose       = 100.0
	metabolicHDLMale       = 40.0
	metabolicHDLFemale     = 50.0

	ratioHigh     = 5.0
	ratioModerate = 3.5
)

// rule evaluates one pattern family. ok is false when nothing was detected or
// none of the family's parameters could be evaluated.
type rule func(set interpret.Set, patient reference.Patient) (Finding, bool)

// Detector runs the pattern rules in a fixed order. It holds no per-report
// state.
type Detector struct {
	rules []rule
}

func NewDetector() *Detector {
	return &Detector{rules: []rule{
		detectAnemia,
		detectIronDeficiency,
		detectKidney,
		detectInfection,
		detectPlatelets,
		detectDiabetes,
		detectMetabolicSyndrome,
		detectCardiovascular,
		detectThyroid,
		detectLiver,
	}}
}

// Detect evaluates every rule against the contextual statuses in set and
// returns the findings in detection order.
func (d *Detector) Detect(set interpret.Set, patient reference.Patient) []Finding {
	findings := []Finding{}
	for _, r := range d.rules {
		if f, ok := r(set, patient); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func detectAnemia(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "Hemoglobin", "RBC", "HCT")
	if fam.available() == 0 {
		return Finding{}, false
	}

	f := fam.finding("Anemia Indicators")
	abnormal, worst := 0, 0.0
	for _, name := range []string{"Hemoglobin", "RBC", "HCT"} {
		p, _, ok := fam.get(name)
		if !ok || !p.Status.IsLow() {
			continue
		}
		abnormal++
		worst = math.Max(worst, p.RelativeDeviation())
		f.Indicators = append(f.Indicators, indicator("Low", p))
	}

	hb, hbValue, hasHb := fam.get("Hemoglobin")
	onlySevereHb := fam.available() == 1 && hasHb && hbValue < severeHemoglobin
	if abnormal < 2 && !onlySevereHb {
		return Finding{}, false
	}
	if onlySevereHb && len(f.Indicators) == 0 {
		f.Indicators = append(f.Indicators, indicator("Low", hb))
		abnormal = 1
	}

	f.Confidence = ratioConfidence(abnormal, fam.available(), severityFactor(worst), AnemiaCap)
	switch {
	case !hasHb:
		f.Description = "Anemia indicators without hemoglobin - Confirm with a hemoglobin measurement"
		f.RiskLevel = RiskModerate
	case hbValue < severeHemoglobin:
		f.Description = "Severe Anemia - Urgent medical attention recommended"
		f.RiskLevel = RiskHigh
	case hbValue < moderateHemoglobin:
		f.Description = "Moderate Anemia - Medical consultation recommended"
		f.RiskLevel = RiskModerate
	default:
		f.Description = "Mild Anemia - Monitor and consider dietary changes"
		f.RiskLevel = RiskLow
	}
	return f, true
}

func detectIronDeficiency(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "MCV", "MCH", "MCHC", "RDW")
	if fam.available() == 0 {
		return Finding{}, false
	}

	var indicators []string
	microcytic, wideRDW := false, false
	for _, name := range []string{"MCV", "MCH", "MCHC"} {
		if p, _, ok := fam.get(name); ok && p.Status.IsLow() {
			indicators = append(indicators, indicator("Low", p))
			microcytic = microcytic || name == "MCV"
		}
	}
	if p, _, ok := fam.get("RDW"); ok && p.Status.IsHigh() {
		indicators = append(indicators, indicator("High", p))
		wideRDW = true
	}
	if len(indicators) < 2 {
		return Finding{}, false
	}

	var f Finding
	if microcytic && wideRDW {
		f = fam.finding("Iron Deficiency Anemia Pattern")
		f.Description = "Microcytic cells with increased size variation - Consider iron studies (ferritin, serum iron, TIBC)"
		f.RiskLevel = RiskModerate
	} else {
		f = fam.finding("Microcytic Hypochromic Pattern")
		f.Description = "Microcytic hypochromic pattern - Consider iron studies"
		f.RiskLevel = RiskLow
	}
	f.Indicators = indicators
	f.Confidence = ratioConfidence(len(indicators), fam.available(), 1, IronCap)
	return f, true
}

func detectKidney(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "Creatinine", "Urea", "Uric Acid")
	if fam.available() == 0 {
		return Finding{}, false
	}

	f := fam.finding("Kidney Function Concern")
	abnormal, worst := 0, 0.0
	for _, name := range []string{"Creatinine", "Urea", "Uric Acid"} {
		p, _, ok := fam.get(name)
		if !ok || !p.Status.IsHigh() {
			continue
		}
		abnormal++
		worst = math.Max(worst, p.RelativeDeviation())
		f.Indicators = append(f.Indicators, indicator("High", p))
	}
	if abnormal == 0 {
		return Finding{}, false
	}

	creat, _, hasCreat := fam.get("Creatinine")
	severeCreat := hasCreat && creat.Status.IsHigh() &&
		(creat.Status == interpret.StatusCriticalHigh || creat.RelativeDeviation() >= 0.5)

	switch {
	case abnormal >= 2:
		f.RiskLevel = RiskHigh
		f.Description = "Multiple kidney markers elevated - Medical consultation strongly recommended"
	case severeCreat:
		f.RiskLevel = RiskHigh
		f.Description = "Creatinine markedly elevated - Medical consultation strongly recommended"
	case worst >= 0.25:
		f.RiskLevel = RiskModerate
		f.Description = "Kidney marker moderately elevated - Medical consultation recommended"
	default:
		f.RiskLevel = RiskLow
		f.Description = "Single kidney marker elevated - Monitor and retest recommended"
	}
	f.Confidence = ratioConfidence(abnormal, fam.available(), severityFactor(worst), KidneyCap)
	return f, true
}

func detectInfection(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "WBC")
	p, v, ok := fam.get("WBC")
	if !ok {
		return Finding{}, false
	}

	var f Finding
	switch {
	case p.Status.IsHigh() && v > significantWBC:
		f = fam.finding("Significant Infection/Inflammation")
		f.Description = "Markedly elevated WBC - Possible significant infection or inflammation"
		f.RiskLevel = RiskHigh
		f.Indicators = append(f.Indicators, indicator("Elevated", p))
	case p.Status.IsHigh():
		f = fam.finding("Possible Infection/Inflammation")
		f.Description = "High WBC may indicate infection or inflammation"
		f.RiskLevel = RiskModerate
		f.Indicators = append(f.Indicators, indicator("Elevated", p))
	case p.Status.IsLow():
		f = fam.finding("Low WBC (Leukopenia)")
		f.Description = "Low WBC may indicate immune system issues"
		f.RiskLevel = criticalOr(p, RiskModerate)
		f.Indicators = append(f.Indicators, indicator("Low", p))
	default:
		return Finding{}, false
	}
	f.Confidence = deviationConfidence(p.RelativeDeviation(), InfectionCap)
	return f, true
}

func detectPlatelets(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "Platelets")
	p, _, ok := fam.get("Platelets")
	if !ok {
		return Finding{}, false
	}

	var f Finding
	switch {
	case p.Status.IsLow():
		f = fam.finding("Bleeding Risk (Thrombocytopenia)")
		f.Description = "Low platelet count may increase bleeding risk"
		f.Indicators = append(f.Indicators, indicator("Low", p))
	case p.Status.IsHigh():
		f = fam.finding("Thrombocytosis Risk")
		f.Description = "High platelet count may increase clotting risk"
		f.Indicators = append(f.Indicators, indicator("High", p))
	default:
		return Finding{}, false
	}
	f.RiskLevel = criticalOr(p, RiskModerate)
	f.Confidence = deviationConfidence(p.RelativeDeviation(), DefaultCap)
	return f, true
}

func detectDiabetes(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "Glucose", "HbA1c")
	if fam.available() == 0 {
		return Finding{}, false
	}

	var diabetic, prediabetic []string
	if p, v, ok := fam.get("Glucose"); ok {
		switch {
		case v >= diabetesGlucose:
			diabetic = append(diabetic, indicator("Elevated fasting", p))
		case v >= prediabetesGlucose:
			prediabetic = append(prediabetic, indicator("Impaired fasting", p))
		}
	}
	if p, v, ok := fam.get("HbA1c"); ok {
		switch {
		case v >= diabetesHbA1c:
			diabetic = append(diabetic, indicator("Elevated", p))
		case v >= prediabetesHbA1c:
			prediabetic = append(prediabetic, indicator("Borderline", p))
		}
	}

	var f Finding
	switch {
	case len(diabetic) > 0:
		f = fam.finding("Diabetes Risk")
		f.Description = "Glycemic markers in the diabetic range - Medical evaluation recommended"
		f.RiskLevel = RiskHigh
		f.Indicators = append(diabetic, prediabetic...)
	case len(prediabetic) > 0:
		f = fam.finding("Prediabetes Risk")
		f.Description = "Glycemic markers in the prediabetic range - Lifestyle changes and retest recommended"
		f.RiskLevel = RiskModerate
		f.Indicators = prediabetic
	default:
		return Finding{}, false
	}
	f.Confidence = ratioConfidence(len(f.Indicators), fam.available(), 1, DefaultCap)
	return f, true
}

func detectMetabolicSyndrome(set interpret.Set, patient reference.Patient) (Finding, bool) {
	fam := collect(set, "Triglycerides", "HDL", "Glucose")
	if fam.available() == 0 {
		return Finding{}, false
	}

	hdlFloor := metabolicHDLMale
	if patient.Gender == reference.GenderFemale {
		hdlFloor = metabolicHDLFemale
	}

	var indicators []string
	if p, v, ok := fam.get("Triglycerides"); ok && v > metabolicTriglycerides {
		indicators = append(indicators, indicator("Elevated", p))
	}
	if p, v, ok := fam.get("HDL"); ok && v < hdlFloor {
		indicators = append(indicators, indicator("Low", p))
	}
	if p, v, ok := fam.get("Glucose"); ok && v > metabolicGlucose {
		indicators = append(indicators, indicator("Elevated", p))
	}
	if len(indicators) < 2 {
		return Finding{}, false
	}

	f := fam.finding("Metabolic Syndrome Risk")
	f.Indicators = indicators
	f.RiskLevel = RiskModerate
	if len(indicators) >= 3 {
		f.RiskLevel = RiskHigh
	}
	f.Description = "Multiple metabolic risk factors present - Consult physician for a comprehensive metabolic panel"
	f.Confidence = ratioConfidence(len(indicators), fam.available(), 1, DefaultCap)
	return f, true
}

func detectCardiovascular(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "Total Cholesterol", "HDL", "LDL")
	if fam.available() == 0 {
		return Finding{}, false
	}

	var indicators []string
	signals, raised := 0, 0
	ratio := 0.0
	_, total, hasTotal := fam.get("Total Cholesterol")
	_, hdl, hasHDL := fam.get("HDL")
	if hasTotal && hasHDL && hdl > 0 {
		signals++
		ratio = total / hdl
		if ratio > ratioModerate {
			raised++
			indicators = append(indicators, fmt.Sprintf("Cholesterol/HDL ratio: %s", reference.FormatNumber(round2(ratio))))
		}
	}
	ldlHigh := false
	if p, _, ok := fam.get("LDL"); ok {
		signals++
		if p.Status.IsHigh() {
			raised++
			ldlHigh = true
			indicators = append(indicators, indicator("Elevated", p))
		}
	}
	if raised == 0 {
		return Finding{}, false
	}

	f := fam.finding("Cardiovascular Risk")
	f.Indicators = indicators
	switch {
	case ratio > ratioHigh, ratio > ratioModerate && ldlHigh:
		f.RiskLevel = RiskHigh
		f.Description = "Unfavourable lipid profile - Cardiovascular evaluation recommended"
	default:
		f.RiskLevel = RiskModerate
		f.Description = "Borderline lipid profile - Diet, exercise and a repeat lipid panel recommended"
	}
	f.Confidence = ratioConfidence(raised, signals, 1, DefaultCap)
	return f, true
}

func detectThyroid(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "TSH")
	p, _, ok := fam.get("TSH")
	if !ok {
		return Finding{}, false
	}

	var f Finding
	switch {
	case p.Status.IsHigh():
		f = fam.finding("Hypothyroidism Indicator")
		f.Indicators = append(f.Indicators, indicator("High", p))
	case p.Status.IsLow():
		f = fam.finding("Hyperthyroidism Indicator")
		f.Indicators = append(f.Indicators, indicator("Low", p))
	default:
		return Finding{}, false
	}
	f.Description = "Thyroid function evaluation recommended"
	f.RiskLevel = criticalOr(p, RiskModerate)
	f.Confidence = deviationConfidence(p.RelativeDeviation(), DefaultCap)
	return f, true
}

func detectLiver(set interpret.Set, _ reference.Patient) (Finding, bool) {
	fam := collect(set, "ALT", "AST", "Bilirubin")
	if fam.available() == 0 {
		return Finding{}, false
	}

	f := fam.finding("Liver Function Concern")
	abnormal, worst := 0, 0.0
	for _, name := range []string{"ALT", "AST", "Bilirubin"} {
		p, _, ok := fam.get(name)
		if !ok || !p.Status.IsHigh() {
			continue
		}
		abnormal++
		worst = math.Max(worst, p.RelativeDeviation())
		f.Indicators = append(f.Indicators, indicator("High", p))
	}
	if abnormal == 0 {
		return Finding{}, false
	}

	// worst >= 2 is more than three times the upper limit.
	if abnormal >= 2 || worst >= 2 {
		f.RiskLevel = RiskHigh
		f.Description = "Liver markers elevated - Hepatic evaluation recommended"
	} else {
		f.RiskLevel = RiskModerate
		f.Description = "Single liver marker elevated - Monitor and retest recommended"
	}
	f.Confidence = ratioConfidence(abnormal, fam.available(), severityFactor(worst), DefaultCap)
	return f, true
}

func criticalOr(p *interpret.Parameter, level RiskLevel) RiskLevel {
	if p.Status.IsCritical() {
		return RiskHigh
	}
	return level
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
