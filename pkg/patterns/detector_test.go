package patterns

import (
	"strings"
	"testing"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

func param(name string, value float64, status interpret.Status, deviation float64) *interpret.Parameter {
	return &interpret.Parameter{
		Name:       name,
		Value:      models.Present(value),
		Recognized: true,
		Status:     status,
		Deviation:  deviation,
	}
}

func find(findings []Finding, name string) (Finding, bool) {
	for _, f := range findings {
		if f.Name == name {
			return f, true
		}
	}
	return Finding{}, false
}

func TestAnemiaTriggersOnTwoLowIndicators(t *testing.T) {
	set := interpret.Set{
		"Hemoglobin": param("Hemoglobin", 9, interpret.StatusLow, -25),
		"RBC":        param("RBC", 3.8, interpret.StatusLow, -5),
		"HCT":        param("HCT", 29, interpret.StatusLow, -19.4),
	}
	findings := NewDetector().Detect(set, reference.Patient{Gender: reference.GenderFemale})

	f, ok := find(findings, "Anemia Indicators")
	if !ok {
		t.Fatalf("expected anemia finding, got %+v", findings)
	}
	if f.DataQuality != "3/3 parameters available" {
		t.Fatalf("unexpected data quality %q", f.DataQuality)
	}
	if f.Confidence != AnemiaCap {
		t.Fatalf("expected confidence capped at %v, got %v", AnemiaCap, f.Confidence)
	}
	if f.RiskLevel != RiskModerate || !strings.HasPrefix(f.Description, "Moderate Anemia") {
		t.Fatalf("unexpected severity %s %q", f.RiskLevel, f.Description)
	}
	if len(f.Indicators) != 3 {
		t.Fatalf("expected three indicators, got %v", f.Indicators)
	}
}

func TestAnemiaSingleLowIndicatorIsNotEnough(t *testing.T) {
	set := interpret.Set{
		"Hemoglobin": param("Hemoglobin", 11, interpret.StatusLow, -8.3),
		"RBC":        param("RBC", 4.6, interpret.StatusNormal, 0),
	}
	if _, ok := find(NewDetector().Detect(set, reference.Patient{}), "Anemia Indicators"); ok {
		t.Fatal("expected no anemia finding with one low indicator of two")
	}
}

func TestAnemiaSevereHemoglobinAlone(t *testing.T) {
	set := interpret.Set{"Hemoglobin": param("Hemoglobin", 7.5, interpret.StatusLow, -37.5)}
	f, ok := find(NewDetector().Detect(set, reference.Patient{}), "Anemia Indicators")
	if !ok {
		t.Fatal("expected anemia finding for severe hemoglobin alone")
	}
	if f.DataQuality != "1/3 parameters available" || f.RiskLevel != RiskHigh {
		t.Fatalf("unexpected finding %+v", f)
	}
	if f.Confidence > AnemiaCap {
		t.Fatalf("confidence %v above cap", f.Confidence)
	}
}

func TestAnemiaIgnoresBorderline(t *testing.T) {
	set := interpret.Set{
		"Hemoglobin": param("Hemoglobin", 11.9, interpret.StatusBorderlineLow, -0.8),
		"RBC":        param("RBC", 3.98, interpret.StatusBorderlineLow, -0.5),
	}
	if _, ok := find(NewDetector().Detect(set, reference.Patient{}), "Anemia Indicators"); ok {
		t.Fatal("borderline readings must not trigger anemia")
	}
}

func TestSkipsUnevaluableParameters(t *testing.T) {
	set := interpret.Set{
		"Hemoglobin": {Name: "Hemoglobin", Recognized: true, Status: interpret.StatusNotApplicable, RawValue: "clotted"},
		"RBC":        param("RBC", 3.2, interpret.StatusLow, -20),
		"HCT":        {Name: "HCT", Value: models.Missing(), Recognized: true, Status: interpret.StatusUnknown},
	}
	if _, ok := find(NewDetector().Detect(set, reference.Patient{}), "Anemia Indicators"); ok {
		t.Fatal("N/A and missing values must not count towards anemia")
	}
}

func TestIronDeficiencyLabels(t *testing.T) {
	classic := interpret.Set{
		"MCV": param("MCV", 72, interpret.StatusLow, -10),
		"RDW": param("RDW", 17, interpret.StatusHigh, 17),
	}
	findings := NewDetector().Detect(classic, reference.Patient{})
	if f, ok := find(findings, "Iron Deficiency Anemia Pattern"); !ok || f.DataQuality != "2/4 parameters available" {
		t.Fatalf("expected classic iron deficiency pattern, got %+v", findings)
	}

	generic := interpret.Set{
		"MCV": param("MCV", 72, interpret.StatusLow, -10),
		"MCH": param("MCH", 24, interpret.StatusLow, -11),
		"RDW": param("RDW", 13, interpret.StatusNormal, 0),
	}
	f, ok := find(NewDetector().Detect(generic, reference.Patient{}), "Microcytic Hypochromic Pattern")
	if !ok {
		t.Fatal("expected microcytic hypochromic pattern when RDW is normal")
	}
	if f.Confidence > IronCap {
		t.Fatalf("confidence %v above cap", f.Confidence)
	}
}

func TestKidneyEscalation(t *testing.T) {
	d := NewDetector()

	mild := interpret.Set{"Creatinine": param("Creatinine", 1.4, interpret.StatusHigh, 7.7)}
	f, ok := find(d.Detect(mild, reference.Patient{}), "Kidney Function Concern")
	if !ok || f.RiskLevel != RiskLow {
		t.Fatalf("expected low kidney risk, got %+v", f)
	}

	moderate := interpret.Set{"Urea": param("Urea", 58, interpret.StatusHigh, 34.9)}
	if f, _ := find(d.Detect(moderate, reference.Patient{}), "Kidney Function Concern"); f.RiskLevel != RiskModerate {
		t.Fatalf("expected moderate kidney risk, got %+v", f)
	}

	severe := interpret.Set{"Creatinine": param("Creatinine", 2.1, interpret.StatusHigh, 61.5)}
	if f, _ := find(d.Detect(severe, reference.Patient{}), "Kidney Function Concern"); f.RiskLevel != RiskHigh {
		t.Fatalf("expected high kidney risk for severe creatinine, got %+v", f)
	}

	multiple := interpret.Set{
		"Creatinine": param("Creatinine", 1.4, interpret.StatusHigh, 7.7),
		"Uric Acid":  param("Uric Acid", 7.5, interpret.StatusHigh, 4.2),
	}
	f, _ = find(d.Detect(multiple, reference.Patient{}), "Kidney Function Concern")
	if f.RiskLevel != RiskHigh || !strings.HasPrefix(f.Description, "Multiple kidney markers") {
		t.Fatalf("expected high kidney risk for two markers, got %+v", f)
	}
}

func TestInfectionLabelsAndCap(t *testing.T) {
	d := NewDetector()

	findings := d.Detect(interpret.Set{"WBC": param("WBC", 16, interpret.StatusHigh, 45.5)}, reference.Patient{})
	f, ok := find(findings, "Significant Infection/Inflammation")
	if !ok {
		t.Fatalf("expected significant infection, got %+v", findings)
	}
	if f.Confidence != InfectionCap || f.DataQuality != "1/1 parameters available" {
		t.Fatalf("unexpected finding %+v", f)
	}

	f, ok = find(d.Detect(interpret.Set{"WBC": param("WBC", 11.5, interpret.StatusHigh, 4.5)}, reference.Patient{}), "Possible Infection/Inflammation")
	if !ok || f.Confidence >= InfectionCap || f.Confidence < 50 {
		t.Fatalf("expected possible infection with dampened confidence, got %+v", f)
	}

	if _, ok := find(d.Detect(interpret.Set{"WBC": param("WBC", 3, interpret.StatusLow, -25)}, reference.Patient{}), "Low WBC (Leukopenia)"); !ok {
		t.Fatal("expected leukopenia finding")
	}
}

func TestInfectionConfidenceIsMonotonic(t *testing.T) {
	prev := 0.0
	for _, dev := range []float64{1, 5, 10, 20, 40, 80, 200} {
		got := deviationConfidence(dev/100, InfectionCap)
		if got < prev || got > InfectionCap {
			t.Fatalf("deviation %v: confidence %v (previous %v)", dev, got, prev)
		}
		prev = got
	}
}

func TestMetabolicSyndromeUsesGenderHDL(t *testing.T) {
	set := interpret.Set{
		"Triglycerides": param("Triglycerides", 180, interpret.StatusHigh, 20),
		"HDL":           param("HDL", 45, interpret.StatusLow, -10),
	}
	d := NewDetector()
	if _, ok := find(d.Detect(set, reference.Patient{Gender: reference.GenderMale}), "Metabolic Syndrome Risk"); ok {
		t.Fatal("HDL 45 is not a risk factor for men")
	}
	f, ok := find(d.Detect(set, reference.Patient{Gender: reference.GenderFemale}), "Metabolic Syndrome Risk")
	if !ok || f.RiskLevel != RiskModerate {
		t.Fatalf("expected moderate metabolic risk for women, got %+v", f)
	}
}

func TestDiabetesThresholds(t *testing.T) {
	d := NewDetector()
	set := interpret.Set{"HbA1c": param("HbA1c", 6.8, interpret.StatusHigh, 21)}
	if f, ok := find(d.Detect(set, reference.Patient{}), "Diabetes Risk"); !ok || f.RiskLevel != RiskHigh {
		t.Fatalf("expected diabetes risk, got %+v", f)
	}
	set = interpret.Set{"Glucose": param("Glucose", 110, interpret.StatusHigh, 10)}
	if _, ok := find(d.Detect(set, reference.Patient{}), "Prediabetes Risk"); !ok {
		t.Fatal("expected prediabetes risk")
	}
}

func TestCardiovascularRatio(t *testing.T) {
	set := interpret.Set{
		"Total Cholesterol": param("Total Cholesterol", 240, interpret.StatusHigh, 20),
		"HDL":               param("HDL", 40, interpret.StatusNormal, 0),
	}
	f, ok := find(NewDetector().Detect(set, reference.Patient{}), "Cardiovascular Risk")
	if !ok || f.RiskLevel != RiskHigh {
		t.Fatalf("expected high cardiovascular risk for ratio 6, got %+v", f)
	}
	if f.Indicators[0] != "Cholesterol/HDL ratio: 6" {
		t.Fatalf("unexpected indicator %q", f.Indicators[0])
	}
}

func TestDetectionOrder(t *testing.T) {
	set := interpret.Set{
		"TSH":        param("TSH", 8, interpret.StatusHigh, 77),
		"WBC":        param("WBC", 12, interpret.StatusHigh, 9),
		"Creatinine": param("Creatinine", 1.5, interpret.StatusHigh, 15),
		"Hemoglobin": param("Hemoglobin", 7, interpret.StatusCriticalLow, -41),
		"Platelets":  param("Platelets", 100, interpret.StatusLow, -33),
	}
	findings := NewDetector().Detect(set, reference.Patient{})
	want := []string{
		"Anemia Indicators",
		"Kidney Function Concern",
		"Possible Infection/Inflammation",
		"Bleeding Risk (Thrombocytopenia)",
		"Hypothyroidism Indicator",
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %+v", len(want), findings)
	}
	for i, name := range want {
		if findings[i].Name != name {
			t.Fatalf("position %d: got %q want %q", i, findings[i].Name, name)
		}
	}
}

func TestEmptySetYieldsNoFindings(t *testing.T) {
	findings := NewDetector().Detect(interpret.Set{}, reference.Patient{})
	if findings == nil || len(findings) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", findings)
	}
}
