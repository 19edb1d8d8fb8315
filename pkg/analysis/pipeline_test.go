package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"github.com/synaptica-ai/bloodwork/pkg/risk"
)

func newPipeline() *Pipeline {
	return New(reference.DefaultTable(), risk.DefaultRules(), interpret.DefaultBorderlineMargin)
}

func analyze(t *testing.T, raw interface{}) *Report {
	t.Helper()
	report, err := newPipeline().Analyze(raw)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return report
}

func TestAnemiaScenario(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"age":    35.0,
		"gender": "female",
		"parameters": map[string]interface{}{
			"Hemoglobin": map[string]interface{}{"value": 9.0, "unit": "g/dL"},
			"RBC":        map[string]interface{}{"value": 3.8},
			"HCT":        map[string]interface{}{"value": 29.0},
		},
	})

	hb, ok := report.Parameter("Hemoglobin")
	if !ok || hb.Status != interpret.StatusLow {
		t.Fatalf("expected low hemoglobin, got %+v", hb)
	}
	f, ok := report.Pattern("Anemia Indicators")
	if !ok {
		t.Fatalf("expected anemia pattern, got %+v", report.Patterns)
	}
	if f.DataQuality != "3/3 parameters available" {
		t.Fatalf("unexpected data quality %q", f.DataQuality)
	}
	if f.Confidence > 90 {
		t.Fatalf("anemia confidence above cap: %v", f.Confidence)
	}
	if hb.RangeSource != reference.SourceGender || hb.ContextualRange != "12-15.5" {
		t.Fatalf("expected female range, got %s %q", hb.RangeSource, hb.ContextualRange)
	}
}

func TestInfectionScenario(t *testing.T) {
	report := analyze(t, map[string]interface{}{"WBC": 16.0})

	if _, ok := report.Pattern("Significant Infection/Inflammation"); !ok {
		t.Fatalf("expected significant infection, got %+v", report.Patterns)
	}
	inf, ok := report.Category("Infection Risk")
	if !ok || inf.Score < 60 {
		t.Fatalf("expected infection risk >= 60, got %+v", inf)
	}
}

func TestChildCreatinineScenario(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"age":        10,
		"parameters": map[string]interface{}{"Creatinine": map[string]interface{}{"value": 1.2, "unit": "mg/dL"}},
	})

	p, ok := report.Parameter("Creatinine")
	if !ok {
		t.Fatal("creatinine missing from report")
	}
	if p.Status != interpret.StatusHigh || p.OriginalStatus != interpret.StatusNormal {
		t.Fatalf("expected Normal -> High, got %s -> %s", p.OriginalStatus, p.Status)
	}
	if p.ContextualRange != "0.3-0.7" {
		t.Fatalf("expected child range, got %q", p.ContextualRange)
	}
	s := report.ContextualSummary
	if s.AgeGroup != reference.AgeChild || s.ParametersChanged != 1 || len(s.Adjustments) != 1 {
		t.Fatalf("unexpected contextual summary %+v", s)
	}
}

func TestNeonateCountsDoNotScoreRisk(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"age": 0.02,
		"parameters": map[string]interface{}{
			"WBC":        map[string]interface{}{"value": 20.0},
			"Hemoglobin": map[string]interface{}{"value": 15.0},
		},
	})

	wbc, _ := report.Parameter("WBC")
	if wbc.Status != interpret.StatusNormal || wbc.OriginalStatus != interpret.StatusHigh {
		t.Fatalf("expected High -> Normal for a neonate, got %s -> %s", wbc.OriginalStatus, wbc.Status)
	}
	if inf, _ := report.Category("Infection Risk"); inf.Score != 0 {
		t.Fatalf("expected no infection risk, got %+v", inf)
	}
	if report.RiskAssessment.Score != 0 || report.RiskAssessment.Level != risk.LevelMinimal {
		t.Fatalf("unexpected risk %+v", report.RiskAssessment)
	}
	if len(report.Patterns) != 0 {
		t.Fatalf("expected no patterns, got %+v", report.Patterns)
	}
}

func TestEmptyReport(t *testing.T) {
	report := analyze(t, map[string]interface{}{})

	if len(report.Patterns) != 0 {
		t.Fatalf("expected no patterns, got %+v", report.Patterns)
	}
	if report.RiskAssessment.Score != 0 || report.RiskAssessment.Level != risk.LevelMinimal {
		t.Fatalf("unexpected risk %+v", report.RiskAssessment)
	}
	for _, a := range report.RiskAssessment.Individual {
		if a.Score != 0 {
			t.Fatalf("expected zero score for %s", a.Category)
		}
	}
	if report.Recommendations[len(report.Recommendations)-1] != Disclaimer {
		t.Fatal("expected disclaimer last")
	}
}

func TestNonNumericValueIsNotApplicable(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"Hemoglobin": map[string]interface{}{"value": "hemolysed"},
		"RBC":        map[string]interface{}{"value": 3.1},
		"HCT":        map[string]interface{}{"value": 28.0},
	})

	hb, _ := report.Parameter("Hemoglobin")
	if hb.Status != interpret.StatusNotApplicable || hb.RawValue != "hemolysed" {
		t.Fatalf("expected N/A hemoglobin, got %+v", hb)
	}
	f, ok := report.Pattern("Anemia Indicators")
	if !ok || f.DataQuality != "2/3 parameters available" {
		t.Fatalf("expected anemia from RBC and HCT only, got %+v", report.Patterns)
	}
}

func TestPrintedRangeAndFallback(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"Hemoglobin": map[string]interface{}{"value": 12.5, "reference_range": "13.0 - 17.0 g/dL"},
		"Glucose":    map[string]interface{}{"value": 90.0, "reference_range": "see lab notes"},
		"Urea":       map[string]interface{}{"value": 30.0, "reference_range": []interface{}{10.0, 25.0}},
	})

	hb, _ := report.Parameter("Hemoglobin")
	if hb.RangeSource != reference.SourceReport || hb.Status != interpret.StatusLow {
		t.Fatalf("expected printed range to classify Low, got %s from %s", hb.Status, hb.RangeSource)
	}
	glu, _ := report.Parameter("Glucose")
	if glu.RangeSource != reference.SourceGeneral || glu.Status != interpret.StatusNormal {
		t.Fatalf("expected fallback to table range, got %s from %s", glu.Status, glu.RangeSource)
	}
	urea, _ := report.Parameter("Urea")
	if urea.RangeSource != reference.SourceReport || urea.Status != interpret.StatusHigh {
		t.Fatalf("expected tuple range to classify High, got %s from %s", urea.Status, urea.RangeSource)
	}
}

func TestPrintedRangeFollowsScaleRules(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"WBC":        map[string]interface{}{"value": 8000.0, "unit": "cells/uL", "reference_range": "4000-11000"},
		"Hemoglobin": map[string]interface{}{"value": 140.0, "unit": "g/L", "reference_range": "120-160"},
		"HCT":        map[string]interface{}{"value": 0.45, "reference_range": "0.36-0.50"},
		"Platelets":  map[string]interface{}{"value": 250000.0, "reference_range": "150-400"},
	})

	want := map[string]string{"WBC": "4-11", "Hemoglobin": "12-16", "HCT": "36-50", "Platelets": "150-400"}
	for name, rng := range want {
		p, ok := report.Parameter(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if p.Status != interpret.StatusNormal || p.RangeSource != reference.SourceReport {
			t.Fatalf("%s: expected Normal against the printed range, got %s from %s", name, p.Status, p.RangeSource)
		}
		if p.ReferenceRange == nil || p.ReferenceRange.String() != rng {
			t.Fatalf("%s: expected range %s, got %v", name, rng, p.ReferenceRange)
		}
	}
	if len(report.Patterns) != 0 {
		t.Fatalf("expected no patterns for a normal report, got %+v", report.Patterns)
	}
	if report.RiskAssessment.Score != 0 {
		t.Fatalf("expected zero risk, got %v", report.RiskAssessment.Score)
	}
}

func TestUnrecognisedAndMissingValues(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"Vitamin Q": 3.0,
		"WBC":       nil,
	})

	q, ok := report.Parameter("Vitamin Q")
	if !ok || q.Recognized || q.Status != interpret.StatusUnknown {
		t.Fatalf("expected unrecognised Unknown parameter, got %+v", q)
	}
	wbc, _ := report.Parameter("WBC")
	if wbc.Status != interpret.StatusUnknown {
		t.Fatalf("expected Unknown for missing value, got %s", wbc.Status)
	}
	if len(report.Patterns) != 0 {
		t.Fatalf("expected no patterns, got %+v", report.Patterns)
	}
	if !strings.HasPrefix(report.Summary, "No blood parameters could be evaluated.") {
		t.Fatalf("unexpected summary %q", report.Summary)
	}
}

func TestRescaleAndAliases(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"Total WBC Count": 16000.0,
		"Hb":              9.0,
		"Hemoglobin":      14.0,
	})

	wbc, ok := report.Parameter("WBC")
	if !ok {
		t.Fatalf("expected alias to resolve, got %+v", report.Parameters)
	}
	if v, _ := wbc.Value.Get(); math.Abs(v-16) > 1e-9 || wbc.RawValue != "16000" {
		t.Fatalf("expected rescaled WBC, got %v (raw %q)", v, wbc.RawValue)
	}
	hb, _ := report.Parameter("Hemoglobin")
	if hb.ReportedName != "Hb" {
		t.Fatalf("expected first reading in name order to win, got %q", hb.ReportedName)
	}
}

func TestConfidenceScores(t *testing.T) {
	report := analyze(t, map[string]interface{}{
		"parameters": map[string]interface{}{
			"Glucose": map[string]interface{}{"value": 90.0, "confidence": 0.8},
			"Sodium":  map[string]interface{}{"value": 140.0, "confidence": 100.0},
		},
	})
	c := report.Confidence
	if c.Extraction != 0.9 || c.Interpretation != 0.9 || c.Patterns != 0 || c.Overall != 0.9 {
		t.Fatalf("unexpected confidence scores %+v", c)
	}
}

func TestInputErrors(t *testing.T) {
	cases := []interface{}{
		"not a report",
		[]interface{}{1.0, 2.0},
		nil,
		map[string]interface{}{"parameters": []interface{}{}},
		map[string]interface{}{"age": "ten"},
		map[string]interface{}{"age": -4.0},
		map[string]interface{}{"gender": 1.0},
	}
	for _, raw := range cases {
		_, err := newPipeline().Analyze(raw)
		if err == nil || !IsInputError(err) {
			t.Fatalf("%v: expected InputError, got %v", raw, err)
		}
	}
}

func TestUnknownGenderFallsBackToGeneral(t *testing.T) {
	in, err := ParseInput(map[string]interface{}{"gender": "unspecified", "HDL": 45.0})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if in.Patient.Gender != reference.GenderUnspecified || len(in.Readings) != 1 {
		t.Fatalf("unexpected input %+v", in)
	}
}

func TestParseRange(t *testing.T) {
	good := map[string]reference.Range{
		"12-15.5":          {Min: 12, Max: 15.5},
		"4.0 \u2013 5.5":   {Min: 4, Max: 5.5},
		"0.6 to 1.3 mg/dL": {Min: 0.6, Max: 1.3},
		"[150, 450]":       {Min: 150, Max: 450},
		"< 5":              {Min: 0, Max: 5},
	}
	for text, want := range good {
		got, err := ParseRange(text)
		if err != nil || got != want {
			t.Fatalf("%q: got %v %v, want %v", text, got, err, want)
		}
	}
	for _, text := range []string{"", "normal", "15-12", "> 40"} {
		if _, err := ParseRange(text); err == nil {
			t.Fatalf("%q: expected error", text)
		}
	}
}

func TestReportJSONShape(t *testing.T) {
	report := analyze(t, map[string]interface{}{"WBC": 16.0, "age": 40})
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "parameters", "patterns", "risk_assessment", "contextual_summary", "confidence_scores", "recommendations"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing %q in report JSON", key)
		}
	}
	ra := doc["risk_assessment"].(map[string]interface{})
	if _, ok := ra["overall_score"]; !ok {
		t.Fatal("risk_assessment.overall_score missing")
	}
	pat := doc["patterns"].([]interface{})[0].(map[string]interface{})
	if pat["pattern_name"] != "Significant Infection/Inflammation" {
		t.Fatalf("unexpected pattern %v", pat)
	}
}
