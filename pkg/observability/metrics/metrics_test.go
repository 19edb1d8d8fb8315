package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWritePrometheus(t *testing.T) {
	before := Read()
	ObserveReport("HIGH RISK", 2)
	ObserveReport("MINIMAL RISK", 0)
	ObserveFailure()

	after := Read()
	if after.Analyzed-before.Analyzed != 2 || after.Patterns-before.Patterns != 2 {
		t.Fatalf("unexpected counters %+v -> %+v", before, after)
	}
	if after.HighRisk-before.HighRisk != 1 || after.Failed-before.Failed != 1 {
		t.Fatalf("unexpected risk/failure counters %+v -> %+v", before, after)
	}

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE bloodwork_reports_analyzed_total counter",
		"bloodwork_reports_by_risk_total{level=\"high\"}",
		"bloodwork_events_rejected_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
