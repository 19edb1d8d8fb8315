package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	reportsAnalyzed  atomic.Int64
	reportsFailed    atomic.Int64
	patternsDetected atomic.Int64
	eventsConsumed   atomic.Int64
	eventsRejected   atomic.Int64

	highRisk     atomic.Int64
	moderateRisk atomic.Int64
	lowRisk      atomic.Int64
	minimalRisk  atomic.Int64
)

// ObserveReport records one successfully analyzed report.
func ObserveReport(riskLevel string, patterns int) {
	reportsAnalyzed.Add(1)
	patternsDetected.Add(int64(patterns))
	switch riskLevel {
	case "HIGH RISK":
		highRisk.Add(1)
	case "MODERATE RISK":
		moderateRisk.Add(1)
	case "LOW RISK":
		lowRisk.Add(1)
	default:
		minimalRisk.Add(1)
	}
}

func ObserveFailure() {
	reportsFailed.Add(1)
}

func ObserveEvent(accepted bool) {
	if accepted {
		eventsConsumed.Add(1)
		return
	}
	eventsRejected.Add(1)
}

type Snapshot struct {
	Analyzed int64
	Failed   int64
	Patterns int64
	HighRisk int64
}

func Read() Snapshot {
	return Snapshot{
		Analyzed: reportsAnalyzed.Load(),
		Failed:   reportsFailed.Load(),
		Patterns: patternsDetected.Load(),
		HighRisk: highRisk.Load(),
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	counter(w, "bloodwork_reports_analyzed_total", "Number of blood reports analyzed.", reportsAnalyzed.Load())
	counter(w, "bloodwork_reports_failed_total", "Number of blood reports that could not be analyzed or stored.", reportsFailed.Load())
	counter(w, "bloodwork_patterns_detected_total", "Number of clinical pattern findings emitted.", patternsDetected.Load())
	counter(w, "bloodwork_events_consumed_total", "Number of extracted-report events processed.", eventsConsumed.Load())
	counter(w, "bloodwork_events_rejected_total", "Number of extracted-report events rejected as invalid.", eventsRejected.Load())

	fmt.Fprintf(w, "# HELP bloodwork_reports_by_risk_total Number of analyzed reports per overall risk level.\n")
	fmt.Fprintf(w, "# TYPE bloodwork_reports_by_risk_total counter\n")
	fmt.Fprintf(w, "bloodwork_reports_by_risk_total{level=\"high\"} %d\n", highRisk.Load())
	fmt.Fprintf(w, "bloodwork_reports_by_risk_total{level=\"moderate\"} %d\n", moderateRisk.Load())
	fmt.Fprintf(w, "bloodwork_reports_by_risk_total{level=\"low\"} %d\n", lowRisk.Load())
	fmt.Fprintf(w, "bloodwork_reports_by_risk_total{level=\"minimal\"} %d\n", minimalRisk.Load())
}

func counter(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
