package analysis

import (
	"fmt"
	"strings"

	"github.com/synaptica-ai/bloodwork/pkg/interpret"
	"github.com/synaptica-ai/bloodwork/pkg/patterns"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
	"github.com/synaptica-ai/bloodwork/pkg/risk"
)

const Disclaimer = "Disclaimer: This automated interpretation is for educational purposes only and is not a substitute for professional medical advice, diagnosis, or treatment."

func summarize(params []*interpret.Parameter, findings []patterns.Finding, overall risk.Overall) string {
	var abnormal []string
	evaluated := 0
	for _, p := range params {
		if !p.Status.Known() {
			continue
		}
		evaluated++
		if p.Status.IsAbnormal() {
			abnormal = append(abnormal, fmt.Sprintf("%s is %s", p.Name, p.Status))
		}
	}

	var sentences []string
	switch {
	case evaluated == 0:
		sentences = append(sentences, "No blood parameters could be evaluated.")
	case len(abnormal) == 0:
		sentences = append(sentences, "All evaluated blood parameters are within the normal range.")
	default:
		sentences = append(sentences, "Some blood parameters are outside the normal range: "+strings.Join(abnormal, ", ")+".")
	}

	if len(findings) > 0 {
		names := make([]string, 0, len(findings))
		for _, f := range findings {
			names = append(names, f.Name)
		}
		sentences = append(sentences, "Risk pattern analysis indicates the following concerns: "+strings.Join(names, ", ")+".")
	}
	sentences = append(sentences, fmt.Sprintf("Overall risk: %s (%s/100).", overall.Level, reference.FormatNumber(overall.Score)))
	return strings.Join(sentences, " ")
}

// recommend lists the overall advice first, then critical values and pattern
// advice in detection order, and always ends with the disclaimer.
func recommend(params []*interpret.Parameter, findings []patterns.Finding, overall risk.Overall) []string {
	out := []string{overall.Recommendation}
	for _, p := range params {
		if p.Status.IsCritical() {
			out = append(out, fmt.Sprintf("%s is at a critical level (%s) - contact your doctor promptly.", p.Name, strings.TrimSpace(p.Value.String()+" "+p.Unit)))
		}
	}
	for _, f := range findings {
		if f.RiskLevel == patterns.RiskLow {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", f.Name, f.Description))
	}
	return append(out, Disclaimer)
}
