package interpret

import (
	"fmt"
	"math"

	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"github.com/synaptica-ai/bloodwork/pkg/reference"
)

// DefaultBorderlineMargin is the share of the range width, measured outward
// from each boundary, that is reported as Borderline instead of Low/High.
const DefaultBorderlineMargin = 0.05

type Result struct {
	Status      Status   `json:"status"`
	Severity    Severity `json:"severity,omitempty"`
	Explanation string   `json:"explanation"`
	// Deviation is the signed distance from the crossed boundary in percent of
	// that boundary: negative below the range, positive above, 0 inside.
	Deviation float64 `json:"deviation_percent"`
}

// Classifier is stateless apart from its margin and safe for concurrent use.
type Classifier struct {
	margin float64
}

func NewClassifier(margin float64) *Classifier {
	if math.IsNaN(margin) || margin < 0 || margin >= 0.5 {
		margin = DefaultBorderlineMargin
	}
	return &Classifier{margin: margin}
}

func (c *Classifier) Margin() float64 {
	return c.margin
}

// Classify places value against rng. The range is inclusive at both ends.
func (c *Classifier) Classify(value models.OptionalFloat, rng reference.Range, critical *reference.Critical) Result {
	v, ok := value.Get()
	if !ok {
		return Result{Status: StatusUnknown, Explanation: "No value reported"}
	}
	if !rng.Valid() {
		return Result{Status: StatusUnknown, Explanation: "Reference range not available"}
	}
	if rng.Contains(v) {
		return Result{
			Status:      StatusNormal,
			Severity:    SeverityNormal,
			Explanation: fmt.Sprintf("Normal (%s)", rng),
		}
	}

	band := c.margin * rng.Width()
	if v < rng.Min {
		dev := Deviation(v, rng.Min)
		switch {
		case critical != nil && critical.Low != nil && v <= *critical.Low:
			return Result{StatusCriticalLow, SeverityCritical, fmt.Sprintf("Critically low (at or below %s)", reference.FormatNumber(*critical.Low)), dev}
		case band > 0 && v >= rng.Min-band:
			return Result{StatusBorderlineLow, SeverityMild, fmt.Sprintf("Borderline low (just below %s)", reference.FormatNumber(rng.Min)), dev}
		default:
			return Result{StatusLow, SeverityModerate, fmt.Sprintf("Low (below %s)", reference.FormatNumber(rng.Min)), dev}
		}
	}

	dev := Deviation(v, rng.Max)
	switch {
	case critical != nil && critical.High != nil && v >= *critical.High:
		return Result{StatusCriticalHigh, SeverityCritical, fmt.Sprintf("Critically high (at or above %s)", reference.FormatNumber(*critical.High)), dev}
	case band > 0 && v <= rng.Max+band:
		return Result{StatusBorderlineHigh, SeverityMild, fmt.Sprintf("Borderline high (just above %s)", reference.FormatNumber(rng.Max)), dev}
	default:
		return Result{StatusHigh, SeverityModerate, fmt.Sprintf("High (above %s)", reference.FormatNumber(rng.Max)), dev}
	}
}

// Deviation returns (value-boundary)/|boundary| as a percentage, or 0 for a
// zero boundary.
func Deviation(value, boundary float64) float64 {
	if boundary == 0 {
		return 0
	}
	return (value - boundary) / math.Abs(boundary) * 100
}

// Significance returns the clinical note the table carries for status.
func Significance(def reference.Definition, status Status) string {
	if def.Notes == nil {
		return ""
	}
	if note, ok := def.Notes[status.noteKey()]; ok {
		return note
	}
	// Critical results fall back to the plain low/high note.
	switch status {
	case StatusCriticalLow:
		return def.Notes["low"]
	case StatusCriticalHigh:
		return def.Notes["high"]
	}
	return ""
}
