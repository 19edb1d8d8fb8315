package interpret

type Status string

const (
	StatusLow            Status = "Low"
	StatusNormal         Status = "Normal"
	StatusHigh           Status = "High"
	StatusBorderlineLow  Status = "Borderline_Low"
	StatusBorderlineHigh Status = "Borderline_High"
	StatusCriticalLow    Status = "Critical_Low"
	StatusCriticalHigh   Status = "Critical_High"
	StatusUnknown        Status = "Unknown"
	StatusNotApplicable  Status = "N/A"
)

// Known is false for Unknown and N/A results, which never feed numeric aggregation.
func (s Status) Known() bool {
	return s != StatusUnknown && s != StatusNotApplicable && s != ""
}

// IsLow counts Low and Critical_Low. Borderline_Low is not low.
func (s Status) IsLow() bool {
	return s == StatusLow || s == StatusCriticalLow
}

func (s Status) IsHigh() bool {
	return s == StatusHigh || s == StatusCriticalHigh
}

func (s Status) IsBorderline() bool {
	return s == StatusBorderlineLow || s == StatusBorderlineHigh
}

func (s Status) IsCritical() bool {
	return s == StatusCriticalLow || s == StatusCriticalHigh
}

func (s Status) IsAbnormal() bool {
	return s.Known() && s != StatusNormal
}

// noteKey selects the clinical note for a status from a table definition.
func (s Status) noteKey() string {
	switch s {
	case StatusLow, StatusBorderlineLow:
		return "low"
	case StatusHigh, StatusBorderlineHigh:
		return "high"
	case StatusCriticalLow:
		return "critical_low"
	case StatusCriticalHigh:
		return "critical_high"
	default:
		return ""
	}
}

type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)
