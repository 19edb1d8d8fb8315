package reports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/synaptica-ai/bloodwork/pkg/analysis"
	"github.com/synaptica-ai/bloodwork/pkg/common/models"
	"gorm.io/datatypes"
)

const StatusAnalyzed = "analyzed"

// Record is the stored form of an analyzed report. The full report and the
// raw input are kept as JSON columns; the scalar columns serve listings.
type Record struct {
	ID           string            `json:"id" gorm:"primaryKey;column:id"`
	PatientRef   string            `json:"patient_ref,omitempty" gorm:"column:patient_ref;index"`
	Source       string            `json:"source" gorm:"column:source"`
	Status       string            `json:"status" gorm:"column:status"`
	OverallScore float64           `json:"overall_score" gorm:"column:overall_score"`
	RiskLevel    string            `json:"risk_level" gorm:"column:risk_level;index"`
	PatternCount int               `json:"pattern_count" gorm:"column:pattern_count"`
	Input        datatypes.JSONMap `json:"input" gorm:"column:input"`
	Report       datatypes.JSONMap `json:"report" gorm:"column:report"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata"`
	CreatedAt    time.Time         `json:"created_at" gorm:"column:created_at;index"`
}

func (Record) TableName() string {
	return "blood_reports"
}

// Summary is the listing view of a stored report.
type Summary struct {
	ID           string    `json:"id"`
	PatientRef   string    `json:"patient_ref,omitempty"`
	OverallScore float64   `json:"overall_score"`
	RiskLevel    string    `json:"risk_level"`
	PatternCount int       `json:"pattern_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r Record) Summary() Summary {
	return Summary{
		ID:           r.ID,
		PatientRef:   r.PatientRef,
		OverallScore: r.OverallScore,
		RiskLevel:    r.RiskLevel,
		PatternCount: r.PatternCount,
		CreatedAt:    r.CreatedAt,
	}
}

func newRecord(req models.AnalyzeRequest, report *analysis.Report) (*Record, error) {
	body, err := toJSONMap(report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	metadata := make(datatypes.JSONMap, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	return &Record{
		ID:           report.ID,
		PatientRef:   req.PatientRef,
		Source:       req.Source,
		Status:       StatusAnalyzed,
		OverallScore: report.RiskAssessment.Score,
		RiskLevel:    string(report.RiskAssessment.Level),
		PatternCount: len(report.Patterns),
		Input:        datatypes.JSONMap(req.Data),
		Report:       body,
		Metadata:     metadata,
		CreatedAt:    report.GeneratedAt,
	}, nil
}

// decodeReport rebuilds the report stored in rec.
func decodeReport(rec *Record) (*analysis.Report, error) {
	raw, err := json.Marshal(rec.Report)
	if err != nil {
		return nil, err
	}
	var report analysis.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decoding stored report %s: %w", rec.ID, err)
	}
	return &report, nil
}

func toJSONMap(v interface{}) (datatypes.JSONMap, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out datatypes.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
