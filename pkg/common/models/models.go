package models

import (
	"time"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // report.extracted, report.analyzed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventReportExtracted = "report.extracted"
	EventReportAnalyzed  = "report.analyzed"
)

// AnalyzeRequest is the payload handed over by the extraction collaborator.
// Data carries the raw {parameters, age, gender} object; it is decoded by the
// analysis package so structural problems surface as input errors.
type AnalyzeRequest struct {
	PatientRef string                 `json:"patient_ref,omitempty"`
	Source     string                 `json:"source,omitempty"` // json, pdf, image
	Data       map[string]interface{} `json:"data"`
	Metadata   map[string]string      `json:"metadata,omitempty"`
}

type AnalyzeResponse struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	OverallScore float64   `json:"overall_score"`
	RiskLevel    string    `json:"risk_level"`
	Timestamp    time.Time `json:"timestamp"`
}
