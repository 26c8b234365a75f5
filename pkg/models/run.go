package models

import "time"

// AnalysisRun records one execution of the analysis pipeline
type AnalysisRun struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"` // CSV path or "db"
	Rows       int       `json:"rows"`
	ADFStat    float64   `json:"adf_stat"`
	PValue     float64   `json:"p_value"`
	UsedLag    int       `json:"used_lag"`
	NObs       int       `json:"nobs"`
	ReportPath string    `json:"report_path"`
	Summary    string    `json:"summary"` // JSON digest of the report
	Published  bool      `json:"published"`
}
