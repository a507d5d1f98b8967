package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord is the rolling statistical summary for one
// (user, technique, style) key across all completed analyses.
type ProgressRecord struct {
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	TechniqueName   string    `json:"technique_name" db:"technique_name"`
	Style           string    `json:"style" db:"style"`
	FirstScore      float64   `json:"first_score" db:"first_score"`
	LatestScore     float64   `json:"latest_score" db:"latest_score"`
	BestScore       float64   `json:"best_score" db:"best_score"`
	AverageScore    float64   `json:"average_score" db:"average_score"`
	TotalAnalyses   int       `json:"total_analyses" db:"total_analyses"`
	ImprovementRate float64   `json:"improvement_rate" db:"improvement_rate"`
	FirstJobID      uuid.UUID `json:"first_job_id" db:"first_job_id"`
	LatestJobID     uuid.UUID `json:"latest_job_id" db:"latest_job_id"`
	FirstDate       time.Time `json:"first_date" db:"first_date"`
	LatestDate      time.Time `json:"latest_date" db:"latest_date"`
}

// ProgressSummary pairs a progress record with a bounded list of the recent
// completed jobs that contributed to it.
type ProgressSummary struct {
	Progress   *ProgressRecord `json:"progress"`
	RecentJobs []*AnalysisJob  `json:"recent_jobs"`
}
