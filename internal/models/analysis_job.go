package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions may leave the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SubScoreMap stores per-criterion scores as a JSONB column.
type SubScoreMap map[string]float64

func (m SubScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *SubScoreMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported sub_scores type %T", src)
	}
	return json.Unmarshal(data, m)
}

// TechniqueAnalysis is the structured outcome of one scoring call. A degraded
// result carries only RawResponse with ParseFailed set; the job that produced
// it still counts as completed.
type TechniqueAnalysis struct {
	OverallScore  *float64    `json:"overall_score,omitempty"`
	TechniqueName string      `json:"technique_name,omitempty"`
	Style         string      `json:"style,omitempty"`
	SubScores     SubScoreMap `json:"sub_scores,omitempty"`
	Strengths     []string    `json:"strengths,omitempty"`
	Improvements  []string    `json:"improvements,omitempty"`
	Tips          []string    `json:"tips,omitempty"`
	SafetyNotes   []string    `json:"safety_notes,omitempty"`
	NextSteps     []string    `json:"next_steps,omitempty"`
	RawResponse   string      `json:"raw_response,omitempty"`
	ParseFailed   bool        `json:"parse_failed,omitempty"`
}

// AnalysisJob is one end-to-end attempt to analyze a single video.
// Result columns are populated only once Status is completed; ErrorMessage
// only once Status is failed.
type AnalysisJob struct {
	JobID          uuid.UUID  `json:"job_id" db:"job_id"`
	VideoID        uuid.UUID  `json:"video_id" db:"video_id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	VideoKey       string     `json:"video_key" db:"video_key"`
	Status         JobStatus  `json:"status" db:"status"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	TechniqueHint  string     `json:"technique_hint,omitempty" db:"technique_hint"`
	StyleHint      string     `json:"style_hint,omitempty" db:"style_hint"`
	ModelID        string     `json:"model_id" db:"model_id"`
	FrameCount     int        `json:"frame_count" db:"frame_count"`
	FramesAnalyzed int        `json:"frames_analyzed" db:"frames_analyzed"`

	OverallScore  *float64       `json:"overall_score,omitempty" db:"overall_score"`
	TechniqueName string         `json:"technique_name,omitempty" db:"technique_name"`
	Style         string         `json:"style,omitempty" db:"style"`
	SubScores     SubScoreMap    `json:"sub_scores,omitempty" db:"sub_scores"`
	Strengths     pq.StringArray `json:"strengths,omitempty" db:"strengths"`
	Improvements  pq.StringArray `json:"improvements,omitempty" db:"improvements"`
	Tips          pq.StringArray `json:"tips,omitempty" db:"tips"`
	SafetyNotes   pq.StringArray `json:"safety_notes,omitempty" db:"safety_notes"`
	NextSteps     pq.StringArray `json:"next_steps,omitempty" db:"next_steps"`
	RawResponse   string         `json:"raw_response,omitempty" db:"raw_response"`
	ParseFailed   bool           `json:"parse_failed,omitempty" db:"parse_failed"`
	ErrorMessage  string         `json:"error_message,omitempty" db:"error_message"`
}

// Start moves the job from pending to processing.
func (j *AnalysisJob) Start() error {
	if j.Status != JobStatusPending {
		return fmt.Errorf("cannot start job %s: status is %q, want %q", j.JobID, j.Status, JobStatusPending)
	}
	j.Status = JobStatusProcessing
	return nil
}

// Complete stores the result payload and moves the job to completed. Valid
// only from processing; a degraded result is still a completion.
func (j *AnalysisJob) Complete(result *TechniqueAnalysis, at time.Time) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("cannot complete job %s: status is %q, want %q", j.JobID, j.Status, JobStatusProcessing)
	}
	j.Status = JobStatusCompleted
	j.CompletedAt = &at
	j.OverallScore = result.OverallScore
	j.TechniqueName = result.TechniqueName
	j.Style = result.Style
	j.SubScores = result.SubScores
	j.Strengths = result.Strengths
	j.Improvements = result.Improvements
	j.Tips = result.Tips
	j.SafetyNotes = result.SafetyNotes
	j.NextSteps = result.NextSteps
	j.RawResponse = result.RawResponse
	j.ParseFailed = result.ParseFailed
	return nil
}

// Fail stores the failure payload and moves the job to failed. Valid from
// pending or processing; terminal states are absorbing.
func (j *AnalysisJob) Fail(message string, at time.Time) error {
	if j.Status.Terminal() {
		return fmt.Errorf("cannot fail job %s: status %q is terminal", j.JobID, j.Status)
	}
	j.Status = JobStatusFailed
	j.CompletedAt = &at
	j.ErrorMessage = message
	return nil
}
