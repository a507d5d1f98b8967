package analysis

import (
	"context"
	"errors"

	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/google/uuid"
)

// ErrActiveJobExists reports an insert rejected by the partial unique index
// guarding the one-active-job-per-(video, user) invariant: a concurrent
// submission won the race.
var ErrActiveJobExists = errors.New("an active analysis job already exists for this video")

// Repository persists analysis jobs and progress records. Jobs are never
// deleted; they are the history the progress aggregates are recomputed from.
type Repository interface {
	CreateJob(ctx context.Context, job *models.AnalysisJob) (*models.AnalysisJob, error)
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error)
	// GetActiveJob returns the non-terminal job for (video, user), or nil
	// when none exists.
	GetActiveJob(ctx context.Context, videoID, userID uuid.UUID) (*models.AnalysisJob, error)
	UpdateJob(ctx context.Context, job *models.AnalysisJob) error

	ListCompletedScores(ctx context.Context, userID uuid.UUID, technique, style string) ([]float64, error)
	ListRecentCompletedJobs(ctx context.Context, userID uuid.UUID, technique, style string, limit int) ([]*models.AnalysisJob, error)

	GetProgress(ctx context.Context, userID uuid.UUID, technique, style string) (*models.ProgressRecord, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*models.ProgressRecord, error)
	UpsertProgress(ctx context.Context, record *models.ProgressRecord) error
}
