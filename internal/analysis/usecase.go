package analysis

import (
	"context"

	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/google/uuid"
)

type UseCase interface {
	// SubmitAnalysis creates a pending job and enqueues it, or returns the
	// already-active job for the same (video, user) unchanged.
	SubmitAnalysis(ctx context.Context, input *models.SubmitInput) (*models.AnalysisJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error)
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error)
	ListProgress(ctx context.Context, userID uuid.UUID, technique, style string, recentLimit int) ([]*models.ProgressSummary, error)
	GetPresignUpload(ctx context.Context, input *models.UploadInput) (string, error)
}
