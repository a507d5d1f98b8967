package analysis

import (
	"context"
	"time"

	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/google/uuid"
)

// RedisRepository carries the job queue the workers drain and a short-lived
// status mirror so pollers do not hit Postgres.
type RedisRepository interface {
	EnqueueJob(ctx context.Context, key string, job *models.AnalysisJob) error
	// DequeueJob blocks up to timeout for the next job; nil when the queue
	// stayed empty.
	DequeueJob(ctx context.Context, key string, timeout time.Duration) (*models.AnalysisJob, error)
	SetJobStatus(ctx context.Context, jobID uuid.UUID, status models.JobStatus, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error)
}
