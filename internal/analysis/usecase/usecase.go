package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/config"
	"github.com/dojotrack/technique-analyzer/internal/frames"
	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/dojotrack/technique-analyzer/internal/scoring"
	"github.com/dojotrack/technique-analyzer/pkg/logger"
	"github.com/dojotrack/technique-analyzer/pkg/metrics"
	"github.com/dojotrack/technique-analyzer/pkg/utils"
	"github.com/google/uuid"
)

const statusTTL = 30 * time.Minute

type analysisUC struct {
	cfg       *config.Config
	repo      analysis.Repository
	redisRepo analysis.RedisRepository
	awsRepo   analysis.AWSRepository
	logger    logger.Logger
}

func NewAnalysisUseCase(
	cfg *config.Config,
	repo analysis.Repository,
	redisRepo analysis.RedisRepository,
	awsRepo analysis.AWSRepository,
	log logger.Logger,
) analysis.UseCase {
	return &analysisUC{
		cfg:       cfg,
		repo:      repo,
		redisRepo: redisRepo,
		awsRepo:   awsRepo,
		logger:    log,
	}
}

func (u *analysisUC) SubmitAnalysis(ctx context.Context, input *models.SubmitInput) (*models.AnalysisJob, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("SubmitAnalysis - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	// Fail fast before any job record exists; a misconfigured scorer must
	// never let a job enter processing.
	if u.cfg.Scoring.APIKey == "" || u.cfg.Scoring.Endpoint == "" {
		return nil, fmt.Errorf("cannot accept analysis: %w", scoring.ErrUnavailable)
	}

	// At most one non-terminal job per (video, user); resubmission returns
	// the active job unchanged.
	active, err := u.repo.GetActiveJob(ctx, input.VideoID, input.UserID)
	if err != nil {
		u.logger.Errorf("SubmitAnalysis - GetActiveJob error: %v", err)
		return nil, err
	}
	if active != nil {
		u.logger.Infof("returning active job %s for video %s", active.JobID, input.VideoID)
		return active, nil
	}

	frameCount := input.FrameCount
	if frameCount <= 0 {
		frameCount = u.cfg.Worker.DefaultFrameCount
	}
	if frameCount <= 0 {
		frameCount = frames.DefaultFrameCount
	}
	if u.cfg.Worker.MaxFrameCount > 0 && frameCount > u.cfg.Worker.MaxFrameCount {
		frameCount = u.cfg.Worker.MaxFrameCount
	}

	job := &models.AnalysisJob{
		JobID:         uuid.New(),
		VideoID:       input.VideoID,
		UserID:        input.UserID,
		VideoKey:      input.VideoKey,
		Status:        models.JobStatusPending,
		StartedAt:     time.Now().UTC(),
		TechniqueHint: input.Technique,
		StyleHint:     input.Style,
		ModelID:       u.cfg.Scoring.Model,
		FrameCount:    frameCount,
	}

	created, err := u.repo.CreateJob(ctx, job)
	if err != nil {
		// The check above and the insert are not atomic; the partial unique
		// index arbitrates concurrent submissions and the loser returns the
		// winner's job, same as the sequential dedup path.
		if errors.Is(err, analysis.ErrActiveJobExists) {
			winner, activeErr := u.repo.GetActiveJob(ctx, input.VideoID, input.UserID)
			if activeErr == nil && winner != nil {
				u.logger.Infof("returning active job %s for video %s after insert race", winner.JobID, input.VideoID)
				return winner, nil
			}
		}
		u.logger.Errorf("SubmitAnalysis - CreateJob error: %v", err)
		return nil, err
	}

	if err = u.redisRepo.EnqueueJob(ctx, u.cfg.Redis.JobQueueKey, created); err != nil {
		u.logger.Errorf("SubmitAnalysis - EnqueueJob error: %v", err)
		// A pending row that never reaches the queue would block
		// resubmission forever; fail it before reporting the error.
		if failErr := created.Fail(fmt.Sprintf("failed to enqueue job: %v", err), time.Now().UTC()); failErr == nil {
			if updErr := u.repo.UpdateJob(ctx, created); updErr != nil {
				u.logger.Errorf("SubmitAnalysis - failed to mark unqueued job failed: %v", updErr)
			}
		}
		return nil, fmt.Errorf("failed to queue the job: %v", err)
	}
	_ = u.redisRepo.SetJobStatus(ctx, created.JobID, models.JobStatusPending, statusTTL)

	metrics.JobsSubmitted.Inc()
	u.logger.Infof("submitted analysis job %s for video %s (user %s)", created.JobID, created.VideoID, created.UserID)
	return created, nil
}

func (u *analysisUC) GetJob(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("invalid job id: cannot be empty")
	}
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			u.logger.Warnf("job not found with ID: %s", jobID)
			return nil, fmt.Errorf("job not found")
		}
		u.logger.Errorf("GetJob - failed to fetch job: %v", err)
		return nil, fmt.Errorf("failed to fetch job: %v", err)
	}
	return job, nil
}

func (u *analysisUC) GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error) {
	if jobID == uuid.Nil {
		return "", fmt.Errorf("invalid job id: cannot be empty")
	}
	if status, err := u.redisRepo.GetJobStatus(ctx, jobID); err == nil {
		return status, nil
	}
	job, err := u.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

func (u *analysisUC) ListProgress(ctx context.Context, userID uuid.UUID, technique, style string, recentLimit int) ([]*models.ProgressSummary, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("invalid user id: cannot be empty")
	}
	if recentLimit < 1 || recentLimit > 50 {
		recentLimit = 10
	}

	var records []*models.ProgressRecord
	if technique != "" {
		record, err := u.repo.GetProgress(ctx, userID, technique, style)
		if err != nil {
			u.logger.Errorf("ListProgress - GetProgress error: %v", err)
			return nil, fmt.Errorf("failed to fetch progress: %v", err)
		}
		if record != nil {
			records = append(records, record)
		}
	} else {
		var err error
		records, err = u.repo.ListProgress(ctx, userID)
		if err != nil {
			u.logger.Errorf("ListProgress - ListProgress error: %v", err)
			return nil, fmt.Errorf("failed to fetch progress: %v", err)
		}
	}

	summaries := make([]*models.ProgressSummary, 0, len(records))
	for _, record := range records {
		recent, err := u.repo.ListRecentCompletedJobs(ctx, userID, record.TechniqueName, record.Style, recentLimit)
		if err != nil {
			u.logger.Errorf("ListProgress - ListRecentCompletedJobs error: %v", err)
			return nil, fmt.Errorf("failed to fetch recent jobs: %v", err)
		}
		summaries = append(summaries, &models.ProgressSummary{
			Progress:   record,
			RecentJobs: recent,
		})
	}
	return summaries, nil
}

func (u *analysisUC) GetPresignUpload(ctx context.Context, input *models.UploadInput) (string, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("GetPresignUpload - ValidateStruct error: %v", err)
		return "", fmt.Errorf("invalid input: %v", err)
	}

	input.BucketName = u.cfg.S3.VideoBucket
	input.Key = fmt.Sprintf("uploads/%s/%s", input.UserID, input.Name)

	u.logger.Infof("generating presigned URL for key: %s", input.Key)
	url, err := u.awsRepo.GetPresignedURL(ctx, input)
	if err != nil {
		u.logger.Errorf("GetPresignUpload - GetPresignedURL error: %v", err)
		return "", fmt.Errorf("failed to generate presigned URL: %v", err)
	}
	return url, nil
}
