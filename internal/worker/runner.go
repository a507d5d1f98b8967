package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/config"
	"github.com/dojotrack/technique-analyzer/internal/frames"
	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/dojotrack/technique-analyzer/internal/progress"
	"github.com/dojotrack/technique-analyzer/internal/scoring"
	"github.com/dojotrack/technique-analyzer/pkg/logger"
	"github.com/dojotrack/technique-analyzer/pkg/metrics"
)

const statusTTL = 30 * time.Minute

// Runner drives one analysis job through sampling, scoring, parsing and
// persistence. Every failure path crosses the job boundary as a fail
// transition; nothing propagates back to the submitter and no job is ever
// stranded in processing.
type Runner struct {
	cfg        *config.Config
	repo       analysis.Repository
	redisRepo  analysis.RedisRepository
	storage    analysis.AWSRepository
	sampler    frames.Sampler
	scorer     scoring.Client
	aggregator *progress.Aggregator
	logger     logger.Logger
}

func NewRunner(
	cfg *config.Config,
	repo analysis.Repository,
	redisRepo analysis.RedisRepository,
	storage analysis.AWSRepository,
	sampler frames.Sampler,
	scorer scoring.Client,
	aggregator *progress.Aggregator,
	log logger.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		repo:       repo,
		redisRepo:  redisRepo,
		storage:    storage,
		sampler:    sampler,
		scorer:     scorer,
		aggregator: aggregator,
		logger:     log,
	}
}

func (r *Runner) Run(ctx context.Context, job *models.AnalysisJob) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("panic in analysis job %s: %v", job.JobID, rec)
			r.failJob(job, fmt.Sprintf("panic: %v", rec), "panic", start)
		}
	}()

	if err := job.Start(); err != nil {
		r.logger.Errorf("job %s: %v", job.JobID, err)
		return
	}
	if err := r.repo.UpdateJob(ctx, job); err != nil {
		r.logger.Errorf("job %s: failed to persist processing state: %v", job.JobID, err)
		r.failJob(job, fmt.Sprintf("failed to persist processing state: %v", err), "store", start)
		return
	}
	_ = r.redisRepo.SetJobStatus(ctx, job.JobID, models.JobStatusProcessing, statusTTL)
	r.logger.Infof("processing analysis job %s (video %s)", job.JobID, job.VideoID)

	tempDir, err := os.MkdirTemp(r.cfg.Worker.TempDir, "analyzer_job_")
	if err != nil {
		r.failJob(job, fmt.Sprintf("failed to create temp directory: %v", err), "storage", start)
		return
	}
	defer os.RemoveAll(tempDir)

	localPath, err := r.storage.DownloadVideo(ctx, r.cfg.S3.VideoBucket, job.VideoKey, tempDir)
	if err != nil {
		r.failJob(job, fmt.Sprintf("failed to fetch video %s: %v", job.VideoKey, err), "storage", start)
		return
	}

	imgs, err := r.sampler.Sample(ctx, localPath, job.FrameCount)
	if err != nil {
		r.failJob(job, err.Error(), "extraction", start)
		return
	}
	job.FramesAnalyzed = len(imgs)

	prompt := scoring.BuildPrompt(job.TechniqueHint, job.StyleHint, len(imgs))

	scoreCtx, cancel := context.WithTimeout(ctx, r.cfg.Scoring.Timeout())
	defer cancel()
	raw, err := r.scorer.Score(scoreCtx, prompt, imgs)
	if err != nil {
		stage := "scoring"
		if errors.Is(err, scoring.ErrTimeout) {
			stage = "timeout"
		} else if errors.Is(err, scoring.ErrUnavailable) {
			stage = "unconfigured"
		}
		r.failJob(job, fmt.Sprintf("scoring failed: %v", err), stage, start)
		return
	}

	// A parse shortfall is not a failure: scoring succeeded even though
	// structuring did not, so the job completes with the raw text retained.
	result := scoring.Parse(raw)

	completedAt := time.Now().UTC()
	if err := job.Complete(result, completedAt); err != nil {
		r.logger.Errorf("job %s: %v", job.JobID, err)
		return
	}
	if err := r.repo.UpdateJob(ctx, job); err != nil {
		r.logger.Errorf("job %s: failed to persist result: %v", job.JobID, err)
		return
	}
	_ = r.redisRepo.SetJobStatus(ctx, job.JobID, models.JobStatusCompleted, statusTTL)
	metrics.RecordJobCompleted(time.Since(start), result.ParseFailed)

	if job.TechniqueHint != "" && job.OverallScore != nil {
		if err := r.aggregator.Update(ctx, job.UserID, job.TechniqueHint, job.StyleHint, *job.OverallScore, job.JobID, completedAt); err != nil {
			r.logger.Errorf("job %s: failed to update progress: %v", job.JobID, err)
		}
	}

	r.logger.Infof("analysis job %s completed in %s (frames: %d, degraded: %v)",
		job.JobID, time.Since(start), job.FramesAnalyzed, result.ParseFailed)
}

// failJob records the failure on the job. Persistence uses a fresh context
// so a canceled worker context cannot strand the job in processing.
func (r *Runner) failJob(job *models.AnalysisJob, message, stage string, started time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := job.Fail(message, time.Now().UTC()); err != nil {
		r.logger.Errorf("job %s: %v", job.JobID, err)
		return
	}
	if err := r.repo.UpdateJob(ctx, job); err != nil {
		r.logger.Errorf("job %s: failed to persist failure: %v", job.JobID, err)
	}
	_ = r.redisRepo.SetJobStatus(ctx, job.JobID, models.JobStatusFailed, statusTTL)
	metrics.RecordJobFailed(stage, time.Since(started))
	r.logger.Warnf("analysis job %s failed at %s: %s", job.JobID, stage, message)
}
