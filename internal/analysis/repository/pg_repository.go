package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolationCode = "23505"

type analysisRepo struct {
	db *sqlx.DB
}

func NewAnalysisRepo(db *sqlx.DB) analysis.Repository {
	return &analysisRepo{
		db: db,
	}
}

func (r *analysisRepo) CreateJob(ctx context.Context, job *models.AnalysisJob) (*models.AnalysisJob, error) {
	created := &models.AnalysisJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.JobID,
		job.VideoID,
		job.UserID,
		job.VideoKey,
		job.Status,
		job.StartedAt,
		job.TechniqueHint,
		job.StyleHint,
		job.ModelID,
		job.FrameCount,
	).StructScan(created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, analysis.ErrActiveJobExists
		}
		return nil, fmt.Errorf("failed to create analysis job: %w", err)
	}
	return created, nil
}

func (r *analysisRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	job := &models.AnalysisJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		getJobByIDQuery,
		jobID,
	).StructScan(job); err != nil {
		return nil, fmt.Errorf("failed to get analysis job by id: %w", err)
	}
	return job, nil
}

func (r *analysisRepo) GetActiveJob(ctx context.Context, videoID, userID uuid.UUID) (*models.AnalysisJob, error) {
	job := &models.AnalysisJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		getActiveJobQuery,
		videoID,
		userID,
	).StructScan(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active job: %w", err)
	}
	return job, nil
}

func (r *analysisRepo) UpdateJob(ctx context.Context, job *models.AnalysisJob) error {
	res, err := r.db.ExecContext(
		ctx,
		updateJobQuery,
		job.JobID,
		job.Status,
		job.CompletedAt,
		job.FramesAnalyzed,
		job.OverallScore,
		job.TechniqueName,
		job.Style,
		job.SubScores,
		job.Strengths,
		job.Improvements,
		job.Tips,
		job.SafetyNotes,
		job.NextSteps,
		job.RawResponse,
		job.ParseFailed,
		job.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis job: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return fmt.Errorf("no analysis job found to update")
	}
	return nil
}

func (r *analysisRepo) ListCompletedScores(ctx context.Context, userID uuid.UUID, technique, style string) ([]float64, error) {
	var scores []float64
	if err := r.db.SelectContext(
		ctx,
		&scores,
		listCompletedScoresQuery,
		userID,
		technique,
		style,
	); err != nil {
		return nil, fmt.Errorf("failed to list completed scores: %w", err)
	}
	return scores, nil
}

func (r *analysisRepo) ListRecentCompletedJobs(ctx context.Context, userID uuid.UUID, technique, style string, limit int) ([]*models.AnalysisJob, error) {
	rows, err := r.db.QueryxContext(
		ctx,
		listRecentCompletedJobsQuery,
		userID,
		technique,
		style,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent completed jobs: %w", err)
	}
	defer rows.Close()
	jobs := make([]*models.AnalysisJob, 0, limit)
	for rows.Next() {
		var job models.AnalysisJob
		if err = rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("failed to scan analysis job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan analysis jobs: %w", err)
	}
	return jobs, nil
}

func (r *analysisRepo) GetProgress(ctx context.Context, userID uuid.UUID, technique, style string) (*models.ProgressRecord, error) {
	record := &models.ProgressRecord{}
	if err := r.db.QueryRowxContext(
		ctx,
		getProgressQuery,
		userID,
		technique,
		style,
	).StructScan(record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}
	return record, nil
}

func (r *analysisRepo) ListProgress(ctx context.Context, userID uuid.UUID) ([]*models.ProgressRecord, error) {
	rows, err := r.db.QueryxContext(
		ctx,
		listProgressQuery,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records: %w", err)
	}
	defer rows.Close()
	var records []*models.ProgressRecord
	for rows.Next() {
		var record models.ProgressRecord
		if err = rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		records = append(records, &record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan progress records: %w", err)
	}
	return records, nil
}

func (r *analysisRepo) UpsertProgress(ctx context.Context, record *models.ProgressRecord) error {
	if _, err := r.db.ExecContext(
		ctx,
		upsertProgressQuery,
		record.UserID,
		record.TechniqueName,
		record.Style,
		record.FirstScore,
		record.LatestScore,
		record.BestScore,
		record.AverageScore,
		record.TotalAnalyses,
		record.ImprovementRate,
		record.FirstJobID,
		record.LatestJobID,
		record.FirstDate,
		record.LatestDate,
	); err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}
	return nil
}
