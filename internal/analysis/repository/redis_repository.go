package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type analysisRedisRepo struct {
	redisClient  *redis.Client
	statusPrefix string
}

func NewAnalysisRedisRepo(redisClient *redis.Client, statusPrefix string) analysis.RedisRepository {
	if statusPrefix == "" {
		statusPrefix = "analysis:status:"
	}
	return &analysisRedisRepo{
		redisClient:  redisClient,
		statusPrefix: statusPrefix,
	}
}

func (r *analysisRedisRepo) EnqueueJob(ctx context.Context, key string, job *models.AnalysisJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return r.redisClient.LPush(ctx, key, data).Err()
}

func (r *analysisRedisRepo) DequeueJob(ctx context.Context, key string, timeout time.Duration) (*models.AnalysisJob, error) {
	res, err := r.redisClient.BRPop(ctx, timeout, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	job := &models.AnalysisJob{}
	if err = json.Unmarshal([]byte(res[1]), job); err != nil {
		return nil, fmt.Errorf("error unmarshalling job: %w", err)
	}
	return job, nil
}

func (r *analysisRedisRepo) SetJobStatus(ctx context.Context, jobID uuid.UUID, status models.JobStatus, ttl time.Duration) error {
	if err := r.redisClient.Set(ctx, r.statusPrefix+jobID.String(), string(status), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set job status: %w", err)
	}
	return nil
}

func (r *analysisRedisRepo) GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error) {
	status, err := r.redisClient.Get(ctx, r.statusPrefix+jobID.String()).Result()
	if err != nil {
		return "", fmt.Errorf("failed to get job status: %w", err)
	}
	return models.JobStatus(status), nil
}
