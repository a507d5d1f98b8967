package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/models"
)

func setupRedis(t *testing.T) (analysis.RedisRepository, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewAnalysisRedisRepo(client, "analysis:status:"), mr
}

func TestRedisRepo_EnqueueDequeueRoundTrip(t *testing.T) {
	repo, _ := setupRedis(t)
	ctx := context.Background()

	job := &models.AnalysisJob{
		JobID:         uuid.New(),
		VideoID:       uuid.New(),
		UserID:        uuid.New(),
		VideoKey:      "uploads/u1/clip.mp4",
		Status:        models.JobStatusPending,
		StartedAt:     time.Now().UTC().Truncate(time.Second),
		TechniqueHint: "roundhouse kick",
		FrameCount:    10,
	}

	require.NoError(t, repo.EnqueueJob(ctx, "analysis_jobs", job))

	got, err := repo.DequeueJob(ctx, "analysis_jobs", time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.JobID, got.JobID)
	assert.Equal(t, job.VideoKey, got.VideoKey)
	assert.Equal(t, job.TechniqueHint, got.TechniqueHint)
	assert.Equal(t, models.JobStatusPending, got.Status)
}

func TestRedisRepo_DequeueFIFO(t *testing.T) {
	repo, _ := setupRedis(t)
	ctx := context.Background()

	first := &models.AnalysisJob{JobID: uuid.New(), Status: models.JobStatusPending}
	second := &models.AnalysisJob{JobID: uuid.New(), Status: models.JobStatusPending}
	require.NoError(t, repo.EnqueueJob(ctx, "analysis_jobs", first))
	require.NoError(t, repo.EnqueueJob(ctx, "analysis_jobs", second))

	got, err := repo.DequeueJob(ctx, "analysis_jobs", time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.JobID, got.JobID, "oldest submission is processed first")
}

func TestRedisRepo_DequeueEmptyQueue(t *testing.T) {
	repo, mr := setupRedis(t)

	// miniredis does not advance blocking-pop deadlines on its own.
	go func() {
		time.Sleep(20 * time.Millisecond)
		mr.FastForward(time.Second)
	}()

	got, err := repo.DequeueJob(context.Background(), "analysis_jobs", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisRepo_JobStatus(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()
	jobID := uuid.New()

	require.NoError(t, repo.SetJobStatus(ctx, jobID, models.JobStatusProcessing, time.Minute))

	status, err := repo.GetJobStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, status)

	mr.FastForward(2 * time.Minute)
	_, err = repo.GetJobStatus(ctx, jobID)
	assert.Error(t, err, "expired status entries are gone")

	_, err = repo.GetJobStatus(ctx, uuid.New())
	assert.Error(t, err, "unknown job has no cached status")
}
