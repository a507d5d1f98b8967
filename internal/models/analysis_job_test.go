package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingJob() *AnalysisJob {
	return &AnalysisJob{
		JobID:     uuid.New(),
		VideoID:   uuid.New(),
		UserID:    uuid.New(),
		VideoKey:  "uploads/u1/clip.mp4",
		Status:    JobStatusPending,
		StartedAt: time.Now().UTC(),
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestAnalysisJob_Lifecycle(t *testing.T) {
	job := newPendingJob()

	require.NoError(t, job.Start())
	assert.Equal(t, JobStatusProcessing, job.Status)

	score := 8.2
	at := time.Now().UTC()
	result := &TechniqueAnalysis{
		OverallScore:  &score,
		TechniqueName: "mae geri",
		Style:         "karate",
		SubScores:     SubScoreMap{"stance_alignment": 8.0},
		Strengths:     []string{"solid base"},
	}
	require.NoError(t, job.Complete(result, at))

	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, at, *job.CompletedAt)
	require.NotNil(t, job.OverallScore)
	assert.Equal(t, 8.2, *job.OverallScore)
	assert.Equal(t, "mae geri", job.TechniqueName)
	assert.Equal(t, []string{"solid base"}, []string(job.Strengths))
}

func TestAnalysisJob_StartRequiresPending(t *testing.T) {
	job := newPendingJob()
	require.NoError(t, job.Start())

	assert.Error(t, job.Start(), "processing job must not restart")

	job.Status = JobStatusCompleted
	assert.Error(t, job.Start())
	job.Status = JobStatusFailed
	assert.Error(t, job.Start())
}

func TestAnalysisJob_CompleteRequiresProcessing(t *testing.T) {
	job := newPendingJob()
	assert.Error(t, job.Complete(&TechniqueAnalysis{}, time.Now()), "pending job cannot complete without starting")
}

func TestAnalysisJob_FailFromPendingAndProcessing(t *testing.T) {
	pending := newPendingJob()
	require.NoError(t, pending.Fail("enqueue failed", time.Now().UTC()))
	assert.Equal(t, JobStatusFailed, pending.Status)
	assert.Equal(t, "enqueue failed", pending.ErrorMessage)
	require.NotNil(t, pending.CompletedAt)

	processing := newPendingJob()
	require.NoError(t, processing.Start())
	require.NoError(t, processing.Fail("scoring timed out", time.Now().UTC()))
	assert.Equal(t, JobStatusFailed, processing.Status)
}

func TestAnalysisJob_TerminalStatesAbsorb(t *testing.T) {
	job := newPendingJob()
	require.NoError(t, job.Start())
	require.NoError(t, job.Complete(&TechniqueAnalysis{ParseFailed: true, RawResponse: "raw"}, time.Now().UTC()))

	assert.Error(t, job.Fail("late failure", time.Now().UTC()))
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMessage)

	failed := newPendingJob()
	require.NoError(t, failed.Fail("first failure", time.Now().UTC()))
	assert.Error(t, failed.Fail("second failure", time.Now().UTC()))
	assert.Equal(t, "first failure", failed.ErrorMessage)
}

func TestAnalysisJob_DegradedResultStillCompletes(t *testing.T) {
	job := newPendingJob()
	require.NoError(t, job.Start())
	require.NoError(t, job.Complete(&TechniqueAnalysis{RawResponse: "not json", ParseFailed: true}, time.Now().UTC()))

	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.True(t, job.ParseFailed)
	assert.Equal(t, "not json", job.RawResponse)
	assert.Nil(t, job.OverallScore)
}

func TestSubScoreMap_ValueAndScan(t *testing.T) {
	m := SubScoreMap{"stance_alignment": 7.5, "speed_power": 6.0}
	v, err := m.Value()
	require.NoError(t, err)

	var got SubScoreMap
	require.NoError(t, got.Scan(v))
	assert.Equal(t, m, got)

	var empty SubScoreMap
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}
