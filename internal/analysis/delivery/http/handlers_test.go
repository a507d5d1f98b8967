package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/dojotrack/technique-analyzer/internal/scoring"
)

type stubUseCase struct {
	submitJob    *models.AnalysisJob
	submitErr    error
	job          *models.AnalysisJob
	jobErr       error
	status       models.JobStatus
	statusErr    error
	summaries    []*models.ProgressSummary
	progressErr  error
	presignURL   string
	presignErr   error
	gotTechnique string
	gotLimit     int
}

func (s *stubUseCase) SubmitAnalysis(ctx context.Context, input *models.SubmitInput) (*models.AnalysisJob, error) {
	return s.submitJob, s.submitErr
}

func (s *stubUseCase) GetJob(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	return s.job, s.jobErr
}

func (s *stubUseCase) GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.JobStatus, error) {
	return s.status, s.statusErr
}

func (s *stubUseCase) ListProgress(ctx context.Context, userID uuid.UUID, technique, style string, recentLimit int) ([]*models.ProgressSummary, error) {
	s.gotTechnique = technique
	s.gotLimit = recentLimit
	return s.summaries, s.progressErr
}

func (s *stubUseCase) GetPresignUpload(ctx context.Context, input *models.UploadInput) (string, error) {
	return s.presignURL, s.presignErr
}

func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSubmitAnalysis_Accepted(t *testing.T) {
	job := &models.AnalysisJob{JobID: uuid.New(), Status: models.JobStatusPending}
	h := NewAnalysisHandler(&stubUseCase{submitJob: job})

	body := fmt.Sprintf(`{"video_id": %q, "user_id": %q, "video_key": "uploads/u1/clip.mp4"}`,
		uuid.New(), uuid.New())
	c, rec := newContext(t, http.MethodPost, "/api/v1/analysis", body)

	require.NoError(t, h.SubmitAnalysis()(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, job.JobID.String(), resp["job_id"])
	assert.Equal(t, "pending", resp["status"])
}

func TestSubmitAnalysis_ScoringUnavailable(t *testing.T) {
	h := NewAnalysisHandler(&stubUseCase{
		submitErr: fmt.Errorf("cannot accept analysis: %w", scoring.ErrUnavailable),
	})

	c, rec := newContext(t, http.MethodPost, "/api/v1/analysis",
		fmt.Sprintf(`{"video_id": %q, "user_id": %q, "video_key": "k"}`, uuid.New(), uuid.New()))

	require.NoError(t, h.SubmitAnalysis()(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmitAnalysis_BadPayload(t *testing.T) {
	h := NewAnalysisHandler(&stubUseCase{})

	c, rec := newContext(t, http.MethodPost, "/api/v1/analysis", `{"video_id": 42}`)

	require.NoError(t, h.SubmitAnalysis()(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob(t *testing.T) {
	job := &models.AnalysisJob{JobID: uuid.New(), Status: models.JobStatusCompleted}
	h := NewAnalysisHandler(&stubUseCase{job: job})

	t.Run("found", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/", "")
		c.SetParamNames("job_id")
		c.SetParamValues(job.JobID.String())

		require.NoError(t, h.GetJob()(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), job.JobID.String())
	})

	t.Run("invalid id", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/", "")
		c.SetParamNames("job_id")
		c.SetParamValues("not-a-uuid")

		require.NoError(t, h.GetJob()(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		missing := NewAnalysisHandler(&stubUseCase{jobErr: fmt.Errorf("job not found")})
		c, rec := newContext(t, http.MethodGet, "/", "")
		c.SetParamNames("job_id")
		c.SetParamValues(uuid.New().String())

		require.NoError(t, missing.GetJob()(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetJobStatus(t *testing.T) {
	h := NewAnalysisHandler(&stubUseCase{status: models.JobStatusProcessing})

	jobID := uuid.New()
	c, rec := newContext(t, http.MethodGet, "/", "")
	c.SetParamNames("job_id")
	c.SetParamValues(jobID.String())

	require.NoError(t, h.GetJobStatus()(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp["status"])
	assert.Equal(t, jobID.String(), resp["job_id"])
}

func TestListProgress(t *testing.T) {
	stub := &stubUseCase{
		summaries: []*models.ProgressSummary{
			{Progress: &models.ProgressRecord{TechniqueName: "front kick", AverageScore: 7.0}},
		},
	}
	h := NewAnalysisHandler(stub)

	userID := uuid.New()
	c, rec := newContext(t, http.MethodGet,
		fmt.Sprintf("/?user_id=%s&technique=front+kick&size=5", userID), "")

	require.NoError(t, h.ListProgress()(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "front kick", stub.gotTechnique)
	assert.Equal(t, 5, stub.gotLimit)
	assert.Contains(t, rec.Body.String(), "front kick")

	c, rec = newContext(t, http.MethodGet, "/?user_id=garbage", "")
	require.NoError(t, h.ListProgress()(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPresignUpload(t *testing.T) {
	h := NewAnalysisHandler(&stubUseCase{presignURL: "https://example.com/upload"})

	c, rec := newContext(t, http.MethodPost, "/",
		fmt.Sprintf(`{"user_id": %q, "filename": "clip.mp4"}`, uuid.New()))

	require.NoError(t, h.GetPresignUpload()(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com/upload")
}
