package http

import (
	"errors"
	"net/http"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/dojotrack/technique-analyzer/internal/scoring"
	"github.com/dojotrack/technique-analyzer/pkg/utils"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type analysisHandler struct {
	analysisUC analysis.UseCase
}

func NewAnalysisHandler(analysisUC analysis.UseCase) analysis.Handlers {
	return &analysisHandler{
		analysisUC: analysisUC,
	}
}

func (h *analysisHandler) SubmitAnalysis() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.SubmitInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.analysisUC.SubmitAnalysis(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, scoring.ErrUnavailable) {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		// The job runs in the background; callers poll with the returned id.
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"job_id": job.JobID,
			"status": job.Status,
		})
	}
}

func (h *analysisHandler) GetJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		job, err := h.analysisUC.GetJob(c.Request().Context(), jobID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *analysisHandler) GetJobStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := uuid.Parse(c.Param("job_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		status, err := h.analysisUC.GetJobStatus(c.Request().Context(), jobID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"job_id": jobID.String(), "status": string(status)})
	}
}

func (h *analysisHandler) ListProgress() echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := uuid.Parse(c.QueryParam("user_id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid user id"})
		}
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		summaries, err := h.analysisUC.ListProgress(
			c.Request().Context(),
			userID,
			c.QueryParam("technique"),
			c.QueryParam("style"),
			pagination.GetSize(),
		)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, summaries)
	}
}

func (h *analysisHandler) GetPresignUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.UploadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		presignUrl, err := h.analysisUC.GetPresignUpload(c.Request().Context(), input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"presignUrl": presignUrl})
	}
}
