package http

import (
	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/labstack/echo/v4"
)

func MapAnalysisRoutes(group *echo.Group, h analysis.Handlers) {
	group.POST("", h.SubmitAnalysis())
	group.GET("/progress", h.ListProgress())
	group.POST("/presign", h.GetPresignUpload())
	group.GET("/:job_id", h.GetJob())
	group.GET("/:job_id/status", h.GetJobStatus())
}
