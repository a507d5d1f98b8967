package analysis

import "github.com/labstack/echo/v4"

type Handlers interface {
	SubmitAnalysis() echo.HandlerFunc
	GetJob() echo.HandlerFunc
	GetJobStatus() echo.HandlerFunc
	ListProgress() echo.HandlerFunc
	GetPresignUpload() echo.HandlerFunc
}
