package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	analysisHttp "github.com/dojotrack/technique-analyzer/internal/analysis/delivery/http"
	analysisRepository "github.com/dojotrack/technique-analyzer/internal/analysis/repository"
	analysisUsecase "github.com/dojotrack/technique-analyzer/internal/analysis/usecase"
	"github.com/dojotrack/technique-analyzer/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	aRepo := analysisRepository.NewAnalysisRepo(s.db)
	aRedisRepo := analysisRepository.NewAnalysisRedisRepo(s.redisClient, s.cfg.Redis.StatusPrefix)
	aAWSRepo := analysisRepository.NewAwsRepository(s.s3Client, s.preSignClient)

	analysisUC := analysisUsecase.NewAnalysisUseCase(s.cfg, aRepo, aRedisRepo, aAWSRepo, s.logger)

	analysisHandlers := analysisHttp.NewAnalysisHandler(analysisUC)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	analysisGroup := v1.Group("/analysis")

	analysisHttp.MapAnalysisRoutes(analysisGroup, analysisHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
