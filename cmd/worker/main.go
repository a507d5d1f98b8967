package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dojotrack/technique-analyzer/internal/analysis/repository"
	"github.com/dojotrack/technique-analyzer/internal/config"
	"github.com/dojotrack/technique-analyzer/internal/frames"
	"github.com/dojotrack/technique-analyzer/internal/progress"
	"github.com/dojotrack/technique-analyzer/internal/scoring"
	"github.com/dojotrack/technique-analyzer/internal/worker"
	"github.com/dojotrack/technique-analyzer/pkg/db/aws"
	"github.com/dojotrack/technique-analyzer/pkg/db/postgres"
	clientRedis "github.com/dojotrack/technique-analyzer/pkg/db/redis"
	"github.com/dojotrack/technique-analyzer/pkg/logger"
)

func main() {
	log.Println("Starting analysis worker")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	defer redisClient.Close()
	appLogger.Infof("redis connected")

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not connect to s3: %s", err)
	}

	repo := repository.NewAnalysisRepo(psqlDB)
	redisRepo := repository.NewAnalysisRedisRepo(redisClient, cfg.Redis.StatusPrefix)
	awsRepo := repository.NewAwsRepository(s3Client, presignClient)

	sampler := frames.NewFFmpegSampler(appLogger)
	scorer := scoring.NewVisionClient(cfg.Scoring)
	aggregator := progress.NewAggregator(repo, appLogger)
	runner := worker.NewRunner(cfg, repo, redisRepo, awsRepo, sampler, scorer, aggregator, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Worker.MetricsPort != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			appLogger.Infof("metrics listening on %s", cfg.Worker.MetricsPort)
			if err := http.ListenAndServe(cfg.Worker.MetricsPort, mux); err != nil {
				appLogger.Errorf("metrics server: %v", err)
			}
		}()
	}

	pool := worker.NewWorker(cfg, appLogger, redisRepo, runner)
	pool.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Infof("shutting down workers")
	cancel()
	pool.Wait()
	appLogger.Infof("workers stopped")
}
