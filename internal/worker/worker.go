package worker

import (
	"context"
	"sync"
	"time"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/config"
	"github.com/dojotrack/technique-analyzer/pkg/logger"
	"github.com/dojotrack/technique-analyzer/pkg/metrics"
	"github.com/dojotrack/technique-analyzer/pkg/utils"
)

// Worker runs a bounded pool of goroutines draining the analysis queue.
// Each goroutine blocks on the queue with a poll timeout so shutdown is
// observed within one interval.
type Worker struct {
	cfg       *config.Config
	logger    logger.Logger
	redisRepo analysis.RedisRepository
	runner    *Runner
	wg        sync.WaitGroup
}

func NewWorker(cfg *config.Config, log logger.Logger, redisRepo analysis.RedisRepository, runner *Runner) *Worker {
	return &Worker{
		cfg:       cfg,
		logger:    log,
		redisRepo: redisRepo,
		runner:    runner,
	}
}

func (w *Worker) Start(ctx context.Context) {
	count := w.cfg.Worker.WorkerCount
	if count <= 0 {
		count = 1
	}
	w.logger.Infof("starting %d analysis workers", count)
	for i := 0; i < count; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
}

// Wait blocks until every worker goroutine has drained and exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	poll := time.Duration(w.cfg.Worker.PollIntervalSeconds) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("worker %d shutting down", id)
			return
		default:
		}

		if w.cfg.Worker.MaxCPUUsage > 0 {
			if ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
				w.logger.Warnf("worker %d: CPU usage %.1f%% above limit, backing off", id, usage)
				w.sleep(ctx, poll)
				continue
			}
		}

		job, err := w.redisRepo.DequeueJob(ctx, w.cfg.Redis.JobQueueKey, poll)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Errorf("worker %d: failed to dequeue job: %v", id, err)
			w.sleep(ctx, poll)
			continue
		}
		if job == nil {
			continue
		}

		w.runner.Run(ctx, job)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
