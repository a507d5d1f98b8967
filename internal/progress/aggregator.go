// Package progress maintains the per-(user, technique, style) rolling
// statistical summaries updated on every successful analysis.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dojotrack/technique-analyzer/internal/analysis"
	"github.com/dojotrack/technique-analyzer/internal/models"
	"github.com/dojotrack/technique-analyzer/pkg/logger"
	"github.com/google/uuid"
)

// Aggregator serializes updates per progress key: the aggregate recompute
// reads then writes the full completed-job set for the key, so two
// completions for the same key must not interleave. Different keys proceed
// concurrently.
type Aggregator struct {
	repo   analysis.Repository
	logger logger.Logger

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

func NewAggregator(repo analysis.Repository, log logger.Logger) *Aggregator {
	return &Aggregator{
		repo:     repo,
		logger:   log,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

func (a *Aggregator) lockFor(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		a.keyLocks[key] = lock
	}
	return lock
}

// Update folds one completed analysis into the progress record for
// (userID, technique, style). The caller must have persisted the completed
// job first so the recompute sees it.
func (a *Aggregator) Update(ctx context.Context, userID uuid.UUID, technique, style string, score float64, jobID uuid.UUID, completedAt time.Time) error {
	key := fmt.Sprintf("%s|%s|%s", userID, technique, style)
	lock := a.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	record, err := a.repo.GetProgress(ctx, userID, technique, style)
	if err != nil {
		return fmt.Errorf("failed to load progress record: %w", err)
	}

	if record == nil {
		record = &models.ProgressRecord{
			UserID:        userID,
			TechniqueName: technique,
			Style:         style,
			FirstScore:    score,
			LatestScore:   score,
			BestScore:     score,
			AverageScore:  score,
			TotalAnalyses: 1,
			FirstJobID:    jobID,
			LatestJobID:   jobID,
			FirstDate:     completedAt,
			LatestDate:    completedAt,
		}
		a.logger.Infof("creating progress record for user %s, technique %q, style %q", userID, technique, style)
		return a.repo.UpsertProgress(ctx, record)
	}

	record.LatestScore = score
	record.LatestDate = completedAt
	record.LatestJobID = jobID
	if score > record.BestScore {
		record.BestScore = score
	}

	// The average is recomputed over every completed job for the key rather
	// than nudging a cached running mean; per-key volumes stay small and a
	// full re-read cannot accumulate floating-point drift.
	scores, err := a.repo.ListCompletedScores(ctx, userID, technique, style)
	if err != nil {
		return fmt.Errorf("failed to list completed scores: %w", err)
	}
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		record.AverageScore = sum / float64(len(scores))
		record.TotalAnalyses = len(scores)
	} else {
		record.TotalAnalyses++
	}

	if record.TotalAnalyses > 1 {
		record.ImprovementRate = (record.LatestScore - record.FirstScore) / float64(record.TotalAnalyses-1)
	}

	return a.repo.UpsertProgress(ctx, record)
}
