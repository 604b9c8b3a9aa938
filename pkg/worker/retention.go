package worker

import (
	"context"
	"time"

	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/repository"
)

// RetentionWorker periodically prunes rows older than the retention window.
type RetentionWorker struct {
	repo      repository.Pruner
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewRetentionWorker(repo repository.Pruner, retention, interval time.Duration, logger *logger.Logger) *RetentionWorker {
	return &RetentionWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce prunes once and returns the number of rows removed.
func (w *RetentionWorker) RunOnce(ctx context.Context) int64 {
	cutoff := time.Now().Add(-w.retention)
	n, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "Failed to prune processed events")
		return 0
	}
	if n > 0 {
		w.logger.Info("Pruned processed events", "count", n)
	}
	return n
}
