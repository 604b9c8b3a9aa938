package worker

import (
	"context"
	"time"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/logger"
)

// Sweeper raises admin alerts for items at or below the low stock threshold.
type Sweeper interface {
	CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error)
}

// LowStockWorker runs the low stock sweep on a fixed interval so alerts are
// raised even when no stock changes through the API.
type LowStockWorker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *logger.Logger
}

func NewLowStockWorker(sweeper Sweeper, interval time.Duration, logger *logger.Logger) *LowStockWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &LowStockWorker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

func (w *LowStockWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps once and returns the number of alerts raised.
func (w *LowStockWorker) RunOnce(ctx context.Context) int {
	alerts, err := w.sweeper.CheckLowStock(ctx)
	if err != nil {
		w.logger.Error(err, "Low stock sweep failed")
		return 0
	}
	if len(alerts) > 0 {
		w.logger.Info("Raised low stock alerts", "count", len(alerts))
	}
	return len(alerts)
}
