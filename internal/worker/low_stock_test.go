package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/logger"
)

type fakeSweeper struct {
	calls  atomic.Int32
	alerts []*model.AdminNotification
	err    error
}

func (f *fakeSweeper) CheckLowStock(ctx context.Context) ([]*model.AdminNotification, error) {
	f.calls.Add(1)
	return f.alerts, f.err
}

func TestLowStockWorker_RunOnce(t *testing.T) {
	s := &fakeSweeper{alerts: []*model.AdminNotification{{Title: "Inventory Alert"}, {Title: "Inventory Alert"}}}
	w := NewLowStockWorker(s, time.Minute, logger.Nop())
	assert.Equal(t, 2, w.RunOnce(context.Background()))

	s.err = errors.New("db down")
	assert.Equal(t, 0, w.RunOnce(context.Background()))
}

func TestLowStockWorker_SweepsOnStartAndStops(t *testing.T) {
	s := &fakeSweeper{}
	w := NewLowStockWorker(s, 10*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
