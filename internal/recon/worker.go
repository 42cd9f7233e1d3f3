package recon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/minthive/nft-market/internal/infrastructure/observability"
)

// Job is one reconciliation cycle. Implemented by Reconciler.
type Job interface {
	Tick(ctx context.Context) error
}

// Worker drives a Job on a fixed interval. At most one tick runs at a time;
// a timer fire that lands while a tick is still in flight is skipped, not
// queued. A failed or panicking tick is logged and the schedule continues.
type Worker struct {
	job      Job
	interval time.Duration
	inFlight atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

func NewWorker(job Job, interval time.Duration) *Worker {
	return &Worker{
		job:      job,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start() {
	slog.Info("reconciliation worker started", "interval", w.interval)
	go w.loop()
}

func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
	slog.Info("reconciliation worker stopped")
}

func (w *Worker) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.RunTick(context.Background())
		}
	}
}

// RunTick executes one guarded tick. It reports false when a tick was already
// in flight and this one was skipped.
func (w *Worker) RunTick(ctx context.Context) bool {
	if !w.inFlight.CompareAndSwap(false, true) {
		slog.Warn("previous reconciliation tick still running, skipping")
		observability.ReconTicks.WithLabelValues("skipped").Inc()
		return false
	}
	defer w.inFlight.Store(false)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("reconciliation tick panicked", "panic", rec)
			observability.ReconTicks.WithLabelValues("error").Inc()
		}
	}()

	start := time.Now()
	if err := w.job.Tick(ctx); err != nil {
		slog.Error("reconciliation tick failed", "error", err, "duration", time.Since(start))
		observability.ReconTicks.WithLabelValues("error").Inc()
		return true
	}
	observability.ReconTicks.WithLabelValues("success").Inc()
	return true
}
