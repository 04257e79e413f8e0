// Package watch runs the periodic, skippable pool/rate refresh loop.
// The loop only reads; it never joins a flow's nonce sequence.
package watch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fyDesk/internal/metrics"
	"fyDesk/internal/pool"
	"fyDesk/internal/rates"
)

// Config holds refresh loop settings.
type Config struct {
	Market       string
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Watcher refreshes the price/rate surface for one market.
type Watcher struct {
	cfg     Config
	guard   *pool.Guard
	calc    *rates.Calculator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New builds a watcher.
func New(cfg Config, guard *pool.Guard, calc *rates.Calculator, m *metrics.Metrics, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Watcher{cfg: cfg, guard: guard, calc: calc, metrics: m, logger: logger}
}

// Run refreshes on every tick until the context is cancelled. A slow
// refresh skips ticks rather than stacking iterations.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	var snapshot *pool.Snapshot
	err := w.readWithRetry(ctx, "snapshot", func(ctx context.Context) error {
		var err error
		snapshot, err = w.guard.Snapshot(ctx)
		return err
	})
	if err != nil {
		w.logger.Warn("snapshot refresh failed", zap.Error(err))
		w.metrics.RefreshErrors.WithLabelValues(w.cfg.Market).Inc()
		return
	}

	delta := pool.PendingDelta(snapshot)
	dirty := 0.0
	if !delta.Clean() {
		dirty = 1.0
		w.logger.Warn("pool dirty", zap.String("delta", delta.String()))
	}
	w.metrics.PoolDirty.WithLabelValues(w.cfg.Market).Set(dirty)

	quote := w.calc.Quote(ctx, snapshot)
	if quote.Price != nil {
		w.metrics.SpotPrice.WithLabelValues(w.cfg.Market).Set(metrics.WadToFloat(quote.Price))
	}
	if quote.Status == rates.StatusOK {
		w.metrics.AnnualRate.WithLabelValues(w.cfg.Market).Set(metrics.WadToFloat(quote.Rate))
		w.metrics.RateAvailable.WithLabelValues(w.cfg.Market).Set(1)
	} else {
		w.metrics.RateAvailable.WithLabelValues(w.cfg.Market).Set(0)
		w.logger.Info("rate unavailable", zap.String("reason", quote.Status.String()))
	}
	w.metrics.Refreshes.WithLabelValues(w.cfg.Market).Inc()
}

// readWithRetry runs a chain read up to MaxRetries extra times with
// exponential backoff. Reads only; submissions are never retried here.
func (w *Watcher) readWithRetry(ctx context.Context, label string, fn func(context.Context) error) error {
	backoff := w.cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	retries := w.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}
		w.logger.Warn("read failed, backing off",
			zap.String("read", label),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}
