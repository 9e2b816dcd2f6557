package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/sparkreply/internal/metrics"
	"go.uber.org/zap"
)

const defaultSweepTimeout = 2 * time.Minute

// SweepConfig controls how often dead-lettered persistence jobs are dropped
type SweepConfig struct {
	Interval  time.Duration
	Retention time.Duration
	// Timeout bounds one sweep; zero means two minutes
	Timeout time.Duration
}

// GarbageCollector drops dead-lettered jobs older than the retention window. Failed
// persistence jobs are never replayed, so the DLQ only serves inspection.
type GarbageCollector struct {
	purger  DLQPurger
	cfg     SweepConfig
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewGarbageCollector creates a collector. purger may be nil, in which case sweeps are no-ops.
func NewGarbageCollector(purger DLQPurger, cfg SweepConfig, logger *zap.Logger, m *metrics.Collector) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSweepTimeout
	}
	return &GarbageCollector{purger: purger, cfg: cfg, logger: logger, metrics: m}
}

// Start sweeps once, then on every interval until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gc.sweepAndLog(ctx)

	ticker := time.NewTicker(gc.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.sweepAndLog(ctx)
		}
	}
}

func (gc *GarbageCollector) sweepAndLog(ctx context.Context) {
	if _, err := gc.sweep(ctx); err != nil {
		gc.logger.Warn("dlq_sweep_failed", zap.Error(err))
	}
}

// sweep returns the number of dead-lettered jobs dropped
func (gc *GarbageCollector) sweep(ctx context.Context) (int, error) {
	if gc.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, gc.cfg.Timeout)
	defer cancel()

	n, err := gc.purger.PurgeOlderThan(ctx, gc.cfg.Retention)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep dead-letter queue: %w", err)
	}
	if n > 0 {
		gc.metrics.RecordDLQPurge(n)
		gc.logger.Info("dlq_jobs_dropped", zap.Int("jobs", n), zap.Duration("retention", gc.cfg.Retention))
	}
	return n, nil
}
