package autosave

import (
	"context"
	"time"

	"snapkv/internal/logs"
	"snapkv/internal/metrics"
	"snapkv/internal/store"
)

// Checkpointer periodically snapshots the store, independent of the
// autosave flag. A tick that finds the store unchanged since the last
// checkpoint skips the write.
type Checkpointer struct {
	st       *store.Store
	saver    Saver
	interval time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry

	lastGen uint64
}

// NewCheckpointer creates a new Checkpointer.
func NewCheckpointer(
	st *store.Store,
	saver Saver,
	interval time.Duration,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Checkpointer {
	return &Checkpointer{
		st:       st,
		saver:    saver,
		interval: interval,
		logger:   logger,
		metrics:  metricsRegistry,
		lastGen:  st.Generation(),
	}
}

// Start runs the checkpoint loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (c *Checkpointer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runOnce()
		case <-ctx.Done():
			c.logger.Debug("checkpointer stopped")
			return
		}
	}
}

// runOnce performs a single checkpoint cycle.
func (c *Checkpointer) runOnce() {
	c.metrics.Inc(metrics.CheckpointRunsTotal)

	gen := c.st.Generation()
	if gen == c.lastGen {
		c.metrics.Inc(metrics.CheckpointSkippedTotal)
		return
	}

	if err := c.saver.Save(c.st); err != nil {
		c.logger.Warn("snapshot save failed", "path", c.saver.Path(), "error", err.Error())
		return
	}

	c.lastGen = gen
	c.logger.Info("checkpoint written", "path", c.saver.Path())
}
