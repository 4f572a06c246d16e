package autosave

import (
	"snapkv/internal/logs"
	"snapkv/internal/metrics"
	"snapkv/internal/store"
)

// Saver is the minimal persistence contract the controller needs.
// This keeps the controller decoupled from the concrete codec.
type Saver interface {
	Save(*store.Store) error
	Path() string
}

// Controller is the process-wide autosave toggle. When enabled, every
// successful mutation is followed by a snapshot save through Commit.
type Controller struct {
	enabled bool
	saver   Saver
	logger  *logs.Logger
	metrics *metrics.Registry
}

// NewController creates a controller. The flag starts disabled.
func NewController(saver Saver, logger *logs.Logger, metricsRegistry *metrics.Registry) *Controller {
	return &Controller{
		saver:   saver,
		logger:  logger,
		metrics: metricsRegistry,
	}
}

// Enable turns autosave on. Idempotent.
func (c *Controller) Enable() {
	c.enabled = true
	c.logger.Info("autosave enabled", "path", c.saver.Path())
}

// Disable turns autosave off. Idempotent.
func (c *Controller) Disable() {
	c.enabled = false
	c.logger.Info("autosave disabled")
}

// Enabled reports the current flag state.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// Commit persists the store after a mutation when autosave is on.
//
// A failed save is reported to the caller but the mutation that
// triggered it stands: the in-memory state is the source of truth and
// persistence is best-effort.
func (c *Controller) Commit(st *store.Store) error {
	if !c.enabled {
		return nil
	}

	c.metrics.Inc(metrics.AutosaveCommitsTotal)

	if err := c.saver.Save(st); err != nil {
		c.logger.Warn("snapshot save failed", "path", c.saver.Path(), "error", err.Error())
		return err
	}
	return nil
}
