package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Store
	StoreKeysTotal    MetricKey = "store_keys_total"
	StoreSetsTotal    MetricKey = "store_sets_total"
	StoreGetsTotal    MetricKey = "store_gets_total"
	StoreMissesTotal  MetricKey = "store_misses_total"
	StoreExpiredTotal MetricKey = "store_expired_total"
	StoreDeletesTotal MetricKey = "store_deletes_total"

	// Snapshot
	SnapshotSavesTotal          MetricKey = "snapshot_saves_total"
	SnapshotSaveFailuresTotal   MetricKey = "snapshot_save_failures_total"
	SnapshotLoadsTotal          MetricKey = "snapshot_loads_total"
	SnapshotDroppedExpiredTotal MetricKey = "snapshot_dropped_expired_total"

	// Autosave
	AutosaveCommitsTotal   MetricKey = "autosave_commits_total"
	CheckpointRunsTotal    MetricKey = "checkpoint_runs_total"
	CheckpointSkippedTotal MetricKey = "checkpoint_skipped_total"
)

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	var val int64
	r.counters[key] = &val
	atomic.AddInt64(&val, delta)
}
