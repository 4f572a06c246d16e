package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"snapkv/internal/logs"
	"snapkv/internal/metrics"
	"snapkv/internal/store"
)

// ErrCorrupt wraps parse failures on load. The caller decides whether
// to abort or start empty; the codec only reports.
var ErrCorrupt = errors.New("corrupt snapshot")

// record is the on-disk shape of one entry: the scalar value plus an
// absolute expiry in epoch seconds, or null for "never expires".
// Epoch seconds survive restarts without timezone or monotonic-clock
// ambiguity.
type record struct {
	Value     store.Value `json:"value"`
	ExpiresAt *int64      `json:"expires_at"`
}

// Codec converts store state to and from a JSON snapshot file. The
// store never touches the file itself; the codec owns the path.
type Codec struct {
	path    string
	now     func() time.Time
	logger  *logs.Logger
	metrics *metrics.Registry
}

// NewCodec creates a codec bound to the given snapshot path.
func NewCodec(path string, logger *logs.Logger, metricsRegistry *metrics.Registry) *Codec {
	return &Codec{
		path:    path,
		now:     time.Now,
		logger:  logger,
		metrics: metricsRegistry,
	}
}

// WithClock overrides the wall clock. Intended for tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Path returns the snapshot file path the codec writes to.
func (c *Codec) Path() string {
	return c.path
}

// Save serializes the store's live entries to the snapshot file. The
// traversal purges expired entries, so dead data is never written out.
//
// The snapshot is written to a temp file in the target directory and
// renamed into place, so on failure the prior file survives intact and
// on success it is replaced whole. The store itself is unaffected by a
// failed save.
func (c *Codec) Save(st *store.Store) error {
	records := make(map[string]record)
	for key, entry := range st.All() {
		r := record{Value: entry.Value}
		if !entry.ExpiresAt.IsZero() {
			at := entry.ExpiresAt.Unix()
			r.ExpiresAt = &at
		}
		records[key] = r
	}

	data, err := json.Marshal(records)
	if err != nil {
		c.metrics.Inc(metrics.SnapshotSaveFailuresTotal)
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		c.metrics.Inc(metrics.SnapshotSaveFailuresTotal)
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		c.metrics.Inc(metrics.SnapshotSaveFailuresTotal)
		return fmt.Errorf("snapshot: write %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		c.metrics.Inc(metrics.SnapshotSaveFailuresTotal)
		return fmt.Errorf("snapshot: close %q: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		c.metrics.Inc(metrics.SnapshotSaveFailuresTotal)
		return fmt.Errorf("snapshot: replace %q: %w", c.path, err)
	}

	c.metrics.Inc(metrics.SnapshotSavesTotal)
	c.logger.Debug("snapshot saved", "path", c.path, "keys", len(records))
	return nil
}

// Load parses the snapshot file and returns its live contents.
//
// - A missing file means "no prior state": an empty result, no error.
// - Entries whose expiry already passed are dropped, never resurrected.
// - An unparseable file fails with an error wrapping ErrCorrupt.
func (c *Codec) Load() (map[string]store.Entry, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Info("no snapshot found, starting fresh", "path", c.path)
		return map[string]store.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %q: %w", c.path, err)
	}

	var records map[string]record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("snapshot: parse %q: %w: %w", c.path, ErrCorrupt, err)
	}

	now := c.now()
	entries := make(map[string]store.Entry, len(records))
	dropped := 0

	for key, r := range records {
		entry := store.Entry{Value: r.Value}
		if r.ExpiresAt != nil {
			entry.ExpiresAt = time.Unix(*r.ExpiresAt, 0)
			if entry.IsExpired(now) {
				dropped++
				continue
			}
		}
		entries[key] = entry
	}

	c.metrics.Inc(metrics.SnapshotLoadsTotal)
	if dropped > 0 {
		c.metrics.Add(metrics.SnapshotDroppedExpiredTotal, int64(dropped))
	}
	c.logger.Debug("snapshot loaded", "path", c.path, "keys", len(entries), "dropped", dropped)
	return entries, nil
}
