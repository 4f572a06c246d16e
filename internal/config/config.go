package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the configuration.
const (
	DefaultSnapshotPath = "snapkv_dump.json"
	// One year: long but finite, so abandoned keys eventually fall out
	// of the snapshot.
	DefaultTTL      = 365 * 24 * time.Hour
	DefaultLogLevel = "info"
)

// Config holds the settings parsed from the config file. Everything
// here is fixed at startup; nothing is runtime-mutable.
type Config struct {
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Store    StoreConfig    `yaml:"store"`

	// Autosave is the starting state of the autosave flag. The flag
	// itself lives in the process and is flipped with
	// ENABLE_AUTOSAVE / DISABLE_AUTOSAVE.
	Autosave bool `yaml:"autosave"`

	Log LogConfig `yaml:"log"`
}

// SnapshotConfig controls where and how often snapshots are written.
type SnapshotConfig struct {
	// Path is the snapshot file location (default "snapkv_dump.json").
	Path string `yaml:"path"`

	// CheckpointInterval is how often the periodic checkpointer writes
	// a snapshot of a changed store. 0 disables periodic checkpoints;
	// explicit SAVE and autosave are unaffected.
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// StoreConfig controls store behavior.
type StoreConfig struct {
	// DefaultTTL applies to SET commands that give no ttl.
	// 0 means such keys never expire.
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// Load reads and parses the config file at path. Missing fields are
// filled with defaults before validation. An empty path skips the file
// read and returns pure defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Path: DefaultSnapshotPath,
		},
		Store: StoreConfig{
			DefaultTTL: DefaultTTL,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path must not be empty")
	}
	if cfg.Snapshot.CheckpointInterval < 0 {
		return fmt.Errorf("snapshot.checkpoint_interval must not be negative")
	}
	if cfg.Store.DefaultTTL < 0 {
		return fmt.Errorf("store.default_ttl must not be negative")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
