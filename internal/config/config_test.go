package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSnapshotPath, cfg.Snapshot.Path)
	assert.Equal(t, DefaultTTL, cfg.Store.DefaultTTL)
	assert.Equal(t, time.Duration(0), cfg.Snapshot.CheckpointInterval)
	assert.False(t, cfg.Autosave)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	p := writeConfig(t, `snapshot:
  path: /tmp/custom.json
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.json", cfg.Snapshot.Path)
	assert.Equal(t, DefaultTTL, cfg.Store.DefaultTTL, "unset fields keep defaults")
}

func TestLoad_FullFile(t *testing.T) {
	p := writeConfig(t, `snapshot:
  path: data.json
  checkpoint_interval: 30s
store:
  default_ttl: 1h
autosave: true
log:
  level: debug
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "data.json", cfg.Snapshot.Path)
	assert.Equal(t, 30*time.Second, cfg.Snapshot.CheckpointInterval)
	assert.Equal(t, time.Hour, cfg.Store.DefaultTTL)
	assert.True(t, cfg.Autosave)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative ttl": `store:
  default_ttl: -1s
`,
		"negative interval": `snapshot:
  checkpoint_interval: -5s
`,
		"empty path": `snapshot:
  path: ""
`,
		"unknown level": `log:
  level: loud
`,
		"bad yaml": `store: [`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
