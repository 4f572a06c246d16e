package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-config", "c.yaml", "-snapshot", "s.json", "-default-ttl", "30"})
	require.NoError(t, err)

	assert.Equal(t, "c.yaml", opts.configPath)
	assert.Equal(t, "s.json", opts.snapshotPath)
	assert.Equal(t, float64(30), opts.defaultTTLSec)
	assert.False(t, opts.showVersion)
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, "", opts.configPath)
	assert.Equal(t, float64(-1), opts.defaultTTLSec, "-1 means defer to the config file")
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := parseFlags([]string{"-bogus"})
	assert.Error(t, err)
}

func TestParseFlags_NegativeTTLRejected(t *testing.T) {
	_, err := parseFlags([]string{"-default-ttl", "-5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")

	// The sentinel itself stays valid.
	opts, err := parseFlags([]string{"-default-ttl", "-1"})
	require.NoError(t, err)
	assert.Equal(t, float64(-1), opts.defaultTTLSec)
}
