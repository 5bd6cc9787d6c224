package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLEDsFromConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("strip:\n  leds: 30\n  gpio: 21\n"), 0644))

	cfg, _, err := parse([]string{"-config", p})
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Strip.LEDs)
	assert.Equal(t, 21, cfg.Strip.GPIO)

	cfg, opts, err := parse([]string{"-config", p, "-n", "5", "-follow"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Strip.LEDs)
	assert.Equal(t, 21, cfg.Strip.GPIO)
	assert.True(t, opts.follow)
}

func TestLEDsWithoutConfigFile(t *testing.T) {
	cfg, opts, err := parse([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml"), "-fifo", "/tmp/frames"})
	require.NoError(t, err)
	assert.Equal(t, defaultLEDs, cfg.Strip.LEDs)
	assert.Equal(t, "/tmp/frames", cfg.Receiver.FIFO)
	assert.False(t, opts.follow)
}
