package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadAndCurrent(t *testing.T) {
	path := writeConfig(t, "budget: 10\n")
	loader, err := NewLoader(path, nil)
	require.NoError(t, err)
	defer loader.Close()

	assert.Nil(t, loader.Current())

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Budget)
	assert.Same(t, cfg, loader.Current())

	// A broken file keeps the previous configuration.
	require.NoError(t, os.WriteFile(path, []byte("budget: -3\n"), 0o644))
	_, err = loader.Load()
	require.Error(t, err)
	assert.Same(t, cfg, loader.Current())
}

func TestLoader_Watch(t *testing.T) {
	path := writeConfig(t, "budget: 1\n")
	loader, err := NewLoader(path, nil)
	require.NoError(t, err)
	defer loader.Close()

	changes := make(chan *Config, 4)
	require.NoError(t, loader.Watch(func(cfg *Config) { changes <- cfg }))

	require.NoError(t, os.WriteFile(path, []byte("budget: 25\n"), 0o644))

	// A single save may surface as several events; wait for the final content.
	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case cfg := <-changes:
			done = cfg.Budget == 25
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
	assert.Equal(t, 25, loader.Current().Budget)

	assert.NoError(t, loader.Close())
	assert.NoError(t, loader.Close())
}
