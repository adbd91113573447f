package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	fs := Flags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "retain", cfg.ManagedDir)
	assert.Equal(t, 4, cfg.RolloverHours)
	assert.Equal(t, 30, cfg.DefaultPriority)
	assert.Equal(t, 100, cfg.QueueLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4*time.Hour, cfg.RolloverOffset())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"managed_dir: custom\ndefault_priority: 20\nrollover_hours: 2\n"), 0o644))

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", path}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.ManagedDir)
	assert.Equal(t, 20, cfg.DefaultPriority)
	assert.Equal(t, 2*time.Hour, cfg.RolloverOffset())
	assert.Equal(t, 100, cfg.QueueLimit, "unset keys keep their defaults")
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue_limit: 10\n"), 0o644))

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", path, "--queue_limit", "5"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.QueueLimit)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))
	t.Setenv("RETAIN_LOG_LEVEL", "debug")

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", path}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"priority below range", []string{"--default_priority", "5"}},
		{"priority above range", []string{"--default_priority", "60"}},
		{"bad log level", []string{"--log_level", "loud"}},
		{"zero queue limit", []string{"--queue_limit", "0"}},
		{"rollover past a day", []string{"--rollover_hours", "25"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fs := Flags()
			require.NoError(t, fs.Parse(c.args))
			_, err := Load(fs)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--config", "/no/such/file.yaml"}))
	_, err := Load(fs)
	require.Error(t, err)
}
