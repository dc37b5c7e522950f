package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Should fall back to defaults when the file is missing", func(t *testing.T) {
		home := t.TempDir()
		cfg, err := load(filepath.Join(home, "nope.toml"), home, false)
		require.NoError(t, err)
		assert.Equal(t, DefaultDateLayouts, cfg.DateLayouts)
		assert.Equal(t, "UTC", cfg.Timezone)
		assert.Equal(t, "seconds", cfg.PlainNumberUnit)
		assert.Equal(t, filepath.Join(home, ".moonwatch-rs", "log"), cfg.MoonwatchDir)
	})

	t.Run("Should override defaults from the file", func(t *testing.T) {
		home := t.TempDir()
		path := writeConfig(t, `
date_layouts = ["02/01/2006"]
timezone = "Europe/Prague"
plain_number_unit = "minutes"
idle_cutoff = "5m"
moonwatch_dir = "~/logs/moonwatch"
log_level = "debug"
log_json = true
`)
		cfg, err := load(path, home, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"02/01/2006"}, cfg.DateLayouts)
		assert.Equal(t, "minutes", cfg.PlainNumberUnit)
		assert.Equal(t, filepath.Join(home, "logs", "moonwatch"), cfg.MoonwatchDir)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.LogJSON)

		loc, err := cfg.Location()
		require.NoError(t, err)
		assert.Equal(t, "Europe/Prague", loc.String())

		idle, err := cfg.IdleCutoffDuration()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, idle)
	})

	t.Run("Should require an explicit file to exist", func(t *testing.T) {
		home := t.TempDir()
		_, err := load(filepath.Join(home, "missing.toml"), home, true)
		assert.Error(t, err)
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		home := t.TempDir()
		for _, body := range []string{
			`timezone = "Mars/Olympus"`,
			`idle_cutoff = "soon"`,
			`idle_cutoff = "-1m"`,
			`date_layouts = []`,
			`date_layouts = [`,
		} {
			_, err := load(writeConfig(t, body), home, true)
			assert.Error(t, err, body)
		}
	})
}
