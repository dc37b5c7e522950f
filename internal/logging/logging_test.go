package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  charmlog.Level
	}{
		{"debug", charmlog.DebugLevel},
		{"DEBUG", charmlog.DebugLevel},
		{"info", charmlog.InfoLevel},
		{"warn", charmlog.WarnLevel},
		{"warning", charmlog.WarnLevel},
		{"error", charmlog.ErrorLevel},
		{"unknown", charmlog.InfoLevel},
		{"", charmlog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestNew(t *testing.T) {
	t.Run("Should write JSON lines when asked to", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&Config{Level: "info", JSON: true, Output: &buf})
		logger.Info("parsed sheet", "sheet", "YouTube", "rows", 3)

		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &m))
		assert.Equal(t, "parsed sheet", m["msg"])
		assert.Equal(t, "YouTube", m["sheet"])
	})

	t.Run("Should drop messages below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&Config{Level: "warn", Output: &buf})
		logger.Debug("hidden")
		logger.Info("hidden too")
		assert.Empty(t, buf.String())

		logger.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Should swap the process-wide logger", func(t *testing.T) {
		prev := Default()
		t.Cleanup(func() { defaultLogger.Store(prev) })

		var buf bytes.Buffer
		Setup(&Config{Level: "debug", Output: &buf})
		Default().Debug("from default")
		assert.Contains(t, buf.String(), "from default")
	})
}
