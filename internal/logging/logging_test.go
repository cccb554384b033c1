package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONToConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "replicate.log")

	logger, closer, err := New(Config{Level: "debug", Format: FormatJSON, File: file, MaxSizeMB: 1, Console: &buf})
	require.NoError(t, err)

	engineLogger := Component(logger, "engine")
	engineLogger.Debug().Str("path", "/content/a").Msg("replicated")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), `"component":"engine"`)
	assert.Contains(t, buf.String(), `"path":"/content/a"`)

	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"message":"replicated"`)
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Config{Level: "WARN", Format: FormatJSON, Console: &buf})
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Console = &buf

	logger, _, err := New(cfg)
	require.NoError(t, err)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestBadConfig(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}
