package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/clusterlimits/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	_, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
}

func TestLoggerBuilder_JSONConsoleWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultLogConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	l, err := NewLoggerBuilder().WithConfig(cfg).WithComponent("deriver").WithConsoleOutput(&buf).Build()
	require.NoError(t, err)

	l.GetZerolog().Debug().Str("cluster", "music").Msg("derived")

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"component":"deriver"`)
	assert.Contains(t, out, `"cluster":"music"`)
	assert.Equal(t, zerolog.DebugLevel, l.Config().Level)
}

func TestLoggerBuilder_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultLogConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	l, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(&buf).Build()
	require.NoError(t, err)

	l.GetZerolog().Info().Msg("hidden")
	l.GetZerolog().Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerBuilder_FileOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultLogConfig()
	cfg.LogFormat = "json"
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "clusterlimits.log")

	l, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(&buf).Build()
	require.NoError(t, err)
	assert.True(t, l.Config().EnableFile)

	l.GetZerolog().Info().Msg("to file")

	content, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"to file"`)
	assert.Contains(t, buf.String(), "to file")
}

func TestLoggerBuilder_InvalidLevel(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "verbose"

	_, err := NewLoggerBuilder().WithConfig(cfg).Build()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConfigConverter_Fallbacks(t *testing.T) {
	converted, err := NewConfigConverter().ConvertConfig(config.LogConfig{LogFormat: "TEXT"})

	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, converted.Level)
	assert.Equal(t, FormatText, converted.Format)
	assert.False(t, converted.EnableFile)
	assert.Equal(t, config.DefaultMaxLogSizeMB, converted.MaxSizeMB)
	assert.Equal(t, config.DefaultMaxLogBackups, converted.MaxBackups)
}

func TestLogFormatParser(t *testing.T) {
	parser := NewLogFormatParser()

	assert.Equal(t, FormatJSON, parser.ParseFormat("json"))
	assert.Equal(t, FormatConsole, parser.ParseFormat("console"))
	assert.Equal(t, FormatConsole, parser.ParseFormat("unknown"))
	assert.Equal(t, "text", FormatText.String())
}
