package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TemplateDir = filepath.Join(dir, "templates")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.DatabasePath = filepath.Join(dir, "test.db")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "anthropic", cfg.Extraction.Provider)
	assert.Positive(t, cfg.MaxFileSize)
	assert.Positive(t, cfg.FontSize)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validTestConfig(t)
	require.NoError(t, cfg.Validate())
}

func TestValidateCreatesDirectories(t *testing.T) {
	cfg := validTestConfig(t)
	require.NoError(t, cfg.Validate())

	assert.DirExists(t, cfg.TemplateDir)
	assert.DirExists(t, cfg.OutputDir)
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Mode = "websocket"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Mode = ModeServer
	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	// Port is only validated in server mode.
	cfg.Mode = ModeStdio
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsEmptyPaths(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.TemplateDir = ""
	assert.Error(t, cfg.Validate())

	cfg = validTestConfig(t)
	cfg.OutputDir = ""
	assert.Error(t, cfg.Validate())

	cfg = validTestConfig(t)
	cfg.DatabasePath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogSettings(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = validTestConfig(t)
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveSizes(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.MaxFileSize = 0
	assert.Error(t, cfg.Validate())

	cfg = validTestConfig(t)
	cfg.FontSize = -1
	assert.Error(t, cfg.Validate())
}

func TestAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 9000
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
}

func TestModeHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsServerMode())

	cfg.Mode = ModeServer
	assert.True(t, cfg.IsServerMode())
	assert.False(t, cfg.IsStdioMode())

	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsDebug())
}
