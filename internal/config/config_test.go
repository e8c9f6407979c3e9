package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// isolate keeps user config files and environment out of the test.
func isolate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"H5TOOL_LOG_LEVEL", "H5TOOL_OUTPUT_FORMAT", "H5TOOL_HEAP_CACHE_SIZE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "h5tool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
log:
  level: DEBUG
output:
  format: yaml
  creation_order: true
  max_values: 0
heap_cache_size: 8
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.True(t, cfg.Output.CreationOrder)
	assert.Equal(t, 0, cfg.Output.MaxValues)
	assert.Equal(t, 8, cfg.HeapCacheSize)
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "output:\n  format: yaml\nheap_cache_size: 8\n")
	t.Setenv("H5TOOL_OUTPUT_FORMAT", "json")
	t.Setenv("H5TOOL_HEAP_CACHE_SIZE", "16")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--heap-cache-size=32", "-c"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 32, cfg.HeapCacheSize)
	assert.True(t, cfg.Output.CreationOrder)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)
	tests := map[string]string{
		"format":   "output:\n  format: xml\n",
		"level":    "log:\n  level: loud\n",
		"cache":    "heap_cache_size: 0\n",
		"negative": "output:\n  max_values: -1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body), nil)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "warn", Encoding: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(LogConfig{Level: "loud", Encoding: "console"})
	assert.Error(t, err)
}
