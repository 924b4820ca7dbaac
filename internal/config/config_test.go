package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshLoader(t *testing.T) *Loader {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return NewLoader()
}

func TestLoadDefaults(t *testing.T) {
	tmp := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := freshLoader(t).Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 200, cfg.Flow.PollIntervalMS)
	assert.Equal(t, 2, cfg.Stability.RequiredFrames)
	assert.InDelta(t, 0.5, cfg.Stability.MajorChangeRatio, 1e-9)
	assert.Equal(t, 7778, cfg.Telemetry.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cduocr.yaml")
	content := `
log_level: debug
profile: profiles/ah64d.yaml
stability:
  required_frames: 3
telemetry:
  enabled: true
  port: 9999
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := freshLoader(t).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "profiles/ah64d.yaml", cfg.Profile)
	assert.Equal(t, 3, cfg.Stability.RequiredFrames)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 9999, cfg.Telemetry.Port)
	// File settings do not disturb defaults elsewhere.
	assert.Equal(t, 150, cfg.Flow.RefineDelayMS)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := freshLoader(t).LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cduocr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o644))

	_, err := freshLoader(t).LoadWithFile(path)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative threads", func(c *Config) { c.Recognizer.NumThreads = -1 }, "threads"},
		{"bad ratio", func(c *Config) { c.Stability.MajorChangeRatio = 1.5 }, "ratio"},
		{"bad telemetry port", func(c *Config) { c.Telemetry.Port = 70000 }, "telemetry port"},
		{"bad server port", func(c *Config) { c.Server.Port = -2 }, "server port"},
		{"negative delay", func(c *Config) { c.Flow.RefineDelayMS = -1 }, "delays"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			tt.mutate(&c)
			err := c.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
