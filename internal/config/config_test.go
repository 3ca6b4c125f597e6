package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	var c Config
	require.NoError(t, c.Validate())

	assert.Equal(t, *Default(), c)
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted zoom bounds", func(c *Config) { c.Timeline.MinScale, c.Timeline.MaxScale = 5, 2 }},
		{"negative step", func(c *Config) { c.Timeline.Step = -1 }},
		{"negative width", func(c *Config) { c.Timeline.Width = -3 }},
		{"negative limit", func(c *Config) { c.Data.SearchLimit = -1 }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative upload size", func(c *Config) { c.Server.MaxUploadMB = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_Zoom(t *testing.T) {
	c := Default()
	c.Timeline.Scale = 50

	z := c.Zoom()

	assert.Equal(t, timeline.DefaultMaxScale, z.Scale)
	assert.Equal(t, timeline.DefaultStep, z.Step)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "timeline:\n  scale: 4\n  step: 2\ndata:\n  path: /var/log/tf\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("TFLOG_SERVER_ADDR", ":9999")
	t.Setenv("TFLOG_TIMELINE_TIMEZONE", "Asia/Tokyo")

	cfg, err := Load(viper.New(), path)

	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Timeline.Scale)
	assert.Equal(t, 2.0, cfg.Timeline.Step)
	assert.Equal(t, timeline.DefaultMaxScale, cfg.Timeline.MaxScale)
	assert.Equal(t, "/var/log/tf", cfg.Data.Path)
	assert.Equal(t, "Asia/Tokyo", cfg.Timeline.Timezone)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	c.Log.Level = "debug"
	c.Timeline.Width = 120

	require.NoError(t, Save(c, path))
	loaded, err := Load(viper.New(), path)

	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
