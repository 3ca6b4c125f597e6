package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-tflog-viewer/internal/core/timeline"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TFLOG_SERVER_ADDR
const EnvPrefix = "TFLOG"

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// TimelineConfig configures zoom and terminal rendering
type TimelineConfig struct {
	Scale    float64 `yaml:"scale" mapstructure:"scale"`
	MinScale float64 `yaml:"min_scale" mapstructure:"min_scale"`
	MaxScale float64 `yaml:"max_scale" mapstructure:"max_scale"`
	Step     float64 `yaml:"step" mapstructure:"step"`
	// Width of the terminal chart in columns; 0 follows the terminal
	Width int `yaml:"width" mapstructure:"width"`
	// Timezone used to print axis times
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// DataConfig configures where logs come from and how they are queried
type DataConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	SearchLimit int    `yaml:"search_limit" mapstructure:"search_limit"`
}

// LogConfig configures the application logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	File   string `yaml:"file" mapstructure:"file"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        "127.0.0.1:8000",
			MaxUploadMB: 100,
		},
		Timeline: TimelineConfig{
			Scale:    timeline.DefaultScale,
			MinScale: timeline.DefaultMinScale,
			MaxScale: timeline.DefaultMaxScale,
			Step:     timeline.DefaultStep,
			Timezone: util.DefaultTimezone,
		},
		Data: DataConfig{
			Path:        ".",
			Concurrency: 4,
			SearchLimit: store.DefaultLimit,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate fills unset values with defaults and rejects inconsistent ones
func (c *Config) Validate() error {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = d.Server.MaxUploadMB
	}
	if c.Timeline.Scale == 0 {
		c.Timeline.Scale = d.Timeline.Scale
	}
	if c.Timeline.MinScale == 0 {
		c.Timeline.MinScale = d.Timeline.MinScale
	}
	if c.Timeline.MaxScale == 0 {
		c.Timeline.MaxScale = d.Timeline.MaxScale
	}
	if c.Timeline.Step == 0 {
		c.Timeline.Step = d.Timeline.Step
	}
	if c.Timeline.Timezone == "" {
		c.Timeline.Timezone = d.Timeline.Timezone
	}
	if c.Data.Path == "" {
		c.Data.Path = d.Data.Path
	}
	if c.Data.Concurrency == 0 {
		c.Data.Concurrency = d.Data.Concurrency
	}
	if c.Data.SearchLimit == 0 {
		c.Data.SearchLimit = d.Data.SearchLimit
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	var errs []error
	if c.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB))
	}
	if c.Timeline.MinScale < 0 || c.Timeline.Step < 0 {
		errs = append(errs, errors.New("timeline.min_scale and timeline.step must be positive"))
	}
	if c.Timeline.MinScale > c.Timeline.MaxScale {
		errs = append(errs, fmt.Errorf("timeline.min_scale %.2f exceeds timeline.max_scale %.2f", c.Timeline.MinScale, c.Timeline.MaxScale))
	}
	if c.Timeline.Width < 0 {
		errs = append(errs, fmt.Errorf("timeline.width must not be negative, got %d", c.Timeline.Width))
	}
	if c.Data.Concurrency < 0 || c.Data.SearchLimit < 0 {
		errs = append(errs, errors.New("data.concurrency and data.search_limit must not be negative"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Zoom returns the initial zoom state. The scale is clamped into the bounds.
func (c *Config) Zoom() timeline.ZoomState {
	return timeline.NewZoom(c.Timeline.Scale, c.Timeline.MinScale, c.Timeline.MaxScale, c.Timeline.Step)
}

// GetConfigDir returns the config directory path (~/.go-tflog-viewer)
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".go-tflog-viewer"
	}
	return filepath.Join(home, ".go-tflog-viewer")
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// SetDefaults registers every key with v so env overrides and flag bindings resolve
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("timeline.scale", d.Timeline.Scale)
	v.SetDefault("timeline.min_scale", d.Timeline.MinScale)
	v.SetDefault("timeline.max_scale", d.Timeline.MaxScale)
	v.SetDefault("timeline.step", d.Timeline.Step)
	v.SetDefault("timeline.width", d.Timeline.Width)
	v.SetDefault("timeline.timezone", d.Timeline.Timezone)
	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.concurrency", d.Data.Concurrency)
	v.SetDefault("data.search_limit", d.Data.SearchLimit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the config file at path (the default path when empty), applies
// TFLOG_* environment overrides and validates the result. A missing file is
// not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = GetConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as YAML to path, creating the directory
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
