// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/audiosplit/internal/media"
)

// Tool locator kinds accepted in TOOL_LOCATOR.
const (
	LocatorSystem  = "system"
	LocatorBundled = "bundled"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrInvalidMaxSegment is returned when MAX_SEGMENT_MINUTES is not positive.
	ErrInvalidMaxSegment = errors.New("config: MAX_SEGMENT_MINUTES must be greater than 0")
	// ErrInvalidToolLocator is returned when TOOL_LOCATOR is not a known kind.
	ErrInvalidToolLocator = errors.New("config: TOOL_LOCATOR must be \"system\" or \"bundled\"")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/audiosplit" json:"temp_dir"`

	// Splitting settings
	MaxSegmentMinutes int  `env:"MAX_SEGMENT_MINUTES, default=14" json:"max_segment_minutes"`
	OpenOnSuccess     bool `env:"OPEN_ON_SUCCESS, default=true" json:"open_on_success"`

	// Media tool settings
	ToolLocator string `env:"TOOL_LOCATOR, default=system" json:"tool_locator"` // "system" or "bundled"
	ToolDir     string `env:"TOOL_DIR" json:"tool_dir,omitempty"`
	FFmpegPath  string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`

	// Optional S3 settings
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if s3:// sources can be fetched.
func (c *Config) S3Enabled() bool {
	return c.S3Region != ""
}

// MaxSegmentSec returns the configured maximum segment length in seconds.
func (c *Config) MaxSegmentSec() int {
	return c.MaxSegmentMinutes * 60
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	return load(envconfig.OsLookuper())
}

func load(lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configured values are within range.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.MaxSegmentMinutes <= 0 {
		return ErrInvalidMaxSegment
	}
	switch strings.ToLower(c.ToolLocator) {
	case LocatorSystem, LocatorBundled:
	default:
		return ErrInvalidToolLocator
	}
	return nil
}

// Locator builds the media.ToolLocator selected by TOOL_LOCATOR.
// FFMPEG_PATH and FFPROBE_PATH take precedence over it when set.
func (c *Config) Locator() media.ToolLocator {
	var base media.ToolLocator = media.SystemLocator{}
	if strings.ToLower(c.ToolLocator) == LocatorBundled {
		base = media.BundledLocator{Dir: c.ToolDir}
	}

	if c.FFmpegPath == "" && c.FFprobePath == "" {
		return base
	}
	return media.StaticLocator{
		Paths: map[string]string{
			media.FFmpeg:  c.FFmpegPath,
			media.FFprobe: c.FFprobePath,
		},
		Fallback: base,
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is like NewLogger but writes to w.
func (c *Config) NewLoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, MaxSegmentMinutes: %d, ToolLocator: %s, ToolDir: %s, S3Region: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.MaxSegmentMinutes,
		c.ToolLocator,
		c.ToolDir,
		c.S3Region,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
