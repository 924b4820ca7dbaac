// Package config loads application configuration from files, environment
// variables and flags. Display-specific settings live in the profile
// document, not here; this covers process-level concerns.
package config

import (
	"fmt"
	"strings"
)

// Config is the complete application configuration.
type Config struct {
	// Global settings.
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Profile is the path to the display profile document.
	Profile string `mapstructure:"profile" yaml:"profile" json:"profile"`

	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	Flow       FlowConfig       `mapstructure:"flow" yaml:"flow" json:"flow"`
	Stability  StabilityConfig  `mapstructure:"stability" yaml:"stability" json:"stability"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
}

// RecognizerConfig contains inference settings.
type RecognizerConfig struct {
	NumThreads    int `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	CharInputSize int `mapstructure:"char_input_size" yaml:"char_input_size" json:"char_input_size"`
	LineHeight    int `mapstructure:"line_height" yaml:"line_height" json:"line_height"`
}

// FlowConfig contains pipeline pacing settings, in milliseconds.
type FlowConfig struct {
	PollIntervalMS  int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms" json:"poll_interval_ms"`
	NotReadyDelayMS int `mapstructure:"not_ready_delay_ms" yaml:"not_ready_delay_ms" json:"not_ready_delay_ms"`
	RefineDelayMS   int `mapstructure:"refine_delay_ms" yaml:"refine_delay_ms" json:"refine_delay_ms"`
}

// StabilityConfig contains debounce settings.
type StabilityConfig struct {
	RequiredFrames   int     `mapstructure:"required_frames" yaml:"required_frames" json:"required_frames"`
	MajorChangeRatio float64 `mapstructure:"major_change_ratio" yaml:"major_change_ratio" json:"major_change_ratio"`
}

// TelemetryConfig contains the out-of-band listener settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" json:"port"`
}

// ServerConfig contains the publish server settings.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Host    string `mapstructure:"host" yaml:"host" json:"host"`
	Port    int    `mapstructure:"port" yaml:"port" json:"port"`
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Recognizer.NumThreads < 0 {
		return fmt.Errorf("recognizer threads must be non-negative, got %d", c.Recognizer.NumThreads)
	}
	if c.Flow.PollIntervalMS < 0 || c.Flow.RefineDelayMS < 0 || c.Flow.NotReadyDelayMS < 0 {
		return fmt.Errorf("flow delays must be non-negative")
	}
	if c.Stability.RequiredFrames < 0 {
		return fmt.Errorf("required frames must be non-negative, got %d", c.Stability.RequiredFrames)
	}
	if c.Stability.MajorChangeRatio < 0 || c.Stability.MajorChangeRatio > 1 {
		return fmt.Errorf("major change ratio %.3f outside [0,1]", c.Stability.MajorChangeRatio)
	}
	if c.Telemetry.Port < 0 || c.Telemetry.Port > 65535 {
		return fmt.Errorf("invalid telemetry port %d", c.Telemetry.Port)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
