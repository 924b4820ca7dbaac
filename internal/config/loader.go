package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files, without
	// extension.
	ConfigFileName = "cduocr"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CDUOCR"
)

// Loader resolves configuration from a file, environment variables and
// defaults, in that precedence order below flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader uses the global viper instance so cobra flag bindings apply.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// GetViper exposes the underlying viper instance for late flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Load reads the configuration. A missing config file is fine; defaults
// and environment variables still apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads a specific configuration file, which must exist.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, "."+ConfigFileName))
	}
	l.v.AddConfigPath("/etc/" + ConfigFileName)
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("recognizer.char_input_size", 32)
	l.v.SetDefault("recognizer.line_height", 48)
	l.v.SetDefault("flow.poll_interval_ms", 200)
	l.v.SetDefault("flow.not_ready_delay_ms", 1000)
	l.v.SetDefault("flow.refine_delay_ms", 150)
	l.v.SetDefault("stability.required_frames", 2)
	l.v.SetDefault("stability.major_change_ratio", 0.5)
	l.v.SetDefault("telemetry.port", 7778)
	l.v.SetDefault("server.host", "127.0.0.1")
	l.v.SetDefault("server.port", 8080)
}
