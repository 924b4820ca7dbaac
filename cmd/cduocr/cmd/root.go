// Package cmd implements the cduocr command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dcsflight/cduocr/internal/config"
	"github.com/dcsflight/cduocr/internal/models"
	"github.com/dcsflight/cduocr/internal/version"
)

var (
	configLoader *config.Loader
	globalConfig *config.Config
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "cduocr",
	Short: "Reads simulated avionics CDU displays into stable character grids",
	Long: `cduocr captures a screen region showing a simulated avionics control
display unit, recognizes its character grid with ONNX models, corrects the
result against optional out-of-band telemetry, and publishes a debounced
stable output.

Examples:
  cduocr run --profile profiles/ah64d.yaml
  cduocr run --profile profiles/ah64d.yaml --publish
  cduocr listen --profile profiles/ah64d.yaml --port 7778
  cduocr image frame.png --profile profiles/ah64d.yaml
  cduocr profile init profiles/new.yaml --rows 14 --cols 24`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.PersistentFlags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "cduocr %s (commit: %s, built: %s)\n",
				version.Version, version.GitCommit, version.BuildDate)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command so tests can execute commands
// without os.Exit.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME/.cduocr, /etc/cduocr)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("profile", "", "display profile YAML file")

	defaultModelsDir := models.DefaultModelsDir
	if envDir := os.Getenv(models.EnvModelsDir); envDir != "" {
		defaultModelsDir = envDir
	}
	rootCmd.PersistentFlags().String("models-dir", defaultModelsDir,
		"directory containing ONNX models (can also be set via "+models.EnvModelsDir+")")

	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("models_dir", rootCmd.PersistentFlags().Lookup("models-dir"))
	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}
		setupLogging(globalConfig)
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the effective configuration, re-reading viper so flag
// bindings applied after initial load are included.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
