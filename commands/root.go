package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-tflog-viewer/internal/config"
	"github.com/penwyp/go-tflog-viewer/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Logging related
	debug     bool
	logFormat string

	// Config file
	cfgFile string

	// v holds flag, env and file settings; appConfig is the validated result
	v         = viper.New()
	appConfig *config.Config

	rootCmd = &cobra.Command{
		Use:   "go-tflog-viewer",
		Short: "Terraform log viewer with a request timeline",
		Long: `go-tflog-viewer parses Terraform JSON logs, groups them by tf_req_id and
lays them out on a shared time axis.

Examples:
  go-tflog-viewer timeline ./logs                 # Render the timeline once
  go-tflog-viewer timeline ./logs -i --watch      # Interactive timeline, reload on change
  go-tflog-viewer timeline apply.jsonl --scale 4  # Narrower bars
  go-tflog-viewer serve --addr :8000 ./logs       # HTTP API over preloaded logs
  go-tflog-viewer config init                     # Write the default config file`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format (text, json)")

	// Configuration
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file path (default ~/.go-tflog-viewer/config.yaml)")
	rootCmd.PersistentFlags().Int("concurrency", 0,
		"Number of files parsed in parallel")
	rootCmd.PersistentFlags().String("timezone", "",
		"Timezone for printed times (e.g., UTC, Local, Asia/Shanghai)")

	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("data.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	_ = v.BindPFlag("timeline.timezone", rootCmd.PersistentFlags().Lookup("timezone"))
}

// loadConfig merges file, environment and flags, then starts logging
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	if err := util.InitializeTimeProvider(cfg.Timeline.Timezone); err != nil {
		return err
	}

	// Interactive views own the terminal, so console logs need --debug there
	console := debug || cmd.Name() == "serve"
	return setupLogging(cfg, console)
}

func setupLogging(cfg *config.Config, console bool) error {
	logLevel := cfg.Log.Level
	if debug {
		logLevel = "debug"
	}

	logFile := ""
	if cfg.Log.File != "" {
		logFile = expandPath(cfg.Log.File)
		if err := ensureDir(filepath.Dir(logFile)); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	if err := util.InitLogger(logLevel, logFile, console, util.LogFormat(cfg.Log.Format)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func Execute() error {
	defer util.CloseLogger()
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
