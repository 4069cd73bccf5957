package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"suncal/internal/config"
	appLog "suncal/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "suncal",
	Short: "Sun and moon events as calendar entries",
	Long: `suncal computes sunrise, sunset, moonrise, moonset, moon phases and
golden/blue hours for a location and writes them to Google Calendar, to an
.ics file, or serves them as subscribable calendar feeds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it returns or SIGINT/SIGTERM arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	viper.SetEnvPrefix("SUNCAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	applyLogFlags(config.LogConfig{})
}

// applyLogFlags sets the log level and file from --verbose and --log-file,
// falling back to lc for whatever the flags leave unset.
func applyLogFlags(lc config.LogConfig) {
	level := appLog.ParseLevel(lc.Level)
	if viper.GetBool("verbose") {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	file := lc.File
	if f := viper.GetString("log-file"); f != "" {
		file = f
	}
	if file != "" {
		appLog.SetOutputFile(file)
	}
}

// loadSettings returns the configuration named by --config, or the
// defaults when no file was given.
func loadSettings() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyLogFlags(cfg.Log)
	return cfg, nil
}
