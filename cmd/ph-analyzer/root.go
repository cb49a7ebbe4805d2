package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	phanalyzer "github.com/menta2k/ph-analyzer"
	"github.com/menta2k/ph-analyzer/internal/config"
	"github.com/menta2k/ph-analyzer/internal/log"
)

var (
	// cfg is loaded once by the root command before any subcommand runs
	cfg *config.Config
	// logger is built from cfg.Log
	logger *logrus.Logger

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "ph-analyzer",
	Short:         "Estimate pH from colorimetric test strip photographs",
	Version:       phanalyzer.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// setup loads the configuration and builds the logger.
func setup() error {
	loaded, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}

	l, err := log.NewLogger(loaded.Log, os.Stderr)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = l
	return nil
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigPath()
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ~/.config/ph-analyzer/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}
