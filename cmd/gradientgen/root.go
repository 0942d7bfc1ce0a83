package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cwbudde/gradientgen/internal/config"
)

var (
	configFile string
	cfg        config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gradientgen",
	Short: "Random color gradient generator",
	Long: `gradientgen paints square images with randomly chosen gradients:
linear (edge or corner origin), radial, and per-channel radial strength.
Every parameter is drawn from a seeded random source, so a seed reproduces an image.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotEnvUsed, err := loadDotEnv(".env")
		if err != nil {
			return err
		}

		loaded, meta, err := config.Load(cmd.Flags(), configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		logger = newLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
		slog.SetDefault(logger)

		if meta.FileNotFound {
			slog.Warn("Config file not found, using environment and flag options", "path", configFile)
		} else if meta.FileUsed != "" {
			slog.Debug("Using config file", "path", meta.FileUsed)
		}
		if dotEnvUsed {
			slog.Debug("Environment variables loaded from .env file")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (TOML, YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "auto", "Log format (auto, json, text)")
	rootCmd.PersistentFlags().String("data-dir", "./data", "Base directory for stored images")
}

// loadDotEnv loads path into the environment when it exists.
// Variables already set in the environment win.
func loadDotEnv(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("error loading %s: %w", path, err)
	}
	return true, nil
}

// newLogger builds the slog handler for level and format.
// The auto format picks text on a terminal and JSON otherwise.
func newLogger(w io.Writer, levelName, format string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) && runtime.GOOS != "windows" {
			format = "text"
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
