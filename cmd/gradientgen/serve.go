package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/cwbudde/gradientgen/internal/server"
	"github.com/cwbudde/gradientgen/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP render service",
	Long: `Starts an HTTP server that renders gradients as background jobs.
Jobs are submitted with POST /api/v1/jobs; progress streams over SSE and
Prometheus metrics are exposed at /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests and jobs")
	serveCmd.Flags().Int("max-size", 4096, "Largest canvas a job may request")
	serveCmd.Flags().Int("max-jobs", 100, "Jobs kept in memory; finished ones are evicted oldest first")
	serveCmd.Flags().Bool("persist", true, "Store completed jobs in the data directory")
	serveCmd.Flags().Int("size", gradient.DefaultSize, "Default canvas size for jobs")
	serveCmd.Flags().String("format", "png", "Default output format for jobs")
	serveCmd.Flags().Int("workers", 0, "Render goroutines per job (0 = GOMAXPROCS)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, i ...interface{}) {
		slog.Debug(fmt.Sprintf(strings.ToLower(s), i...))
	}))

	opts := server.Options{
		Addr: cfg.Server.Addr,
		Defaults: server.JobConfig{
			Size:   cfg.Size,
			Seed:   cfg.Seed,
			Format: cfg.Format,
		},
		MaxSize: cfg.Server.MaxSize,
		MaxJobs: cfg.Server.MaxJobs,
		Workers: cfg.Workers,
	}

	if cfg.Server.Persist {
		imageStore, err := store.NewFSStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to create image store: %w", err)
		}
		journal, err := store.OpenJournal(cfg.DataDir)
		if err != nil {
			return err
		}
		defer journal.Close()

		opts.Store = imageStore
		opts.Journal = journal
		slog.Info("Persisting completed jobs", "data_dir", cfg.DataDir)
	}

	srv := server.NewServer(opts)

	slog.Info("Server configuration",
		"addr", cfg.Server.Addr,
		"max_size", cfg.Server.MaxSize,
		"max_jobs", cfg.Server.MaxJobs,
		"gomaxprocs", runtime.GOMAXPROCS(0),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
