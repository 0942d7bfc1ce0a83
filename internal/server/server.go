package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/cwbudde/gradientgen/internal/imageio"
	"github.com/cwbudde/gradientgen/internal/store"
)

// Options configures a Server.
type Options struct {
	Addr string
	// Defaults fills in fields a job request leaves empty
	Defaults JobConfig
	// MaxSize caps the requested canvas size
	MaxSize int
	// Workers is the number of render goroutines per job (0 = GOMAXPROCS)
	Workers int
	// MaxJobs bounds the jobs kept in memory (0 = DefaultMaxJobs)
	MaxJobs int
	// Store persists completed jobs; nil keeps images in memory only
	Store   store.Store
	Journal *store.JournalWriter
}

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	metrics    *Metrics
	store      store.Store
	journal    *store.JournalWriter
	defaults   JobConfig
	maxSize    int
	workers    int
	addr       string
	server     *http.Server

	// jobs derive their context from ctx, so Shutdown can stop them
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new HTTP server
func NewServer(opts Options) *Server {
	if opts.Defaults.Size == 0 {
		opts.Defaults.Size = gradient.DefaultSize
	}
	if opts.Defaults.Format == "" {
		opts.Defaults.Format = string(imageio.FormatPNG)
	}
	if opts.MaxSize < opts.Defaults.Size {
		opts.MaxSize = opts.Defaults.Size
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		jobManager: NewJobManager(opts.MaxJobs),
		metrics:    NewMetrics(),
		store:      opts.Store,
		journal:    opts.Journal,
		defaults:   opts.Defaults,
		maxSize:    opts.MaxSize,
		workers:    opts.Workers,
		addr:       opts.Addr,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.Handle("/metrics", s.metrics.Handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server and blocks until it stops.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, cancels running jobs and waits for their workers.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")

	err := s.server.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, fmt.Errorf("waiting for jobs: %w", ctx.Err()))
	}
	return err
}

// submit registers a job and starts its worker.
func (s *Server) submit(config JobConfig) (Job, error) {
	ctx, cancel := context.WithCancel(s.ctx)
	job, err := s.jobManager.CreateJob(config, cancel)
	if err != nil {
		cancel()
		return Job{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.runJob(ctx, job.ID)
	}()
	return job, nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if len(parts) == 1 && r.Method == http.MethodDelete {
		s.handleCancelJob(w, r, jobID)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch {
	case len(parts) == 1:
		s.handleGetJob(w, r, jobID)
	case parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "image":
		s.handleGetImage(w, r, jobID)
	case parts[1] == "stream":
		s.handleJobStream(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	// An empty body means "all defaults"
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	config, err := s.resolveConfig(config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.submit(config)
	if errors.Is(err, ErrTooManyJobs) {
		w.Header().Set("Retry-After", "1")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// resolveConfig applies defaults and rejects requests the generator cannot serve.
func (s *Server) resolveConfig(config JobConfig) (JobConfig, error) {
	if config.Size == 0 {
		config.Size = s.defaults.Size
	}
	if config.Size < 2 {
		return config, fmt.Errorf("size must be at least 2, got %d", config.Size)
	}
	if config.Size > s.maxSize {
		return config, fmt.Errorf("size %d exceeds the maximum of %d", config.Size, s.maxSize)
	}

	if config.Format == "" {
		config.Format = s.defaults.Format
	}
	format, err := imageio.ParseFormat(config.Format)
	if err != nil {
		return config, err
	}
	config.Format = string(format)

	if config.Algorithm == "" {
		config.Algorithm = s.defaults.Algorithm
	}
	if config.Algorithm != "" {
		if _, err := gradient.ParseAlgorithm(config.Algorithm); err != nil {
			return config, err
		}
	}

	if config.Seed == 0 {
		config.Seed = s.defaults.Seed
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	return config, nil
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJob handles GET /api/v1/jobs/:id
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// StatusResponse is the body of GET /api/v1/jobs/:id/status.
type StatusResponse struct {
	ID        string     `json:"id"`
	State     JobState   `json:"state"`
	Config    JobConfig  `json:"config"`
	Algorithm string     `json:"algorithm,omitempty"`
	RowsDone  int        `json:"rowsDone"`
	RowsTotal int        `json:"rowsTotal"`
	Progress  float64    `json:"progress"`
	Elapsed   float64    `json:"elapsed"`
	RecordID  string     `json:"recordId,omitempty"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		ID:        job.ID,
		State:     job.State,
		Config:    job.Config,
		Algorithm: job.Algorithm,
		RowsDone:  job.RowsDone,
		RowsTotal: job.RowsTotal,
		Progress:  job.Progress(),
		Elapsed:   job.Elapsed().Seconds(),
		RecordID:  job.RecordID,
		StartTime: job.StartTime,
		EndTime:   job.EndTime,
		Error:     job.Error,
	})
}

// handleGetImage handles GET /api/v1/jobs/:id/image
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.State != StateCompleted || (job.canvas == nil && job.RecordID == "") {
		http.Error(w, "Image not ready", http.StatusNotFound)
		return
	}

	format, err := imageio.ParseFormat(job.Config.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Persisted jobs drop their canvas; serve the stored file instead
	var stored *os.File
	if job.canvas == nil {
		stored, err = s.openStoredImage(job.RecordID)
		if err != nil {
			slog.Error("Failed to open stored image", "job_id", jobID, "record_id", job.RecordID, "error", err)
			http.Error(w, "Image not available", http.StatusNotFound)
			return
		}
		defer stored.Close()
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "gradient"+format.Extension()))
	w.Header().Set("Cache-Control", "no-cache")

	if stored != nil {
		if _, err := io.Copy(w, stored); err != nil {
			slog.Error("Failed to send stored image", "job_id", jobID, "error", err)
		}
		return
	}
	if err := imageio.Encode(w, job.canvas.Image(), format); err != nil {
		slog.Error("Failed to encode image", "job_id", jobID, "error", err)
	}
}

func (s *Server) openStoredImage(recordID string) (*os.File, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	path, err := s.store.ImagePath(recordID)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// handleCancelJob handles DELETE /api/v1/jobs/:id
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := s.jobManager.CancelJob(jobID)
	switch {
	case errors.Is(err, ErrJobNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, ErrJobFinished):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		slog.Info("Job cancellation requested", "job_id", jobID)
		writeJSON(w, http.StatusAccepted, job)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
