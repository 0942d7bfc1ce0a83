package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/cwbudde/gradientgen/internal/imageio"
	"github.com/cwbudde/gradientgen/internal/store"
)

const progressInterval = 250 * time.Millisecond

// runJob draws and paints the gradient for a job in the background.
// When the server has a store, the finished image is persisted and journaled.
func (s *Server) runJob(ctx context.Context, jobID string) error {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	defer s.jobManager.broadcaster.CleanupJob(jobID)

	// A job cancelled while pending never starts
	if err := ctx.Err(); err != nil {
		markJobCancelled(s.jobManager, jobID)
		s.broadcastState(jobID)
		return err
	}

	started := false
	s.jobManager.UpdateJob(jobID, func(j *Job) {
		if j.State == StatePending {
			j.State = StateRunning
			started = true
		}
	})
	if !started {
		return nil
	}

	s.metrics.jobsInFlight.Inc()
	defer s.metrics.jobsInFlight.Dec()

	logger := slog.With("job_id", jobID)
	logger.Info("Starting job", "size", job.Config.Size, "seed", job.Config.Seed, "algorithm", job.Config.Algorithm)

	format, err := imageio.ParseFormat(job.Config.Format)
	if err != nil {
		s.failJob(jobID, err)
		return err
	}

	opts := []gradient.Option{
		gradient.WithWorkers(s.workers),
		gradient.WithLogger(logger),
		gradient.WithProgress(func(rowsDone, rowsTotal int) {
			s.jobManager.UpdateJob(jobID, func(j *Job) {
				if rowsDone > j.RowsDone {
					j.RowsDone = rowsDone
				}
				j.RowsTotal = rowsTotal
			})
		}),
	}
	if job.Config.Algorithm != "" {
		algorithm, err := gradient.ParseAlgorithm(job.Config.Algorithm)
		if err != nil {
			s.failJob(jobID, err)
			return err
		}
		opts = append(opts, gradient.WithAlgorithm(algorithm))
	}

	generator, err := gradient.NewGenerator(job.Config.Size, rand.New(rand.NewSource(job.Config.Seed)), opts...)
	if err != nil {
		s.failJob(jobID, err)
		return err
	}

	plan, err := generator.Plan()
	if err != nil {
		s.failJob(jobID, err)
		return err
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		s.failJob(jobID, fmt.Errorf("failed to serialize plan: %w", err))
		return err
	}
	algorithm := plan.Algorithm().String()
	s.jobManager.UpdateJob(jobID, func(j *Job) {
		j.Algorithm = algorithm
		j.Plan = planJSON
	})

	progressDone := make(chan struct{})
	go monitorProgress(ctx, s.jobManager, jobID, progressDone)

	start := time.Now()
	canvas, err := generator.Render(ctx, plan)
	close(progressDone)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			markJobCancelled(s.jobManager, jobID)
			s.metrics.observeFailure(StateCancelled)
			s.broadcastState(jobID)
			return err
		}
		s.failJob(jobID, err)
		return err
	}
	s.metrics.observeRender(algorithm, elapsed)

	recordID := ""
	if s.store != nil {
		recordID, err = s.persist(plan, job.Config, format, canvas, elapsed)
		if err != nil {
			logger.Error("Failed to persist image", "error", err)
		}
	}

	// Stored images are served from disk; only unsaved ones stay in memory
	kept := canvas
	if recordID != "" {
		kept = nil
	}

	endTime := time.Now()
	s.jobManager.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.RowsDone = j.RowsTotal
		j.RecordID = recordID
		j.EndTime = &endTime
		j.canvas = kept
	})

	logger.Info("Job completed", "algorithm", algorithm, "elapsed", elapsed, "record_id", recordID)
	s.broadcastState(jobID)
	return nil
}

// persist stores the rendered image and appends it to the journal.
func (s *Server) persist(plan gradient.Plan, cfg JobConfig, format imageio.Format, canvas *gradient.Canvas, elapsed time.Duration) (string, error) {
	record, err := store.NewRecord(plan, cfg.Size, cfg.Seed, format, elapsed)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveImage(record, canvas.Image()); err != nil {
		return "", err
	}
	if s.journal != nil {
		if err := s.journal.Write(store.EntryFromRecord(record)); err != nil {
			return record.ID, fmt.Errorf("failed to write journal: %w", err)
		}
		if err := s.journal.Flush(); err != nil {
			return record.ID, fmt.Errorf("failed to flush journal: %w", err)
		}
	}
	return record.ID, nil
}

func (s *Server) failJob(jobID string, err error) {
	markJobFailed(s.jobManager, jobID, err)
	s.metrics.observeFailure(StateFailed)
	s.broadcastState(jobID)
}

func (s *Server) broadcastState(jobID string) {
	if job, ok := s.jobManager.GetJob(jobID); ok {
		s.jobManager.broadcaster.Broadcast(eventFromJob(job))
	}
}

// monitorProgress periodically broadcasts progress events during rendering
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			jm.broadcaster.Broadcast(eventFromJob(job))
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		if j.State.Terminal() && j.State != StateCancelled {
			return
		}
		j.State = StateCancelled
		if j.EndTime == nil {
			j.EndTime = &endTime
		}
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
