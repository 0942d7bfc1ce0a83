package server

import (
	"context"
	"errors"
	"testing"
)

func TestRunJob_Success(t *testing.T) {
	s := NewServer(Options{})
	job := mustCreateJob(t, s.jobManager, JobConfig{Size: 16, Seed: 42, Format: "png"}, nil)

	if err := s.runJob(context.Background(), job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	updated, _ := s.jobManager.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Fatalf("Expected completed, got %s", updated.State)
	}
	if updated.RowsDone != 16 || updated.RowsTotal != 16 {
		t.Errorf("Expected 16/16 rows, got %d/%d", updated.RowsDone, updated.RowsTotal)
	}
	if updated.Algorithm == "" || len(updated.Plan) == 0 {
		t.Error("Algorithm and plan should be recorded")
	}
	if updated.canvas == nil || updated.canvas.Size() != 16 {
		t.Error("Canvas should be kept for download")
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}
	if updated.RecordID != "" {
		t.Error("No record should be created without a store")
	}
}

func TestRunJob_Deterministic(t *testing.T) {
	s := NewServer(Options{})
	first := mustCreateJob(t, s.jobManager, JobConfig{Size: 16, Seed: 99, Format: "png"}, nil)
	second := mustCreateJob(t, s.jobManager, JobConfig{Size: 16, Seed: 99, Format: "png"}, nil)

	for _, id := range []string{first.ID, second.ID} {
		if err := s.runJob(context.Background(), id); err != nil {
			t.Fatalf("runJob failed: %v", err)
		}
	}

	a, _ := s.jobManager.GetJob(first.ID)
	b, _ := s.jobManager.GetJob(second.ID)
	if a.Algorithm != b.Algorithm || string(a.Plan) != string(b.Plan) {
		t.Errorf("Same seed should draw the same plan: %s vs %s", a.Plan, b.Plan)
	}
	if !a.canvas.Equal(b.canvas) {
		t.Error("Same seed should paint the same pixels")
	}
}

func TestRunJob_ForcedAlgorithm(t *testing.T) {
	s := NewServer(Options{})
	job := mustCreateJob(t, s.jobManager, JobConfig{Size: 8, Seed: 1, Format: "png", Algorithm: "channel_strength"}, nil)

	if err := s.runJob(context.Background(), job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	updated, _ := s.jobManager.GetJob(job.ID)
	if updated.Algorithm != "channel_strength" {
		t.Errorf("Expected channel_strength, got %s", updated.Algorithm)
	}
}

func TestRunJob_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config JobConfig
	}{
		{"unknown format", JobConfig{Size: 8, Format: "gif"}},
		{"unknown algorithm", JobConfig{Size: 8, Format: "png", Algorithm: "spiral"}},
		{"degenerate size", JobConfig{Size: 1, Format: "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Options{})
			job := mustCreateJob(t, s.jobManager, tt.config, nil)

			if err := s.runJob(context.Background(), job.ID); err == nil {
				t.Error("runJob should fail")
			}

			updated, _ := s.jobManager.GetJob(job.ID)
			if updated.State != StateFailed {
				t.Errorf("Job should be failed, got %s", updated.State)
			}
			if updated.Error == "" {
				t.Error("Error message should be set")
			}
		})
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	s := NewServer(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	job := mustCreateJob(t, s.jobManager, JobConfig{Size: 16, Seed: 5, Format: "png"}, cancel)
	cancel()

	err := s.runJob(ctx, job.ID)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	updated, _ := s.jobManager.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
	if updated.canvas != nil {
		t.Error("A cancelled job should not keep a canvas")
	}
}

func TestRunJob_NotFound(t *testing.T) {
	s := NewServer(Options{})

	if err := s.runJob(context.Background(), "nonexistent"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}
