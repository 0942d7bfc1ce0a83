package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mustCreateJob registers a job and fails the test if the manager is full.
func mustCreateJob(t *testing.T, jm *JobManager, config JobConfig, cancel context.CancelFunc) Job {
	t.Helper()

	job, err := jm.CreateJob(config, cancel)
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	config := JobConfig{
		Size:      64,
		Seed:      42,
		Format:    "png",
		Algorithm: "radial",
	}

	job := mustCreateJob(t, jm, config, nil)

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}

	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}

	if job.Config != config {
		t.Errorf("Config not set correctly: %+v", job.Config)
	}
	if job.RowsTotal != 64 {
		t.Errorf("RowsTotal should equal size, got %d", job.RowsTotal)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	job := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Error("Job should exist")
	}

	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_GetJobReturnsCopy(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)
	job := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)

	snapshot, _ := jm.GetJob(job.ID)
	snapshot.State = StateFailed

	current, _ := jm.GetJob(job.ID)
	if current.State != StatePending {
		t.Errorf("Mutating a snapshot should not affect the job, got %s", current.State)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	time.Sleep(time.Millisecond)
	second := mustCreateJob(t, jm, JobConfig{Size: 16}, nil)

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID || jobs[1].ID != second.ID {
		t.Error("Jobs should be listed oldest first")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	job := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.RowsDone = 4
		j.Algorithm = "linear"
	})

	if err != nil {
		t.Errorf("Update should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Error("State should be updated")
	}
	if updated.RowsDone != 4 {
		t.Error("RowsDone should be updated")
	}
	if updated.Progress() != 0.5 {
		t.Errorf("Expected progress 0.5, got %f", updated.Progress())
	}

	err = jm.UpdateJob("nonexistent", func(j *Job) {})
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Update of nonexistent job should fail with ErrJobNotFound, got %v", err)
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	running := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	jm.UpdateJob(running.ID, func(j *Job) { j.State = StateRunning })

	jobs := jm.GetRunningJobs()
	if len(jobs) != 1 || jobs[0].ID != running.ID {
		t.Errorf("Expected only the running job, got %+v", jobs)
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	ctx, cancel := context.WithCancel(context.Background())
	job := mustCreateJob(t, jm, JobConfig{Size: 8}, cancel)

	cancelled, err := jm.CancelJob(job.ID)
	if err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	if cancelled.State != StateCancelled {
		t.Errorf("Pending job should be cancelled immediately, got %s", cancelled.State)
	}
	if cancelled.EndTime == nil {
		t.Error("EndTime should be set")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Job context should be cancelled")
	}

	if _, err := jm.CancelJob(job.ID); !errors.Is(err, ErrJobFinished) {
		t.Errorf("Second cancel should return ErrJobFinished, got %v", err)
	}
	if _, err := jm.CancelJob("nonexistent"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobManager_CancelRunningJob(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	ctx, cancel := context.WithCancel(context.Background())
	job := mustCreateJob(t, jm, JobConfig{Size: 8}, cancel)
	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateRunning })

	snapshot, err := jm.CancelJob(job.ID)
	if err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	// The worker records the transition once it notices the cancelled context
	if snapshot.State != StateRunning {
		t.Errorf("Running job should stay running until its worker stops, got %s", snapshot.State)
	}
	if ctx.Err() == nil {
		t.Error("Job context should be cancelled")
	}
}

func TestJobManager_EvictsFinishedJobs(t *testing.T) {
	jm := NewJobManager(2)

	first := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	time.Sleep(time.Millisecond)
	second := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	time.Sleep(time.Millisecond)

	jm.UpdateJob(first.ID, func(j *Job) { j.State = StateCompleted })
	jm.UpdateJob(second.ID, func(j *Job) { j.State = StateFailed })

	third := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 retained jobs, got %d", len(jobs))
	}
	if _, exists := jm.GetJob(first.ID); exists {
		t.Error("Oldest finished job should be evicted")
	}
	if _, exists := jm.GetJob(second.ID); !exists {
		t.Error("Newer finished job should be kept")
	}
	if _, exists := jm.GetJob(third.ID); !exists {
		t.Error("New job should be registered")
	}
}

func TestJobManager_RejectsWhenAllActive(t *testing.T) {
	jm := NewJobManager(2)

	running := mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	mustCreateJob(t, jm, JobConfig{Size: 8}, nil)
	jm.UpdateJob(running.ID, func(j *Job) { j.State = StateRunning })

	if _, err := jm.CreateJob(JobConfig{Size: 8}, nil); !errors.Is(err, ErrTooManyJobs) {
		t.Fatalf("Expected ErrTooManyJobs, got %v", err)
	}
	if len(jm.ListJobs()) != 2 {
		t.Errorf("Rejected job must not be registered")
	}

	// Once a job finishes there is room again
	if _, err := jm.CancelJob(running.ID); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	markJobCancelled(jm, running.ID)
	if _, err := jm.CreateJob(JobConfig{Size: 8}, nil); err != nil {
		t.Errorf("Expected a slot after a job finished, got %v", err)
	}
}

func TestNewJobManager_DefaultLimit(t *testing.T) {
	if jm := NewJobManager(0); jm.maxJobs != DefaultMaxJobs {
		t.Errorf("Expected default limit %d, got %d", DefaultMaxJobs, jm.maxJobs)
	}
}

func TestJobManager_ThreadSafety(t *testing.T) {
	jm := NewJobManager(DefaultMaxJobs)

	job := mustCreateJob(t, jm, JobConfig{Size: 1024}, nil)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(rows int) {
			jm.UpdateJob(job.ID, func(j *Job) {
				if rows > j.RowsDone {
					j.RowsDone = rows
				}
				time.Sleep(1 * time.Millisecond)
			})
			jm.ListJobs()
			done <- true
		}(i * 10)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	updated, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should still exist after concurrent updates")
	}
	if updated.RowsDone != 90 {
		t.Errorf("Expected the largest row count to win, got %d", updated.RowsDone)
	}
}

func TestJobState_Terminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
	}{
		{StatePending, false},
		{StateRunning, false},
		{StateCompleted, true},
		{StateFailed, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}
