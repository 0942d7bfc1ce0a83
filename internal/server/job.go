package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/gradientgen/internal/gradient"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

var (
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobFinished is returned when cancelling a job that already ended.
	ErrJobFinished = errors.New("job already finished")
	// ErrTooManyJobs is returned when every retained job is still pending or running.
	ErrTooManyJobs = errors.New("too many active jobs")
)

// DefaultMaxJobs is the number of jobs a manager retains when none is configured.
const DefaultMaxJobs = 100

// JobConfig is the request body of POST /api/v1/jobs.
type JobConfig struct {
	Size   int    `json:"size"`
	Seed   int64  `json:"seed"`
	Format string `json:"format"`
	// Algorithm forces one algorithm; empty picks one at random
	Algorithm string `json:"algorithm,omitempty"`
}

// Job represents a render job
type Job struct {
	ID        string          `json:"id"`
	State     JobState        `json:"state"`
	Config    JobConfig       `json:"config"`
	Algorithm string          `json:"algorithm,omitempty"`
	Plan      json.RawMessage `json:"plan,omitempty"`
	RowsDone  int             `json:"rowsDone"`
	RowsTotal int             `json:"rowsTotal"`
	RecordID  string          `json:"recordId,omitempty"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	Error     string          `json:"error,omitempty"`

	canvas *gradient.Canvas
	cancel context.CancelFunc
}

// Elapsed returns the run time so far, or the total once the job ended.
func (j *Job) Elapsed() time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime)
	}
	return time.Since(j.StartTime)
}

// Progress returns the fraction of rows painted.
func (j *Job) Progress() float64 {
	if j.RowsTotal == 0 {
		return 0
	}
	return float64(j.RowsDone) / float64(j.RowsTotal)
}

// JobManager manages the lifecycle of jobs.
// Getters return copies, so callers never observe a job mid-update.
// At most maxJobs jobs are retained; finished jobs are evicted oldest first.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	maxJobs     int
	broadcaster *EventBroadcaster
}

// NewJobManager creates a JobManager retaining at most maxJobs jobs
// (DefaultMaxJobs when maxJobs <= 0).
func NewJobManager(maxJobs int) *JobManager {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	return &JobManager{
		jobs:        make(map[string]*Job),
		maxJobs:     maxJobs,
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a pending job. cancel aborts its render; it may be nil.
// When the manager is full, finished jobs are evicted to make room; if none
// can be evicted ErrTooManyJobs is returned.
func (jm *JobManager) CreateJob(config JobConfig, cancel context.CancelFunc) (Job, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if len(jm.jobs) >= jm.maxJobs {
		jm.evictLocked(len(jm.jobs) - jm.maxJobs + 1)
		if len(jm.jobs) >= jm.maxJobs {
			return Job{}, fmt.Errorf("%w: %d pending or running", ErrTooManyJobs, len(jm.jobs))
		}
	}

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		RowsTotal: config.Size,
		StartTime: time.Now(),
		cancel:    cancel,
	}

	jm.jobs[job.ID] = job
	return *job, nil
}

// evictLocked drops up to n finished jobs, oldest first. Callers hold jm.mu.
func (jm *JobManager) evictLocked(n int) {
	finished := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		if job.State.Terminal() {
			finished = append(finished, *job)
		}
	}
	sortJobs(finished)

	for i := 0; i < n && i < len(finished); i++ {
		delete(jm.jobs, finished[i].ID)
		slog.Debug("Evicted finished job", "job_id", finished[i].ID, "state", finished[i].State)
	}
}

// GetJob retrieves a copy of the job with the given ID
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns all jobs, oldest first
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	sortJobs(jobs)
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			runningJobs = append(runningJobs, *job)
		}
	}
	sortJobs(runningJobs)
	return runningJobs
}

// CancelJob aborts a pending or running job.
// A pending job is marked cancelled immediately; a running one stops at the next row.
func (jm *JobManager) CancelJob(id string) (Job, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if job.State.Terminal() {
		return *job, fmt.Errorf("%w: %s is %s", ErrJobFinished, id, job.State)
	}

	if job.cancel != nil {
		job.cancel()
	}
	if job.State == StatePending {
		endTime := time.Now()
		job.State = StateCancelled
		job.EndTime = &endTime
	}
	return *job, nil
}
