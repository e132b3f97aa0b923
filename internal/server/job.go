package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/evosolve/internal/ga"
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

// RunRequest is the payload for creating an optimization job. If RunID names
// an existing checkpoint the job resumes it; otherwise a fresh run is
// bootstrapped under that ID.
type RunRequest struct {
	RunID       string     `json:"runId,omitempty"`
	Objective   string     `json:"objective"`
	Generations int        `json:"generations"`
	Solutions   int        `json:"solutions"`
	Parents     int        `json:"parents"`
	Ranges      []ga.Range `json:"ranges"`
	Workers     int        `json:"workers,omitempty"`
	Seed        int64      `json:"seed"`
}

// Job represents an optimization job
type Job struct {
	ID          string     `json:"id"`
	RunID       string     `json:"runId"`
	State       JobState   `json:"state"`
	Config      RunRequest `json:"config"`
	BestParams  []float64  `json:"bestParams,omitempty"`
	BestFitness float64    `json:"bestFitness"`
	Generations int        `json:"generations"`
	Evaluations int        `json:"evaluations"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new job with the given configuration.
// An empty RunID defaults to the job's own ID.
func (jm *JobManager) CreateJob(config RunRequest) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}
	job.RunID = config.RunID
	if job.RunID == "" {
		job.RunID = job.ID
	}

	jm.jobs[job.ID] = job
	return job
}

// GetJob retrieves a job by ID
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	return job, exists
}

// ListJobs returns all jobs
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			runningJobs = append(runningJobs, job)
		}
	}
	return runningJobs
}
