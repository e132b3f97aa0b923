package server

import (
	"sync"
	"testing"

	"github.com/cwbudde/evosolve/internal/ga"
)

func testRequest() RunRequest {
	return RunRequest{
		Objective:   "sphere",
		Generations: 5,
		Solutions:   8,
		Parents:     2,
		Ranges:      []ga.Range{{Low: -1, High: 1}, {Low: -1, High: 1}},
		Seed:        7,
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testRequest())
	if job.ID == "" {
		t.Fatal("Expected non-empty job ID")
	}
	if job.State != StatePending {
		t.Errorf("State = %q, want pending", job.State)
	}
	if job.RunID != job.ID {
		t.Errorf("Empty request RunID should default to job ID, got %q", job.RunID)
	}
	if job.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestJobManager_CreateJob_ExplicitRunID(t *testing.T) {
	jm := NewJobManager()

	req := testRequest()
	req.RunID = "my-run"
	job := jm.CreateJob(req)
	if job.RunID != "my-run" {
		t.Errorf("RunID = %q, want my-run", job.RunID)
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()
	created := jm.CreateJob(testRequest())

	job, exists := jm.GetJob(created.ID)
	if !exists {
		t.Fatal("Job should exist")
	}
	if job.ID != created.ID {
		t.Errorf("ID mismatch: %q != %q", job.ID, created.ID)
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("Nonexistent job should not be found")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Expected no jobs initially")
	}

	for i := 0; i < 3; i++ {
		jm.CreateJob(testRequest())
	}
	if got := len(jm.ListJobs()); got != 3 {
		t.Errorf("Expected 3 jobs, got %d", got)
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testRequest())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.BestFitness = 1.5
		j.Generations = 2
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning {
		t.Errorf("State = %q, want running", updated.State)
	}
	if updated.BestFitness != 1.5 {
		t.Errorf("BestFitness = %v, want 1.5", updated.BestFitness)
	}

	if err := jm.UpdateJob("nonexistent", func(j *Job) {}); err == nil {
		t.Error("Expected error for unknown job")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	a := jm.CreateJob(testRequest())
	b := jm.CreateJob(testRequest())
	jm.CreateJob(testRequest())

	jm.UpdateJob(a.ID, func(j *Job) { j.State = StateRunning })
	jm.UpdateJob(b.ID, func(j *Job) { j.State = StateRunning })

	running := jm.GetRunningJobs()
	if len(running) != 2 {
		t.Errorf("Expected 2 running jobs, got %d", len(running))
	}
	for _, job := range running {
		if job.State != StateRunning {
			t.Errorf("Job %s state = %q, want running", job.ID, job.State)
		}
	}
}

func TestJobManager_ConcurrentAccess(t *testing.T) {
	jm := NewJobManager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job := jm.CreateJob(testRequest())
			jm.UpdateJob(job.ID, func(j *Job) { j.Generations++ })
			jm.GetJob(job.ID)
			jm.ListJobs()
		}()
	}
	wg.Wait()

	if got := len(jm.ListJobs()); got != 10 {
		t.Errorf("Expected 10 jobs, got %d", got)
	}
}
