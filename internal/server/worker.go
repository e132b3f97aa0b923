package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/evosolve/internal/ga"
	"github.com/cwbudde/evosolve/internal/objective"
	"github.com/cwbudde/evosolve/internal/store"
)

// runJob executes an optimization job in the background. The engine
// checkpoints through st after every generation, so a failed or interrupted
// job can be resumed by creating a new job with the same run ID.
func runJob(ctx context.Context, jm *JobManager, st store.Store, dataDir, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "run_id", job.RunID, "objective", job.Config.Objective)

	obj, err := objective.Lookup(job.Config.Objective)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	cfg := ga.Config{
		Generations:  job.Config.Generations,
		NumParams:    len(job.Config.Ranges),
		NumSolutions: job.Config.Solutions,
		NumParents:   job.Config.Parents,
		Ranges:       job.Config.Ranges,
		MaxWorkers:   job.Config.Workers,
		Seed:         job.Config.Seed,
	}

	// Appending keeps the trace of the earlier segment when resuming.
	trace, err := store.NewTraceWriter(dataDir, job.RunID, true)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to open trace: %w", err))
		return err
	}
	defer trace.Close()

	onProgress := func(p ga.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.BestParams = p.BestGenome
			j.BestFitness = p.BestFitness
			j.Generations = p.Generation
			j.Evaluations += p.Evaluations
		})

		jm.broadcaster.Broadcast(ProgressEvent{
			JobID:       jobID,
			State:       StateRunning,
			Generation:  p.Generation,
			BestFitness: p.BestFitness,
			Evaluations: p.Evaluations,
			Timestamp:   time.Now(),
		})

		entry := store.TraceEntry{
			Generation:  p.Generation,
			BestFitness: p.BestFitness,
			Timestamp:   time.Now(),
		}
		if err := trace.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}
	}

	start := time.Now()
	result, err := ga.Solve(ctx, cfg, ga.Pure(obj), st, job.RunID, onProgress)
	if flushErr := trace.Flush(); flushErr != nil {
		slog.Warn("Failed to flush trace", "job_id", jobID, "error", flushErr)
	}
	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}
	elapsed := time.Since(start)

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestParams = result.BestGenome
		j.BestFitness = result.BestFitness
		j.Generations = result.TotalGenerations
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"run_id", job.RunID,
		"elapsed", elapsed,
		"generations", result.TotalGenerations,
		"evaluations", result.Evaluations,
		"best_fitness", result.BestFitness,
		"resumed", result.Resumed,
	)

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Generation:  result.TotalGenerations,
		BestFitness: result.BestFitness,
		Evaluations: result.Evaluations,
		Timestamp:   time.Now(),
	})

	return nil
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
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
