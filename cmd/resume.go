package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/evosolve/internal/ga"
	"github.com/cwbudde/evosolve/internal/objective"
	"github.com/cwbudde/evosolve/internal/store"
)

var (
	resumeObjective   string
	resumeGenerations int
	resumeParents     int
	resumeWorkers     int
)

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Continue an existing run from its checkpoint",
	Long: `Continues a checkpointed run for more generations. The population
geometry and parameter ranges come from the checkpoint; only the objective
must be named again, since the engine never persists the objective function
itself. Errors if no checkpoint exists for the run ID.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeObjective, "objective", "", "Objective function name (required)")
	resumeCmd.Flags().IntVar(&resumeGenerations, "generations", 10, "Number of additional generations")
	resumeCmd.Flags().IntVar(&resumeParents, "parents", 0, "Override parent count (0 = keep checkpointed value)")
	resumeCmd.Flags().IntVar(&resumeWorkers, "workers", 0, "Max concurrent fitness evaluations (0 = all CPUs)")

	resumeCmd.MarkFlagRequired("objective")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	id := args[0]

	obj, err := objective.Lookup(resumeObjective)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	// Resume must find prior state; a missing checkpoint is an error here,
	// not an invitation to bootstrap.
	state, err := st.LoadRun(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no checkpoint found for run %q, use 'evosolve run' to start one", id)
		}
		return fmt.Errorf("failed to load run %q: %w", id, err)
	}

	ranges := make([]ga.Range, len(state.Config.Ranges))
	for i, r := range state.Config.Ranges {
		ranges[i] = ga.Range{Low: r.Low, High: r.High}
	}

	numParents := state.Config.NumParents
	if resumeParents > 0 {
		numParents = resumeParents
	}

	cfg := ga.Config{
		Generations:  resumeGenerations,
		NumParams:    state.Config.NumParams,
		NumSolutions: state.Config.NumSolutions,
		NumParents:   numParents,
		Ranges:       ranges,
		MaxWorkers:   resumeWorkers,
		Seed:         state.Config.Seed,
	}

	trace, err := store.NewTraceWriter(dataDir, id, true)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer trace.Close()

	onProgress := func(p ga.Progress) {
		entry := store.TraceEntry{
			Generation:  p.Generation,
			BestFitness: p.BestFitness,
			Timestamp:   time.Now(),
		}
		if err := trace.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "run_id", id, "error", err)
		}
	}

	start := time.Now()
	result, err := ga.Solve(context.Background(), cfg, ga.Pure(obj), st, id, onProgress)
	if flushErr := trace.Flush(); flushErr != nil {
		slog.Warn("Failed to flush trace", "run_id", id, "error", flushErr)
	}
	if err != nil {
		return err
	}

	slog.Info("Resume complete",
		"run_id", id,
		"elapsed", time.Since(start),
		"generations", result.TotalGenerations,
		"evaluations", result.Evaluations,
		"best_fitness", result.BestFitness,
	)

	fmt.Printf("Run %s: %d generation(s) total, best fitness %.6g\n", id, result.TotalGenerations, result.BestFitness)
	fmt.Printf("Best genome: %v\n", result.BestGenome)

	return nil
}
