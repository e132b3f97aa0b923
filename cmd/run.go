package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/evosolve/internal/ga"
	"github.com/cwbudde/evosolve/internal/objective"
	"github.com/cwbudde/evosolve/internal/problem"
	"github.com/cwbudde/evosolve/internal/store"
)

var (
	objectiveName string
	problemPath   string
	runID         string
	generations   int
	solutions     int
	parents       int
	rangeSpecs    []string
	dims          int
	workers       int
	seed          int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an optimization",
	Long: `Runs the genetic optimizer against a named objective function.

The parameter space is given either as repeated --range low:high flags (one
per parameter) or as --dims N with a single shared --range. Alternatively a
YAML problem file can define the whole run via --problem. If the run ID
already has a checkpoint, the run resumes from it.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&objectiveName, "objective", "", "Objective function name (see 'evosolve objectives')")
	runCmd.Flags().StringVar(&problemPath, "problem", "", "YAML problem file (overrides the other problem flags)")
	runCmd.Flags().StringVar(&runID, "run-id", "", "Run identifier for checkpointing (default: derived from objective)")
	runCmd.Flags().IntVar(&generations, "generations", 10, "Number of generations to run")
	runCmd.Flags().IntVar(&solutions, "solutions", 16, "Population size")
	runCmd.Flags().IntVar(&parents, "parents", 4, "Number of parents kept each generation")
	runCmd.Flags().StringArrayVar(&rangeSpecs, "range", nil, "Parameter range as low:high (repeatable)")
	runCmd.Flags().IntVar(&dims, "dims", 0, "Number of parameters sharing a single --range")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Max concurrent fitness evaluations (0 = all CPUs)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, objName, err := buildRunConfig()
	if err != nil {
		return err
	}

	obj, err := objective.Lookup(objName)
	if err != nil {
		return err
	}

	id := runID
	if id == "" {
		id = objName
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
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
	elapsed := time.Since(start)

	slog.Info("Optimization complete",
		"run_id", id,
		"elapsed", elapsed,
		"generations", result.TotalGenerations,
		"evaluations", result.Evaluations,
		"best_fitness", result.BestFitness,
		"resumed", result.Resumed,
	)

	fmt.Printf("Run %s: %d generation(s), best fitness %.6g\n", id, result.TotalGenerations, result.BestFitness)
	fmt.Printf("Best genome: %v\n", result.BestGenome)

	return nil
}

// buildRunConfig assembles the engine configuration from either the problem
// file or the individual flags.
func buildRunConfig() (ga.Config, string, error) {
	if problemPath != "" {
		spec, err := problem.Load(problemPath)
		if err != nil {
			return ga.Config{}, "", err
		}
		cfg := spec.Config()
		if workers > 0 {
			cfg.MaxWorkers = workers
		}
		return cfg, spec.Objective, nil
	}

	if objectiveName == "" {
		return ga.Config{}, "", fmt.Errorf("either --objective or --problem is required")
	}

	ranges, err := parseRanges(rangeSpecs, dims)
	if err != nil {
		return ga.Config{}, "", err
	}

	return ga.Config{
		Generations:  generations,
		NumParams:    len(ranges),
		NumSolutions: solutions,
		NumParents:   parents,
		Ranges:       ranges,
		MaxWorkers:   workers,
		Seed:         seed,
	}, objectiveName, nil
}

// parseRanges turns --range low:high flags into engine ranges. With dims > 0
// a single range is replicated across all parameters.
func parseRanges(specs []string, dims int) ([]ga.Range, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --range low:high is required")
	}

	ranges := make([]ga.Range, 0, len(specs))
	for _, spec := range specs {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid range %q, expected low:high", spec)
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", spec, err)
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", spec, err)
		}
		ranges = append(ranges, ga.Range{Low: low, High: high})
	}

	if dims > 0 {
		if len(ranges) != 1 {
			return nil, fmt.Errorf("--dims requires exactly one --range, got %d", len(ranges))
		}
		shared := ranges[0]
		ranges = make([]ga.Range, dims)
		for i := range ranges {
			ranges[i] = shared
		}
	}

	return ranges, nil
}
