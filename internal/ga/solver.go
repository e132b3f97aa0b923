package ga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/cwbudde/evosolve/internal/store"
)

// Checkpointer is the store surface the engine needs: load prior state at
// startup and persist a snapshot after every generation. store.Store
// satisfies it.
type Checkpointer interface {
	LoadRun(runID string) (*store.RunState, error)
	SaveRun(runID string, state *store.RunState) error
}

// Progress describes one completed generation. BestGenome is a copy the
// callback may retain.
type Progress struct {
	Generation  int
	BestFitness float64
	BestGenome  []float64
	Evaluations int
}

// Result summarizes a finished run.
type Result struct {
	// BestGenome and BestFitness describe population row 0 after the last
	// completed generation. With Generations == 0 on a fresh run the fitness
	// is still the zero sentinel, since no evaluation happened.
	BestGenome  []float64
	BestFitness float64

	// TotalGenerations is the cumulative generation count across resumes.
	TotalGenerations int

	// Evaluations is the number of fitness calls made by this invocation.
	Evaluations int

	// Resumed reports whether prior state was loaded from the store.
	Resumed bool
}

// Solve runs cfg.Generations cycles of the engine against fn, checkpointing
// through ckpt under runID after every generation.
//
// Startup loads prior state when a checkpoint exists; absence (ErrNotFound)
// bootstraps a random population from cfg.Ranges instead. Any other load
// failure, and any checkpoint whose shape disagrees with cfg, is fatal. A
// failed run leaves the last persisted generation intact, so a rerun resumes
// from there without recomputing known fitness values.
//
// ctx is honored at generation boundaries only; a cycle in flight always
// finishes its evaluation batch and its checkpoint write. onProgress, if not
// nil, is invoked after each persisted generation.
func Solve(ctx context.Context, cfg Config, fn FitnessFunc, ckpt Checkpointer, runID string, onProgress func(Progress)) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	state, resumed, err := loadOrBootstrap(cfg, ckpt, runID, rng)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting run",
		"run_id", runID,
		"resumed", resumed,
		"generations", cfg.Generations,
		"solutions", cfg.NumSolutions,
		"parents", cfg.NumParents,
		"params", cfg.NumParams,
		"workers", cfg.MaxWorkers,
	)

	pool := NewPool(cfg.MaxWorkers, fn)
	defer pool.Close()

	evaluations := 0
	fullPopulation := !resumed
	for g := 0; g < cfg.Generations; g++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		parents := state.Population[:cfg.NumParents]
		offspring := Crossover(parents, cfg.NumSolutions, cfg.NumParents, cfg.NumParams)
		offspring = Mutate(offspring, cfg.Ranges, rng)
		for i, genome := range offspring {
			state.Population[cfg.NumParents+i] = genome
		}

		required := cfg.NumSolutions - cfg.NumParents
		if fullPopulation {
			required = cfg.NumSolutions
		}
		if err := pool.Evaluate(state.Fitness, state.Population, fullPopulation, cfg.NumSolutions, cfg.NumParents); err != nil {
			return nil, err
		}
		evaluations += required
		fullPopulation = false

		sortByFitness(state.Population, state.Fitness)

		generation := len(state.Record) + 1
		best := make([]float64, cfg.NumParams)
		copy(best, state.Population[0])
		state.Record = append(state.Record, store.RecordEntry{
			Generation: generation,
			Params:     best,
			Fitness:    state.Fitness[0],
		})

		state.SavedAt = time.Now()
		if err := ckpt.SaveRun(runID, state); err != nil {
			return nil, fmt.Errorf("failed to save checkpoint: %w", err)
		}

		slog.Info("Generation complete",
			"run_id", runID,
			"generation", generation,
			"best_fitness", state.Fitness[0],
			"evaluations", required,
		)

		if onProgress != nil {
			onProgress(Progress{
				Generation:  generation,
				BestFitness: state.Fitness[0],
				BestGenome:  best,
				Evaluations: required,
			})
		}
	}

	bestGenome := make([]float64, cfg.NumParams)
	copy(bestGenome, state.Population[0])
	return &Result{
		BestGenome:       bestGenome,
		BestFitness:      state.Fitness[0],
		TotalGenerations: len(state.Record),
		Evaluations:      evaluations,
		Resumed:          resumed,
	}, nil
}

// loadOrBootstrap resolves the run's starting state. Only an explicit
// not-found from the store routes to the bootstrap path; everything else
// propagates, so a corrupt checkpoint is never silently replaced by a fresh
// population.
func loadOrBootstrap(cfg Config, ckpt Checkpointer, runID string, rng *rand.Rand) (*store.RunState, bool, error) {
	state, err := ckpt.LoadRun(runID)
	switch {
	case err == nil:
		if verr := state.Validate(); verr != nil {
			return nil, false, fmt.Errorf("checkpoint for run %q is corrupt: %w", runID, verr)
		}
		if cerr := state.CompatibleWith(cfg.NumSolutions, cfg.NumParams); cerr != nil {
			return nil, false, fmt.Errorf("checkpoint for run %q is incompatible: %w", runID, cerr)
		}
		return state, true, nil

	case errors.Is(err, store.ErrNotFound):
		return bootstrap(cfg, runID, rng), false, nil

	default:
		return nil, false, fmt.Errorf("failed to load checkpoint for run %q: %w", runID, err)
	}
}

// bootstrap builds a fresh random population, one parameter column at a time,
// each column drawn uniformly from its own range. Fitness starts at the zero
// sentinel and the record empty; nothing is persisted until the first
// generation completes.
func bootstrap(cfg Config, runID string, rng *rand.Rand) *store.RunState {
	population := make([][]float64, cfg.NumSolutions)
	for i := range population {
		population[i] = make([]float64, cfg.NumParams)
	}
	for col, r := range cfg.Ranges {
		for row := 0; row < cfg.NumSolutions; row++ {
			population[row][col] = r.Low + rng.Float64()*(r.High-r.Low)
		}
	}

	ranges := make([]store.ParamRange, len(cfg.Ranges))
	for i, r := range cfg.Ranges {
		ranges[i] = store.ParamRange{Low: r.Low, High: r.High}
	}

	return &store.RunState{
		RunID: runID,
		Config: store.RunConfig{
			NumSolutions: cfg.NumSolutions,
			NumParams:    cfg.NumParams,
			NumParents:   cfg.NumParents,
			Ranges:       ranges,
			Seed:         cfg.Seed,
		},
		Population: population,
		Fitness:    make([]float64, cfg.NumSolutions),
		Record:     nil,
	}
}

// sortByFitness reorders population rows and fitness entries ascending by
// fitness. The sort is stable, so equal-fitness rows keep their relative
// order and ties resolve deterministically.
func sortByFitness(population [][]float64, fitness []float64) {
	indices := make([]int, len(fitness))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return fitness[indices[a]] < fitness[indices[b]]
	})

	sortedPop := make([][]float64, len(population))
	sortedFit := make([]float64, len(fitness))
	for dst, src := range indices {
		sortedPop[dst] = population[src]
		sortedFit[dst] = fitness[src]
	}
	copy(population, sortedPop)
	copy(fitness, sortedFit)
}
