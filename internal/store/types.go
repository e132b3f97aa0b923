package store

import (
	"fmt"
	"time"
)

// ParamRange is the inclusive [Low, High] bound of one genome position,
// persisted alongside the run so a resumed run mutates within the same space.
type ParamRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// RunConfig is the configuration snapshot persisted with a run. It is the
// subset needed to judge whether a checkpoint is compatible with the
// configuration of the process trying to resume it.
type RunConfig struct {
	NumSolutions int          `json:"numSolutions"`
	NumParams    int          `json:"numParams"`
	NumParents   int          `json:"numParents"`
	Ranges       []ParamRange `json:"ranges"`
	Seed         int64        `json:"seed"`
}

// RecordEntry is one row of the generation record: the best individual after
// a completed generation. Generation counts are 1-based and cumulative across
// resumes.
type RecordEntry struct {
	Generation int       `json:"generation"`
	Params     []float64 `json:"params"`
	Fitness    float64   `json:"fitness"`
}

// RunState is the persisted snapshot of an optimization run: the ranked
// population, its fitness vector, and the append-only generation record.
// The engine owns the live state; the store only reads and writes snapshots.
//
// Invariants maintained by the engine and enforced by Validate:
//   - len(Population) == Config.NumSolutions
//   - every population row has Config.NumParams genes
//   - len(Fitness) == len(Population), index-aligned
//   - Record grows by one entry per generation and is never reordered
type RunState struct {
	RunID      string        `json:"runId"`
	Config     RunConfig     `json:"config"`
	Population [][]float64   `json:"population"`
	Fitness    []float64     `json:"fitness"`
	Record     []RecordEntry `json:"record"`
	SavedAt    time.Time     `json:"savedAt"`
}

// RunInfo contains metadata about a persisted run without the full population
// data. Used for listing runs efficiently.
type RunInfo struct {
	RunID        string    `json:"runId"`
	Generations  int       `json:"generations"`
	BestFitness  float64   `json:"bestFitness"`
	NumParams    int       `json:"numParams"`
	NumSolutions int       `json:"numSolutions"`
	SavedAt      time.Time `json:"savedAt"`
}

// ToInfo converts a full RunState to RunInfo (metadata only).
func (s *RunState) ToInfo() RunInfo {
	info := RunInfo{
		RunID:        s.RunID,
		Generations:  len(s.Record),
		NumParams:    s.Config.NumParams,
		NumSolutions: s.Config.NumSolutions,
		SavedAt:      s.SavedAt,
	}
	if len(s.Fitness) > 0 {
		info.BestFitness = s.Fitness[0]
	}
	return info
}

// ValidationError represents a run state validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// CompatibilityError reports a checkpoint whose shape disagrees with the
// configuration of the process trying to resume it.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}

// Validate checks the internal shape invariants of a loaded run state.
// A failure means the checkpoint is corrupt and must not be resumed; the data
// is never truncated or padded to fit.
func (s *RunState) Validate() error {
	if s.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if s.Config.NumSolutions < 1 {
		return &ValidationError{Field: "Config.NumSolutions", Reason: "must be positive"}
	}
	if s.Config.NumParams < 1 {
		return &ValidationError{Field: "Config.NumParams", Reason: "must be positive"}
	}
	if len(s.Population) != s.Config.NumSolutions {
		return &ValidationError{
			Field:  "Population",
			Reason: fmt.Sprintf("has %d rows, config says %d", len(s.Population), s.Config.NumSolutions),
		}
	}
	for i, row := range s.Population {
		if len(row) != s.Config.NumParams {
			return &ValidationError{
				Field:  "Population",
				Reason: fmt.Sprintf("row %d has %d genes, config says %d", i, len(row), s.Config.NumParams),
			}
		}
	}
	if len(s.Fitness) != len(s.Population) {
		return &ValidationError{
			Field:  "Fitness",
			Reason: fmt.Sprintf("has %d entries for %d population rows", len(s.Fitness), len(s.Population)),
		}
	}
	for i, entry := range s.Record {
		if entry.Generation < 1 {
			return &ValidationError{
				Field:  "Record",
				Reason: fmt.Sprintf("entry %d has non-positive generation %d", i, entry.Generation),
			}
		}
		if len(entry.Params) != s.Config.NumParams {
			return &ValidationError{
				Field:  "Record",
				Reason: fmt.Sprintf("entry %d has %d params, config says %d", i, len(entry.Params), s.Config.NumParams),
			}
		}
	}
	return nil
}

// CompatibleWith checks whether this checkpoint can be resumed under a
// configuration expecting the given population geometry.
func (s *RunState) CompatibleWith(numSolutions, numParams int) error {
	if s.Config.NumSolutions != numSolutions {
		return &CompatibilityError{
			Field:    "NumSolutions",
			Expected: fmt.Sprintf("%d", s.Config.NumSolutions),
			Actual:   fmt.Sprintf("%d", numSolutions),
		}
	}
	if s.Config.NumParams != numParams {
		return &CompatibilityError{
			Field:    "NumParams",
			Expected: fmt.Sprintf("%d", s.Config.NumParams),
			Actual:   fmt.Sprintf("%d", numParams),
		}
	}
	return nil
}
