// Package problem loads YAML problem definitions for the run command.
// A problem file names the objective and the population geometry so a run can
// be reproduced from a single checked-in file instead of a flag soup.
package problem

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/evosolve/internal/ga"
)

// RangeSpec is one [low, high] parameter bound in a problem file.
type RangeSpec struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high" validate:"gtefield=Low"`
}

// Spec is a declarative problem definition.
//
//	objective: sphere
//	generations: 50
//	solutions: 16
//	parents: 4
//	seed: 42
//	ranges:
//	  - {low: -10, high: 10}
//	  - {low: -10, high: 10}
type Spec struct {
	Objective   string      `yaml:"objective" validate:"required"`
	Generations int         `yaml:"generations" validate:"min=0"`
	Solutions   int         `yaml:"solutions" validate:"required,min=2"`
	Parents     int         `yaml:"parents" validate:"required,min=1"`
	Ranges      []RangeSpec `yaml:"ranges" validate:"required,min=1,dive"`
	Workers     int         `yaml:"workers" validate:"min=0"`
	Seed        int64       `yaml:"seed"`
}

// Load reads and validates a problem file. Structural validation happens
// here; the engine's own Validate still runs on the derived config.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates problem YAML.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse problem file: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&spec); err != nil {
		return nil, fmt.Errorf("invalid problem file: %w", err)
	}

	return &spec, nil
}

// Config converts the problem definition into an engine configuration.
func (s *Spec) Config() ga.Config {
	ranges := make([]ga.Range, len(s.Ranges))
	for i, r := range s.Ranges {
		ranges[i] = ga.Range{Low: r.Low, High: r.High}
	}
	return ga.Config{
		Generations:  s.Generations,
		NumParams:    len(s.Ranges),
		NumSolutions: s.Solutions,
		NumParents:   s.Parents,
		Ranges:       ranges,
		MaxWorkers:   s.Workers,
		Seed:         s.Seed,
	}
}
