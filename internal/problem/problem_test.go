package problem

import (
	"os"
	"path/filepath"
	"testing"
)

const validProblem = `
objective: sphere
generations: 25
solutions: 16
parents: 4
seed: 42
workers: 2
ranges:
  - {low: -10, high: 10}
  - {low: 0, high: 5}
`

func TestParse_Valid(t *testing.T) {
	spec, err := Parse([]byte(validProblem))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if spec.Objective != "sphere" {
		t.Errorf("Objective = %q, want sphere", spec.Objective)
	}
	if spec.Generations != 25 {
		t.Errorf("Generations = %d, want 25", spec.Generations)
	}
	if len(spec.Ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(spec.Ranges))
	}
	if spec.Ranges[0].Low != -10 || spec.Ranges[0].High != 10 {
		t.Errorf("unexpected first range: %+v", spec.Ranges[0])
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing objective",
			yaml: "solutions: 8\nparents: 2\nranges: [{low: 0, high: 1}]",
		},
		{
			name: "missing ranges",
			yaml: "objective: sphere\nsolutions: 8\nparents: 2",
		},
		{
			name: "inverted range",
			yaml: "objective: sphere\nsolutions: 8\nparents: 2\nranges: [{low: 5, high: 1}]",
		},
		{
			name: "too few solutions",
			yaml: "objective: sphere\nsolutions: 1\nparents: 1\nranges: [{low: 0, high: 1}]",
		},
		{
			name: "malformed yaml",
			yaml: "objective: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected parse/validation error")
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	if err := os.WriteFile(path, []byte(validProblem), 0644); err != nil {
		t.Fatalf("failed to write problem file: %v", err)
	}

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if spec.Solutions != 16 {
		t.Errorf("Solutions = %d, want 16", spec.Solutions)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSpecConfig(t *testing.T) {
	spec, err := Parse([]byte(validProblem))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := spec.Config()
	if cfg.NumParams != 2 {
		t.Errorf("NumParams = %d, want 2", cfg.NumParams)
	}
	if cfg.NumSolutions != 16 || cfg.NumParents != 4 {
		t.Errorf("geometry = %d/%d, want 16/4", cfg.NumSolutions, cfg.NumParents)
	}
	if cfg.MaxWorkers != 2 {
		t.Errorf("MaxWorkers = %d, want 2", cfg.MaxWorkers)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("derived config should validate: %v", err)
	}
}
