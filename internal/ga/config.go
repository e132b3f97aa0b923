package ga

import (
	"fmt"
	"runtime"
)

// Range is the inclusive [Low, High] bound for one genome position.
// It is used both for random initialization and for mutation sampling.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Config holds the parameters of one optimization run.
type Config struct {
	// Generations is the number of cycles to run (may be 0).
	Generations int

	// NumParams is the genome length.
	NumParams int

	// NumSolutions is the fixed population size.
	NumSolutions int

	// NumParents is the number of top-ranked individuals kept for breeding.
	// Must be strictly less than NumSolutions.
	NumParents int

	// Ranges holds one [Low, High] bound per genome position.
	// Its length must equal NumParams.
	Ranges []Range

	// MaxWorkers bounds the number of concurrent fitness evaluations.
	// Zero means runtime.NumCPU().
	MaxWorkers int

	// Seed feeds the run's random source (initialization and mutation).
	Seed int64
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Field + " " + e.Reason
}

// withDefaults returns a copy with zero-valued optional fields filled in.
func (c Config) withDefaults() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = runtime.NumCPU()
	}
	return c
}

// Validate checks the configuration before a run starts.
// A failed validation is fatal and must happen before any storage write.
func (c Config) Validate() error {
	if c.Generations < 0 {
		return &ConfigError{Field: "Generations", Reason: "cannot be negative"}
	}
	if c.NumParams < 1 {
		return &ConfigError{Field: "NumParams", Reason: "must be at least 1"}
	}
	if c.NumParents < 1 {
		return &ConfigError{Field: "NumParents", Reason: "must be at least 1"}
	}
	if c.NumParents >= c.NumSolutions {
		return &ConfigError{
			Field:  "NumParents",
			Reason: fmt.Sprintf("must be less than NumSolutions (%d >= %d)", c.NumParents, c.NumSolutions),
		}
	}
	if len(c.Ranges) != c.NumParams {
		return &ConfigError{
			Field:  "Ranges",
			Reason: fmt.Sprintf("length %d does not match NumParams %d", len(c.Ranges), c.NumParams),
		}
	}
	for i, r := range c.Ranges {
		if r.Low > r.High {
			return &ConfigError{
				Field:  "Ranges",
				Reason: fmt.Sprintf("bound %d is inverted (%g > %g)", i, r.Low, r.High),
			}
		}
	}
	return nil
}
