package ga

import "fmt"

// FitnessFunc evaluates one genome and returns its scalar fitness.
// Lower is better. Implementations must be safe for concurrent calls and must
// not retain the genome slice past the call.
type FitnessFunc func(genome []float64) (float64, error)

// Pure lifts an error-free objective into a FitnessFunc.
func Pure(f func(genome []float64) float64) FitnessFunc {
	return func(genome []float64) (float64, error) {
		return f(genome), nil
	}
}

// EvalError reports a fitness function failure for one population row.
type EvalError struct {
	Row int
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("fitness evaluation failed for row %d: %v", e.Row, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

type evalTask struct {
	row    int
	genome []float64
}

type evalResult struct {
	row     int
	fitness float64
	err     error
}

// Pool is a long-lived set of fitness workers reused across generations.
// Workers are spawned once at construction and torn down by Close.
type Pool struct {
	workers int
	tasks   chan evalTask
	results chan evalResult
}

// NewPool starts workers goroutines that evaluate genomes with fn.
func NewPool(workers int, fn FitnessFunc) *Pool {
	p := &Pool{
		workers: workers,
		tasks:   make(chan evalTask),
		results: make(chan evalResult, workers),
	}
	for i := 0; i < workers; i++ {
		go p.worker(fn)
	}
	return p
}

func (p *Pool) worker(fn FitnessFunc) {
	for t := range p.tasks {
		v, err := fn(t.genome)
		p.results <- evalResult{row: t.row, fitness: v, err: err}
	}
}

// Close stops the worker goroutines. The pool must be idle.
func (p *Pool) Close() {
	close(p.tasks)
}

// Evaluate fills the fitness slots left unknown by the current cycle.
//
// When fullPopulation is true (the first cycle of a fresh run) every row is
// evaluated; otherwise only the trailing numSolutions-numParents offspring
// rows are, since the leading parent rows keep their fitness from the previous
// ranking. Rows are dispatched in waves of min(remaining, workers), walking
// backward from the last row; a wave is fully collected before the next one
// starts. Each result is written to the fitness slot of its source row
// regardless of completion order, so population/fitness alignment holds under
// any interleaving. A failed evaluation drains its wave and aborts with an
// *EvalError; there is no per-row timeout, so a stuck objective stalls its
// wave.
func (p *Pool) Evaluate(fitness []float64, population [][]float64, fullPopulation bool, numSolutions, numParents int) error {
	required := numSolutions
	if !fullPopulation {
		required = numSolutions - numParents
	}

	completed := 0
	for completed < required {
		wave := required - completed
		if wave > p.workers {
			wave = p.workers
		}

		lo := numSolutions - completed - wave
		for row := lo; row < lo+wave; row++ {
			genome := make([]float64, len(population[row]))
			copy(genome, population[row])
			p.tasks <- evalTask{row: row, genome: genome}
		}

		var firstErr error
		for i := 0; i < wave; i++ {
			res := <-p.results
			if res.err != nil {
				if firstErr == nil {
					firstErr = &EvalError{Row: res.row, Err: res.err}
				}
				continue
			}
			fitness[res.row] = res.fitness
		}
		if firstErr != nil {
			return firstErr
		}
		completed += wave
	}
	return nil
}
