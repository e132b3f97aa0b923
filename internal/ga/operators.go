package ga

import "math/rand"

// Crossover breeds numSolutions-numParents offspring from the given parents
// using single-point crossover at a fixed point of numParams/2.
//
// Offspring k inherits genes [0, point) from parents[k%numParents] and genes
// [point, numParams) from parents[(k+1)%numParents]. Pairing wraps around, so
// every parent contributes regardless of the offspring count. The result is
// deterministic and freshly allocated; parents are never written to.
func Crossover(parents [][]float64, numSolutions, numParents, numParams int) [][]float64 {
	numOffspring := numSolutions - numParents
	point := numParams / 2

	offspring := make([][]float64, numOffspring)
	for k := 0; k < numOffspring; k++ {
		a := parents[k%numParents]
		b := parents[(k+1)%numParents]

		genome := make([]float64, numParams)
		copy(genome[:point], a[:point])
		copy(genome[point:], b[point:])
		offspring[k] = genome
	}
	return offspring
}

// Mutate perturbs exactly one gene per offspring: a uniformly chosen position
// is redrawn uniformly from that position's [Low, High] range. All other genes
// are untouched copies of the input. The input rows are never modified; the
// returned rows are new allocations.
func Mutate(offspring [][]float64, ranges []Range, rng *rand.Rand) [][]float64 {
	mutated := make([][]float64, len(offspring))
	for i, row := range offspring {
		genome := make([]float64, len(row))
		copy(genome, row)

		col := rng.Intn(len(ranges))
		r := ranges[col]
		genome[col] = r.Low + rng.Float64()*(r.High-r.Low)
		mutated[i] = genome
	}
	return mutated
}
