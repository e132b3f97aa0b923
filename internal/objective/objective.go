// Package objective provides named benchmark functions for exercising the
// optimizer from the CLI, the server, and tests. All functions are pure
// minimization objectives with a known optimum, safe for concurrent calls.
package objective

import (
	"fmt"
	"math"
	"sort"
)

// Func evaluates one genome and returns its scalar objective value.
// Lower is better.
type Func func(genome []float64) float64

// Sphere is sum(x_i^2); minimum 0 at the origin.
func Sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// SumSquares is the squared distance to the point (5, 5, ..., 5);
// minimum 0 at that point.
func SumSquares(x []float64) float64 {
	var sum float64
	for _, v := range x {
		d := v - 5
		sum += d * d
	}
	return sum
}

// Rosenbrock is the classic banana-valley function; minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

// Rastrigin is highly multimodal; minimum 0 at the origin.
func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

// Ackley has a nearly flat outer region and a deep hole at the origin;
// minimum 0 there.
func Ackley(x []float64) float64 {
	n := float64(len(x))
	var sumSq, sumCos float64
	for _, v := range x {
		sumSq += v * v
		sumCos += math.Cos(2 * math.Pi * v)
	}
	return -20*math.Exp(-0.2*math.Sqrt(sumSq/n)) - math.Exp(sumCos/n) + 20 + math.E
}

// Griewank has many widespread regular local minima; minimum 0 at the origin.
func Griewank(x []float64) float64 {
	var sum float64
	prod := 1.0
	for i, v := range x {
		sum += v * v / 4000
		prod *= math.Cos(v / math.Sqrt(float64(i+1)))
	}
	return sum - prod + 1
}

var registry = map[string]Func{
	"sphere":     Sphere,
	"sumsquares": SumSquares,
	"rosenbrock": Rosenbrock,
	"rastrigin":  Rastrigin,
	"ackley":     Ackley,
	"griewank":   Griewank,
}

// Lookup returns the objective registered under name.
func Lookup(name string) (Func, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q (available: %v)", name, Names())
	}
	return f, nil
}

// Names returns the registered objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
