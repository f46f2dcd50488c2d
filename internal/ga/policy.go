package ga

import (
	"fmt"
	"math"
)

// MutationPolicy maps the combined fitness of two parents to a mutation probability.
// Policies must be non-increasing in the fitness sum.
type MutationPolicy func(fitnessA, fitnessB float64) float32

// Policy names accepted by PolicyByName.
const (
	PolicyInverseSqrt    = "inverse_sqrt"
	PolicyInverseAverage = "inverse_average"
	PolicyInverseLog     = "inverse_log"
)

// InverseSqrt returns 1/sqrt(max(a+b, floor)).
func InverseSqrt(floor float64) MutationPolicy {
	return func(a, b float64) float32 {
		return probability(1 / math.Sqrt(math.Max(a+b, floor)))
	}
}

// InverseAverage returns 1/max((a+b)/2, floor). It decays fastest of the three.
func InverseAverage(floor float64) MutationPolicy {
	return func(a, b float64) float32 {
		return probability(1 / math.Max(0.5*(a+b), floor))
	}
}

// InverseLog returns 1/max(ln(1+a+b), floor). It decays slowest of the three.
func InverseLog(floor float64) MutationPolicy {
	return func(a, b float64) float32 {
		return probability(1 / math.Max(math.Log1p(math.Max(a+b, 0)), floor))
	}
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string, floor float64) (MutationPolicy, error) {
	if !(floor > 0) {
		return nil, &ConfigError{Field: "mutation_floor", Reason: fmt.Sprintf("must be positive, got %v", floor)}
	}
	switch name {
	case "", PolicyInverseSqrt:
		return InverseSqrt(floor), nil
	case PolicyInverseAverage:
		return InverseAverage(floor), nil
	case PolicyInverseLog:
		return InverseLog(floor), nil
	default:
		return nil, &ConfigError{Field: "mutation_policy", Reason: fmt.Sprintf("unknown policy %q", name)}
	}
}

func probability(p float64) float32 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 1:
		return 1
	}
	return float32(p)
}
