package glot

import "fmt"

// WeightCount is the number of parameters in the FSRS-4.5 weight vector.
const WeightCount = 17

// Weights is the ordered FSRS-4.5 parameter vector w[0..16].
type Weights [WeightCount]float64

// DefaultWeights are the FSRS-4.5 default parameter values.
var DefaultWeights = Weights{
	0.4072, 1.1829, 3.1262, 15.4722, // w[0..3]  initial stability S₀(G)
	7.2102, 0.5316, 1.0651, 0.0234, // w[4..7]  difficulty params
	1.6160, 0.1544, 1.0824, 1.9813, // w[8..11] recall/forget stability
	0.0953, 0.2975, 2.2042, // w[12..14] forget stability params
	0.2407, 2.9466, // w[15..16] hard penalty, easy bonus
}

// LowerBounds defines the minimum allowed value for each weight.
var LowerBounds = Weights{
	0.001, 0.001, 0.001, 0.001,
	1.0, 0.001, 0.001, 0.001,
	0.0, 0.0, 0.001, 0.001,
	0.001, 0.001, 0.0,
	0.0, 1.0,
}

// UpperBounds defines the maximum allowed value for each weight.
var UpperBounds = Weights{
	100.0, 100.0, 100.0, 100.0,
	10.0, 4.0, 4.0, 0.75,
	4.5, 0.8, 3.5, 5.0,
	0.25, 0.9, 4.0,
	1.0, 6.0,
}

// ValidateWeights checks that all 17 weights are within [LowerBounds, UpperBounds].
func ValidateWeights(w Weights) error {
	for i := 0; i < WeightCount; i++ {
		if w[i] < LowerBounds[i] || w[i] > UpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %f, bounds [%f, %f]",
				ErrInvalidConfiguration, i, w[i], LowerBounds[i], UpperBounds[i])
		}
	}
	return nil
}

// WeightsFromSlice converts an externally supplied weight slice to a Weights
// vector. A slice of any length other than 17 is rejected.
func WeightsFromSlice(ws []float64) (Weights, error) {
	if len(ws) != WeightCount {
		return Weights{}, fmt.Errorf("%w: weight vector has %d elements, want %d",
			ErrInvalidConfiguration, len(ws), WeightCount)
	}
	var w Weights
	copy(w[:], ws)
	return w, nil
}
