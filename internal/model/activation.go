package model

import (
	"fmt"
	"math"
)

// Activation turns raw network output into a probability distribution over
// the label set.
type Activation int

const (
	// Softmax treats the output as logits.
	Softmax Activation = iota
	// Sigmoid treats a single sigmoid output as the probability of the last
	// label of a two-label set, giving [1-p, p].
	Sigmoid
	// Probabilities treats the output as an already normalized distribution
	// and only renormalizes it.
	Probabilities
)

func (a Activation) String() string {
	switch a {
	case Softmax:
		return "softmax"
	case Sigmoid:
		return "sigmoid"
	case Probabilities:
		return "probabilities"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}

// CheckLabels reports whether numLabels labels can be produced by a.
func (a Activation) CheckLabels(numLabels int) error {
	if a == Sigmoid && numLabels != 2 {
		return fmt.Errorf("sigmoid output needs exactly 2 labels, got %d", numLabels)
	}
	if numLabels < 1 {
		return fmt.Errorf("no labels")
	}
	return nil
}

// OutputWidth is the network output width expected for numLabels labels.
func (a Activation) OutputWidth(numLabels int) int {
	if a == Sigmoid {
		return 1
	}
	return numLabels
}

// Apply converts output to a distribution of numLabels entries.
func (a Activation) Apply(output []float32, numLabels int) ([]float64, error) {
	if err := a.CheckLabels(numLabels); err != nil {
		return nil, err
	}
	if want := a.OutputWidth(numLabels); len(output) != want {
		return nil, fmt.Errorf("network produced %d values, expected %d", len(output), want)
	}

	switch a {
	case Softmax:
		return softmax(output)
	case Sigmoid:
		if math.IsNaN(float64(output[0])) {
			return nil, fmt.Errorf("sigmoid output is NaN")
		}
		p := math.Min(math.Max(float64(output[0]), 0), 1)
		return []float64{1 - p, p}, nil
	case Probabilities:
		return normalize(output)
	default:
		return nil, fmt.Errorf("unsupported activation %s", a)
	}
}

func softmax(logits []float32) ([]float64, error) {
	maxLogit := math.Inf(-1)
	for i, v := range logits {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("logit %d is not finite: %v", i, v)
		}
		maxLogit = math.Max(maxLogit, float64(v))
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxLogit)
		sum += out[i]
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("softmax sum is %v", sum)
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

func normalize(values []float32) ([]float64, error) {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		if v < 0 || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("output %d is not a probability: %v", i, v)
		}
		out[i] = float64(v)
		sum += out[i]
	}
	if sum == 0 {
		return nil, fmt.Errorf("output distribution sums to zero")
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// Argmax returns the index of the first maximum.
func Argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
