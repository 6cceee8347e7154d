package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmax(t *testing.T) {
	dist, err := Softmax.Apply([]float32{1000, 1001, 999}, 3)
	require.NoError(t, err)

	var sum float64
	for _, p := range dist {
		assert.False(t, math.IsNaN(p))
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-12)
	assert.Equal(t, 1, Argmax(dist))
}

func TestSigmoid(t *testing.T) {
	dist, err := Sigmoid.Apply([]float32{0.25}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75, 0.25}, dist)

	_, err = Sigmoid.Apply([]float32{0.25, 0.75}, 2)
	assert.Error(t, err)

	_, err = Sigmoid.Apply([]float32{0.25}, 1)
	assert.ErrorContains(t, err, "exactly 2 labels")

	_, err = Sigmoid.Apply([]float32{0.25}, 3)
	assert.ErrorContains(t, err, "exactly 2 labels")
}

func TestSoftmaxRejectsNonFinite(t *testing.T) {
	_, err := Softmax.Apply([]float32{float32(math.NaN()), 1}, 2)
	assert.ErrorContains(t, err, "not finite")

	_, err = Softmax.Apply([]float32{1, float32(math.Inf(-1))}, 2)
	assert.ErrorContains(t, err, "not finite")
}

func TestProbabilities(t *testing.T) {
	dist, err := Probabilities.Apply([]float32{1, 3}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, dist)

	_, err = Probabilities.Apply([]float32{0, 0}, 2)
	assert.Error(t, err)

	_, err = Probabilities.Apply([]float32{-0.5, 1.5}, 2)
	assert.Error(t, err)

	_, err = Probabilities.Apply([]float32{float32(math.Inf(1)), 1}, 2)
	assert.Error(t, err)
}

func TestApplyWidthMismatch(t *testing.T) {
	_, err := Softmax.Apply([]float32{1, 2, 3}, 2)
	assert.ErrorContains(t, err, "expected 2")
}

func TestArgmaxFirstMaximum(t *testing.T) {
	assert.Equal(t, 0, Argmax([]float64{0.5, 0.5}))
	assert.Equal(t, 2, Argmax([]float64{0.1, 0.2, 0.7}))
}
