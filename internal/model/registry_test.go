package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry(t.TempDir(), DefaultSpecs(), &fakeLoader{}, nil)

	assert.Equal(t, []string{CropModel, MultispectralModel, PestModel}, registry.Names())

	_, err := registry.Get("weeds")
	assert.ErrorIs(t, err, ErrUnknownModel)

	pest, err := registry.Get(PestModel)
	require.NoError(t, err)
	assert.Equal(t, PestModel, pest.Name())

	for _, status := range registry.Statuses() {
		assert.Equal(t, "uninitialized", status.State)
	}
}

func TestRegistryWarmupCollectsErrors(t *testing.T) {
	registry := NewRegistry(t.TempDir(), DefaultSpecs(), &fakeLoader{}, nil)

	err := registry.Warmup()
	require.ErrorIs(t, err, ErrArtifactNotFound)

	for _, status := range registry.Statuses() {
		assert.Equal(t, "failed", status.State)
		assert.Contains(t, status.Error, status.Name)
	}

	assert.ErrorIs(t, registry.Warmup("weeds"), ErrUnknownModel)
	assert.NoError(t, registry.Close())
}

func TestRegistryWarmupSelected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crop_model.onnx", "graph")
	network := &fakeNetwork{inputShape: []int64{1, 224, 224, 3}, output: []float32{0.4}}
	registry := NewRegistry(dir, DefaultSpecs(), &fakeLoader{network: network}, nil)

	require.NoError(t, registry.Warmup(CropModel))

	crop, err := registry.Get(CropModel)
	require.NoError(t, err)
	assert.Equal(t, StateReady, crop.State())

	status := crop.Status()
	assert.Equal(t, []string{"Healthy", "Diseased"}, status.Labels)
	assert.Equal(t, "full_model", status.Kind)

	pest, _ := registry.Get(PestModel)
	assert.Equal(t, StateUninitialized, pest.State())

	require.NoError(t, registry.Close())
	assert.True(t, network.closed.Load())
}
