package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classes.txt", "\ufeffaphids\r\n\n  armyworm  \n\t\nbeetle")

	labels, err := LoadLabels(filepath.Join(dir, "classes.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aphids", "armyworm", "beetle"}, labels)
}

func TestLoadLabelsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLabels(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, ErrLabelFileMissing)

	writeFile(t, dir, "blank.txt", "\n \n")
	_, err = LoadLabels(filepath.Join(dir, "blank.txt"))
	assert.ErrorIs(t, err, ErrEmptyLabelSet)
}
