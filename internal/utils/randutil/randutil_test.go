package randutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedKey(t *testing.T) {
	a, err := PrefixedKey("agri", 32)
	require.NoError(t, err)
	b, err := PrefixedKey("agri", 32)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "agri_"))
	assert.Len(t, a, len("agri_")+43)
	assert.NotEqual(t, a, b)
}

func TestMaskString(t *testing.T) {
	assert.Equal(t, "agri****wxyz", MaskString("agri_abcwxyz", 4, 4))
	assert.Equal(t, "***", MaskString("abc", 4, 4))
}
