package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSha3256Hash(t *testing.T) {
	// SHA3-256 of the empty string.
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", Sha3256Hash(nil))
	assert.NotEqual(t, Sha3256Hash([]byte("key-a")), Sha3256Hash([]byte("key-b")))
}

func TestBlake3Hash(t *testing.T) {
	// BLAKE3 of the empty string.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", Blake3Hash(nil))
	assert.Len(t, Blake3Hash([]byte("leaf.jpg")), 64)
}
