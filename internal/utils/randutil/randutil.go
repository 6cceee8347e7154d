package randutil

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// RandomString returns length random bytes, URL-safe base64 encoded.
func RandomString(length int) (string, error) {
	key := make([]byte, length)

	if _, err := rand.Read(key); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(key), nil
}

// PrefixedKey returns a random key carrying a readable prefix, e.g. "agri_k3J...".
func PrefixedKey(prefix string, length int) (string, error) {
	key, err := RandomString(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + key, nil
}

func MaskString(value string, visibleStart, visibleEnd int) string {
	if len(value) <= visibleStart+visibleEnd {
		return strings.Repeat("*", len(value))
	}

	start := value[:visibleStart]
	end := value[len(value)-visibleEnd:]
	return start + strings.Repeat("*", len(value)-(visibleStart+visibleEnd)) + end
}
