package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsafePath = errors.New("path escapes its base directory")

// ExpandPath expands the path using the user's home directory.
// If the path starts with "~", it is replaced with the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		// Replace "~" with the home directory path
		path = filepath.Join(homeDir, path[1:])
	}

	return path, nil
}

// SafeJoin joins a client supplied relative name onto base, rejecting names
// that would resolve outside of it.
func SafeJoin(base, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", ErrUnsafePath
	}

	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrUnsafePath
	}

	return filepath.Join(base, cleaned), nil
}
