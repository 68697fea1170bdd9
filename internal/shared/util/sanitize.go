package util

import (
	"errors"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid storage key")

// CleanStorageKey normalizes a slash-separated object key and rejects
// traversal outside the store root.
func CleanStorageKey(key string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if s == "" {
		return "", ErrInvalidKey
	}
	clean := strings.TrimLeft(path.Clean("/"+s), "/")
	if clean == "" || strings.Contains(s, "..") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
