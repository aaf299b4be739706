// Package pathutil provides utilities for safe path handling.
package pathutil

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath    = errors.New("path is empty")
	ErrNullBytes    = errors.New("path contains null bytes")
	ErrOutsideRoot  = errors.New("path escapes root directory")
	ErrEmptyRootDir = errors.New("root directory is empty")
)

// Within resolves path against root and returns the joined path if it stays
// inside root. Absolute paths are accepted when they lie under root.
// Existing paths are also checked after resolving symlinks, so a link
// below root cannot point outside it.
func Within(root, path string) (string, error) {
	if root == "" {
		return "", ErrEmptyRootDir
	}
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.Contains(path, "\x00") {
		return "", ErrNullBytes
	}

	root = filepath.Clean(root)
	joined := filepath.FromSlash(path)
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(root, joined)
	}
	joined = filepath.Clean(joined)
	if !contains(root, joined) {
		return "", ErrOutsideRoot
	}

	// Paths that do not exist yet have nothing to resolve.
	realPath, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return joined, nil
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}
	if !contains(realRoot, realPath) {
		return "", ErrOutsideRoot
	}
	return joined, nil
}

func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
