// Package discovery finds coverage files using glob patterns with recursive "**" support.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrAbsolutePattern is returned for patterns that are not relative to the root.
var ErrAbsolutePattern = errors.New("pattern must be relative to the root")

// Glob resolves patterns such as "test/**/coverage.info" against a root directory.
//
// "**" matches zero or more path segments; every other segment follows
// path.Match. Matching is case-sensitive. "**" never descends into hidden
// directories or node_modules; those are only entered when a literal
// segment names them.
type Glob struct{}

// Discover implements application.Discoverer.
func (Glob) Discover(ctx context.Context, root, pattern string) ([]string, error) {
	pat, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	var matches []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if !canContain(pat.segments, parts) {
				return filepath.SkipDir
			}
			return nil
		}
		if match(pat.segments, parts) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}

// Pattern is a compiled glob. Paths passed to its methods are relative to
// the root and may use either separator.
type Pattern struct {
	segments []string
}

// Compile validates pattern and splits it into segments.
func Compile(pattern string) (Pattern, error) {
	segments, err := compile(pattern)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{segments: segments}, nil
}

// Match reports whether the file at rel matches the pattern.
func (p Pattern) Match(rel string) bool {
	return match(p.segments, split(rel))
}

// CanContain reports whether the directory at rel may hold a matching file.
// The root itself ("." or "") always can.
func (p Pattern) CanContain(rel string) bool {
	return canContain(p.segments, split(rel))
}

func split(rel string) []string {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." {
		return nil
	}
	return strings.Split(rel, "/")
}

// compile splits a pattern into segments and validates each one.
func compile(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	pattern = strings.TrimPrefix(pattern, "./")
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if path.IsAbs(pattern) || filepath.IsAbs(filepath.FromSlash(pattern)) {
		return nil, fmt.Errorf("%w: %s", ErrAbsolutePattern, pattern)
	}

	var segments []string
	for _, seg := range strings.Split(pattern, "/") {
		switch seg {
		case "", ".":
			continue
		case "**":
			// Collapse consecutive "**".
			if n := len(segments); n > 0 && segments[n-1] == "**" {
				continue
			}
		default:
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// match reports whether parts, a slash-split relative file path, matches segments.
func match(segments, parts []string) bool {
	if len(segments) == 0 {
		return len(parts) == 0
	}
	if segments[0] == "**" {
		if match(segments[1:], parts) {
			return true
		}
		return len(parts) > 0 && !opaque(parts[0]) && match(segments, parts[1:])
	}
	if len(parts) == 0 {
		return false
	}
	ok, _ := path.Match(segments[0], parts[0])
	return ok && match(segments[1:], parts[1:])
}

// canContain reports whether a directory at parts may hold a file matching segments.
func canContain(segments, parts []string) bool {
	if len(parts) == 0 {
		return true
	}
	if len(segments) == 0 {
		return false
	}
	if segments[0] == "**" {
		if canContain(segments[1:], parts) {
			return true
		}
		return !opaque(parts[0]) && canContain(segments, parts[1:])
	}
	ok, _ := path.Match(segments[0], parts[0])
	return ok && canContain(segments[1:], parts[1:])
}

// opaque names are never entered through "**".
func opaque(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}
