// Package output writes rendered report artifacts to disk.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

// LockFile is created inside the output directory while a report is written.
const LockFile = ".lock"

// DirWriter implements application.ArtifactWriter.
type DirWriter struct{}

// Note: fileLock and acquireLock/release are defined in platform-specific files:
// - lock_unix.go for Unix systems (Linux, macOS, BSD)
// - lock_windows.go for Windows

// Write creates dir if needed and writes every artifact below it, in order.
// Artifacts written before a failure are left in place. Files not named by
// artifacts are never removed, since dir may be shared with other content.
func (DirWriter) Write(ctx context.Context, dir string, artifacts []domain.Artifact) error {
	for _, a := range artifacts {
		if err := domain.ValidateArtifactPath(a.Path); err != nil {
			return fmt.Errorf("%w: %q", err, a.Path)
		}
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock, err := acquireLock(filepath.Join(dir, LockFile))
	if err != nil {
		return fmt.Errorf("lock output directory: %w", err)
	}
	defer lock.release()

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("create directory for %s: %w", a.Path, err)
		}
		// #nosec G306 -- report pages are meant to be world-readable
		if err := os.WriteFile(target, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.Path, err)
		}
	}
	return nil
}
