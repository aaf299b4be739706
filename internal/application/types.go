package application

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

// Pipeline stage errors. Every failure returned by a pipeline wraps exactly one of these.
var (
	ErrDiscovery = errors.New("discover coverage files")
	ErrTransform = errors.New("transform coverage data")
	ErrWrite     = errors.New("write coverage report")
)

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrDuplicateTask = errors.New("duplicate task name")
)

// ConfigLoader reads optional report configuration overrides.
type ConfigLoader interface {
	Load(path string) (domain.ReportConfig, error)
	Exists(path string) (bool, error)
}

// Discoverer resolves a glob pattern relative to root into file paths.
// Returned paths are absolute and sorted.
type Discoverer interface {
	Discover(ctx context.Context, root, pattern string) ([]string, error)
}

// CoverageParser parses lcov data. name is used in error messages.
type CoverageParser interface {
	Parse(name string, r io.Reader) ([]domain.FileCoverage, error)
}

// Renderer turns a merged report into output artifacts.
type Renderer interface {
	Render(report domain.Report) ([]domain.Artifact, error)
}

// ArtifactWriter persists artifacts below a directory, creating it if absent.
type ArtifactWriter interface {
	Write(ctx context.Context, dir string, artifacts []domain.Artifact) error
}

// FileWatcher watches a directory tree and emits debounced change events.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
}

// WatchCallback is invoked after each run in watch mode.
type WatchCallback func(runNumber int, result GenerateResult, err error)

// Input is one discovered coverage file.
type Input struct {
	// Path is the absolute file path.
	Path string
	// Name is Path relative to the root, slash-separated.
	Name string
	Data []byte
}

// GenerateOptions configure one run of the report task.
type GenerateOptions struct {
	// ConfigPath points at an optional YAML file; relative paths resolve against Root.
	ConfigPath string
	// Root overrides the configured root; empty means the working directory.
	Root string
	// Overrides are applied after the config file.
	Overrides domain.ReportConfig
}

// GenerateResult describes a completed run.
type GenerateResult struct {
	Config    domain.ReportConfig `json:"config"`
	Inputs    []string            `json:"inputs"`
	Files     int                 `json:"files"`
	Totals    domain.Summary      `json:"totals"`
	Artifacts []string            `json:"artifacts"`
}

// Skipped reports whether the run found no inputs and wrote nothing.
func (r GenerateResult) Skipped() bool {
	return len(r.Inputs) == 0
}
