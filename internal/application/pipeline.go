package application

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

// Source produces the pipeline inputs.
type Source interface {
	Inputs(ctx context.Context) ([]Input, error)
}

// Transform converts inputs into a report and its artifacts. It must not touch the filesystem output.
type Transform interface {
	Apply(ctx context.Context, inputs []Input) (domain.Report, []domain.Artifact, error)
}

// Sink persists artifacts.
type Sink interface {
	Write(ctx context.Context, artifacts []domain.Artifact) error
}

// Outcome is what a pipeline run produced.
type Outcome struct {
	Inputs    []string
	Report    domain.Report
	Artifacts []string
}

// Pipeline runs Source, Transform and Sink strictly in sequence and stops at
// the first failure. When the source yields nothing, neither Transform nor
// Sink runs.
type Pipeline struct {
	Source    Source
	Transform Transform
	Sink      Sink
}

// Run executes the pipeline once.
func (p Pipeline) Run(ctx context.Context) (Outcome, error) {
	inputs, err := p.Source.Inputs(ctx)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	for _, in := range inputs {
		out.Inputs = append(out.Inputs, in.Name)
	}
	if len(inputs) == 0 {
		return out, nil
	}

	report, artifacts, err := p.Transform.Apply(ctx, inputs)
	if err != nil {
		return out, err
	}
	out.Report = report

	if err := ctx.Err(); err != nil {
		return out, err
	}
	if err := p.Sink.Write(ctx, artifacts); err != nil {
		return out, err
	}
	for _, a := range artifacts {
		out.Artifacts = append(out.Artifacts, a.Path)
	}
	return out, nil
}

// GlobSource discovers files under Root matching Pattern and reads them in order.
type GlobSource struct {
	Discoverer Discoverer
	Root       string
	Pattern    string
}

// Inputs implements Source.
func (s GlobSource) Inputs(ctx context.Context) ([]Input, error) {
	paths, err := s.Discoverer.Discover(ctx, s.Root, s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s under %s: %w", ErrDiscovery, s.Pattern, s.Root, err)
	}

	inputs := make([]Input, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path) // #nosec G304 - path comes from discovery under root
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrTransform, path, err)
		}
		inputs = append(inputs, Input{Path: path, Name: relativeName(s.Root, path), Data: data})
	}
	return inputs, nil
}

// ReportTransform parses every input as lcov, merges them and renders the report.
type ReportTransform struct {
	Parser     CoverageParser
	Renderer   Renderer
	Name       string
	SourceRoot string
	BadgeStyle string
}

// Apply implements Transform.
func (t ReportTransform) Apply(ctx context.Context, inputs []Input) (domain.Report, []domain.Artifact, error) {
	sets := make([][]domain.FileCoverage, 0, len(inputs))
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return domain.Report{}, nil, err
		}
		files, err := t.Parser.Parse(in.Name, bytes.NewReader(in.Data))
		if err != nil {
			return domain.Report{}, nil, fmt.Errorf("%w: %w", ErrTransform, err)
		}
		sets = append(sets, files)
		names = append(names, in.Name)
	}

	report := domain.NewReport(t.Name, t.SourceRoot, names, sets...)
	report.BadgeStyle = t.BadgeStyle
	artifacts, err := t.Renderer.Render(report)
	if err != nil {
		return domain.Report{}, nil, fmt.Errorf("%w: render: %w", ErrTransform, err)
	}
	return report, artifacts, nil
}

// DirSink writes artifacts below Dir.
type DirSink struct {
	Writer ArtifactWriter
	Dir    string
}

// Write implements Sink.
func (s DirSink) Write(ctx context.Context, artifacts []domain.Artifact) error {
	if err := s.Writer.Write(ctx, s.Dir, artifacts); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.Dir, err)
	}
	return nil
}

func relativeName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
