package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/lcovhtml/internal/domain"
)

// Service wires the report pipeline from its ports.
type Service struct {
	ConfigLoader ConfigLoader
	Discoverer   Discoverer
	Parser       CoverageParser
	Renderer     Renderer
	Writer       ArtifactWriter
}

// ResolveConfig builds the effective configuration: built-in defaults, then
// the optional config file, then explicit overrides. The result is validated.
func (s *Service) ResolveConfig(opts GenerateOptions) (domain.ReportConfig, error) {
	root, err := resolveRoot(opts)
	if err != nil {
		return domain.ReportConfig{}, err
	}

	cfg := domain.DefaultReportConfig()
	cfg.Root = root

	if opts.ConfigPath != "" && s.ConfigLoader != nil {
		path := opts.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		exists, err := s.ConfigLoader.Exists(path)
		if err != nil {
			return domain.ReportConfig{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		if exists {
			fileCfg, err := s.ConfigLoader.Load(path)
			if err != nil {
				return domain.ReportConfig{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
			}
			fileCfg.Root = ""
			cfg = cfg.Merge(fileCfg)
		}
	}

	overrides := opts.Overrides
	overrides.Root = ""
	cfg = cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return domain.ReportConfig{}, err
	}
	return cfg, nil
}

// Generate runs the coverage report pipeline once.
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) (GenerateResult, error) {
	cfg, err := s.ResolveConfig(opts)
	if err != nil {
		return GenerateResult{}, err
	}

	pipeline := s.pipeline(cfg)
	outcome, err := pipeline.Run(ctx)
	result := GenerateResult{
		Config:    cfg,
		Inputs:    outcome.Inputs,
		Files:     len(outcome.Report.Files),
		Totals:    outcome.Report.Totals,
		Artifacts: outcome.Artifacts,
	}
	return result, err
}

func (s *Service) pipeline(cfg domain.ReportConfig) Pipeline {
	return Pipeline{
		Source: GlobSource{
			Discoverer: s.Discoverer,
			Root:       cfg.Root,
			Pattern:    cfg.Input,
		},
		Transform: ReportTransform{
			Parser:     s.Parser,
			Renderer:   s.Renderer,
			Name:       cfg.Name,
			SourceRoot: cfg.Root,
			BadgeStyle: cfg.BadgeStyle,
		},
		Sink: DirSink{
			Writer: s.Writer,
			Dir:    cfg.OutputPath(),
		},
	}
}

// Watch runs the report once, then again after every change reported by watcher.
func (s *Service) Watch(ctx context.Context, opts GenerateOptions, watcher FileWatcher, callback WatchCallback) error {
	cfg, err := s.ResolveConfig(opts)
	if err != nil {
		return err
	}

	if err := watcher.WatchDir(cfg.Root); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	runNumber := 1
	result, runErr := s.Generate(ctx, opts)
	if callback != nil {
		callback(runNumber, result, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			result, runErr := s.Generate(ctx, opts)
			if callback != nil {
				callback(runNumber, result, runErr)
			}
		}
	}
}

func resolveRoot(opts GenerateOptions) (string, error) {
	root := opts.Root
	if root == "" {
		root = opts.Overrides.Root
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}
	return abs, nil
}
