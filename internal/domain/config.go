package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Defaults of the built-in generate-coverage-report task.
const (
	DefaultReportName   = "My WebApp"
	DefaultInputPattern = "test/**/coverage.info"
	DefaultOutputDir    = ".coverage"
)

// Badge styles.
const (
	BadgeStyleFlat       = "flat"
	BadgeStyleFlatSquare = "flat-square"
)

// Configuration errors.
var (
	ErrInvalidConfig = errors.New("invalid report configuration")
	ErrEmptyName     = errors.New("name is required")
	ErrEmptyPattern  = errors.New("input pattern is required")
	ErrEmptyOutput   = errors.New("output directory is required")
	ErrEmptyRoot     = errors.New("root directory is required")
	ErrBadgeStyle    = errors.New("badge style must be flat or flat-square")
)

// ReportConfig configures one run of the coverage report task.
type ReportConfig struct {
	// Name is the display title embedded in the rendered report.
	Name string `json:"name"`
	// Input is a glob, relative to Root, selecting lcov files.
	Input string `json:"input"`
	// Output is the destination directory, relative to Root unless absolute.
	Output string `json:"output"`
	// Root anchors glob resolution and relative output paths.
	Root string `json:"root"`
	// BadgeStyle selects the look of badge.svg. Empty means flat.
	BadgeStyle string `json:"badge_style"`
}

// DefaultReportConfig returns the built-in task definition without a root.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Name:       DefaultReportName,
		Input:      DefaultInputPattern,
		Output:     DefaultOutputDir,
		BadgeStyle: BadgeStyleFlat,
	}
}

// Merge returns c with every non-empty field of override applied.
func (c ReportConfig) Merge(override ReportConfig) ReportConfig {
	if override.Name != "" {
		c.Name = override.Name
	}
	if override.Input != "" {
		c.Input = override.Input
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Root != "" {
		c.Root = override.Root
	}
	if override.BadgeStyle != "" {
		c.BadgeStyle = override.BadgeStyle
	}
	return c
}

// Validate checks required fields. The returned error wraps ErrInvalidConfig.
func (c ReportConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, ErrEmptyName)
	}
	if strings.TrimSpace(c.Input) == "" {
		errs = append(errs, ErrEmptyPattern)
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, ErrEmptyOutput)
	}
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, ErrEmptyRoot)
	}
	switch c.BadgeStyle {
	case "", BadgeStyleFlat, BadgeStyleFlatSquare:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrBadgeStyle, c.BadgeStyle))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// OutputPath resolves the output directory against Root.
func (c ReportConfig) OutputPath() string {
	if filepath.IsAbs(c.Output) {
		return filepath.Clean(c.Output)
	}
	return filepath.Join(c.Root, c.Output)
}
