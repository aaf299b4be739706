// Package mcp provides a Model Context Protocol server for lcovhtml.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/lcovhtml/internal/application"
	"github.com/felixgeelhaar/lcovhtml/internal/domain"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/config"
)

// Service defines the application operations needed by MCP.
// This interface allows for easy mocking in tests.
type Service interface {
	Generate(ctx context.Context, opts application.GenerateOptions) (application.GenerateResult, error)
	ResolveConfig(opts application.GenerateOptions) (domain.ReportConfig, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string // Path to .lcovhtml.yaml (default: ".lcovhtml.yaml")
	Root       string // Project root (default: working directory)
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		ConfigPath: config.DefaultPath,
	}
}

// GenerateInput defines the input parameters for the generate_coverage_report tool.
type GenerateInput struct {
	Root       string `json:"root,omitempty" jsonschema:"Project root containing test/**/coverage.info"`
	Name       string `json:"name,omitempty" jsonschema:"Report title, overrides the configured name"`
	ConfigPath string `json:"configPath,omitempty" jsonschema:"Path to .lcovhtml.yaml, relative to the root"`
}

// GenerateOutput is the result of the generate_coverage_report tool.
type GenerateOutput struct {
	OK        bool           `json:"ok"`
	Summary   string         `json:"summary,omitempty"`
	Files     int            `json:"files"`
	Inputs    []string       `json:"inputs,omitempty"`
	Totals    domain.Summary `json:"totals"`
	Output    string         `json:"output,omitempty"`
	Artifacts []string       `json:"artifacts,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
