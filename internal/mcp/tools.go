package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/lcovhtml/internal/application"
	"github.com/felixgeelhaar/lcovhtml/internal/domain"
	"github.com/felixgeelhaar/lcovhtml/internal/infrastructure/badge"
)

// handleGenerate implements the generate_coverage_report tool. Task failures
// are reported in the output rather than as protocol errors.
func (s *Server) handleGenerate(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, GenerateOutput, error) {
	opts := application.GenerateOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Root:       coalesce(input.Root, s.config.Root),
		Overrides:  domain.ReportConfig{Name: input.Name},
	}

	result, err := s.svc.Generate(ctx, opts)

	output := GenerateOutput{
		OK:        err == nil,
		Files:     result.Files,
		Inputs:    result.Inputs,
		Totals:    result.Totals,
		Artifacts: result.Artifacts,
		Summary:   generateSummary(result),
	}
	if result.Config.Root != "" {
		output.Output = result.Config.OutputPath()
	}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Report generation failed"
	}

	return nil, output, nil
}

// generateSummary creates a human-readable summary from the result.
func generateSummary(result application.GenerateResult) string {
	if result.Skipped() {
		return fmt.Sprintf("No files matched %s; nothing written", result.Config.Input)
	}
	return fmt.Sprintf("%s | %s lines | %d files from %d inputs",
		result.Config.Name,
		badge.FormatPercent(result.Totals.Lines),
		result.Files,
		len(result.Inputs),
	)
}
