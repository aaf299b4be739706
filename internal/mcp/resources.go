package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/lcovhtml/internal/application"
)

// handleConfigResource returns the effective report configuration.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := s.configJSON()
	if err != nil {
		return nil, err
	}

	uri := ResourceConfig
	if req != nil && req.Params != nil && req.Params.URI != "" {
		uri = req.Params.URI
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) configJSON() ([]byte, error) {
	cfg, err := s.svc.ResolveConfig(application.GenerateOptions{
		ConfigPath: s.config.ConfigPath,
		Root:       s.config.Root,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
