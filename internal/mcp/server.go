package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool and resource identifiers.
const (
	ToolGenerateReport = "generate_coverage_report"
	ResourceConfig     = "lcovhtml://config"
)

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
	server *mcp.Server
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config, version string) *Server {
	cfg.ConfigPath = coalesce(cfg.ConfigPath, DefaultConfig().ConfigPath)

	s := &Server{
		svc:    svc,
		config: cfg,
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "lcovhtml",
			Version: coalesce(version, "dev"),
		},
		nil,
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves MCP over stdio and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolGenerateReport,
		Description: "Render every test/**/coverage.info lcov file under the project root as an HTML coverage report in .coverage. " +
			"Succeeds without writing anything when no coverage files exist.",
	}, s.handleGenerate)
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         ResourceConfig,
		Name:        "Report Configuration",
		Description: "Effective report configuration: name, input pattern, output directory and root",
		MIMEType:    "application/json",
	}, s.handleConfigResource)
}
