package mcptools

import (
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Options configures the MCP server.
type Options struct {
	ComputeTimeout time.Duration
	Workers        int
	Logger         *zap.Logger
}

// NewServer creates the MCP server with every tool registered.
func NewServer(opts Options) *server.MCPServer {
	s := server.NewMCPServer(
		"gocurvature",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Symbolic curvature of predefined spacetimes. "+
			"Call list_metrics first, then compute_curvature with a metric and an operation."),
	)

	listTool := NewListMetricsTool()
	s.AddTool(listTool.Definition(), listTool.Handle)

	computeTool := NewComputeTool(opts.ComputeTimeout, opts.Workers, opts.Logger)
	s.AddTool(computeTool.Definition(), computeTool.Handle)

	return s
}
