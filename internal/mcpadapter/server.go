// Package mcpadapter exposes the query engine over the Model Context
// Protocol so an AI agent can drive it the same way melisai let an
// agent drive system collection. Grounded verbatim on the teacher's
// internal/mcp/server.go wiring (server.NewMCPServer / NewStdioServer /
// Listen); the tool schema and handler body are new (run_query instead
// of collect_metrics/get_health).
package mcpadapter

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tanelpoder/xtop-engine/internal/engine"
)

// Server wraps the MCP server instance bound to one Engine.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server exposing eng's query capability.
func NewServer(version string, eng *engine.Engine) *Server {
	s := server.NewMCPServer("xtop", version, server.WithLogging())
	registerTools(s, eng)
	return &Server{mcpServer: s}
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func registerTools(s *server.MCPServer, eng *engine.Engine) {
	runQueryTool := mcp.NewTool("run_query",
		mcp.WithDescription("Run an analytical query over sampled thread-state snapshots. Returns a JSON table of columns and rows."),
		mcp.WithString("group_cols",
			mcp.Description("Comma-separated group-by columns, e.g. 'state,syscall'"),
		),
		mcp.WithString("latency_cols",
			mcp.Description("Comma-separated latency/histogram columns, e.g. 'sc.p95_us,sclat_histogram'"),
		),
		mcp.WithString("where",
			mcp.Description("Raw WHERE predicate, e.g. \"state = 'RUN'\""),
		),
		mcp.WithString("from",
			mcp.Description("Range start: ISO timestamp or relative '-Nh'/'-Nmin'"),
		),
		mcp.WithString("to",
			mcp.Description("Range end: ISO timestamp or 'now'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Row limit"),
			mcp.DefaultNumber(50),
		),
	)
	s.AddTool(runQueryTool, newRunQueryHandler(eng))
}
