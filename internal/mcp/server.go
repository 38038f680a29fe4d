package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/codescope/codescope-go/internal/engine"
)

const serverName = "codescope-mcp-server"

// Server exposes the engine's consumer API as MCP tools over stdio.
// Logging goes to stderr; stdout must carry nothing but protocol frames.
type Server struct {
	engine *engine.Engine
	logger *logrus.Logger
	server *mcp.Server
}

// NewServer wires the tool set onto a fresh MCP server around an
// already-constructed engine.
func NewServer(eng *engine.Engine, logger *logrus.Logger, version string) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		engine: eng,
		logger: logger,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves stdio until the client disconnects or the context is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithField("server", serverName).Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
