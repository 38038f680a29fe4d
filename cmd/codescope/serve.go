package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/engine"
	"github.com/codescope/codescope-go/internal/mcp"
)

var serveIndex bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine to MCP clients over stdio",
	Long: `Runs the Model Context Protocol server on stdin/stdout, exposing
indexing, file context, semantic search, graph analytics and completion
as tools. Intended to be launched by an MCP client (editor or agent),
not interactively; all logging goes to stderr.

Register it with a client as:
  { "command": "codescope", "args": ["serve"] }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveIndex, "index", false, "index the current directory before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	// SIGINT/SIGTERM cancel the context; the stdio loop also ends when
	// the client closes the pipe.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, err := workingRoot()
	if err != nil {
		return err
	}

	eng, done := newEngine(ctx)
	defer done()

	if serveIndex {
		if err := ensureIndexed(ctx, eng, root); err != nil {
			return err
		}
	} else {
		// Point at the cwd's project so graph- and cache-backed tools
		// answer from state persisted by earlier runs.
		eng.UseProject(engine.DeriveProjectID(root), root)
	}

	server := mcp.NewServer(eng, logger, Version)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("MCP server stopped")
	return nil
}
