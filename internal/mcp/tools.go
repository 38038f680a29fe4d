package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools declares the consumer API as MCP tools. Input schemas
// are spelled out explicitly so clients see parameter docs without
// round-tripping through reflection.
func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "index_project",
		Description: "Index a project tree: extract symbols and dependencies, project them into the relationship graph and embed code fragments for semantic search. Returns a per-backend report.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Project root directory. Defaults to the current working directory.",
				},
			},
		},
	}, s.handleIndexProject)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_file_context",
		Description: "Get the full context for one source file: symbols, dependencies, complexity, the file's graph neighborhood and related code fragments.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File path, absolute or relative to the indexed project root.",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleGetFileContext)

	s.server.AddTool(&mcp.Tool{
		Name:        "search_code",
		Description: "Semantic search over embedded code fragments. Returns ranked fragments with file, line range and similarity.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Natural language or code query.",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum results to return (default 10).",
				},
				"file_path": {
					Type:        "string",
					Description: "Restrict results to fragments from this file.",
				},
				"symbol_type": {
					Type:        "string",
					Description: "Restrict results to one symbol type (function, method, class, struct, file).",
				},
				"language": {
					Type:        "string",
					Description: "Restrict results to one language.",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSearchCode)

	s.server.AddTool(&mcp.Tool{
		Name:        "architecture_overview",
		Description: "Summarize the indexed project's architecture: node and relationship counts, most-depended-on entities and dependency hotspots.",
		InputSchema: emptyObjectSchema(),
	}, s.handleArchitectureOverview)

	s.server.AddTool(&mcp.Tool{
		Name:        "circular_dependencies",
		Description: "Detect circular module dependencies in the indexed project, with severity by cycle length.",
		InputSchema: emptyObjectSchema(),
	}, s.handleCircularDependencies)

	s.server.AddTool(&mcp.Tool{
		Name:        "generate_completion",
		Description: "Generate a code suggestion, explanation, refactor plan, diagnosis or optimization plan, grounded in indexed context when a file path is given.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"prompt": {
					Type:        "string",
					Description: "What to do.",
				},
				"file_path": {
					Type:        "string",
					Description: "File to ground the request in (optional).",
				},
				"intent": {
					Type:        "string",
					Description: "One of: suggest, explain, refactor, debug, optimize. Defaults to suggest.",
				},
			},
			Required: []string{"prompt"},
		},
	}, s.handleGenerateCompletion)

	s.server.AddTool(&mcp.Tool{
		Name:        "engine_status",
		Description: "Report engine health: indexed project, backend connectivity, vector store size and the active inference strategy.",
		InputSchema: emptyObjectSchema(),
	}, s.handleEngineStatus)
}

func emptyObjectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
}
