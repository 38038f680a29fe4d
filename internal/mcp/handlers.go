package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/codescope/codescope-go/internal/engine"
	"github.com/codescope/codescope-go/internal/models"
)

const defaultSearchLimit = 10

// IndexProjectParams selects the tree to index.
type IndexProjectParams struct {
	Path string `json:"path"`
}

// FileContextParams names the file to describe.
type FileContextParams struct {
	Path string `json:"path"`
}

// SearchCodeParams shape a semantic search.
type SearchCodeParams struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
	FilePath   string `json:"file_path"`
	SymbolType string `json:"symbol_type"`
	Language   string `json:"language"`
}

// CompletionParams shape an inference request.
type CompletionParams struct {
	Prompt   string `json:"prompt"`
	FilePath string `json:"file_path"`
	Intent   string `json:"intent"`
}

func (s *Server) handleIndexProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params IndexProjectParams
	if err := unmarshalParams(req, &params); err != nil {
		return errorResult("index_project", err)
	}
	if params.Path == "" {
		params.Path = "."
	}

	report, err := s.engine.IndexProject(ctx, params.Path)
	if err != nil {
		return errorResult("index_project", err)
	}
	s.logger.WithFields(logrus.Fields{
		"project": report.ProjectID,
		"files":   report.Files,
	}).Info("Indexed project via MCP")
	return jsonResult(report)
}

func (s *Server) handleGetFileContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params FileContextParams
	if err := unmarshalParams(req, &params); err != nil {
		return errorResult("get_file_context", err)
	}
	if params.Path == "" {
		return errorResult("get_file_context", fmt.Errorf("path is required"))
	}

	fc, err := s.engine.GetFileContext(ctx, params.Path)
	if err != nil {
		return errorResult("get_file_context", err)
	}
	return jsonResult(fc)
}

func (s *Server) handleSearchCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchCodeParams
	if err := unmarshalParams(req, &params); err != nil {
		return errorResult("search_code", err)
	}
	if params.Query == "" {
		return errorResult("search_code", fmt.Errorf("query is required"))
	}
	if params.Limit <= 0 {
		params.Limit = defaultSearchLimit
	}

	results, err := s.engine.SearchCode(ctx, params.Query, params.Limit, models.SearchFilters{
		FilePath:   params.FilePath,
		SymbolType: params.SymbolType,
		Language:   params.Language,
	})
	if err != nil {
		return errorResult("search_code", err)
	}
	return jsonResult(map[string]interface{}{
		"query":   params.Query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleArchitectureOverview(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overview, err := s.engine.GetArchitectureOverview(ctx)
	if err != nil {
		return errorResult("architecture_overview", err)
	}
	return jsonResult(overview)
}

func (s *Server) handleCircularDependencies(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycles, err := s.engine.FindCircularDependencies(ctx)
	if err != nil {
		return errorResult("circular_dependencies", err)
	}
	return jsonResult(map[string]interface{}{
		"count":  len(cycles),
		"cycles": cycles,
	})
}

func (s *Server) handleGenerateCompletion(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CompletionParams
	if err := unmarshalParams(req, &params); err != nil {
		return errorResult("generate_completion", err)
	}
	if params.Prompt == "" {
		return errorResult("generate_completion", fmt.Errorf("prompt is required"))
	}

	result, err := s.engine.GenerateCompletion(ctx, engine.CompletionRequest{
		Prompt:   params.Prompt,
		FilePath: params.FilePath,
		Intent:   params.Intent,
	})
	if err != nil {
		// The router returns a best-effort result alongside exhaustion
		// errors; surface both so the client can still use the text.
		return jsonResult(map[string]interface{}{
			"result": result,
			"error":  err.Error(),
		})
	}
	return jsonResult(result)
}

func (s *Server) handleEngineStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Status(ctx))
}

// unmarshalParams decodes tool arguments, tolerating a missing
// arguments object.
func unmarshalParams(req *mcp.CallToolRequest, target interface{}) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, target); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

// jsonResult wraps data as a single JSON text content block.
func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal tool response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil
}

// errorResult reports a tool failure as structured content instead of a
// protocol error, so clients always get a parseable payload.
func errorResult(operation string, err error) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
}
