package engine

import (
	"time"

	"github.com/codescope/codescope-go/internal/analytics"
	"github.com/codescope/codescope-go/internal/graph"
	"github.com/codescope/codescope-go/internal/inference"
	"github.com/codescope/codescope-go/internal/models"
	"github.com/codescope/codescope-go/internal/vector"
)

// IndexReport summarizes one indexing run across every backend the
// engine writes to. Backend failures show up in Diagnostics, not as
// errors; the report is produced even when only the in-memory index
// succeeded.
type IndexReport struct {
	ProjectID     string        `json:"project_id"`
	RootPath      string        `json:"root_path"`
	RunID         string        `json:"run_id"`
	Files         int           `json:"files"`
	Symbols       int           `json:"symbols"`
	InternalEdges int           `json:"internal_edges"`
	ExternalEdges int           `json:"external_edges"`
	GraphNodes    int           `json:"graph_nodes"`
	GraphEdges    int           `json:"graph_edges"`
	Embeddings    int           `json:"embeddings"`
	StaleRemoved  int           `json:"stale_removed"`
	DegradedFiles int           `json:"degraded_files"`
	Duration      time.Duration `json:"duration"`
	Diagnostics   []string      `json:"diagnostics,omitempty"`
}

// FileContext is the per-file view consumers build prompts from: the
// structural analysis plus the file's graph neighborhood and related
// fragments from the vector store.
type FileContext struct {
	FilePath      string                    `json:"file_path"`
	Language      string                    `json:"language"`
	Module        string                    `json:"module"`
	Symbols       []models.Symbol           `json:"symbols"`
	Dependencies  []models.Dependency       `json:"dependencies"`
	Complexity    models.ComplexityMetrics  `json:"complexity"`
	ParsingErrors []string                  `json:"parsing_errors,omitempty"`
	DependsOn     []analytics.TraversalNode `json:"depends_on,omitempty"`
	DependedOnBy  []analytics.TraversalNode `json:"depended_on_by,omitempty"`
	Related       []models.SearchResult     `json:"related,omitempty"`
	Cached        bool                      `json:"cached,omitempty"`
}

// CompletionRequest is a consumer ask. FilePath is optional; when set,
// the engine grounds the prompt in that file's context.
type CompletionRequest struct {
	Prompt   string `json:"prompt"`
	FilePath string `json:"file_path,omitempty"`
	Intent   string `json:"intent,omitempty"`
}

// Status aggregates backend health for the status command and tool.
type Status struct {
	ProjectID    string           `json:"project_id,omitempty"`
	RootPath     string           `json:"root_path,omitempty"`
	IndexedFiles int              `json:"indexed_files"`
	Graph        graph.Health     `json:"graph"`
	Vector       vector.Stats     `json:"vector"`
	Inference    inference.Status `json:"inference"`
	CacheEnabled bool             `json:"cache_enabled"`
}
