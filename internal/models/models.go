package models

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SymbolKind classifies an extracted code symbol
type SymbolKind string

const (
	SymbolKindFunction SymbolKind = "function"
	SymbolKindMethod   SymbolKind = "method"
	SymbolKindClass    SymbolKind = "class"
	SymbolKindStruct   SymbolKind = "struct"
	SymbolKindConstant SymbolKind = "constant"
	SymbolKindVariable SymbolKind = "variable"
	SymbolKindImport   SymbolKind = "import"
)

// Symbol represents a named declaration extracted from a source file
type Symbol struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Kind        SymbolKind `json:"kind" db:"kind"`
	FilePath    string     `json:"file_path" db:"file_path"`
	LineStart   int        `json:"line_start" db:"line_start"`
	LineEnd     int        `json:"line_end" db:"line_end"`
	ColumnStart int        `json:"column_start" db:"column_start"`
	ColumnEnd   int        `json:"column_end" db:"column_end"`
	Scope       string     `json:"scope,omitempty" db:"scope"`
	ParentID    string     `json:"parent_id,omitempty" db:"parent_id"`
	Parameters  []string   `json:"parameters,omitempty"`
	IsAsync     bool       `json:"is_async" db:"is_async"`
	Docstring   string     `json:"docstring,omitempty" db:"docstring"`
	Complexity  int        `json:"complexity" db:"complexity"`
}

// SymbolID derives the stable identifier for a symbol. Two analyses of the
// same content produce the same ID, which keeps graph and vector writes
// idempotent across re-indexing.
func SymbolID(kind SymbolKind, filePath, name string, lineStart int) string {
	h := xxhash.Sum64String(fmt.Sprintf("%s|%s|%s|%d", kind, filePath, name, lineStart))
	return fmt.Sprintf("sym_%016x", h)
}

// FileID derives the stable identifier for a file node.
func FileID(projectID, filePath string) string {
	h := xxhash.Sum64String(fmt.Sprintf("file|%s|%s", projectID, filePath))
	return fmt.Sprintf("file_%016x", h)
}

// ModuleID derives the stable identifier for a module node. Module
// names are only unique within a project, so the project is part of
// the hash input.
func ModuleID(projectID, module string) string {
	h := xxhash.Sum64String(fmt.Sprintf("mod|%s|%s", projectID, module))
	return fmt.Sprintf("mod_%016x", h)
}

// Dependency represents one import relationship discovered in a file.
// SourceFile is filled during project-level resolution; per-file analyses
// leave it empty.
type Dependency struct {
	SourceFile      string `json:"source_file,omitempty" db:"source_file"`
	SourceModule    string `json:"source_module" db:"source_module"`
	TargetModule    string `json:"target_module" db:"target_module"`
	IsExternal      bool   `json:"is_external" db:"is_external"`
	ImportStatement string `json:"import_statement,omitempty" db:"import_statement"`
	Line            int    `json:"line,omitempty" db:"line"`
}

// ComplexityMetrics represents aggregate complexity for one file
type ComplexityMetrics struct {
	Cyclomatic    int     `json:"cyclomatic"`
	FunctionCount int     `json:"function_count"`
	ClassCount    int     `json:"class_count"`
	LineCount     int     `json:"line_count"`
	AveragePerFn  float64 `json:"average_per_function"`
}

// FileAnalysis represents the full structural analysis of one source file.
// A re-analysis replaces the previous value wholesale; the two are never
// merged.
type FileAnalysis struct {
	FilePath      string            `json:"file_path" db:"file_path"`
	Language      string            `json:"language" db:"language"`
	Symbols       []Symbol          `json:"symbols"`
	Dependencies  []Dependency      `json:"dependencies"`
	Complexity    ComplexityMetrics `json:"complexity"`
	ParsingErrors []string          `json:"parsing_errors"`
	ContentHash   string            `json:"content_hash" db:"content_hash"`
	AnalyzedAt    time.Time         `json:"analyzed_at" db:"analyzed_at"`
}

// Degraded reports whether the analysis fell back to partial results.
// A heuristic-only analysis is not degraded; only a grammar parse that
// recorded errors is.
func (fa *FileAnalysis) Degraded() bool {
	return len(fa.ParsingErrors) > 0
}

// ProjectIndex represents the aggregated index of a project tree. The
// indexer is the single writer; consumers treat it as read-only.
type ProjectIndex struct {
	ProjectID   string                   `json:"project_id"`
	RootPath    string                   `json:"root_path"`
	Files       map[string]*FileAnalysis `json:"files"`
	SymbolTable map[string][]*Symbol     `json:"symbol_table"`
	Edges       []Dependency             `json:"edges"`
	IndexedAt   time.Time                `json:"indexed_at"`
}

// NewProjectIndex returns an empty index rooted at rootPath.
func NewProjectIndex(projectID, rootPath string) *ProjectIndex {
	return &ProjectIndex{
		ProjectID:   projectID,
		RootPath:    rootPath,
		Files:       make(map[string]*FileAnalysis),
		SymbolTable: make(map[string][]*Symbol),
		IndexedAt:   time.Now(),
	}
}

// CodeEmbedding represents one embedded code fragment
type CodeEmbedding struct {
	ID         string    `json:"id" db:"id"`
	Content    string    `json:"content" db:"content"`
	FilePath   string    `json:"file_path" db:"file_path"`
	Language   string    `json:"language" db:"language"`
	SymbolType string    `json:"symbol_type" db:"symbol_type"`
	SymbolName string    `json:"symbol_name" db:"symbol_name"`
	StartLine  int       `json:"start_line" db:"start_line"`
	EndLine    int       `json:"end_line" db:"end_line"`
	Vector     []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SearchFilters narrows a semantic search before ranking
type SearchFilters struct {
	FilePath   string `json:"file_path,omitempty"`
	SymbolType string `json:"symbol_type,omitempty"`
	Language   string `json:"language,omitempty"`
}

// SearchResult represents one ranked semantic search hit
type SearchResult struct {
	Embedding  CodeEmbedding `json:"embedding"`
	Similarity float64       `json:"similarity"`
}

// Intent names the kind of assistance a completion request wants
type Intent string

const (
	IntentSuggest  Intent = "suggest"
	IntentExplain  Intent = "explain"
	IntentRefactor Intent = "refactor"
	IntentDebug    Intent = "debug"
	IntentOptimize Intent = "optimize"
)

// ParseIntent maps free-form input to a known intent, defaulting to suggest.
func ParseIntent(s string) Intent {
	switch Intent(s) {
	case IntentSuggest, IntentExplain, IntentRefactor, IntentDebug, IntentOptimize:
		return Intent(s)
	default:
		return IntentSuggest
	}
}

// CompletionStatus reports how a completion request concluded
type CompletionStatus string

const (
	CompletionStatusSuccess CompletionStatus = "success"
	CompletionStatusError   CompletionStatus = "error"
)

// CompletionContext carries everything a strategy may use to ground a response
type CompletionContext struct {
	FilePath         string            `json:"file_path,omitempty"`
	Language         string            `json:"language,omitempty"`
	Prompt           string            `json:"prompt"`
	SymbolExcerpts   []string          `json:"symbol_excerpts,omitempty"`
	GraphSummary     string            `json:"graph_summary,omitempty"`
	SimilarFragments []string          `json:"similar_fragments,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// HasContext reports whether any grounding material was assembled.
func (c *CompletionContext) HasContext() bool {
	return len(c.SymbolExcerpts) > 0 || c.GraphSummary != "" || len(c.SimilarFragments) > 0
}

// CompletionResult represents the outcome of one completion request
type CompletionResult struct {
	Status       CompletionStatus `json:"status"`
	Response     string           `json:"response"`
	Confidence   float64          `json:"confidence"`
	StrategyUsed string           `json:"strategy_used"`
	ContextUsed  bool             `json:"context_used"`
	Suggestions  []string         `json:"suggestions,omitempty"`
	Error        string           `json:"error,omitempty"`
	Duration     time.Duration    `json:"duration,omitempty"`
}
