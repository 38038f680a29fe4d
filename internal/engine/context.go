package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codescope/codescope-go/internal/analytics"
	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/cache"
	"github.com/codescope/codescope-go/internal/errors"
	"github.com/codescope/codescope-go/internal/models"
)

const (
	neighborhoodDepth = 2
	relatedLimit      = 5
	similarLimit      = 3
	maxExcerpts       = 12
	maxFragmentChars  = 240
	maxSummaryNodes   = 8
)

// GetFileContext returns the per-file view: structural analysis, graph
// neighborhood and related fragments. Results are served cache-aside;
// a file the index does not hold is analyzed on the fly.
func (e *Engine) GetFileContext(ctx context.Context, filePath string) (*FileContext, error) {
	projectID, root := e.Project()
	if projectID == "" {
		return nil, errors.InternalError("no project selected")
	}

	rel, err := relPath(root, filePath)
	if err != nil {
		return nil, err
	}

	key := cache.FileContextKey(projectID, rel)
	var cached FileContext
	if e.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	fa, err := e.analysisFor(rel)
	if err != nil {
		return nil, err
	}

	fc := &FileContext{
		FilePath:      rel,
		Language:      fa.Language,
		Module:        analyzer.ModuleName(rel, fa.Language),
		Symbols:       fa.Symbols,
		Dependencies:  fa.Dependencies,
		Complexity:    fa.Complexity,
		ParsingErrors: fa.ParsingErrors,
	}

	moduleID := models.ModuleID(projectID, fc.Module)
	if deps, derr := e.analytics.Dependencies(ctx, projectID, moduleID, neighborhoodDepth); derr == nil {
		fc.DependsOn = deps
	}
	if rdeps, derr := e.analytics.Dependents(ctx, projectID, moduleID, neighborhoodDepth); derr == nil {
		fc.DependedOnBy = rdeps
	}
	fc.Related = e.relatedFragments(ctx, fa)

	e.cache.Set(ctx, key, fc)
	return fc, nil
}

// SearchCode runs a semantic search over the embedded fragments, with
// results cached per project and query shape.
func (e *Engine) SearchCode(ctx context.Context, query string, k int, filters models.SearchFilters) ([]models.SearchResult, error) {
	projectID, _ := e.Project()

	var key string
	if projectID != "" {
		key = cache.SearchKey(projectID, fmt.Sprintf("%s|%d|%s|%s|%s",
			query, k, filters.FilePath, filters.SymbolType, filters.Language))
		var cached []models.SearchResult
		if e.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	results, err := e.vector.Search(ctx, query, k, filters)
	if err != nil {
		return nil, err
	}
	if key != "" {
		e.cache.Set(ctx, key, results)
	}
	return results, nil
}

// GenerateCompletion assembles grounding context for the request and
// routes it through the inference strategies. Context assembly is
// best-effort: unavailable backends leave their section empty and the
// request proceeds at reduced confidence.
func (e *Engine) GenerateCompletion(ctx context.Context, req CompletionRequest) (models.CompletionResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return models.CompletionResult{
			Status: models.CompletionStatusError,
			Error:  "prompt is required",
		}, nil
	}

	cctx := e.completionContext(ctx, req)
	return e.router.GenerateCompletion(ctx, cctx, models.ParseIntent(req.Intent))
}

// analysisFor prefers the indexed analysis and falls back to analyzing
// the file directly, so file context works without a prior full index
// run in this process.
func (e *Engine) analysisFor(rel string) (*models.FileAnalysis, error) {
	if fa, ok := e.indexer.Lookup(rel); ok {
		return fa, nil
	}

	_, root := e.Project()
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, errors.FileUnreadable(err, rel)
	}
	return e.analyzer.Analyze(rel, content), nil
}

// relatedFragments finds fragments similar to the file's own surface:
// its path plus its top symbol names. The file itself is excluded.
func (e *Engine) relatedFragments(ctx context.Context, fa *models.FileAnalysis) []models.SearchResult {
	terms := make([]string, 0, maxExcerpts+1)
	terms = append(terms, fa.FilePath)
	for _, s := range fa.Symbols {
		if symbolLabel(s.Kind) == "" {
			continue
		}
		terms = append(terms, s.Name)
		if len(terms) > maxExcerpts {
			break
		}
	}

	results, err := e.vector.Search(ctx, strings.Join(terms, " "), relatedLimit*2, models.SearchFilters{})
	if err != nil {
		return nil
	}

	out := make([]models.SearchResult, 0, relatedLimit)
	for _, r := range results {
		if r.Embedding.FilePath == fa.FilePath {
			continue
		}
		out = append(out, r)
		if len(out) == relatedLimit {
			break
		}
	}
	return out
}

func (e *Engine) completionContext(ctx context.Context, req CompletionRequest) models.CompletionContext {
	cctx := models.CompletionContext{Prompt: req.Prompt}

	if req.FilePath != "" {
		if fc, err := e.GetFileContext(ctx, req.FilePath); err == nil {
			cctx.FilePath = fc.FilePath
			cctx.Language = fc.Language
			cctx.SymbolExcerpts = symbolExcerpts(fc.Symbols)
			cctx.GraphSummary = graphSummary(fc)
		} else {
			cctx.FilePath = req.FilePath
		}
	}

	query := req.Prompt
	if cctx.FilePath != "" {
		query = cctx.FilePath + " " + query
	}
	if results, err := e.vector.Search(ctx, query, similarLimit, models.SearchFilters{}); err == nil {
		for _, r := range results {
			cctx.SimilarFragments = append(cctx.SimilarFragments, formatFragment(r))
		}
	}
	return cctx
}

// symbolExcerpts renders symbols as one-line signatures a model can
// reference by name.
func symbolExcerpts(symbols []models.Symbol) []string {
	out := make([]string, 0, maxExcerpts)
	for _, s := range symbols {
		if symbolLabel(s.Kind) == "" {
			continue
		}

		var excerpt string
		switch s.Kind {
		case models.SymbolKindClass, models.SymbolKindStruct:
			excerpt = fmt.Sprintf("%s %s lines %d-%d", s.Kind, s.Name, s.LineStart, s.LineEnd)
		default:
			excerpt = fmt.Sprintf("%s %s(%s) lines %d-%d",
				s.Kind, s.Name, strings.Join(s.Parameters, ", "), s.LineStart, s.LineEnd)
		}
		if s.Docstring != "" {
			excerpt += ": " + firstLine(s.Docstring)
		}

		out = append(out, excerpt)
		if len(out) == maxExcerpts {
			break
		}
	}
	return out
}

// graphSummary flattens the neighborhood into one line of prose.
func graphSummary(fc *FileContext) string {
	var parts []string
	if len(fc.DependsOn) > 0 {
		parts = append(parts, "depends on "+joinNodeIDs(fc.DependsOn))
	}
	if len(fc.DependedOnBy) > 0 {
		parts = append(parts, "depended on by "+joinNodeIDs(fc.DependedOnBy))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("module %s %s", fc.Module, strings.Join(parts, "; "))
}

func joinNodeIDs(nodes []analytics.TraversalNode) string {
	ids := make([]string, 0, maxSummaryNodes)
	for _, n := range nodes {
		ids = append(ids, n.ID)
		if len(ids) == maxSummaryNodes {
			break
		}
	}
	return strings.Join(ids, ", ")
}

// formatFragment renders one search hit as a single prompt line.
func formatFragment(r models.SearchResult) string {
	emb := r.Embedding
	head := firstLine(emb.Content)
	if len(head) > maxFragmentChars {
		head = head[:maxFragmentChars]
	}
	return fmt.Sprintf("%s:%d-%d (%s %s): %s",
		emb.FilePath, emb.StartLine, emb.EndLine, emb.SymbolType, emb.SymbolName, head)
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}
