package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codescope/codescope-go/internal/analytics"
	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/cache"
	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/errors"
	"github.com/codescope/codescope-go/internal/graph"
	"github.com/codescope/codescope-go/internal/indexer"
	"github.com/codescope/codescope-go/internal/inference"
	"github.com/codescope/codescope-go/internal/models"
	"github.com/codescope/codescope-go/internal/vector"
)

// Engine wires the analyzer, indexer, graph, analytics, vector and
// inference layers behind the consumer API. Backends are optional: the
// engine reports what it could not reach and keeps serving from
// whatever remains.
type Engine struct {
	cfg    *config.Config
	logger *logrus.Logger

	analyzer  *analyzer.Analyzer
	indexer   *indexer.Indexer
	graph     *graph.Client
	analytics *analytics.Service
	vector    *vector.Service
	router    *inference.Router
	cache     *cache.Client

	mu        sync.Mutex
	projectID string
	rootPath  string
	prevFiles []string
}

// New builds the engine and dials the optional backends. Connection
// failures degrade the engine instead of failing construction.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}

	graphClient := graph.NewClient(cfg.Graph)
	graphClient.Connect(ctx)

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		analyzer:  analyzer.New(analyzer.WithMaxFileSize(cfg.Indexer.MaxFileSize)),
		indexer:   indexer.New(cfg.Indexer, logger),
		graph:     graphClient,
		analytics: analytics.NewService(graphClient, cfg.Analytics),
		vector:    vector.NewService(ctx, cfg.Vector, logger),
		router:    inference.NewRouter(cfg.Inference),
		cache:     cache.New(ctx, cfg.Cache),
	}

	if err := e.router.Initialize(ctx); err != nil {
		logger.WithError(err).Warn("Inference router failed to initialize")
	}
	return e
}

// Close releases every backend handle.
func (e *Engine) Close(ctx context.Context) {
	if err := e.indexer.Close(); err != nil {
		e.logger.WithError(err).Debug("Indexer close failed")
	}
	if err := e.vector.Close(); err != nil {
		e.logger.WithError(err).Debug("Vector store close failed")
	}
	if err := e.cache.Close(); err != nil {
		e.logger.WithError(err).Debug("Cache close failed")
	}
	if err := e.graph.Close(ctx); err != nil {
		e.logger.WithError(err).Debug("Graph close failed")
	}
}

// UseProject points the engine at a project without indexing it, so
// graph- and cache-backed reads work against state persisted by an
// earlier run.
func (e *Engine) UseProject(projectID, root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.projectID != projectID {
		e.prevFiles = nil
	}
	e.projectID = projectID
	e.rootPath = abs
}

// Project returns the current project id and root, empty before any
// IndexProject or UseProject call.
func (e *Engine) Project() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projectID, e.rootPath
}

// DeriveProjectID turns a filesystem root into a stable project id:
// the base name of the absolute path, lowercased, with anything outside
// [a-z0-9._-] replaced by '-'.
func DeriveProjectID(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	base := strings.ToLower(filepath.Base(filepath.Clean(abs)))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	id := strings.Trim(b.String(), "-.")
	if id == "" {
		return "project"
	}
	return id
}

// IndexProject indexes a project tree end to end: structural analysis,
// graph projection, embeddings, and cleanup of entities whose source
// files disappeared since the last run. The report lists what was
// written where; backend failures become diagnostics, not errors.
func (e *Engine) IndexProject(ctx context.Context, root string) (*IndexReport, error) {
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	projectID := DeriveProjectID(abs)
	runID := uuid.NewString()

	log := e.logger.WithFields(logrus.Fields{
		"run_id":  runID,
		"project": projectID,
	})
	log.WithField("root", abs).Info("Indexing project")

	index, err := e.indexer.IndexProject(ctx, projectID, abs)
	if err != nil {
		return nil, err
	}

	report := &IndexReport{
		ProjectID: projectID,
		RootPath:  abs,
		RunID:     runID,
		Files:     len(index.Files),
	}
	e.summarizeIndex(index, report)

	// Stale entities go first so a file that was both deleted and
	// shadowed by a new path never survives under two identities.
	stale := e.staleFiles(ctx, index)
	if len(stale) > 0 {
		for _, path := range stale {
			e.graph.RemoveFileEntities(ctx, projectID, path)
		}
		e.vector.RemoveByFiles(ctx, stale)
		report.StaleRemoved = len(stale)
		log.WithField("files", len(stale)).Info("Removed stale file entities")
	}

	proj := buildProjection(index)
	if e.graph.Connected() {
		if e.graph.UpsertNodes(ctx, proj.nodes) {
			report.GraphNodes = len(proj.nodes)
		} else {
			report.Diagnostics = append(report.Diagnostics, "graph node upsert failed; graph may be incomplete")
		}
		if e.graph.UpsertRelationships(ctx, proj.edges) {
			report.GraphEdges = len(proj.edges)
		} else {
			report.Diagnostics = append(report.Diagnostics, "graph relationship upsert failed; graph may be incomplete")
		}
	} else {
		report.Diagnostics = append(report.Diagnostics, "graph backend unavailable; relationships not persisted")
	}

	for _, path := range sortedFilePaths(index) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		for _, emb := range buildFileEmbeddings(abs, projectID, index.Files[path]) {
			if e.vector.EmbedAndStore(ctx, emb) {
				report.Embeddings++
			}
		}
	}

	e.cache.InvalidateProject(ctx, projectID)

	e.mu.Lock()
	e.projectID = projectID
	e.rootPath = abs
	e.prevFiles = sortedFilePaths(index)
	e.mu.Unlock()

	report.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"files":       report.Files,
		"symbols":     report.Symbols,
		"graph_nodes": report.GraphNodes,
		"embeddings":  report.Embeddings,
		"duration":    report.Duration.String(),
	}).Info("Project indexed")

	return report, nil
}

// ReindexFile re-analyzes one file and propagates the change to the
// graph and vector stores. A deleted file is scrubbed from both and
// reported as (nil, nil).
func (e *Engine) ReindexFile(ctx context.Context, filePath string) (*models.FileAnalysis, error) {
	projectID, root := e.Project()
	if projectID == "" {
		return nil, errors.InternalError("no project indexed yet")
	}

	fa, err := e.indexer.ReindexFile(ctx, filePath)
	if err != nil {
		return nil, err
	}
	index := e.indexer.Index()

	if fa == nil {
		rel, relErr := relPath(root, filePath)
		if relErr == nil {
			e.graph.RemoveFileEntities(ctx, projectID, rel)
			e.vector.RemoveByFile(ctx, rel)
		}
		e.refreshDependsOn(ctx, index)
		e.graph.PruneOrphanModules(ctx, projectID)
		e.cache.InvalidateProject(ctx, projectID)
		e.rememberFiles(index)
		return nil, nil
	}

	// Dropping the old file node first clears symbols whose ids changed
	// when declarations moved; the fresh projection then re-creates the
	// current set.
	if e.graph.Connected() {
		e.graph.RemoveFileEntities(ctx, projectID, fa.FilePath)
		proj := buildFileProjection(index, fa)
		e.graph.UpsertNodes(ctx, proj.nodes)
		e.graph.UpsertRelationships(ctx, proj.edges)
		e.refreshDependsOn(ctx, index)
		e.graph.PruneOrphanModules(ctx, projectID)
	}

	e.vector.RemoveByFile(ctx, fa.FilePath)
	for _, emb := range buildFileEmbeddings(root, projectID, fa) {
		e.vector.EmbedAndStore(ctx, emb)
	}

	e.cache.InvalidateProject(ctx, projectID)
	e.rememberFiles(index)
	return fa, nil
}

// GetArchitectureOverview reports node and relationship counts plus the
// most-coupled entities of the current project.
func (e *Engine) GetArchitectureOverview(ctx context.Context) (*analytics.Overview, error) {
	projectID, _ := e.Project()
	if projectID == "" {
		return nil, errors.InternalError("no project selected")
	}
	return e.analytics.ArchitectureOverview(ctx, projectID)
}

// FindCircularDependencies returns dependency cycles with node ids
// resolved to module names where the graph can supply them.
func (e *Engine) FindCircularDependencies(ctx context.Context) ([]analytics.Cycle, error) {
	projectID, _ := e.Project()
	if projectID == "" {
		return nil, errors.InternalError("no project selected")
	}

	cycles, err := e.analytics.FindCircularDependencies(ctx, projectID)
	if err != nil {
		return nil, err
	}
	e.resolveNodeNames(ctx, projectID, cycles)
	return cycles, nil
}

// SwitchStrategy switches the inference backend by name.
func (e *Engine) SwitchStrategy(ctx context.Context, name string) error {
	return e.router.SwitchStrategy(ctx, name)
}

// AvailableStrategies lists the inference strategies and their probe
// state.
func (e *Engine) AvailableStrategies(ctx context.Context) []inference.StrategyInfo {
	return e.router.AvailableStrategies(ctx)
}

// Status reports backend health and index size in one snapshot.
func (e *Engine) Status(ctx context.Context) Status {
	projectID, root := e.Project()
	st := Status{
		ProjectID:    projectID,
		RootPath:     root,
		Graph:        e.graph.Health(ctx),
		Vector:       e.vector.Stats(ctx),
		Inference:    e.router.Status(ctx),
		CacheEnabled: e.cache.Enabled(),
	}
	if index := e.indexer.Index(); index != nil {
		st.IndexedFiles = len(index.Files)
	}
	return st
}

// summarizeIndex fills the count fields and collects degraded-file
// diagnostics.
func (e *Engine) summarizeIndex(index *models.ProjectIndex, report *IndexReport) {
	for _, symbols := range index.SymbolTable {
		report.Symbols += len(symbols)
	}
	for _, dep := range index.Edges {
		if dep.IsExternal {
			report.ExternalEdges++
		} else {
			report.InternalEdges++
		}
	}

	const maxSamples = 5
	for _, path := range sortedFilePaths(index) {
		fa := index.Files[path]
		if !fa.Degraded() {
			continue
		}
		report.DegradedFiles++
		if len(report.Diagnostics) < maxSamples {
			report.Diagnostics = append(report.Diagnostics,
				fmt.Sprintf("%s: %s", path, fa.ParsingErrors[0]))
		}
	}
}

// staleFiles lists paths known to the graph or the previous in-process
// run that are absent from the fresh index.
func (e *Engine) staleFiles(ctx context.Context, index *models.ProjectIndex) []string {
	known := make(map[string]bool)

	if stored, err := e.graph.ProjectFilePaths(ctx, index.ProjectID); err == nil {
		for _, path := range stored {
			known[path] = true
		}
	}

	e.mu.Lock()
	if e.projectID == index.ProjectID {
		for _, path := range e.prevFiles {
			known[path] = true
		}
	}
	e.mu.Unlock()

	var stale []string
	for path := range known {
		if _, ok := index.Files[path]; !ok {
			stale = append(stale, path)
		}
	}
	sort.Strings(stale)
	return stale
}

// refreshDependsOn rebuilds the module dependency layer: the old edge
// set is removed wholesale and the current one re-upserted, because
// DEPENDS_ON edges are derived from the full index, not from any single
// file.
func (e *Engine) refreshDependsOn(ctx context.Context, index *models.ProjectIndex) {
	if index == nil || !e.graph.Connected() {
		return
	}
	e.graph.RemoveRelationshipsOfType(ctx, index.ProjectID, graph.RelDependsOn)
	proj := buildDependsOnProjection(index)
	if len(proj.nodes) > 0 {
		e.graph.UpsertNodes(ctx, proj.nodes)
	}
	if len(proj.edges) > 0 {
		e.graph.UpsertRelationships(ctx, proj.edges)
	}
}

// resolveNodeNames swaps node ids for display names where the graph can
// provide them; unknown ids pass through unchanged.
func (e *Engine) resolveNodeNames(ctx context.Context, projectID string, cycles []analytics.Cycle) {
	if len(cycles) == 0 {
		return
	}
	degrees, err := e.graph.NodeDegrees(ctx, projectID, nil)
	if err != nil || len(degrees) == 0 {
		return
	}

	names := make(map[string]string, len(degrees))
	for _, d := range degrees {
		if d.Name != "" {
			names[d.ID] = d.Name
		}
	}
	for ci := range cycles {
		for i, id := range cycles[ci].Nodes {
			if name, ok := names[id]; ok {
				cycles[ci].Nodes[i] = name
			}
		}
	}
}

func (e *Engine) rememberFiles(index *models.ProjectIndex) {
	if index == nil {
		return
	}
	e.mu.Lock()
	e.prevFiles = sortedFilePaths(index)
	e.mu.Unlock()
}

// relPath normalizes a possibly-absolute path to the slash-separated
// form the index uses.
func relPath(root, filePath string) (string, error) {
	rel := filePath
	if filepath.IsAbs(filePath) {
		r, err := filepath.Rel(root, filePath)
		if err != nil {
			return "", fmt.Errorf("path %s is outside project root: %w", filePath, err)
		}
		rel = r
	}
	return filepath.ToSlash(filepath.Clean(rel)), nil
}
