package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/errors"
	"github.com/codescope/codescope-go/internal/models"
)

// Indexer builds and incrementally maintains a ProjectIndex. File
// analyses run in parallel but all index mutation happens on a single
// owner, so consumers never observe a half-merged index.
type Indexer struct {
	cfg      config.IndexerConfig
	analyzer *analyzer.Analyzer
	snapshot *SnapshotStore
	logger   *logrus.Logger

	mu    sync.RWMutex
	index *models.ProjectIndex
	res   *resolver
	root  string
}

// New creates an Indexer. A snapshot store failure is logged and the
// indexer runs without cross-process caching.
func New(cfg config.IndexerConfig, logger *logrus.Logger) *Indexer {
	ix := &Indexer{
		cfg:      cfg,
		analyzer: analyzer.New(analyzer.WithMaxFileSize(cfg.MaxFileSize)),
		logger:   logger,
	}

	if cfg.SnapshotPath != "" {
		snap, err := OpenSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			logger.WithError(err).Warn("Snapshot cache unavailable, continuing without it")
		} else {
			ix.snapshot = snap
		}
	}
	return ix
}

// fileResult carries one analysis from a worker to the merge owner.
type fileResult struct {
	analysis     *models.FileAnalysis
	fromSnapshot bool
}

// IndexProject analyzes every source file under root and builds the
// project index. A missing root yields an empty index and no error;
// unreadable files are recorded and skipped, never fatal.
func (ix *Indexer) IndexProject(ctx context.Context, projectID, root string) (*models.ProjectIndex, error) {
	start := time.Now()
	ix.logger.WithFields(logrus.Fields{
		"project": projectID,
		"root":    root,
	}).Info("Starting project indexing")

	index := models.NewProjectIndex(projectID, root)

	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		ix.logger.WithField("root", root).Warn("Index root does not exist, returning empty index")
		ix.install(index, newResolver(root, index), root)
		return index, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat index root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("index root %s is not a directory", root)
	}

	files, err := discoverFiles(root, ix.cfg)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	results := make(chan fileResult, ix.workers())
	merged := make(chan struct{})
	snapshotHits := 0

	// Single merge owner: the only goroutine that touches the index.
	go func() {
		defer close(merged)
		for r := range results {
			fa := r.analysis
			index.Files[fa.FilePath] = fa
			for i := range fa.Symbols {
				s := &fa.Symbols[i]
				index.SymbolTable[s.Name] = append(index.SymbolTable[s.Name], s)
			}
			if r.fromSnapshot {
				snapshotHits++
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers())

	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := ix.analyzeFile(rel, filepath.Join(root, rel))
			select {
			case results <- r:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err = g.Wait()
	close(results)
	<-merged
	if err != nil {
		return nil, fmt.Errorf("index project: %w", err)
	}

	res := newResolver(root, index)
	index.Edges = res.resolveAll()
	index.IndexedAt = time.Now()

	ix.install(index, res, root)

	ix.logger.WithFields(logrus.Fields{
		"project":       projectID,
		"files":         len(index.Files),
		"symbols":       countSymbols(index),
		"edges":         len(index.Edges),
		"degraded":      countDegraded(index),
		"snapshot_hits": snapshotHits,
		"duration":      time.Since(start).String(),
	}).Info("Project indexing completed")

	return index, nil
}

// ReindexFile re-analyzes a single file and splices the result into the
// current index. Only the changed file is re-parsed; edges are
// re-resolved from already-held analyses. A deleted file is removed from
// the index and reported as (nil, nil).
func (ix *Indexer) ReindexFile(ctx context.Context, filePath string) (*models.FileAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index == nil {
		return nil, errors.InternalError("no project indexed yet")
	}

	rel := filePath
	if filepath.IsAbs(filePath) {
		r, err := filepath.Rel(ix.root, filePath)
		if err != nil {
			return nil, fmt.Errorf("path %s is outside project root: %w", filePath, err)
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)

	content, err := os.ReadFile(filepath.Join(ix.root, rel))
	if os.IsNotExist(err) {
		ix.removeFileLocked(rel)
		return nil, nil
	}

	var fa *models.FileAnalysis
	if err != nil {
		ix.logger.WithField("file", rel).WithError(err).Warn("File unreadable, recording and continuing")
		fa = unreadableAnalysis(rel, err)
	} else {
		hash := analyzer.ContentHash(content)
		if existing, ok := ix.index.Files[rel]; ok && existing.ContentHash == hash {
			return existing, nil
		}
		fa = ix.analyzer.Analyze(rel, content)
		if ix.snapshot != nil {
			if err := ix.snapshot.Put(fa); err != nil {
				ix.logger.WithError(err).Debug("Snapshot write failed")
			}
		}
	}

	ix.replaceFileLocked(rel, fa)

	ix.logger.WithFields(logrus.Fields{
		"file":    rel,
		"symbols": len(fa.Symbols),
	}).Info("File reindexed")

	return fa, nil
}

// Index returns the most recent project index, or nil before the first
// IndexProject call.
func (ix *Indexer) Index() *models.ProjectIndex {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index
}

// Lookup returns the analysis for a relative file path.
func (ix *Indexer) Lookup(rel string) (*models.FileAnalysis, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.index == nil {
		return nil, false
	}
	fa, ok := ix.index.Files[filepath.ToSlash(rel)]
	return fa, ok
}

// Close releases the snapshot store.
func (ix *Indexer) Close() error {
	if ix.snapshot == nil {
		return nil
	}
	return ix.snapshot.Close()
}

func (ix *Indexer) workers() int {
	if ix.cfg.Workers > 0 {
		return ix.cfg.Workers
	}
	return 1
}

// analyzeFile reads and analyzes one file. Read failures produce a
// recorded zero-symbol analysis so indexing continues.
func (ix *Indexer) analyzeFile(rel, abs string) fileResult {
	content, err := os.ReadFile(abs)
	if err != nil {
		ix.logger.WithField("file", rel).WithError(err).Warn("File unreadable, recording and continuing")
		return fileResult{analysis: unreadableAnalysis(rel, err)}
	}

	hash := analyzer.ContentHash(content)
	if ix.snapshot != nil {
		if fa, ok := ix.snapshot.Get(rel, hash); ok {
			return fileResult{analysis: fa, fromSnapshot: true}
		}
	}

	fa := ix.analyzer.Analyze(rel, content)
	if ix.snapshot != nil {
		if err := ix.snapshot.Put(fa); err != nil {
			ix.logger.WithError(err).Debug("Snapshot write failed")
		}
	}
	return fileResult{analysis: fa}
}

// removeFileLocked drops a deleted file from the index. Callers hold mu.
func (ix *Indexer) removeFileLocked(rel string) {
	old, ok := ix.index.Files[rel]
	if !ok {
		return
	}

	delete(ix.index.Files, rel)
	ix.dropSymbolsLocked(old)

	if ix.snapshot != nil {
		if err := ix.snapshot.Delete(rel); err != nil {
			ix.logger.WithError(err).Debug("Snapshot delete failed")
		}
	}

	ix.res.rebuild()
	ix.index.Edges = ix.res.resolveAll()
	ix.index.IndexedAt = time.Now()

	ix.logger.WithField("file", rel).Info("File removed from index")
}

// replaceFileLocked swaps in a new analysis for one file. Callers hold mu.
func (ix *Indexer) replaceFileLocked(rel string, fa *models.FileAnalysis) {
	if old, ok := ix.index.Files[rel]; ok {
		ix.dropSymbolsLocked(old)
	}

	ix.index.Files[rel] = fa
	for i := range fa.Symbols {
		s := &fa.Symbols[i]
		ix.index.SymbolTable[s.Name] = append(ix.index.SymbolTable[s.Name], s)
	}

	ix.res.rebuild()
	ix.index.Edges = ix.res.resolveAll()
	ix.index.IndexedAt = time.Now()
}

// dropSymbolsLocked removes one file's symbol pointers from the table.
func (ix *Indexer) dropSymbolsLocked(fa *models.FileAnalysis) {
	for i := range fa.Symbols {
		s := &fa.Symbols[i]
		kept := ix.index.SymbolTable[s.Name][:0]
		for _, entry := range ix.index.SymbolTable[s.Name] {
			if entry.ID != s.ID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(ix.index.SymbolTable, s.Name)
		} else {
			ix.index.SymbolTable[s.Name] = kept
		}
	}
}

func (ix *Indexer) install(index *models.ProjectIndex, res *resolver, root string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.index = index
	ix.res = res
	ix.root = root
}

func unreadableAnalysis(rel string, err error) *models.FileAnalysis {
	return &models.FileAnalysis{
		FilePath:      rel,
		Language:      analyzer.DetectLanguage(rel),
		Symbols:       []models.Symbol{},
		Dependencies:  []models.Dependency{},
		ParsingErrors: []string{fmt.Sprintf("unreadable: %v", err)},
		AnalyzedAt:    time.Now(),
	}
}

func countSymbols(index *models.ProjectIndex) int {
	n := 0
	for _, fa := range index.Files {
		n += len(fa.Symbols)
	}
	return n
}

func countDegraded(index *models.ProjectIndex) int {
	n := 0
	for _, fa := range index.Files {
		if fa.Degraded() {
			n++
		}
	}
	return n
}
