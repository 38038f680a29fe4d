package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/models"
)

const defaultSearchLimit = 10

// Service is the semantic store: it normalizes and truncates fragment
// text, embeds it and persists the result. Postgres unavailability
// downgrades to the in-memory store at construction; embedding failures
// surface as a false return from EmbedAndStore, never as a panic or a
// hard error to the indexing pipeline.
type Service struct {
	embedder Embedder
	store    Store
	logger   *logrus.Logger
	maxChars int
	backend  string
}

// NewService wires the configured embedder and store.
func NewService(ctx context.Context, cfg config.VectorConfig, logger *logrus.Logger) *Service {
	embedder := NewEmbedder(cfg)

	var store Store
	backend := "memory"
	if cfg.PostgresDSN != "" {
		pg, err := NewPostgresStore(ctx, cfg.PostgresDSN, embedder.Dimensions(), logger)
		if err != nil {
			logger.WithError(err).Warn("Vector backend unreachable, using in-memory store")
		} else {
			store = pg
			backend = "postgres"
		}
	}
	if store == nil {
		store = NewMemoryStore()
	}

	maxChars := cfg.MaxEmbedChars
	if maxChars <= 0 {
		maxChars = 8000
	}

	return &Service{
		embedder: embedder,
		store:    store,
		logger:   logger,
		maxChars: maxChars,
		backend:  backend,
	}
}

// NewServiceWith builds a service from explicit parts.
func NewServiceWith(embedder Embedder, store Store, logger *logrus.Logger, maxChars int) *Service {
	if maxChars <= 0 {
		maxChars = 8000
	}
	backend := "memory"
	if _, ok := store.(*PostgresStore); ok {
		backend = "postgres"
	}
	return &Service{embedder: embedder, store: store, logger: logger, maxChars: maxChars, backend: backend}
}

// EmbedAndStore normalizes, truncates, embeds and upserts one fragment.
// A fragment with no usable text is dropped. Returns whether the
// fragment was stored.
func (s *Service) EmbedAndStore(ctx context.Context, emb models.CodeEmbedding) bool {
	content := Truncate(NormalizeText(emb.Content), s.maxChars)
	if content == "" || emb.ID == "" {
		return false
	}
	emb.Content = content

	if len(emb.Vector) == 0 {
		vec, err := s.embedder.Embed(ctx, content)
		if err != nil {
			s.logger.WithError(err).WithField("id", emb.ID).Warn("Embedding failed")
			return false
		}
		emb.Vector = vec
	}
	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}

	if err := s.store.Upsert(ctx, emb); err != nil {
		s.logger.WithError(err).WithField("id", emb.ID).Warn("Embedding upsert failed")
		return false
	}
	return true
}

// Search embeds the query and returns up to k results in descending
// similarity, ties broken by id. Filters narrow the candidate set
// before ranking. Scores are clamped to [0, 1].
func (s *Service) Search(ctx context.Context, query string, k int, filters models.SearchFilters) ([]models.SearchResult, error) {
	if k <= 0 {
		k = defaultSearchLimit
	}
	normalized := NormalizeText(query)
	if normalized == "" {
		return []models.SearchResult{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, Truncate(normalized, s.maxChars))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, queryVec, k, filters)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Similarity = clampScore(results[i].Similarity)
	}
	return results, nil
}

// Remove deletes one fragment by id.
func (s *Service) Remove(ctx context.Context, id string) bool {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("Embedding removal failed")
		return false
	}
	return removed
}

// RemoveByFile deletes every fragment that came from one source file
// and returns how many were removed.
func (s *Service) RemoveByFile(ctx context.Context, path string) int {
	return s.RemoveByFiles(ctx, []string{path})
}

// RemoveByFiles deletes fragments for a set of source files.
func (s *Service) RemoveByFiles(ctx context.Context, paths []string) int {
	removed, err := s.store.RemoveByFiles(ctx, paths)
	if err != nil {
		s.logger.WithError(err).Warn("Embedding file cleanup failed")
		return 0
	}
	return removed
}

// Stats reports the backend in use and how many fragments it holds.
func (s *Service) Stats(ctx context.Context) Stats {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Embedding count failed")
	}
	return Stats{
		Backend:    s.backend,
		Embedder:   s.embedder.Name(),
		Count:      count,
		Dimensions: s.embedder.Dimensions(),
	}
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
