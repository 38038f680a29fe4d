package vector

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/codescope/codescope-go/internal/models"
)

// Store persists code embeddings and answers similarity queries. The
// Postgres store and the in-memory fallback implement identical
// semantics: filters narrow the candidate set before ranking, results
// come back in descending similarity with ties broken by id, and at
// most k rows are returned.
type Store interface {
	Upsert(ctx context.Context, emb models.CodeEmbedding) error
	Search(ctx context.Context, queryVec []float32, k int, filters models.SearchFilters) ([]models.SearchResult, error)
	Remove(ctx context.Context, id string) (bool, error)
	RemoveByFiles(ctx context.Context, paths []string) (int, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Stats describes the state of the semantic store.
type Stats struct {
	Backend    string `json:"backend"`
	Embedder   string `json:"embedder"`
	Count      int    `json:"count"`
	Dimensions int    `json:"dimensions"`
}

// MemoryStore is the in-process fallback used when Postgres is not
// configured or unreachable.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]models.CodeEmbedding
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.CodeEmbedding)}
}

func (s *MemoryStore) Upsert(_ context.Context, emb models.CodeEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[emb.ID] = emb
	return nil
}

func (s *MemoryStore) Search(_ context.Context, queryVec []float32, k int, filters models.SearchFilters) ([]models.SearchResult, error) {
	if k <= 0 {
		return []models.SearchResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []models.SearchResult{}
	for _, emb := range s.items {
		if !matchesFilters(emb, filters) {
			continue
		}
		results = append(results, models.SearchResult{
			Embedding:  emb,
			Similarity: cosineSimilarity(queryVec, emb.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Embedding.ID < results[j].Embedding.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) Remove(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *MemoryStore) RemoveByFiles(_ context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	wanted := make(map[string]bool, len(paths))
	for _, path := range paths {
		wanted[path] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, emb := range s.items {
		if wanted[emb.FilePath] {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *MemoryStore) Close() error { return nil }

// matchesFilters applies every set filter; an empty filter set matches
// everything. The file filter is a substring match so "models.py" finds
// fragments under any directory prefix.
func matchesFilters(emb models.CodeEmbedding, filters models.SearchFilters) bool {
	if filters.FilePath != "" && !strings.Contains(emb.FilePath, filters.FilePath) {
		return false
	}
	if filters.SymbolType != "" && emb.SymbolType != filters.SymbolType {
		return false
	}
	if filters.Language != "" && emb.Language != filters.Language {
		return false
	}
	return true
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has no magnitude or the dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
