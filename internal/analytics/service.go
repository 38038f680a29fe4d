package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/graph"
)

// GraphReader is the slice of the graph client the analytics layer
// depends on. A disconnected reader returns empty results, which every
// operation here passes through as an empty report rather than an error.
type GraphReader interface {
	Connected() bool
	ProjectEdges(ctx context.Context, projectID string, relTypes []string) ([]graph.StoredEdge, error)
	NodeDegrees(ctx context.Context, projectID string, relTypes []string) ([]graph.NeighborDegree, error)
	CountsByLabel(ctx context.Context, projectID string) (map[string]int64, error)
	CountsByType(ctx context.Context, projectID string) (map[string]int64, error)
}

// traversalRelTypes are the relationship types dependency traversals
// walk. CONTAINS is structural, not a dependency, so it stays out.
var traversalRelTypes = []string{graph.RelDependsOn, graph.RelImports}

// Service answers read-only questions over the project graph.
type Service struct {
	reader GraphReader
	cfg    config.AnalyticsConfig
}

// NewService creates an analytics service over a graph reader.
func NewService(reader GraphReader, cfg config.AnalyticsConfig) *Service {
	return &Service{reader: reader, cfg: cfg}
}

// Dependencies walks outgoing dependency edges from nodeID up to depth
// hops. Results are sorted by (distance, id).
func (s *Service) Dependencies(ctx context.Context, projectID, nodeID string, depth int) ([]TraversalNode, error) {
	return s.traverse(ctx, projectID, nodeID, depth, false)
}

// Dependents walks incoming dependency edges toward nodeID up to depth
// hops, answering "what breaks if this changes".
func (s *Service) Dependents(ctx context.Context, projectID, nodeID string, depth int) ([]TraversalNode, error) {
	return s.traverse(ctx, projectID, nodeID, depth, true)
}

func (s *Service) traverse(ctx context.Context, projectID, nodeID string, depth int, reverse bool) ([]TraversalNode, error) {
	depth = s.clampDepth(depth)

	edges, err := s.reader.ProjectEdges(ctx, projectID, traversalRelTypes)
	if err != nil {
		return nil, fmt.Errorf("load project edges: %w", err)
	}
	if len(edges) == 0 {
		return []TraversalNode{}, nil
	}

	type neighbor struct {
		id      string
		relType string
	}
	adj := make(map[string][]neighbor)
	for _, edge := range edges {
		if reverse {
			adj[edge.ToID] = append(adj[edge.ToID], neighbor{id: edge.FromID, relType: edge.Type})
		} else {
			adj[edge.FromID] = append(adj[edge.FromID], neighbor{id: edge.ToID, relType: edge.Type})
		}
	}
	// Sorted adjacency makes the first-visit path deterministic when a
	// node is reachable at the same distance via different edges.
	for id := range adj {
		list := adj[id]
		sort.Slice(list, func(i, j int) bool {
			if list[i].id != list[j].id {
				return list[i].id < list[j].id
			}
			return list[i].relType < list[j].relType
		})
	}

	visited := map[string]bool{nodeID: true}
	frontier := []TraversalNode{{ID: nodeID}}
	results := []TraversalNode{}

	for len(frontier) > 0 && frontier[0].Distance < depth {
		current := frontier[0]
		frontier = frontier[1:]

		for _, next := range adj[current.ID] {
			if visited[next.id] {
				continue
			}
			visited[next.id] = true

			path := make([]string, 0, len(current.RelationshipPath)+1)
			path = append(path, current.RelationshipPath...)
			path = append(path, next.relType)

			node := TraversalNode{ID: next.id, Distance: current.Distance + 1, RelationshipPath: path}
			results = append(results, node)
			frontier = append(frontier, node)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func (s *Service) clampDepth(depth int) int {
	maxDepth := s.cfg.MaxTraversalDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if depth <= 0 || depth > maxDepth {
		return maxDepth
	}
	return depth
}
