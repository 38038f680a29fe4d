package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/codescope/codescope-go/internal/graph"
)

// Guard rails for cycle enumeration. Dependency graphs are sparse in
// practice, but a pathological import mesh could hold an exponential
// number of simple cycles.
const (
	maxReportedCycles    = 100
	cycleExpansionBudget = 1 << 17
)

// FindCircularDependencies detects circular dependencies among a
// project's DEPENDS_ON edges. Each cycle is reported once, anchored at
// its smallest node id, in deterministic order.
func (s *Service) FindCircularDependencies(ctx context.Context, projectID string) ([]Cycle, error) {
	edges, err := s.reader.ProjectEdges(ctx, projectID, []string{graph.RelDependsOn})
	if err != nil {
		return nil, fmt.Errorf("load dependency edges: %w", err)
	}
	if len(edges) == 0 {
		return []Cycle{}, nil
	}

	adj := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, edge := range edges {
		if seen[edge.FromID] == nil {
			seen[edge.FromID] = make(map[string]bool)
		}
		if seen[edge.FromID][edge.ToID] {
			continue
		}
		seen[edge.FromID][edge.ToID] = true
		adj[edge.FromID] = append(adj[edge.FromID], edge.ToID)
	}

	raw := findCycles(adj, maxReportedCycles, cycleExpansionBudget)

	cycles := make([]Cycle, len(raw))
	for i, nodes := range raw {
		cycles[i] = Cycle{
			Nodes:    nodes,
			Length:   len(nodes),
			Severity: s.classifyCycle(len(nodes)),
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		if cycles[i].Length != cycles[j].Length {
			return cycles[i].Length < cycles[j].Length
		}
		return lessNodeSeq(cycles[i].Nodes, cycles[j].Nodes)
	})
	return cycles, nil
}

// classifyCycle grades a cycle by member count. Two files importing each
// other untangle with one move; longer rings spread the coupling across
// the codebase.
func (s *Service) classifyCycle(length int) Severity {
	threshold := s.cfg.HighSeverityLength
	if threshold <= 0 {
		threshold = 3
	}
	if length >= threshold {
		return SeverityHigh
	}
	return SeverityMedium
}

// findCycles enumerates simple cycles over the adjacency list. The walk
// from each anchor only visits nodes ranked at or above it, so every
// cycle surfaces exactly once, already rotated to start at its smallest
// member. No separate canonicalization or dedup pass is needed.
func findCycles(adj map[string][]string, maxCycles, budget int) [][]string {
	ids := make([]string, 0, len(adj))
	rank := make(map[string]int)
	for id, targets := range adj {
		if _, ok := rank[id]; !ok {
			rank[id] = 0
			ids = append(ids, id)
		}
		for _, target := range targets {
			if _, ok := rank[target]; !ok {
				rank[target] = 0
				ids = append(ids, target)
			}
		}
	}
	sort.Strings(ids)
	for i, id := range ids {
		rank[id] = i
	}
	for id := range adj {
		sort.Strings(adj[id])
	}

	var cycles [][]string
	var path []string
	onPath := make(map[string]bool)

	var dfs func(start, node string)
	dfs = func(start, node string) {
		if len(cycles) >= maxCycles || budget <= 0 {
			return
		}
		budget--
		path = append(path, node)
		onPath[node] = true

		for _, next := range adj[node] {
			if next == start {
				cycles = append(cycles, append([]string(nil), path...))
				if len(cycles) >= maxCycles {
					break
				}
				continue
			}
			if rank[next] < rank[start] || onPath[next] {
				continue
			}
			dfs(start, next)
		}

		delete(onPath, node)
		path = path[:len(path)-1]
	}

	for _, start := range ids {
		if len(cycles) >= maxCycles || budget <= 0 {
			break
		}
		dfs(start, start)
	}
	return cycles
}

func lessNodeSeq(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
