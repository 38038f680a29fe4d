package analytics

import (
	"context"
	"fmt"
)

// ArchitectureOverview aggregates node counts, relationship counts and
// the most coupled nodes for a project. An empty or unreachable graph
// yields an overview with zero counts.
func (s *Service) ArchitectureOverview(ctx context.Context, projectID string) (*Overview, error) {
	nodeCounts, err := s.reader.CountsByLabel(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load node counts: %w", err)
	}
	relCounts, err := s.reader.CountsByType(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load relationship counts: %w", err)
	}

	overview := &Overview{
		ProjectID:          projectID,
		NodeCounts:         nodeCounts,
		RelationshipCounts: relCounts,
		Hotspots:           []NodeCoupling{},
	}
	for _, count := range nodeCounts {
		overview.TotalNodes += count
	}
	for _, count := range relCounts {
		overview.TotalRelationships += count
	}

	report, err := s.AnalyzeCoupling(ctx, projectID)
	if err != nil {
		return nil, err
	}
	topN := s.cfg.TopHotspots
	if topN <= 0 {
		topN = 10
	}
	for _, node := range report.Nodes {
		if len(overview.Hotspots) >= topN {
			break
		}
		overview.Hotspots = append(overview.Hotspots, node)
	}

	return overview, nil
}
