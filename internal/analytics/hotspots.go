package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// AnalyzeCoupling ranks a project's File and Module nodes by combined
// in+out degree and marks the nodes whose degree exceeds the configured
// percentile among their peers.
func (s *Service) AnalyzeCoupling(ctx context.Context, projectID string) (*CouplingReport, error) {
	degrees, err := s.reader.NodeDegrees(ctx, projectID, nil)
	if err != nil {
		return nil, fmt.Errorf("load node degrees: %w", err)
	}

	report := &CouplingReport{ProjectID: projectID, Nodes: []NodeCoupling{}}
	if len(degrees) == 0 {
		return report, nil
	}

	totals := make([]int, len(degrees))
	sum := 0
	for i, d := range degrees {
		totals[i] = int(d.TotalDegree)
		sum += int(d.TotalDegree)
		if int(d.TotalDegree) > report.MaxDegree {
			report.MaxDegree = int(d.TotalDegree)
		}
	}
	report.AverageDegree = float64(sum) / float64(len(degrees))
	report.HotspotThreshold = degreePercentile(totals, s.hotspotPercentile())

	report.Nodes = make([]NodeCoupling, len(degrees))
	for i, d := range degrees {
		report.Nodes[i] = NodeCoupling{
			ID:          d.ID,
			Label:       d.Label,
			Name:        d.Name,
			InDegree:    int(d.InDegree),
			OutDegree:   int(d.OutDegree),
			TotalDegree: int(d.TotalDegree),
			IsHotspot:   float64(d.TotalDegree) > report.HotspotThreshold,
		}
	}

	sort.Slice(report.Nodes, func(i, j int) bool {
		if report.Nodes[i].TotalDegree != report.Nodes[j].TotalDegree {
			return report.Nodes[i].TotalDegree > report.Nodes[j].TotalDegree
		}
		return report.Nodes[i].ID < report.Nodes[j].ID
	})
	return report, nil
}

// FindHotspots returns only the nodes AnalyzeCoupling marked as
// hotspots, most coupled first.
func (s *Service) FindHotspots(ctx context.Context, projectID string) ([]NodeCoupling, error) {
	report, err := s.AnalyzeCoupling(ctx, projectID)
	if err != nil {
		return nil, err
	}

	hotspots := []NodeCoupling{}
	for _, node := range report.Nodes {
		if node.IsHotspot {
			hotspots = append(hotspots, node)
		}
	}
	return hotspots, nil
}

func (s *Service) hotspotPercentile() float64 {
	p := s.cfg.HotspotPercentile
	if p <= 0 || p >= 1 {
		return 0.90
	}
	return p
}

// degreePercentile computes the nearest-rank percentile of the degree
// distribution. With every degree equal the threshold lands on that
// value, so no node strictly exceeds it and nothing is a hotspot.
func degreePercentile(values []int, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return float64(sorted[rank])
}
