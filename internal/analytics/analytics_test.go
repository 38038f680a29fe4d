package analytics

import (
	"context"
	"reflect"
	"testing"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/graph"
)

type stubReader struct {
	edges   []graph.StoredEdge
	degrees []graph.NeighborDegree
	labels  map[string]int64
	types   map[string]int64
}

func (s *stubReader) Connected() bool { return true }

func (s *stubReader) ProjectEdges(_ context.Context, _ string, relTypes []string) ([]graph.StoredEdge, error) {
	if len(relTypes) == 0 {
		return s.edges, nil
	}
	allowed := make(map[string]bool, len(relTypes))
	for _, t := range relTypes {
		allowed[t] = true
	}
	var out []graph.StoredEdge
	for _, e := range s.edges {
		if allowed[e.Type] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubReader) NodeDegrees(_ context.Context, _ string, _ []string) ([]graph.NeighborDegree, error) {
	return s.degrees, nil
}

func (s *stubReader) CountsByLabel(_ context.Context, _ string) (map[string]int64, error) {
	if s.labels == nil {
		return map[string]int64{}, nil
	}
	return s.labels, nil
}

func (s *stubReader) CountsByType(_ context.Context, _ string) (map[string]int64, error) {
	if s.types == nil {
		return map[string]int64{}, nil
	}
	return s.types, nil
}

func dep(from, to string) graph.StoredEdge {
	return graph.StoredEdge{Type: graph.RelDependsOn, FromID: from, ToID: to}
}

func newTestService(reader GraphReader, cfg config.AnalyticsConfig) *Service {
	if cfg.MaxTraversalDepth == 0 {
		cfg.MaxTraversalDepth = 5
	}
	if cfg.HighSeverityLength == 0 {
		cfg.HighSeverityLength = 3
	}
	if cfg.HotspotPercentile == 0 {
		cfg.HotspotPercentile = 0.90
	}
	if cfg.TopHotspots == 0 {
		cfg.TopHotspots = 10
	}
	return NewService(reader, cfg)
}

func TestDependenciesBFS(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"),
		{Type: graph.RelImports, FromID: "b", ToID: "c"},
		dep("a", "d"),
		dep("c", "e"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	got, err := svc.Dependencies(context.Background(), "proj", "a", 2)
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}

	want := []TraversalNode{
		{ID: "b", Distance: 1, RelationshipPath: []string{graph.RelDependsOn}},
		{ID: "d", Distance: 1, RelationshipPath: []string{graph.RelDependsOn}},
		{ID: "c", Distance: 2, RelationshipPath: []string{graph.RelDependsOn, graph.RelImports}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dependencies = %+v, want %+v", got, want)
	}
}

func TestDependenciesDepthBound(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "c"), dep("c", "d"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	got, err := svc.Dependencies(context.Background(), "proj", "a", 1)
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("depth 1 should reach only b, got %+v", got)
	}
}

func TestDependents(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "c"),
		dep("b", "c"),
		dep("x", "a"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	got, err := svc.Dependents(context.Background(), "proj", "c", 2)
	if err != nil {
		t.Fatalf("Dependents failed: %v", err)
	}

	wantIDs := []string{"a", "b", "x"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d dependents, got %+v", len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("dependent[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[2].Distance != 2 {
		t.Errorf("x should be at distance 2, got %d", got[2].Distance)
	}
}

func TestTraversalUnknownStart(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{dep("a", "b")}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	got, err := svc.Dependencies(context.Background(), "proj", "nope", 3)
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unknown start should reach nothing, got %+v", got)
	}
}

func TestTraversalDepthClamped(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "c"), dep("c", "d"), dep("d", "e"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{MaxTraversalDepth: 2})

	// Requested depth beyond the configured maximum is clamped.
	got, err := svc.Dependencies(context.Background(), "proj", "a", 10)
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected traversal clamped to 2 hops, got %+v", got)
	}
}

func TestFindCircularDependencies(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "c"), dep("c", "a"),
		dep("d", "e"), dep("e", "d"),
		dep("f", "a"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	cycles, err := svc.FindCircularDependencies(context.Background(), "proj")
	if err != nil {
		t.Fatalf("FindCircularDependencies failed: %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %+v", cycles)
	}

	if !reflect.DeepEqual(cycles[0].Nodes, []string{"d", "e"}) {
		t.Errorf("first cycle = %v, want [d e]", cycles[0].Nodes)
	}
	if cycles[0].Length != 2 || cycles[0].Severity != SeverityMedium {
		t.Errorf("two-node cycle should be medium, got %+v", cycles[0])
	}

	if !reflect.DeepEqual(cycles[1].Nodes, []string{"a", "b", "c"}) {
		t.Errorf("second cycle = %v, want [a b c]", cycles[1].Nodes)
	}
	if cycles[1].Length != 3 || cycles[1].Severity != SeverityHigh {
		t.Errorf("three-node cycle should be high, got %+v", cycles[1])
	}
}

func TestFindCircularDependenciesAcyclic(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "c"), dep("a", "c"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	cycles, err := svc.FindCircularDependencies(context.Background(), "proj")
	if err != nil {
		t.Fatalf("FindCircularDependencies failed: %v", err)
	}
	if len(cycles) != 0 {
		t.Errorf("acyclic graph should have no cycles, got %+v", cycles)
	}
}

func TestFindCircularDependenciesSharedNode(t *testing.T) {
	// Two loops through the same node must be reported separately.
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "a"),
		dep("a", "c"), dep("c", "a"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	cycles, err := svc.FindCircularDependencies(context.Background(), "proj")
	if err != nil {
		t.Fatalf("FindCircularDependencies failed: %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycles, got %+v", cycles)
	}
	if !reflect.DeepEqual(cycles[0].Nodes, []string{"a", "b"}) || !reflect.DeepEqual(cycles[1].Nodes, []string{"a", "c"}) {
		t.Errorf("cycles = %+v, want [a b] and [a c]", cycles)
	}
}

func TestCycleSeverityConfigurable(t *testing.T) {
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "a"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{HighSeverityLength: 2})

	cycles, err := svc.FindCircularDependencies(context.Background(), "proj")
	if err != nil {
		t.Fatalf("FindCircularDependencies failed: %v", err)
	}
	if len(cycles) != 1 || cycles[0].Severity != SeverityHigh {
		t.Errorf("with threshold 2 a two-node cycle is high, got %+v", cycles)
	}
}

func TestCycleDeduplication(t *testing.T) {
	// The same ring reached from different entry points is one cycle.
	reader := &stubReader{edges: []graph.StoredEdge{
		dep("a", "b"), dep("b", "c"), dep("c", "a"),
		dep("x", "b"), dep("y", "c"),
	}}
	svc := newTestService(reader, config.AnalyticsConfig{})

	cycles, err := svc.FindCircularDependencies(context.Background(), "proj")
	if err != nil {
		t.Fatalf("FindCircularDependencies failed: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("expected exactly 1 cycle, got %+v", cycles)
	}
	if !reflect.DeepEqual(cycles[0].Nodes, []string{"a", "b", "c"}) {
		t.Errorf("cycle = %v, want [a b c] anchored at smallest id", cycles[0].Nodes)
	}
}

func TestAnalyzeCoupling(t *testing.T) {
	degrees := make([]graph.NeighborDegree, 0, 10)
	for i := 0; i < 10; i++ {
		degrees = append(degrees, graph.NeighborDegree{
			ID:          string(rune('a' + i)),
			Label:       graph.LabelFile,
			InDegree:    int64(i),
			OutDegree:   1,
			TotalDegree: int64(i + 1),
		})
	}
	reader := &stubReader{degrees: degrees}
	svc := newTestService(reader, config.AnalyticsConfig{})

	report, err := svc.AnalyzeCoupling(context.Background(), "proj")
	if err != nil {
		t.Fatalf("AnalyzeCoupling failed: %v", err)
	}

	// Degrees 1..10, nearest-rank p90 lands on 9: only degree 10 exceeds it.
	if report.HotspotThreshold != 9 {
		t.Errorf("HotspotThreshold = %v, want 9", report.HotspotThreshold)
	}
	if report.MaxDegree != 10 {
		t.Errorf("MaxDegree = %d, want 10", report.MaxDegree)
	}
	if report.AverageDegree != 5.5 {
		t.Errorf("AverageDegree = %v, want 5.5", report.AverageDegree)
	}

	if report.Nodes[0].TotalDegree != 10 || !report.Nodes[0].IsHotspot {
		t.Errorf("most coupled node should lead and be a hotspot: %+v", report.Nodes[0])
	}
	for _, node := range report.Nodes[1:] {
		if node.IsHotspot {
			t.Errorf("node %s should not be a hotspot", node.ID)
		}
	}
}

func TestFindHotspotsAllEqual(t *testing.T) {
	degrees := []graph.NeighborDegree{
		{ID: "a", TotalDegree: 4},
		{ID: "b", TotalDegree: 4},
		{ID: "c", TotalDegree: 4},
	}
	reader := &stubReader{degrees: degrees}
	svc := newTestService(reader, config.AnalyticsConfig{})

	hotspots, err := svc.FindHotspots(context.Background(), "proj")
	if err != nil {
		t.Fatalf("FindHotspots failed: %v", err)
	}
	if len(hotspots) != 0 {
		t.Errorf("uniform degrees produce no hotspots, got %+v", hotspots)
	}
}

func TestArchitectureOverview(t *testing.T) {
	reader := &stubReader{
		labels: map[string]int64{graph.LabelFile: 12, graph.LabelModule: 3, graph.LabelProject: 1},
		types:  map[string]int64{graph.RelContains: 30, graph.RelDependsOn: 14},
		degrees: []graph.NeighborDegree{
			{ID: "a", TotalDegree: 9},
			{ID: "b", TotalDegree: 7},
			{ID: "c", TotalDegree: 2},
		},
	}
	svc := newTestService(reader, config.AnalyticsConfig{TopHotspots: 2})

	overview, err := svc.ArchitectureOverview(context.Background(), "proj")
	if err != nil {
		t.Fatalf("ArchitectureOverview failed: %v", err)
	}

	if overview.TotalNodes != 16 {
		t.Errorf("TotalNodes = %d, want 16", overview.TotalNodes)
	}
	if overview.TotalRelationships != 44 {
		t.Errorf("TotalRelationships = %d, want 44", overview.TotalRelationships)
	}
	if len(overview.Hotspots) != 2 {
		t.Fatalf("expected top 2 hotspots, got %+v", overview.Hotspots)
	}
	if overview.Hotspots[0].ID != "a" || overview.Hotspots[1].ID != "b" {
		t.Errorf("hotspots should rank by degree, got %+v", overview.Hotspots)
	}
}

func TestEmptyGraphTolerance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&stubReader{}, config.AnalyticsConfig{})

	if nodes, err := svc.Dependencies(ctx, "proj", "a", 3); err != nil || len(nodes) != 0 {
		t.Errorf("Dependencies on empty graph = (%v, %v), want empty", nodes, err)
	}
	if cycles, err := svc.FindCircularDependencies(ctx, "proj"); err != nil || len(cycles) != 0 {
		t.Errorf("FindCircularDependencies on empty graph = (%v, %v), want empty", cycles, err)
	}
	if report, err := svc.AnalyzeCoupling(ctx, "proj"); err != nil || len(report.Nodes) != 0 {
		t.Errorf("AnalyzeCoupling on empty graph = (%v, %v), want empty report", report, err)
	}
	overview, err := svc.ArchitectureOverview(ctx, "proj")
	if err != nil || overview.TotalNodes != 0 || overview.TotalRelationships != 0 {
		t.Errorf("ArchitectureOverview on empty graph = (%+v, %v), want zero counts", overview, err)
	}
}

func TestDegreePercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		p      float64
		want   float64
	}{
		{"empty", nil, 0.9, 0},
		{"single value", []int{7}, 0.9, 7},
		{"ten values p90", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9},
		{"median", []int{1, 2, 3, 4}, 0.5, 2},
		{"unsorted input", []int{9, 1, 5}, 0.5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := degreePercentile(tt.values, tt.p); got != tt.want {
				t.Errorf("degreePercentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
			}
		})
	}
}
