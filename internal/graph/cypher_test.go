package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/codescope/codescope-go/internal/config"
)

func TestBuildMergeNode(t *testing.T) {
	builder := NewCypherBuilder()

	query, err := builder.BuildMergeNode(LabelFile, "file_0011223344556677", map[string]any{
		"path":     "internal/server/main.go",
		"language": "go",
	})
	if err != nil {
		t.Fatalf("BuildMergeNode failed: %v", err)
	}

	want := "MERGE (n:File {id: $p0}) SET n.language = $p1, n.path = $p2 RETURN n.id as id"
	if query != want {
		t.Errorf("query mismatch:\n got: %s\nwant: %s", query, want)
	}

	params := builder.Params()
	if params["p0"] != "file_0011223344556677" {
		t.Errorf("expected id param, got %v", params["p0"])
	}
	if params["p1"] != "go" || params["p2"] != "internal/server/main.go" {
		t.Errorf("unexpected property params: %v", params)
	}
}

func TestBuildMergeNodeSkipsIDProperty(t *testing.T) {
	builder := NewCypherBuilder()

	query, err := builder.BuildMergeNode(LabelModule, "mod_1", map[string]any{
		"id":   "should-not-override",
		"name": "app.util",
	})
	if err != nil {
		t.Fatalf("BuildMergeNode failed: %v", err)
	}
	if strings.Contains(query, "n.id =") {
		t.Errorf("id property must only appear in the MERGE key: %s", query)
	}
}

func TestBuildMergeNodeNoProperties(t *testing.T) {
	builder := NewCypherBuilder()

	query, err := builder.BuildMergeNode(LabelProject, "proj_1", nil)
	if err != nil {
		t.Fatalf("BuildMergeNode failed: %v", err)
	}
	if strings.Contains(query, "SET") {
		t.Errorf("expected no SET clause for empty properties: %s", query)
	}
}

func TestBuildMergeNodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		label string
		id    string
		props map[string]any
	}{
		{"injected label", "File) DETACH DELETE (n", "file_1", nil},
		{"empty label", "", "file_1", nil},
		{"empty id", LabelFile, "", nil},
		{"injected property key", LabelFile, "file_1", map[string]any{"path`]: 1}) RETURN 1 //": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCypherBuilder().BuildMergeNode(tt.label, tt.id, tt.props); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestBuildMergeEdge(t *testing.T) {
	builder := NewCypherBuilder()

	query, err := builder.BuildMergeEdge(LabelFile, "file_a", LabelModule, "mod_b", RelDependsOn, map[string]any{
		"external": false,
	})
	if err != nil {
		t.Fatalf("BuildMergeEdge failed: %v", err)
	}

	want := "MATCH (from:File {id: $p0}) MATCH (to:Module {id: $p1}) MERGE (from)-[r:DEPENDS_ON]->(to) SET r.external = $p2 RETURN from.id as from_id, to.id as to_id"
	if query != want {
		t.Errorf("query mismatch:\n got: %s\nwant: %s", query, want)
	}

	params := builder.Params()
	if params["p0"] != "file_a" || params["p1"] != "mod_b" {
		t.Errorf("unexpected endpoint params: %v", params)
	}
}

func TestBuildMergeEdgeRejectsBadType(t *testing.T) {
	_, err := NewCypherBuilder().BuildMergeEdge(LabelFile, "a", LabelFile, "b", "DEPENDS ON", nil)
	if err == nil {
		t.Error("expected validation error for relationship type with space")
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"File", "DEPENDS_ON", "_internal", "path2", "a"}
	for _, s := range valid {
		if !isValidIdentifier(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []string{"", "2path", "has space", "has-dash", "semi;colon", "dot.ted", "back`tick"}
	for _, s := range invalid {
		if isValidIdentifier(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestAddParamSequence(t *testing.T) {
	builder := NewCypherBuilder()

	first := builder.AddParam("x")
	second := builder.AddParam(42)
	if first != "$p0" || second != "$p1" {
		t.Errorf("unexpected placeholders: %s, %s", first, second)
	}
	if builder.Params()["p1"] != 42 {
		t.Errorf("expected parameter p1=42, got %v", builder.Params()["p1"])
	}
}

// A client that never connected must absorb every operation: writes report
// failure, reads come back empty, nothing panics or errors.
func TestDisconnectedClientSemantics(t *testing.T) {
	ctx := context.Background()
	client := NewClient(config.GraphConfig{URI: "bolt://localhost:7687", Username: "neo4j"})

	if client.Connected() {
		t.Fatal("client should start disconnected")
	}

	if ok := client.UpsertNode(ctx, Node{Label: LabelFile, ID: "file_1"}); ok {
		t.Error("UpsertNode should return false while disconnected")
	}
	if ok := client.UpsertRelationship(ctx, Edge{Type: RelDependsOn, FromLabel: LabelFile, FromID: "a", ToLabel: LabelFile, ToID: "b"}); ok {
		t.Error("UpsertRelationship should return false while disconnected")
	}
	if ok := client.UpsertNodes(ctx, []Node{{Label: LabelFile, ID: "file_1"}}); ok {
		t.Error("UpsertNodes should return false while disconnected")
	}
	if ok := client.UpsertRelationships(ctx, []Edge{{Type: RelDependsOn, FromLabel: LabelFile, FromID: "a", ToLabel: LabelFile, ToID: "b"}}); ok {
		t.Error("UpsertRelationships should return false while disconnected")
	}

	removed, err := client.ClearProject(ctx, "proj")
	if err != nil || removed != 0 {
		t.Errorf("ClearProject while disconnected = (%d, %v), want (0, nil)", removed, err)
	}

	edges, err := client.ProjectEdges(ctx, "proj", nil)
	if err != nil || len(edges) != 0 {
		t.Errorf("ProjectEdges while disconnected = (%v, %v), want empty", edges, err)
	}
	degrees, err := client.NodeDegrees(ctx, "proj", nil)
	if err != nil || len(degrees) != 0 {
		t.Errorf("NodeDegrees while disconnected = (%v, %v), want empty", degrees, err)
	}
	records, err := client.ExecuteRead(ctx, "MATCH (n) RETURN n", nil)
	if err != nil || records != nil {
		t.Errorf("ExecuteRead while disconnected = (%v, %v), want (nil, nil)", records, err)
	}

	health := client.Health(ctx)
	if health.Connected || health.Nodes != 0 || health.Relationships != 0 {
		t.Errorf("Health while disconnected = %+v, want zero value", health)
	}

	if err := client.Close(ctx); err != nil {
		t.Errorf("Close on never-connected client failed: %v", err)
	}
}

func TestUpsertBatchesEmptyInput(t *testing.T) {
	ctx := context.Background()
	client := NewClient(config.GraphConfig{})

	// Empty batches are a no-op success even while disconnected.
	if !client.UpsertNodes(ctx, nil) {
		t.Error("UpsertNodes with no nodes should succeed")
	}
	if !client.UpsertRelationships(ctx, nil) {
		t.Error("UpsertRelationships with no edges should succeed")
	}
}
