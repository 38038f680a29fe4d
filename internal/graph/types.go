package graph

// Node labels in the code property graph.
const (
	LabelProject  = "Project"
	LabelFile     = "File"
	LabelModule   = "Module"
	LabelFunction = "Function"
	LabelClass    = "Class"
)

// Relationship types between nodes.
const (
	RelContains     = "CONTAINS"
	RelImports      = "IMPORTS"
	RelCalls        = "CALLS"
	RelInheritsFrom = "INHERITS_FROM"
	RelDependsOn    = "DEPENDS_ON"
)

// NodeLabels lists every label the projector emits. ClearProject and the
// count queries iterate this set so each query stays on a label index.
var NodeLabels = []string{LabelProject, LabelFile, LabelModule, LabelFunction, LabelClass}

// Node is a graph node keyed by a stable entity id. Properties must not
// contain the key "id"; the upsert writes it from the ID field.
type Node struct {
	Label      string
	ID         string
	Properties map[string]any
}

// Edge connects two existing nodes by their entity ids.
type Edge struct {
	Type       string
	FromLabel  string
	FromID     string
	ToLabel    string
	ToID       string
	Properties map[string]any
}

// Health reports backend reachability and graph size.
type Health struct {
	Connected     bool  `json:"connected"`
	Nodes         int64 `json:"node_count"`
	Relationships int64 `json:"relationship_count"`
}

// NeighborDegree is a node ranked by its combined in+out degree.
type NeighborDegree struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Name        string `json:"name"`
	InDegree    int64  `json:"in_degree"`
	OutDegree   int64  `json:"out_degree"`
	TotalDegree int64  `json:"total_degree"`
}

// StoredEdge is a relationship read back from the graph.
type StoredEdge struct {
	Type   string `json:"type"`
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}
