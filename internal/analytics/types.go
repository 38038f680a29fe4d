package analytics

// Severity classifies a circular dependency by how hard it is to unwind.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// String returns the string representation of Severity.
func (s Severity) String() string {
	return string(s)
}

// TraversalNode is one node reached by a bounded dependency traversal.
// RelationshipPath holds the relationship types walked from the start
// node, in order.
type TraversalNode struct {
	ID               string   `json:"id"`
	Distance         int      `json:"distance"`
	RelationshipPath []string `json:"relationship_path"`
}

// Cycle is one circular dependency. Nodes lists the members in edge
// order starting from the smallest id; the closing edge back to the
// first node is implied.
type Cycle struct {
	Nodes    []string `json:"cycle"`
	Length   int      `json:"length"`
	Severity Severity `json:"severity"`
}

// NodeCoupling ranks one node by its combined dependency degree.
type NodeCoupling struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Name        string `json:"name"`
	InDegree    int    `json:"in_degree"`
	OutDegree   int    `json:"out_degree"`
	TotalDegree int    `json:"total_degree"`
	IsHotspot   bool   `json:"is_hotspot"`
}

// CouplingReport summarizes the degree distribution across a project.
type CouplingReport struct {
	ProjectID        string         `json:"project_id"`
	Nodes            []NodeCoupling `json:"nodes"`
	AverageDegree    float64        `json:"average_degree"`
	MaxDegree        int            `json:"max_degree"`
	HotspotThreshold float64        `json:"hotspot_threshold"`
}

// Overview summarizes the shape of a project's code graph.
type Overview struct {
	ProjectID          string           `json:"project_id"`
	NodeCounts         map[string]int64 `json:"node_counts"`
	RelationshipCounts map[string]int64 `json:"relationship_counts"`
	TotalNodes         int64            `json:"total_nodes"`
	TotalRelationships int64            `json:"total_relationships"`
	Hotspots           []NodeCoupling   `json:"top_hotspots"`
}
