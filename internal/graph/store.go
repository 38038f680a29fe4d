package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Batch sizing for UNWIND writes. One round trip per batch instead of one
// per entity keeps large project ingestion inside a handful of queries.
const (
	nodeBatchSize = 500
	edgeBatchSize = 1000
)

// UpsertNode merges a single node keyed by its entity id. Returns false
// when the client is disconnected or the write fails.
func (c *Client) UpsertNode(ctx context.Context, node Node) bool {
	if !c.connected.Load() {
		return false
	}

	builder := NewCypherBuilder()
	query, err := builder.BuildMergeNode(node.Label, node.ID, node.Properties)
	if err != nil {
		c.logger.Warn("node upsert rejected", "label", node.Label, "id", node.ID, "error", err)
		return false
	}

	queryCtx, cancel := c.opContext(ctx)
	defer cancel()

	_, err = neo4j.ExecuteQuery(queryCtx, c.driver, query, builder.Params(),
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.cfg.Database))
	if err != nil {
		c.logger.Warn("node upsert failed", "label", node.Label, "id", node.ID, "error", err)
		return false
	}
	return true
}

// UpsertRelationship merges a single relationship between two nodes
// matched by entity id. Both endpoints must already exist; a missing
// endpoint leaves the graph untouched and returns false.
func (c *Client) UpsertRelationship(ctx context.Context, edge Edge) bool {
	if !c.connected.Load() {
		return false
	}

	builder := NewCypherBuilder()
	query, err := builder.BuildMergeEdge(edge.FromLabel, edge.FromID, edge.ToLabel, edge.ToID, edge.Type, edge.Properties)
	if err != nil {
		c.logger.Warn("relationship upsert rejected", "type", edge.Type, "error", err)
		return false
	}

	queryCtx, cancel := c.opContext(ctx)
	defer cancel()

	result, err := neo4j.ExecuteQuery(queryCtx, c.driver, query, builder.Params(),
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.cfg.Database))
	if err != nil {
		c.logger.Warn("relationship upsert failed",
			"type", edge.Type,
			"from", edge.FromID,
			"to", edge.ToID,
			"error", err)
		return false
	}
	if len(result.Records) == 0 {
		c.logger.Debug("relationship endpoints not found",
			"type", edge.Type,
			"from", edge.FromID,
			"to", edge.ToID)
		return false
	}
	return true
}

// UpsertNodes merges nodes in label-grouped UNWIND batches. Returns false
// if any batch fails; earlier batches stay applied since every write is an
// idempotent merge.
func (c *Client) UpsertNodes(ctx context.Context, nodes []Node) bool {
	if len(nodes) == 0 {
		return true
	}
	if !c.connected.Load() {
		return false
	}

	nodesByLabel := make(map[string][]Node)
	for _, node := range nodes {
		nodesByLabel[node.Label] = append(nodesByLabel[node.Label], node)
	}

	labels := make([]string, 0, len(nodesByLabel))
	for label := range nodesByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	ok := true
	for _, label := range labels {
		if err := c.upsertNodeBatch(ctx, label, nodesByLabel[label]); err != nil {
			c.logger.Warn("node batch upsert failed", "label", label, "error", err)
			ok = false
		}
	}
	return ok
}

func (c *Client) upsertNodeBatch(ctx context.Context, label string, nodes []Node) error {
	if !isValidIdentifier(label) {
		return fmt.Errorf("invalid node label: %s", label)
	}

	params := make([]map[string]any, len(nodes))
	for i, node := range nodes {
		props := make(map[string]any, len(node.Properties)+1)
		for key, value := range node.Properties {
			props[key] = value
		}
		props["id"] = node.ID
		params[i] = props
	}

	query := fmt.Sprintf(`
		UNWIND $nodes AS node
		MERGE (n:%s {id: node.id})
		SET n += node
		RETURN count(n) as created
	`, label)

	for i := 0; i < len(params); i += nodeBatchSize {
		end := i + nodeBatchSize
		if end > len(params) {
			end = len(params)
		}

		queryCtx, cancel := c.opContext(ctx)
		_, err := neo4j.ExecuteQuery(queryCtx, c.driver, query,
			map[string]any{"nodes": params[i:end]},
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.cfg.Database))
		cancel()
		if err != nil {
			return fmt.Errorf("batch %s upsert failed (batch %d-%d): %w", label, i, end, err)
		}
	}
	return nil
}

// edgeGroup keys batched relationships; Cypher cannot parameterize labels
// or relationship types, so each distinct triple gets its own query.
type edgeGroup struct {
	Type      string
	FromLabel string
	ToLabel   string
}

// UpsertRelationships merges edges in UNWIND batches grouped by
// (type, from label, to label). Edges whose endpoints are missing are
// skipped by the MATCH rather than reported individually.
func (c *Client) UpsertRelationships(ctx context.Context, edges []Edge) bool {
	if len(edges) == 0 {
		return true
	}
	if !c.connected.Load() {
		return false
	}

	grouped := make(map[edgeGroup][]Edge)
	for _, edge := range edges {
		key := edgeGroup{Type: edge.Type, FromLabel: edge.FromLabel, ToLabel: edge.ToLabel}
		grouped[key] = append(grouped[key], edge)
	}

	groups := make([]edgeGroup, 0, len(grouped))
	for key := range grouped {
		groups = append(groups, key)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Type != groups[j].Type {
			return groups[i].Type < groups[j].Type
		}
		if groups[i].FromLabel != groups[j].FromLabel {
			return groups[i].FromLabel < groups[j].FromLabel
		}
		return groups[i].ToLabel < groups[j].ToLabel
	})

	ok := true
	for _, key := range groups {
		if err := c.upsertEdgeBatch(ctx, key, grouped[key]); err != nil {
			c.logger.Warn("relationship batch upsert failed", "type", key.Type, "error", err)
			ok = false
		}
	}
	return ok
}

func (c *Client) upsertEdgeBatch(ctx context.Context, key edgeGroup, edges []Edge) error {
	if !isValidIdentifier(key.Type) || !isValidIdentifier(key.FromLabel) || !isValidIdentifier(key.ToLabel) {
		return fmt.Errorf("invalid relationship identifiers: %s (%s -> %s)", key.Type, key.FromLabel, key.ToLabel)
	}

	params := make([]map[string]any, len(edges))
	for i, edge := range edges {
		props := edge.Properties
		if props == nil {
			props = map[string]any{}
		}
		params[i] = map[string]any{
			"from_id": edge.FromID,
			"to_id":   edge.ToID,
			"props":   props,
		}
	}

	query := fmt.Sprintf(`
		UNWIND $edges AS edge
		MATCH (from:%s {id: edge.from_id})
		MATCH (to:%s {id: edge.to_id})
		MERGE (from)-[r:%s]->(to)
		SET r += edge.props
		RETURN count(r) as created
	`, key.FromLabel, key.ToLabel, key.Type)

	for i := 0; i < len(params); i += edgeBatchSize {
		end := i + edgeBatchSize
		if end > len(params) {
			end = len(params)
		}

		queryCtx, cancel := c.opContext(ctx)
		_, err := neo4j.ExecuteQuery(queryCtx, c.driver, query,
			map[string]any{"edges": params[i:end]},
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.cfg.Database))
		cancel()
		if err != nil {
			return fmt.Errorf("batch %s upsert failed (batch %d-%d): %w", key.Type, i, end, err)
		}
	}
	return nil
}

// ClearProject removes every node and relationship belonging to a project.
// Relationships go first so no delete ever touches a still-wired node.
// Returns the total number of entities removed.
func (c *Client) ClearProject(ctx context.Context, projectID string) (int, error) {
	if !c.connected.Load() {
		return 0, nil
	}

	var removed int64
	for _, label := range NodeLabels {
		// DISTINCT r: an undirected match visits a relationship from
		// both endpoints when both belong to the project.
		query := fmt.Sprintf(`
			MATCH (n:%s {project_id: $project_id})-[r]-()
			WITH DISTINCT r
			DELETE r
			RETURN count(r) as count
		`, label)
		count, err := c.writeCount(ctx, query, map[string]any{"project_id": projectID})
		if err != nil {
			return int(removed), fmt.Errorf("clear %s relationships: %w", label, err)
		}
		removed += count
	}

	for _, label := range NodeLabels {
		query := fmt.Sprintf(`
			MATCH (n:%s {project_id: $project_id})
			DELETE n
			RETURN count(n) as count
		`, label)
		count, err := c.writeCount(ctx, query, map[string]any{"project_id": projectID})
		if err != nil {
			return int(removed), fmt.Errorf("clear %s nodes: %w", label, err)
		}
		removed += count
	}

	c.logger.Info("project cleared from graph", "project", projectID, "removed", removed)
	return int(removed), nil
}

// RemoveFileEntities deletes the File node for a path plus every Function
// and Class node it contains. Used when a source file disappears between
// indexing runs. Returns the number of nodes removed.
func (c *Client) RemoveFileEntities(ctx context.Context, projectID, filePath string) int {
	if !c.connected.Load() {
		return 0
	}

	query := `
		MATCH (f:File {project_id: $project_id, path: $path})
		OPTIONAL MATCH (f)-[:CONTAINS]->(s)
		WITH f, collect(s) as symbols
		FOREACH (s IN symbols | DETACH DELETE s)
		DETACH DELETE f
		RETURN 1 + size(symbols) as count
	`
	count, err := c.writeCount(ctx, query, map[string]any{
		"project_id": projectID,
		"path":       filePath,
	})
	if err != nil {
		c.logger.Warn("stale file cleanup failed", "path", filePath, "error", err)
		return 0
	}
	return int(count)
}

// ProjectFilePaths lists the path of every File node recorded for a
// project. The engine diffs this against a fresh index to find files
// deleted since the last run.
func (c *Client) ProjectFilePaths(ctx context.Context, projectID string) ([]string, error) {
	if !c.connected.Load() {
		return nil, nil
	}

	query := `
		MATCH (f:File {project_id: $project_id})
		RETURN f.path as path
		ORDER BY path
	`
	records, err := c.ExecuteRead(ctx, query, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("project file paths query failed: %w", err)
	}

	paths := make([]string, 0, len(records))
	for _, record := range records {
		if path := stringField(record, "path"); path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// RemoveRelationshipsOfType deletes every relationship of one type
// leaving a project's nodes. Derived module edges are refreshed by
// deleting the type wholesale and re-upserting the current set.
func (c *Client) RemoveRelationshipsOfType(ctx context.Context, projectID, relType string) int {
	if !c.connected.Load() {
		return 0
	}
	if !isValidIdentifier(relType) {
		c.logger.Warn("invalid relationship type", "type", relType)
		return 0
	}

	query := fmt.Sprintf(`
		MATCH (from {project_id: $project_id})-[r:%s]->()
		DELETE r
		RETURN count(r) as count
	`, relType)
	count, err := c.writeCount(ctx, query, map[string]any{"project_id": projectID})
	if err != nil {
		c.logger.Warn("relationship refresh failed", "type", relType, "error", err)
		return 0
	}
	return int(count)
}

// PruneOrphanModules deletes Module nodes no relationship touches.
// Incremental reindexing can strand a module after its last importer
// changes.
func (c *Client) PruneOrphanModules(ctx context.Context, projectID string) int {
	if !c.connected.Load() {
		return 0
	}

	query := `
		MATCH (m:Module {project_id: $project_id})
		WHERE NOT (m)--()
		DELETE m
		RETURN count(m) as count
	`
	count, err := c.writeCount(ctx, query, map[string]any{"project_id": projectID})
	if err != nil {
		c.logger.Warn("orphan module prune failed", "error", err)
		return 0
	}
	return int(count)
}

// writeCount runs a write query that returns a single count column.
func (c *Client) writeCount(ctx context.Context, query string, params map[string]any) (int64, error) {
	queryCtx, cancel := c.opContext(ctx)
	defer cancel()

	result, err := neo4j.ExecuteQuery(queryCtx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.cfg.Database))
	if err != nil {
		return 0, err
	}
	if len(result.Records) == 0 {
		return 0, nil
	}
	count, ok := result.Records[0].Get("count")
	if !ok {
		return 0, fmt.Errorf("write query returned no count column")
	}
	countInt, ok := count.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected type for count: %T (expected int64)", count)
	}
	return countInt, nil
}

// ProjectEdges reads every DEPENDS_ON relationship between a project's
// files and modules. Analytics runs its traversals client-side over this
// edge list, so one query serves BFS, cycle detection and coupling.
func (c *Client) ProjectEdges(ctx context.Context, projectID string, relTypes []string) ([]StoredEdge, error) {
	if !c.connected.Load() {
		return nil, nil
	}
	if len(relTypes) == 0 {
		relTypes = []string{RelDependsOn}
	}
	for _, relType := range relTypes {
		if !isValidIdentifier(relType) {
			return nil, fmt.Errorf("invalid relationship type: %s", relType)
		}
	}

	query := fmt.Sprintf(`
		MATCH (from {project_id: $project_id})-[r:%s]->(to)
		RETURN type(r) as type, from.id as from_id, to.id as to_id
	`, joinRelTypes(relTypes))

	records, err := c.ExecuteRead(ctx, query, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("project edges query failed: %w", err)
	}

	edges := make([]StoredEdge, 0, len(records))
	for _, record := range records {
		edge := StoredEdge{
			Type:   stringField(record, "type"),
			FromID: stringField(record, "from_id"),
			ToID:   stringField(record, "to_id"),
		}
		if edge.FromID == "" || edge.ToID == "" {
			continue
		}
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromID != edges[j].FromID {
			return edges[i].FromID < edges[j].FromID
		}
		return edges[i].ToID < edges[j].ToID
	})
	return edges, nil
}

// NodeDegrees ranks a project's File and Module nodes by in+out degree
// over the given relationship types.
func (c *Client) NodeDegrees(ctx context.Context, projectID string, relTypes []string) ([]NeighborDegree, error) {
	if !c.connected.Load() {
		return nil, nil
	}
	if len(relTypes) == 0 {
		relTypes = []string{RelDependsOn, RelImports}
	}
	for _, relType := range relTypes {
		if !isValidIdentifier(relType) {
			return nil, fmt.Errorf("invalid relationship type: %s", relType)
		}
	}

	pattern := joinRelTypes(relTypes)
	query := fmt.Sprintf(`
		MATCH (n {project_id: $project_id})
		WHERE n:File OR n:Module
		OPTIONAL MATCH (n)-[out:%s]->()
		WITH n, count(out) as out_degree
		OPTIONAL MATCH (n)<-[in:%s]-()
		WITH n, out_degree, count(in) as in_degree
		RETURN n.id as id, labels(n)[0] as label, coalesce(n.name, n.path, n.id) as name,
		       in_degree, out_degree, in_degree + out_degree as total_degree
		ORDER BY total_degree DESC, id ASC
	`, pattern, pattern)

	records, err := c.ExecuteRead(ctx, query, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("node degrees query failed: %w", err)
	}

	degrees := make([]NeighborDegree, 0, len(records))
	for _, record := range records {
		degrees = append(degrees, NeighborDegree{
			ID:          stringField(record, "id"),
			Label:       stringField(record, "label"),
			Name:        stringField(record, "name"),
			InDegree:    intField(record, "in_degree"),
			OutDegree:   intField(record, "out_degree"),
			TotalDegree: intField(record, "total_degree"),
		})
	}
	return degrees, nil
}

// CountsByLabel returns node counts per label for a project.
func (c *Client) CountsByLabel(ctx context.Context, projectID string) (map[string]int64, error) {
	if !c.connected.Load() {
		return map[string]int64{}, nil
	}

	counts := make(map[string]int64, len(NodeLabels))
	for _, label := range NodeLabels {
		query := fmt.Sprintf("MATCH (n:%s {project_id: $project_id}) RETURN count(n) as count", label)
		count, err := c.queryCount(ctx, query, map[string]any{"project_id": projectID})
		if err != nil {
			return nil, fmt.Errorf("count %s nodes: %w", label, err)
		}
		if count > 0 {
			counts[label] = count
		}
	}
	return counts, nil
}

// CountsByType returns relationship counts per type for a project.
func (c *Client) CountsByType(ctx context.Context, projectID string) (map[string]int64, error) {
	if !c.connected.Load() {
		return map[string]int64{}, nil
	}

	query := `
		MATCH (n {project_id: $project_id})-[r]->()
		RETURN type(r) as type, count(r) as count
	`
	records, err := c.ExecuteRead(ctx, query, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("relationship counts query failed: %w", err)
	}

	counts := make(map[string]int64, len(records))
	for _, record := range records {
		relType := stringField(record, "type")
		if relType == "" {
			continue
		}
		counts[relType] = intField(record, "count")
	}
	return counts, nil
}

func joinRelTypes(relTypes []string) string {
	joined := relTypes[0]
	for _, relType := range relTypes[1:] {
		joined += "|" + relType
	}
	return joined
}

func stringField(record map[string]any, key string) string {
	if value, ok := record[key].(string); ok {
		return value
	}
	return ""
}

func intField(record map[string]any, key string) int64 {
	if value, ok := record[key].(int64); ok {
		return value
	}
	return 0
}
