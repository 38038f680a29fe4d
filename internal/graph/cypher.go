package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CypherBuilder builds parameterized Cypher queries. Every value travels as
// a query parameter; labels, relationship types and property keys are
// validated as identifiers so no caller-supplied text is spliced into the
// query string.
type CypherBuilder struct {
	params  map[string]any
	counter int
}

// NewCypherBuilder creates a query builder.
func NewCypherBuilder() *CypherBuilder {
	return &CypherBuilder{
		params:  make(map[string]any),
		counter: 0,
	}
}

// AddParam adds a parameter and returns its placeholder.
func (b *CypherBuilder) AddParam(value any) string {
	paramName := fmt.Sprintf("p%d", b.counter)
	b.counter++
	b.params[paramName] = value
	return "$" + paramName
}

// Params returns all parameters for the query.
func (b *CypherBuilder) Params() map[string]any {
	return b.params
}

// BuildMergeNode creates an idempotent MERGE keyed by the entity id.
func (b *CypherBuilder) BuildMergeNode(label, id string, properties map[string]any) (string, error) {
	if !isValidIdentifier(label) {
		return "", fmt.Errorf("invalid node label: %s (must be alphanumeric + underscore)", label)
	}
	if id == "" {
		return "", fmt.Errorf("empty node id for label %s", label)
	}

	idParam := b.AddParam(id)

	// Sorted keys keep the generated query stable for identical input.
	setClauses := []string{}
	for _, key := range sortedKeys(properties) {
		if key == "id" {
			continue
		}
		if !isValidIdentifier(key) {
			return "", fmt.Errorf("invalid property key: %s (must be alphanumeric + underscore)", key)
		}
		paramName := b.AddParam(properties[key])
		setClauses = append(setClauses, fmt.Sprintf("n.%s = %s", key, paramName))
	}

	if len(setClauses) == 0 {
		return fmt.Sprintf("MERGE (n:%s {id: %s}) RETURN n.id as id", label, idParam), nil
	}

	return fmt.Sprintf(
		"MERGE (n:%s {id: %s}) SET %s RETURN n.id as id",
		label,
		idParam,
		strings.Join(setClauses, ", "),
	), nil
}

// BuildMergeEdge creates an idempotent MERGE between two nodes matched by
// their entity ids. Missing endpoints produce no rows rather than an error.
func (b *CypherBuilder) BuildMergeEdge(fromLabel, fromID, toLabel, toID, edgeType string, properties map[string]any) (string, error) {
	if !isValidIdentifier(fromLabel) {
		return "", fmt.Errorf("invalid from label: %s", fromLabel)
	}
	if !isValidIdentifier(toLabel) {
		return "", fmt.Errorf("invalid to label: %s", toLabel)
	}
	if !isValidIdentifier(edgeType) {
		return "", fmt.Errorf("invalid relationship type: %s", edgeType)
	}
	if fromID == "" || toID == "" {
		return "", fmt.Errorf("empty endpoint id for %s relationship", edgeType)
	}

	fromParam := b.AddParam(fromID)
	toParam := b.AddParam(toID)

	var propsStr string
	if len(properties) > 0 {
		propClauses := []string{}
		for _, key := range sortedKeys(properties) {
			if !isValidIdentifier(key) {
				return "", fmt.Errorf("invalid edge property key: %s", key)
			}
			paramName := b.AddParam(properties[key])
			propClauses = append(propClauses, fmt.Sprintf("r.%s = %s", key, paramName))
		}
		propsStr = " SET " + strings.Join(propClauses, ", ")
	}

	return fmt.Sprintf(
		"MATCH (from:%s {id: %s}) MATCH (to:%s {id: %s}) MERGE (from)-[r:%s]->(to)%s RETURN from.id as from_id, to.id as to_id",
		fromLabel, fromParam,
		toLabel, toParam,
		edgeType,
		propsStr,
	), nil
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidIdentifier reports whether s can be safely used as a Cypher
// label, relationship type or property key.
func isValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
