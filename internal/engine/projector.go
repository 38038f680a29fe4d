package engine

import (
	"sort"

	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/graph"
	"github.com/codescope/codescope-go/internal/models"
)

// projection is the graph image of an index: nodes and edges ready for
// batch upsert. Ids are derived from stable entity hashes, so projecting
// an unchanged index produces the same upserts and the graph converges
// instead of growing.
type projection struct {
	nodes []graph.Node
	edges []graph.Edge
}

// buildProjection translates a whole project index into graph form:
// Project, File, Function, Class and Module nodes joined by CONTAINS,
// IMPORTS, DEPENDS_ON and INHERITS_FROM edges.
func buildProjection(index *models.ProjectIndex) projection {
	b := newProjectionBuilder(index)
	b.addProject()
	for _, path := range sortedFilePaths(index) {
		b.addFile(index.Files[path])
	}
	for _, dep := range index.Edges {
		b.addDependency(dep)
	}
	return b.finish()
}

// buildFileProjection projects a single file: its node, its symbols,
// its module membership and import edges, and any inheritance edges it
// is the source of. Module-level DEPENDS_ON edges are excluded; the
// caller refreshes those wholesale via buildDependsOnProjection.
func buildFileProjection(index *models.ProjectIndex, fa *models.FileAnalysis) projection {
	b := newProjectionBuilder(index)
	b.addProject()
	b.addFile(fa)
	for _, dep := range index.Edges {
		if dep.SourceFile != fa.FilePath {
			continue
		}
		if isInheritance(dep) {
			b.addInheritance(dep)
		} else {
			b.addImport(dep)
		}
	}
	return b.finish()
}

// buildDependsOnProjection emits every module node plus the full
// DEPENDS_ON edge set. Re-upserting this after RemoveRelationshipsOfType
// refreshes the module dependency layer in two round trips.
func buildDependsOnProjection(index *models.ProjectIndex) projection {
	b := newProjectionBuilder(index)
	for _, dep := range index.Edges {
		if isInheritance(dep) {
			continue
		}
		b.addDependsOn(dep)
	}
	return b.finish()
}

type projectionBuilder struct {
	index     *models.ProjectIndex
	projectID string

	nodes    []graph.Node
	nodeSeen map[string]bool
	edges    []graph.Edge
	edgeSeen map[string]bool

	classInFile map[string]string   // filePath|name → symbol node id
	classByName map[string][]string // name → symbol node ids, sorted
}

func newProjectionBuilder(index *models.ProjectIndex) *projectionBuilder {
	b := &projectionBuilder{
		index:       index,
		projectID:   index.ProjectID,
		nodeSeen:    make(map[string]bool),
		edgeSeen:    make(map[string]bool),
		classInFile: make(map[string]string),
		classByName: make(map[string][]string),
	}
	b.indexClasses()
	return b
}

// indexClasses records every class and struct symbol in the whole index
// so inheritance edges can resolve superclasses defined in other files.
func (b *projectionBuilder) indexClasses() {
	for _, fa := range b.index.Files {
		for _, s := range fa.Symbols {
			if s.Kind != models.SymbolKindClass && s.Kind != models.SymbolKindStruct {
				continue
			}
			b.classInFile[fa.FilePath+"|"+s.Name] = s.ID
			b.classByName[s.Name] = append(b.classByName[s.Name], s.ID)
		}
	}
	for name := range b.classByName {
		sort.Strings(b.classByName[name])
	}
}

func (b *projectionBuilder) addNode(n graph.Node) {
	if b.nodeSeen[n.ID] {
		return
	}
	b.nodeSeen[n.ID] = true
	n.Properties["project_id"] = b.projectID
	b.nodes = append(b.nodes, n)
}

func (b *projectionBuilder) addEdge(e graph.Edge) {
	key := e.Type + "|" + e.FromID + "|" + e.ToID
	if b.edgeSeen[key] {
		return
	}
	b.edgeSeen[key] = true
	b.edges = append(b.edges, e)
}

func (b *projectionBuilder) addProject() {
	b.addNode(graph.Node{
		Label: graph.LabelProject,
		ID:    b.projectID,
		Properties: map[string]any{
			"name":      b.projectID,
			"root_path": b.index.RootPath,
		},
	})
}

func (b *projectionBuilder) addFile(fa *models.FileAnalysis) {
	fileID := models.FileID(b.projectID, fa.FilePath)
	b.addNode(graph.Node{
		Label: graph.LabelFile,
		ID:    fileID,
		Properties: map[string]any{
			"path":         fa.FilePath,
			"language":     fa.Language,
			"symbol_count": len(fa.Symbols),
			"cyclomatic":   fa.Complexity.Cyclomatic,
			"line_count":   fa.Complexity.LineCount,
			"degraded":     fa.Degraded(),
		},
	})
	b.addEdge(graph.Edge{
		Type:      graph.RelContains,
		FromLabel: graph.LabelProject,
		FromID:    b.projectID,
		ToLabel:   graph.LabelFile,
		ToID:      fileID,
	})

	// The file's own module owns it; imports hang off the file below.
	moduleID := b.addModule(analyzer.ModuleName(fa.FilePath, fa.Language), false)
	b.addEdge(graph.Edge{
		Type:      graph.RelContains,
		FromLabel: graph.LabelModule,
		FromID:    moduleID,
		ToLabel:   graph.LabelFile,
		ToID:      fileID,
	})

	for _, s := range fa.Symbols {
		label := symbolLabel(s.Kind)
		if label == "" {
			continue
		}
		b.addNode(graph.Node{
			Label: label,
			ID:    s.ID,
			Properties: map[string]any{
				"name":       s.Name,
				"kind":       string(s.Kind),
				"file_path":  s.FilePath,
				"line_start": s.LineStart,
				"line_end":   s.LineEnd,
				"complexity": s.Complexity,
				"is_async":   s.IsAsync,
			},
		})
		b.addEdge(graph.Edge{
			Type:      graph.RelContains,
			FromLabel: graph.LabelFile,
			FromID:    fileID,
			ToLabel:   label,
			ToID:      s.ID,
		})
	}
}

// addDependency projects one resolved dependency: inheritance becomes a
// Class edge, everything else an IMPORTS edge from the source file plus
// a DEPENDS_ON edge between modules.
func (b *projectionBuilder) addDependency(dep models.Dependency) {
	if isInheritance(dep) {
		b.addInheritance(dep)
		return
	}
	b.addImport(dep)
	b.addDependsOn(dep)
}

func (b *projectionBuilder) addImport(dep models.Dependency) {
	if dep.SourceFile == "" || dep.TargetModule == "" {
		return
	}
	targetID := b.addModule(dep.TargetModule, dep.IsExternal)
	b.addEdge(graph.Edge{
		Type:      graph.RelImports,
		FromLabel: graph.LabelFile,
		FromID:    models.FileID(b.projectID, dep.SourceFile),
		ToLabel:   graph.LabelModule,
		ToID:      targetID,
		Properties: map[string]any{
			"import_statement": dep.ImportStatement,
		},
	})
}

func (b *projectionBuilder) addDependsOn(dep models.Dependency) {
	if dep.SourceModule == "" || dep.TargetModule == "" || dep.SourceModule == dep.TargetModule {
		return
	}
	fromID := b.addModule(dep.SourceModule, false)
	toID := b.addModule(dep.TargetModule, dep.IsExternal)
	b.addEdge(graph.Edge{
		Type:      graph.RelDependsOn,
		FromLabel: graph.LabelModule,
		FromID:    fromID,
		ToLabel:   graph.LabelModule,
		ToID:      toID,
		Properties: map[string]any{
			"is_external": dep.IsExternal,
		},
	})
}

// addInheritance connects subclass to superclass when both resolve to
// class symbols in the index. External superclasses have no node to
// point at and are skipped.
func (b *projectionBuilder) addInheritance(dep models.Dependency) {
	if dep.IsExternal {
		return
	}
	subID, ok := b.classInFile[dep.SourceFile+"|"+dep.SourceModule]
	if !ok {
		return
	}
	supers := b.classByName[dep.TargetModule]
	if len(supers) == 0 {
		return
	}
	b.addEdge(graph.Edge{
		Type:      graph.RelInheritsFrom,
		FromLabel: graph.LabelClass,
		FromID:    subID,
		ToLabel:   graph.LabelClass,
		ToID:      supers[0],
	})
}

func (b *projectionBuilder) addModule(name string, external bool) string {
	id := models.ModuleID(b.projectID, name)
	b.addNode(graph.Node{
		Label: graph.LabelModule,
		ID:    id,
		Properties: map[string]any{
			"name":        name,
			"is_external": external,
		},
	})
	return id
}

func (b *projectionBuilder) finish() projection {
	return projection{nodes: b.nodes, edges: b.edges}
}

func symbolLabel(kind models.SymbolKind) string {
	switch kind {
	case models.SymbolKindFunction, models.SymbolKindMethod:
		return graph.LabelFunction
	case models.SymbolKindClass, models.SymbolKindStruct:
		return graph.LabelClass
	default:
		return ""
	}
}

func isInheritance(dep models.Dependency) bool {
	return dep.ImportStatement == "inherits" || dep.ImportStatement == "extends"
}

func sortedFilePaths(index *models.ProjectIndex) []string {
	paths := make([]string, 0, len(index.Files))
	for p := range index.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
