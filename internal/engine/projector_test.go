package engine

import (
	"reflect"
	"testing"

	"github.com/codescope/codescope-go/internal/graph"
	"github.com/codescope/codescope-go/internal/models"
)

func symbol(kind models.SymbolKind, file, name string, start, end int) models.Symbol {
	return models.Symbol{
		ID:        models.SymbolID(kind, file, name, start),
		Name:      name,
		Kind:      kind,
		FilePath:  file,
		LineStart: start,
		LineEnd:   end,
	}
}

// sampleIndex models a three-file python project: main imports utils
// and models plus the external os module, and Admin extends User.
func sampleIndex() *models.ProjectIndex {
	index := models.NewProjectIndex("demo", "/tmp/demo")

	index.Files["main.py"] = &models.FileAnalysis{
		FilePath: "main.py",
		Language: "python",
		Symbols:  []models.Symbol{symbol(models.SymbolKindFunction, "main.py", "main", 4, 6)},
	}
	index.Files["utils.py"] = &models.FileAnalysis{
		FilePath: "utils.py",
		Language: "python",
		Symbols:  []models.Symbol{symbol(models.SymbolKindFunction, "utils.py", "helper", 1, 2)},
	}
	index.Files["models.py"] = &models.FileAnalysis{
		FilePath: "models.py",
		Language: "python",
		Symbols: []models.Symbol{
			symbol(models.SymbolKindClass, "models.py", "User", 1, 3),
			symbol(models.SymbolKindClass, "models.py", "Admin", 5, 7),
		},
	}

	for _, fa := range index.Files {
		for i := range fa.Symbols {
			s := fa.Symbols[i]
			index.SymbolTable[s.Name] = append(index.SymbolTable[s.Name], &fa.Symbols[i])
		}
	}

	index.Edges = []models.Dependency{
		{SourceFile: "main.py", SourceModule: "main", TargetModule: "utils", ImportStatement: "from utils import helper"},
		{SourceFile: "main.py", SourceModule: "main", TargetModule: "models", ImportStatement: "from models import User"},
		{SourceFile: "main.py", SourceModule: "main", TargetModule: "os", IsExternal: true, ImportStatement: "import os"},
		{SourceFile: "models.py", SourceModule: "Admin", TargetModule: "User", ImportStatement: "inherits"},
	}
	return index
}

func countNodes(p projection, label string) int {
	n := 0
	for _, node := range p.nodes {
		if node.Label == label {
			n++
		}
	}
	return n
}

func countEdges(p projection, relType string) int {
	n := 0
	for _, edge := range p.edges {
		if edge.Type == relType {
			n++
		}
	}
	return n
}

func hasEdge(p projection, relType, fromID, toID string) bool {
	for _, edge := range p.edges {
		if edge.Type == relType && edge.FromID == fromID && edge.ToID == toID {
			return true
		}
	}
	return false
}

func TestBuildProjectionNodes(t *testing.T) {
	p := buildProjection(sampleIndex())

	if got := countNodes(p, graph.LabelProject); got != 1 {
		t.Errorf("project nodes = %d, want 1", got)
	}
	if got := countNodes(p, graph.LabelFile); got != 3 {
		t.Errorf("file nodes = %d, want 3", got)
	}
	// main, utils, models plus the external os module
	if got := countNodes(p, graph.LabelModule); got != 4 {
		t.Errorf("module nodes = %d, want 4", got)
	}
	if got := countNodes(p, graph.LabelFunction); got != 2 {
		t.Errorf("function nodes = %d, want 2", got)
	}
	if got := countNodes(p, graph.LabelClass); got != 2 {
		t.Errorf("class nodes = %d, want 2", got)
	}

	for _, node := range p.nodes {
		if node.Properties["project_id"] != "demo" {
			t.Fatalf("node %s missing project_id", node.ID)
		}
	}
}

func TestBuildProjectionEdges(t *testing.T) {
	index := sampleIndex()
	p := buildProjection(index)

	// project→file ×3, module→file ×3, file→symbol ×4
	if got := countEdges(p, graph.RelContains); got != 10 {
		t.Errorf("CONTAINS edges = %d, want 10", got)
	}
	if got := countEdges(p, graph.RelImports); got != 3 {
		t.Errorf("IMPORTS edges = %d, want 3", got)
	}
	if got := countEdges(p, graph.RelDependsOn); got != 3 {
		t.Errorf("DEPENDS_ON edges = %d, want 3", got)
	}
	if got := countEdges(p, graph.RelInheritsFrom); got != 1 {
		t.Errorf("INHERITS_FROM edges = %d, want 1", got)
	}

	mainMod := models.ModuleID("demo", "main")
	utilsMod := models.ModuleID("demo", "utils")
	if !hasEdge(p, graph.RelDependsOn, mainMod, utilsMod) {
		t.Error("missing DEPENDS_ON main → utils")
	}

	admin := models.SymbolID(models.SymbolKindClass, "models.py", "Admin", 5)
	user := models.SymbolID(models.SymbolKindClass, "models.py", "User", 1)
	if !hasEdge(p, graph.RelInheritsFrom, admin, user) {
		t.Error("missing INHERITS_FROM Admin → User")
	}

	mainFile := models.FileID("demo", "main.py")
	osMod := models.ModuleID("demo", "os")
	if !hasEdge(p, graph.RelImports, mainFile, osMod) {
		t.Error("missing IMPORTS main.py → os")
	}
}

func TestBuildProjectionIdempotent(t *testing.T) {
	index := sampleIndex()

	first := buildProjection(index)
	second := buildProjection(index)

	if !reflect.DeepEqual(first, second) {
		t.Error("projections of the same index should be identical")
	}
}

func TestBuildProjectionSkipsExternalInheritance(t *testing.T) {
	index := sampleIndex()
	index.Edges = append(index.Edges, models.Dependency{
		SourceFile:      "models.py",
		SourceModule:    "Admin",
		TargetModule:    "BaseModel",
		IsExternal:      true,
		ImportStatement: "inherits",
	})

	p := buildProjection(index)
	if got := countEdges(p, graph.RelInheritsFrom); got != 1 {
		t.Errorf("INHERITS_FROM edges = %d, want 1 (external superclass has no node)", got)
	}
}

func TestBuildProjectionSkipsSelfDependency(t *testing.T) {
	index := sampleIndex()
	index.Edges = append(index.Edges, models.Dependency{
		SourceFile:   "utils.py",
		SourceModule: "utils",
		TargetModule: "utils",
	})

	p := buildProjection(index)
	utilsMod := models.ModuleID("demo", "utils")
	if hasEdge(p, graph.RelDependsOn, utilsMod, utilsMod) {
		t.Error("self-dependency should not produce a loop edge")
	}
}

func TestBuildFileProjectionScope(t *testing.T) {
	index := sampleIndex()
	p := buildFileProjection(index, index.Files["main.py"])

	if got := countNodes(p, graph.LabelFile); got != 1 {
		t.Errorf("file nodes = %d, want 1", got)
	}
	if got := countEdges(p, graph.RelDependsOn); got != 0 {
		t.Errorf("single-file projection emitted %d DEPENDS_ON edges, want 0", got)
	}
	if got := countEdges(p, graph.RelImports); got != 3 {
		t.Errorf("IMPORTS edges = %d, want 3", got)
	}
}

func TestBuildFileProjectionResolvesCrossFileInheritance(t *testing.T) {
	index := sampleIndex()

	// Move the superclass to another file; the subclass projection must
	// still find it through the whole-index class table.
	index.Files["base.py"] = &models.FileAnalysis{
		FilePath: "base.py",
		Language: "python",
		Symbols:  []models.Symbol{symbol(models.SymbolKindClass, "base.py", "Base", 1, 2)},
	}
	index.Edges = append(index.Edges, models.Dependency{
		SourceFile:      "models.py",
		SourceModule:    "Admin",
		TargetModule:    "Base",
		ImportStatement: "inherits",
	})

	p := buildFileProjection(index, index.Files["models.py"])
	admin := models.SymbolID(models.SymbolKindClass, "models.py", "Admin", 5)
	base := models.SymbolID(models.SymbolKindClass, "base.py", "Base", 1)
	if !hasEdge(p, graph.RelInheritsFrom, admin, base) {
		t.Error("missing cross-file INHERITS_FROM Admin → Base")
	}
}

func TestBuildDependsOnProjection(t *testing.T) {
	index := sampleIndex()
	p := buildDependsOnProjection(index)

	if got := countNodes(p, graph.LabelFile); got != 0 {
		t.Errorf("dependency projection emitted %d file nodes, want 0", got)
	}
	if got := countNodes(p, graph.LabelModule); got != 4 {
		t.Errorf("module nodes = %d, want 4", got)
	}
	if got := countEdges(p, graph.RelDependsOn); got != 3 {
		t.Errorf("DEPENDS_ON edges = %d, want 3", got)
	}
	if got := countEdges(p, graph.RelContains); got != 0 {
		t.Errorf("dependency projection emitted %d CONTAINS edges, want 0", got)
	}
}

func TestProjectionModuleExternality(t *testing.T) {
	p := buildProjection(sampleIndex())

	for _, node := range p.nodes {
		if node.Label != graph.LabelModule {
			continue
		}
		name, _ := node.Properties["name"].(string)
		external, _ := node.Properties["is_external"].(bool)
		if name == "os" && !external {
			t.Error("os module should be external")
		}
		if name == "utils" && external {
			t.Error("utils module should be internal")
		}
	}
}
