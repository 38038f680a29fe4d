package indexer

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/models"
)

// resolver decides whether a dependency target lives inside the indexed
// tree and rewrites internal targets to their canonical module name.
type resolver struct {
	index    *models.ProjectIndex
	modules  map[string]string // module name → one relative file path
	classes  map[string]bool   // class/struct symbol names in the tree
	goModule string            // module line of root go.mod, "" if absent
}

func newResolver(root string, index *models.ProjectIndex) *resolver {
	r := &resolver{
		index:    index,
		goModule: readGoModulePath(root),
	}
	r.rebuild()
	return r
}

// rebuild refreshes the lookup tables from the current file set.
func (r *resolver) rebuild() {
	r.modules = make(map[string]string, len(r.index.Files))
	r.classes = make(map[string]bool)

	for p, fa := range r.index.Files {
		r.modules[analyzer.ModuleName(p, fa.Language)] = p
		for _, s := range fa.Symbols {
			if s.Kind == models.SymbolKindClass || s.Kind == models.SymbolKindStruct {
				r.classes[s.Name] = true
			}
		}
	}
}

// resolveAll rebuilds the project edge list from every file's
// dependencies. Files are visited in sorted order so the edge list is
// deterministic across runs.
func (r *resolver) resolveAll() []models.Dependency {
	paths := make([]string, 0, len(r.index.Files))
	for p := range r.index.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	edges := []models.Dependency{}
	for _, p := range paths {
		fa := r.index.Files[p]
		for _, dep := range fa.Dependencies {
			edges = append(edges, r.resolveDep(p, fa.Language, dep))
		}
	}
	return edges
}

// resolveDep returns a copy of dep with SourceFile set and the internal
// or external status decided against the indexed module table.
func (r *resolver) resolveDep(sourceFile, lang string, dep models.Dependency) models.Dependency {
	resolved := dep
	resolved.SourceFile = sourceFile

	if isInheritanceEdge(dep) {
		// Superclass names resolve against the symbol table, not modules.
		resolved.IsExternal = !r.classes[dep.TargetModule]
		return resolved
	}

	if target, ok := r.resolveTarget(sourceFile, lang, dep.TargetModule); ok {
		resolved.TargetModule = target
		resolved.IsExternal = false
	} else {
		resolved.IsExternal = true
	}
	return resolved
}

func (r *resolver) resolveTarget(sourceFile, lang, target string) (string, bool) {
	switch lang {
	case "python":
		return r.resolvePython(sourceFile, target)
	case "go":
		return r.resolveGo(target)
	case "javascript", "jsx", "typescript", "tsx":
		return r.resolveJS(sourceFile, target)
	default:
		// Heuristic languages get an exact-match lookup only.
		if _, ok := r.modules[target]; ok {
			return target, true
		}
		return "", false
	}
}

// resolvePython tries the target as written, relative to the importing
// package, and walks dotted parents so "from app.util import helper"
// resolves to module app.util.
func (r *resolver) resolvePython(sourceFile, target string) (string, bool) {
	sourceModule := analyzer.ModuleName(sourceFile, "python")

	if strings.HasPrefix(target, ".") {
		target = expandRelativeImport(sourceModule, target)
	}

	// The floor keeps the parent walk from matching the importing
	// package itself when a sibling candidate misses.
	candidates := []struct{ module, floor string }{{target, ""}}
	if pkg := parentModule(sourceModule); pkg != "" {
		candidates = append(candidates, struct{ module, floor string }{pkg + "." + target, pkg})
	}

	for _, cand := range candidates {
		for c := cand.module; c != "" && c != cand.floor; c = parentModule(c) {
			if _, ok := r.modules[c]; ok {
				return c, true
			}
		}
	}
	return "", false
}

// resolveGo matches an import path against the repository module path
// when a go.mod is present, and falls back to package-suffix matching.
func (r *resolver) resolveGo(target string) (string, bool) {
	if r.goModule != "" {
		if target == r.goModule {
			return "", false
		}
		if rel, ok := strings.CutPrefix(target, r.goModule+"/"); ok {
			if _, known := r.modules[rel]; known {
				return rel, true
			}
			return "", false
		}
		return "", false
	}

	segments := strings.Split(target, "/")
	for i := 0; i < len(segments); i++ {
		cand := strings.Join(segments[i:], "/")
		if _, ok := r.modules[cand]; ok {
			return cand, true
		}
	}
	return "", false
}

// resolveJS resolves relative specifiers against the importing file;
// bare specifiers are package imports and stay external.
func (r *resolver) resolveJS(sourceFile, target string) (string, bool) {
	if !strings.HasPrefix(target, ".") {
		return "", false
	}

	joined := path.Clean(path.Join(path.Dir(sourceFile), target))
	candidates := []string{joined, joined + "/index"}
	if ext := path.Ext(joined); ext != "" && analyzer.DetectLanguage(joined) != "" {
		candidates = append(candidates, strings.TrimSuffix(joined, ext))
	}

	for _, c := range candidates {
		if _, ok := r.modules[c]; ok {
			return c, true
		}
	}
	return "", false
}

// expandRelativeImport turns ".util" or "..pkg.mod" into an absolute
// dotted module relative to the importing module.
func expandRelativeImport(sourceModule, target string) string {
	dots := 0
	for dots < len(target) && target[dots] == '.' {
		dots++
	}
	rest := target[dots:]

	base := sourceModule
	for i := 0; i < dots; i++ {
		base = parentModule(base)
	}

	switch {
	case base == "" && rest == "":
		return target
	case base == "":
		return rest
	case rest == "":
		return base
	default:
		return base + "." + rest
	}
}

func parentModule(module string) string {
	if idx := strings.LastIndexByte(module, '.'); idx >= 0 {
		return module[:idx]
	}
	return ""
}

func isInheritanceEdge(dep models.Dependency) bool {
	return dep.ImportStatement == "inherits" || dep.ImportStatement == "extends"
}

func readGoModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
