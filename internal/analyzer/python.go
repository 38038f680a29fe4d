package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codescope/codescope-go/internal/models"
)

// extractPython extracts symbols and imports from a Python AST
func extractPython(fa *models.FileAnalysis, root *sitter.Node, code []byte) {
	sourceModule := ModuleName(fa.FilePath, "python")

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_definition":
			extractPythonFunction(fa, node, code)

		case "class_definition":
			extractPythonClass(fa, node, code)

		case "import_statement", "import_from_statement":
			extractPythonImport(fa, node, code, sourceModule)

		case "expression_statement":
			// Module-level assignments become constants or variables.
			if node.Parent() != nil && node.Parent().Kind() == "module" {
				extractPythonAssignment(fa, node, code)
			}
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
}

func extractPythonFunction(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := getNodeText(nameNode, code)

	kind := models.SymbolKindFunction
	scope := "module"
	parentID := ""
	if classNode := findPythonParentClass(node); classNode != nil {
		kind = models.SymbolKindMethod
		if classNameNode := classNode.ChildByFieldName("name"); classNameNode != nil {
			className := getNodeText(classNameNode, code)
			scope = className
			parentID = models.SymbolID(models.SymbolKindClass, fa.FilePath, className,
				int(classNode.StartPosition().Row)+1)
		}
	} else if findPythonParentFunction(node) != nil {
		scope = "local"
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        name,
		Kind:        kind,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       scope,
		ParentID:    parentID,
		Parameters:  parsePythonParams(node.ChildByFieldName("parameters"), code),
		IsAsync:     pythonIsAsync(node),
		Docstring:   pythonDocstring(node, code),
		Complexity:  functionComplexity(node, code, "python"),
	})
}

func extractPythonClass(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	className := getNodeText(nameNode, code)

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        className,
		Kind:        models.SymbolKindClass,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       "module",
		Docstring:   pythonDocstring(node, code),
	})

	// Base classes surface as inheritance dependencies so the graph can
	// draw INHERITS_FROM edges.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			base := supers.NamedChild(i)
			if base == nil {
				continue
			}
			kind := base.Kind()
			if kind != "identifier" && kind != "attribute" {
				continue
			}
			fa.Dependencies = append(fa.Dependencies, models.Dependency{
				SourceModule:    className,
				TargetModule:    getNodeText(base, code),
				IsExternal:      true,
				ImportStatement: "inherits",
				Line:            int(node.StartPosition().Row) + 1,
			})
		}
	}
}

func extractPythonImport(fa *models.FileAnalysis, node *sitter.Node, code []byte, sourceModule string) {
	line := int(node.StartPosition().Row) + 1
	stmt := firstLine(getNodeText(node, code))

	addImport := func(target string) {
		if target == "" {
			return
		}
		fa.Symbols = append(fa.Symbols, models.Symbol{
			Name:      target,
			Kind:      models.SymbolKindImport,
			LineStart: line,
			LineEnd:   int(node.EndPosition().Row) + 1,
			Scope:     "module",
		})
		fa.Dependencies = append(fa.Dependencies, models.Dependency{
			SourceModule:    sourceModule,
			TargetModule:    target,
			IsExternal:      true,
			ImportStatement: stmt,
			Line:            line,
		})
	}

	if node.Kind() == "import_statement" {
		// import a.b, import a as b
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "dotted_name":
				addImport(getNodeText(child, code))
			case "aliased_import":
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					addImport(getNodeText(nameNode, code))
				}
			}
		}
		return
	}

	// from a.b import c, d  →  targets a.b.c and a.b.d
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	base := getNodeText(moduleNode, code)

	imported := []string{}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child == moduleNode {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			imported = append(imported, getNodeText(child, code))
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				imported = append(imported, getNodeText(nameNode, code))
			}
		case "wildcard_import":
			imported = append(imported, "*")
		}
	}

	if len(imported) == 0 {
		addImport(base)
		return
	}
	for _, name := range imported {
		if name == "*" {
			addImport(base)
		} else {
			addImport(base + "." + name)
		}
	}
}

func extractPythonAssignment(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	if node.NamedChildCount() == 0 {
		return
	}
	assign := node.NamedChild(0)
	if assign == nil || assign.Kind() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}

	name := getNodeText(left, code)
	kind := models.SymbolKindVariable
	if name == strings.ToUpper(name) && strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		kind = models.SymbolKindConstant
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        name,
		Kind:        kind,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		Scope:       "module",
	})
}

// parsePythonParams splits a parameter list like "(self, a, b=1, *args)"
// into bare parameter names.
func parsePythonParams(paramsNode *sitter.Node, code []byte) []string {
	if paramsNode == nil {
		return nil
	}

	params := []string{}
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		p := paramsNode.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Kind() {
		case "identifier":
			params = append(params, getNodeText(p, code))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				params = append(params, getNodeText(nameNode, code))
			} else if p.NamedChildCount() > 0 && p.NamedChild(0).Kind() == "identifier" {
				params = append(params, getNodeText(p.NamedChild(0), code))
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if p.NamedChildCount() > 0 {
				prefix := "*"
				if p.Kind() == "dictionary_splat_pattern" {
					prefix = "**"
				}
				params = append(params, prefix+getNodeText(p.NamedChild(0), code))
			}
		}
	}
	return params
}

// pythonIsAsync reports whether the function carries the async keyword
func pythonIsAsync(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "async" {
			return true
		}
	}
	return false
}

// pythonDocstring returns the leading string literal of a function or
// class body, with quotes stripped.
func pythonDocstring(node *sitter.Node, code []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	expr := first.NamedChild(0)
	if expr == nil || expr.Kind() != "string" {
		return ""
	}

	text := getNodeText(expr, code)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return strings.TrimSpace(text)
}

// findPythonParentClass walks up to the enclosing class definition
func findPythonParentClass(node *sitter.Node) *sitter.Node {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "class_definition":
			return current
		case "function_definition":
			// A function wrapping this one breaks the method chain.
			return nil
		}
		current = current.Parent()
	}
	return nil
}

func findPythonParentFunction(node *sitter.Node) *sitter.Node {
	current := node.Parent()
	for current != nil {
		if current.Kind() == "function_definition" {
			return current
		}
		current = current.Parent()
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
