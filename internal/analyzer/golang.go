package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codescope/codescope-go/internal/models"
)

// extractGo extracts symbols and imports from a Go AST
func extractGo(fa *models.FileAnalysis, root *sitter.Node, code []byte) {
	sourceModule := ModuleName(fa.FilePath, "go")

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_declaration":
			extractGoFunction(fa, node, code, models.SymbolKindFunction)

		case "method_declaration":
			extractGoMethod(fa, node, code)

		case "type_declaration":
			extractGoTypes(fa, node, code)

		case "const_declaration":
			extractGoValueSpecs(fa, node, code, "const_spec", models.SymbolKindConstant)

		case "var_declaration":
			extractGoValueSpecs(fa, node, code, "var_spec", models.SymbolKindVariable)

		case "import_declaration":
			extractGoImports(fa, node, code, sourceModule)
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
}

func extractGoFunction(fa *models.FileAnalysis, node *sitter.Node, code []byte, kind models.SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        getNodeText(nameNode, code),
		Kind:        kind,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       "module",
		Parameters:  parseGoParams(node.ChildByFieldName("parameters"), code),
		Docstring:   goDocComment(node, code),
		Complexity:  functionComplexity(node, code, "go"),
	})
}

func extractGoMethod(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	receiverType := goReceiverType(node, code)

	sym := models.Symbol{
		Name:        getNodeText(nameNode, code),
		Kind:        models.SymbolKindMethod,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       receiverType,
		Parameters:  parseGoParams(node.ChildByFieldName("parameters"), code),
		Docstring:   goDocComment(node, code),
		Complexity:  functionComplexity(node, code, "go"),
	}
	if receiverType == "" {
		sym.Scope = "module"
	}
	fa.Symbols = append(fa.Symbols, sym)
}

func extractGoTypes(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec == nil || spec.Kind() != "type_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		typeNode := spec.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}

		kind := typeNode.Kind()
		if kind != "struct_type" && kind != "interface_type" {
			continue
		}

		fa.Symbols = append(fa.Symbols, models.Symbol{
			Name:        getNodeText(nameNode, code),
			Kind:        models.SymbolKindStruct,
			LineStart:   int(spec.StartPosition().Row) + 1,
			LineEnd:     int(spec.EndPosition().Row) + 1,
			ColumnStart: int(spec.StartPosition().Column),
			Scope:       "module",
			Docstring:   goDocComment(node, code),
		})
	}
}

func extractGoValueSpecs(fa *models.FileAnalysis, node *sitter.Node, code []byte, specKind string, kind models.SymbolKind) {
	// Only package-level declarations; locals stay out of the symbol table.
	if node.Parent() == nil || node.Parent().Kind() != "source_file" {
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		spec := node.NamedChild(i)
		if spec == nil || spec.Kind() != specKind {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		fa.Symbols = append(fa.Symbols, models.Symbol{
			Name:        getNodeText(nameNode, code),
			Kind:        kind,
			LineStart:   int(spec.StartPosition().Row) + 1,
			LineEnd:     int(spec.EndPosition().Row) + 1,
			ColumnStart: int(spec.StartPosition().Column),
			Scope:       "module",
		})
	}
}

func extractGoImports(fa *models.FileAnalysis, node *sitter.Node, code []byte, sourceModule string) {
	var collect func(*sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "import_spec" {
			pathNode := n.ChildByFieldName("path")
			if pathNode == nil {
				return
			}
			target := strings.Trim(getNodeText(pathNode, code), `"`)
			line := int(n.StartPosition().Row) + 1

			fa.Symbols = append(fa.Symbols, models.Symbol{
				Name:      target,
				Kind:      models.SymbolKindImport,
				LineStart: line,
				LineEnd:   line,
				Scope:     "module",
			})
			fa.Dependencies = append(fa.Dependencies, models.Dependency{
				SourceModule:    sourceModule,
				TargetModule:    target,
				IsExternal:      true,
				ImportStatement: firstLine(getNodeText(n, code)),
				Line:            line,
			})
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			collect(n.Child(i))
		}
	}
	collect(node)
}

// goReceiverType returns the bare receiver type name of a method
func goReceiverType(node *sitter.Node, code []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil || receiver.NamedChildCount() == 0 {
		return ""
	}
	decl := receiver.NamedChild(0)
	if decl == nil {
		return ""
	}
	typeNode := decl.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	text := getNodeText(typeNode, code)
	text = strings.TrimPrefix(text, "*")
	// Drop generic type parameters: Foo[T] → Foo
	if idx := strings.IndexByte(text, '['); idx > 0 {
		text = text[:idx]
	}
	return text
}

// parseGoParams flattens a parameter_list into parameter names
func parseGoParams(paramsNode *sitter.Node, code []byte) []string {
	if paramsNode == nil {
		return nil
	}

	params := []string{}
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		decl := paramsNode.NamedChild(i)
		if decl == nil {
			continue
		}
		switch decl.Kind() {
		case "parameter_declaration", "variadic_parameter_declaration":
			found := false
			for j := uint(0); j < decl.NamedChildCount(); j++ {
				child := decl.NamedChild(j)
				if child != nil && child.Kind() == "identifier" {
					params = append(params, getNodeText(child, code))
					found = true
				}
			}
			// Unnamed parameter: record the type instead.
			if !found {
				if typeNode := decl.ChildByFieldName("type"); typeNode != nil {
					params = append(params, getNodeText(typeNode, code))
				}
			}
		}
	}
	return params
}

// goDocComment returns the comment block immediately preceding a declaration
func goDocComment(node *sitter.Node, code []byte) string {
	lines := []string{}
	prev := node.PrevNamedSibling()
	for prev != nil && prev.Kind() == "comment" {
		// Only comments that touch the declaration (no blank line gap).
		text := strings.TrimSpace(strings.TrimPrefix(getNodeText(prev, code), "//"))
		lines = append([]string{text}, lines...)
		if len(lines) >= 8 {
			break
		}
		prev = prev.PrevNamedSibling()
	}
	return strings.Join(lines, " ")
}
