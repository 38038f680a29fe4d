package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codescope/codescope-go/internal/models"
)

// extractJavaScript extracts symbols and imports from a JavaScript AST
func extractJavaScript(fa *models.FileAnalysis, root *sitter.Node, code []byte) {
	extractJSFamily(fa, root, code, fa.Language)
}

// extractJSFamily is shared by the JavaScript and TypeScript extractors;
// the grammars overlap for everything below.
func extractJSFamily(fa *models.FileAnalysis, root *sitter.Node, code []byte, lang string) {
	sourceModule := ModuleName(fa.FilePath, lang)

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_declaration", "generator_function_declaration":
			extractJSFunctionDeclaration(fa, node, code, lang)

		case "arrow_function", "function_expression":
			extractJSArrowFunction(fa, node, code, lang)

		case "class_declaration":
			extractJSClass(fa, node, code)

		case "method_definition":
			extractJSMethod(fa, node, code, lang)

		case "import_statement":
			extractJSImport(fa, node, code, sourceModule)

		case "lexical_declaration", "variable_declaration":
			if node.Parent() != nil && node.Parent().Kind() == "program" {
				extractJSTopLevelBinding(fa, node, code)
			}

		case "call_expression":
			// CommonJS require("mod")
			extractJSRequire(fa, node, code, sourceModule)
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
}

func extractJSFunctionDeclaration(fa *models.FileAnalysis, node *sitter.Node, code []byte, lang string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        getNodeText(nameNode, code),
		Kind:        models.SymbolKindFunction,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       "module",
		Parameters:  parseJSParams(node.ChildByFieldName("parameters"), code),
		IsAsync:     jsIsAsync(node),
		Complexity:  functionComplexity(node, code, lang),
	})
}

func extractJSArrowFunction(fa *models.FileAnalysis, node *sitter.Node, code []byte, lang string) {
	parent := node.Parent()
	if parent == nil {
		return
	}

	// Only named bindings: const f = () => {} or obj.f = function() {}
	var name string
	switch parent.Kind() {
	case "variable_declarator":
		if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
			name = getNodeText(nameNode, code)
		}
	case "assignment_expression":
		if leftNode := parent.ChildByFieldName("left"); leftNode != nil {
			name = getNodeText(leftNode, code)
		}
	case "pair":
		if keyNode := parent.ChildByFieldName("key"); keyNode != nil {
			name = getNodeText(keyNode, code)
		}
	default:
		return
	}
	if name == "" {
		return
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        name,
		Kind:        models.SymbolKindFunction,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       "module",
		Parameters:  parseJSParams(node.ChildByFieldName("parameters"), code),
		IsAsync:     jsIsAsync(node),
		Complexity:  functionComplexity(node, code, lang),
	})
}

func extractJSClass(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
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
	})

	// extends clause → inheritance dependency
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "class_heritage" {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(getNodeText(child, code), "extends"))
		if text != "" {
			fa.Dependencies = append(fa.Dependencies, models.Dependency{
				SourceModule:    className,
				TargetModule:    strings.TrimSpace(text),
				IsExternal:      true,
				ImportStatement: "extends",
				Line:            int(node.StartPosition().Row) + 1,
			})
		}
	}
}

func extractJSMethod(fa *models.FileAnalysis, node *sitter.Node, code []byte, lang string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := getNodeText(nameNode, code)
	scope := "module"
	parentID := ""
	if classNode := findJSParentClass(node); classNode != nil {
		if classNameNode := classNode.ChildByFieldName("name"); classNameNode != nil {
			className := getNodeText(classNameNode, code)
			scope = className
			parentID = models.SymbolID(models.SymbolKindClass, fa.FilePath, className,
				int(classNode.StartPosition().Row)+1)
		}
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        name,
		Kind:        models.SymbolKindMethod,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       scope,
		ParentID:    parentID,
		Parameters:  parseJSParams(node.ChildByFieldName("parameters"), code),
		IsAsync:     jsIsAsync(node),
		Complexity:  functionComplexity(node, code, lang),
	})
}

func extractJSImport(fa *models.FileAnalysis, node *sitter.Node, code []byte, sourceModule string) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}

	target := strings.Trim(getNodeText(sourceNode, code), "\"'`")
	line := int(node.StartPosition().Row) + 1

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
		ImportStatement: firstLine(getNodeText(node, code)),
		Line:            line,
	})
}

func extractJSRequire(fa *models.FileAnalysis, node *sitter.Node, code []byte, sourceModule string) {
	fn := node.ChildByFieldName("function")
	if fn == nil || getNodeText(fn, code) != "require" {
		return
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return
	}
	arg := args.NamedChild(0)
	if arg == nil || arg.Kind() != "string" {
		return
	}

	target := strings.Trim(getNodeText(arg, code), "\"'`")
	line := int(node.StartPosition().Row) + 1

	fa.Dependencies = append(fa.Dependencies, models.Dependency{
		SourceModule:    sourceModule,
		TargetModule:    target,
		IsExternal:      true,
		ImportStatement: firstLine(getNodeText(node, code)),
		Line:            line,
	})
}

func extractJSTopLevelBinding(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	isConst := strings.HasPrefix(getNodeText(node, code), "const")

	for i := uint(0); i < node.NamedChildCount(); i++ {
		declarator := node.NamedChild(i)
		if declarator == nil || declarator.Kind() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		valueNode := declarator.ChildByFieldName("value")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		// Function values are captured by the arrow-function pass.
		if valueNode != nil {
			vk := valueNode.Kind()
			if vk == "arrow_function" || vk == "function_expression" {
				continue
			}
		}

		kind := models.SymbolKindVariable
		if isConst {
			kind = models.SymbolKindConstant
		}
		fa.Symbols = append(fa.Symbols, models.Symbol{
			Name:        getNodeText(nameNode, code),
			Kind:        kind,
			LineStart:   int(declarator.StartPosition().Row) + 1,
			LineEnd:     int(declarator.EndPosition().Row) + 1,
			ColumnStart: int(declarator.StartPosition().Column),
			Scope:       "module",
		})
	}
}

// parseJSParams flattens a formal_parameters node into parameter names
func parseJSParams(paramsNode *sitter.Node, code []byte) []string {
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
		case "required_parameter", "optional_parameter":
			// TypeScript grammar wraps the pattern
			if pattern := p.ChildByFieldName("pattern"); pattern != nil {
				params = append(params, getNodeText(pattern, code))
			}
		case "assignment_pattern":
			if left := p.ChildByFieldName("left"); left != nil {
				params = append(params, getNodeText(left, code))
			}
		case "rest_pattern":
			if p.NamedChildCount() > 0 {
				params = append(params, "..."+getNodeText(p.NamedChild(0), code))
			}
		case "object_pattern", "array_pattern":
			params = append(params, getNodeText(p, code))
		}
	}
	return params
}

// jsIsAsync reports whether a function node carries the async keyword
func jsIsAsync(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "async" {
			return true
		}
	}
	return false
}

// findJSParentClass walks up to the enclosing class declaration
func findJSParentClass(node *sitter.Node) *sitter.Node {
	current := node.Parent()
	for current != nil {
		kind := current.Kind()
		if kind == "class_declaration" || kind == "class" {
			return current
		}
		current = current.Parent()
	}
	return nil
}
