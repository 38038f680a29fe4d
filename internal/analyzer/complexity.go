package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// functionComplexity computes cyclomatic complexity for a function body:
// 1 plus one per decision point. Nested function definitions are skipped
// so inner closures do not inflate the enclosing function.
func functionComplexity(node *sitter.Node, code []byte, lang string) int {
	decisions := decisionNodeTypes(lang)
	count := 1

	var walk func(n *sitter.Node, depth int)
	walk = func(n *sitter.Node, depth int) {
		if n == nil {
			return
		}

		kind := n.Kind()

		// Do not descend into nested function-like declarations.
		if depth > 0 && isFunctionNode(kind, lang) {
			return
		}

		if decisions[kind] {
			count++
		} else if kind == "binary_expression" || kind == "boolean_operator" {
			if op := n.ChildByFieldName("operator"); op != nil {
				if logicalOperators[getNodeText(op, code)] {
					count++
				}
			}
		}

		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i), depth+1)
		}
	}

	walk(node, 0)
	return count
}

func isFunctionNode(kind, lang string) bool {
	switch lang {
	case "python":
		return kind == "function_definition"
	case "go":
		return kind == "function_declaration" || kind == "method_declaration" || kind == "func_literal"
	case "javascript", "jsx", "typescript", "tsx":
		return kind == "function_declaration" || kind == "function_expression" ||
			kind == "arrow_function" || kind == "method_definition" || kind == "generator_function_declaration"
	default:
		return false
	}
}
