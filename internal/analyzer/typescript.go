package analyzer

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codescope/codescope-go/internal/models"
)

// extractTypeScript extracts symbols from a TypeScript AST. The grammar
// shares its core node types with JavaScript, so the shared extractor
// runs first and TypeScript-only declarations are layered on top.
func extractTypeScript(fa *models.FileAnalysis, root *sitter.Node, code []byte) {
	extractJSFamily(fa, root, code, fa.Language)

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "interface_declaration":
			extractTSInterface(fa, node, code)
		case "enum_declaration":
			extractTSEnum(fa, node, code)
		case "type_alias_declaration":
			extractTSTypeAlias(fa, node, code)
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
}

func extractTSInterface(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        getNodeText(nameNode, code),
		Kind:        models.SymbolKindStruct,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		ColumnEnd:   int(node.EndPosition().Column),
		Scope:       "module",
	})
}

func extractTSEnum(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        getNodeText(nameNode, code),
		Kind:        models.SymbolKindConstant,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		Scope:       "module",
	})
}

func extractTSTypeAlias(fa *models.FileAnalysis, node *sitter.Node, code []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	fa.Symbols = append(fa.Symbols, models.Symbol{
		Name:        getNodeText(nameNode, code),
		Kind:        models.SymbolKindStruct,
		LineStart:   int(node.StartPosition().Row) + 1,
		LineEnd:     int(node.EndPosition().Row) + 1,
		ColumnStart: int(node.StartPosition().Column),
		Scope:       "module",
	})
}
