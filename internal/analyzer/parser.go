package analyzer

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// LanguageParser wraps a tree-sitter parser with a language grammar.
// Always call Close() to release the cgo allocation.
type LanguageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// NewLanguageParser creates a parser for the specified language.
// Supported: python, go, javascript, jsx, typescript, tsx.
func NewLanguageParser(lang string) (*LanguageParser, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create tree-sitter parser")
	}

	var language *sitter.Language
	switch lang {
	case "python":
		language = sitter.NewLanguage(tree_sitter_python.Language())
	case "go":
		language = sitter.NewLanguage(tree_sitter_go.Language())
	case "javascript", "jsx":
		language = sitter.NewLanguage(tree_sitter_javascript.Language())
	case "typescript", "tsx":
		language = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	default:
		parser.Close()
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}

	return &LanguageParser{
		parser:   parser,
		language: language,
		langName: lang,
	}, nil
}

// Close releases parser resources
func (lp *LanguageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
	}
}

// Parse parses source code and returns the syntax tree.
// Caller must call tree.Close() when done.
func (lp *LanguageParser) Parse(code []byte) (*sitter.Tree, error) {
	tree := lp.parser.Parse(code, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code")
	}
	return tree, nil
}

// getNodeText extracts text from a node using byte offsets
func getNodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(code) {
		end = uint(len(code))
	}
	if start > end {
		return ""
	}
	return string(code[start:end])
}

// errorLines collects up to max distinct 1-based line numbers of ERROR
// nodes in the tree.
func errorLines(root *sitter.Node, max int) []int {
	lines := []int{}
	seen := map[int]bool{}

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil || len(lines) >= max {
			return
		}
		if node.IsError() || node.IsMissing() {
			line := int(node.StartPosition().Row) + 1
			if !seen[line] {
				seen[line] = true
				lines = append(lines, line)
			}
			return
		}
		if !node.HasError() {
			return
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
	return lines
}
