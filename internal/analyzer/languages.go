package analyzer

import "path/filepath"

// extensionLanguages maps file extensions to language identifiers.
// Grammar-backed languages get full AST extraction; the rest go through
// line heuristics.
var extensionLanguages = map[string]string{
	".py":  "python",
	".pyi": "python",
	".pyw": "python",
	".go":  "go",
	".js":  "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".jsx": "jsx",
	".ts":  "typescript",
	".mts": "typescript",
	".cts": "typescript",
	".tsx": "tsx",

	// Heuristic-only ecosystems
	".rb":    "ruby",
	".java":  "java",
	".kt":    "kotlin",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".scala": "scala",
	".sh":    "shell",
	".bash":  "shell",
}

var grammarLanguages = map[string]bool{
	"python":     true,
	"go":         true,
	"javascript": true,
	"jsx":        true,
	"typescript": true,
	"tsx":        true,
}

// DetectLanguage returns the language identifier for a file path, or ""
// when the extension is unknown.
func DetectLanguage(filePath string) string {
	return extensionLanguages[filepath.Ext(filePath)]
}

// GrammarSupported reports whether a tree-sitter grammar is registered
// for the language.
func GrammarSupported(lang string) bool {
	return grammarLanguages[lang]
}

// decisionNodeTypes lists the AST node kinds that add a cyclomatic
// decision point per language.
func decisionNodeTypes(lang string) map[string]bool {
	switch lang {
	case "python":
		return map[string]bool{
			"if_statement":           true,
			"elif_clause":            true,
			"for_statement":          true,
			"while_statement":        true,
			"except_clause":          true,
			"with_statement":         true,
			"assert_statement":       true,
			"boolean_operator":       true,
			"conditional_expression": true,
			"case_clause":            true,
		}
	case "go":
		return map[string]bool{
			"if_statement":       true,
			"for_statement":      true,
			"expression_case":    true,
			"type_case":          true,
			"communication_case": true,
		}
	case "javascript", "jsx", "typescript", "tsx":
		return map[string]bool{
			"if_statement":           true,
			"for_statement":          true,
			"for_in_statement":       true,
			"while_statement":        true,
			"do_statement":           true,
			"switch_case":            true,
			"catch_clause":           true,
			"ternary_expression":     true,
			"conditional_expression": true,
		}
	default:
		return map[string]bool{}
	}
}

// logicalOperators lists the short-circuit operators that add a decision
// point when they appear in a binary expression.
var logicalOperators = map[string]bool{
	"&&": true,
	"||": true,
}
