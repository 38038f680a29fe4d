package analyzer

import (
	"regexp"
	"strings"

	"github.com/codescope/codescope-go/internal/models"
)

// heuristicRule matches one declaration form on a single line.
type heuristicRule struct {
	re    *regexp.Regexp
	kind  models.SymbolKind
	group int // submatch holding the symbol name
	async int // submatch holding an async marker, 0 when the form has none
}

type heuristicSet struct {
	symbols []heuristicRule
	imports []*regexp.Regexp // submatch 1 holds the target module
}

var (
	pythonHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(async\s+)?def\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 2, async: 1},
			{re: regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)`), kind: models.SymbolKindClass, group: 1},
			{re: regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\s*=`), kind: models.SymbolKindConstant, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\b`),
			regexp.MustCompile(`^\s*import\s+([\w.]+)`),
		},
	}

	goHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^func\s+\([^)]*\)\s*([A-Za-z_]\w*)`), kind: models.SymbolKindMethod, group: 1},
			{re: regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*[(\[]`), kind: models.SymbolKindFunction, group: 1},
			{re: regexp.MustCompile(`^type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^const\s+([A-Za-z_]\w*)`), kind: models.SymbolKindConstant, group: 1},
			{re: regexp.MustCompile(`^var\s+([A-Za-z_]\w*)`), kind: models.SymbolKindVariable, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^import\s+(?:\w+\s+)?"([^"]+)"`),
		},
	}

	jsHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`), kind: models.SymbolKindFunction, group: 2, async: 1},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`), kind: models.SymbolKindFunction, group: 1, async: 2},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`), kind: models.SymbolKindClass, group: 1},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Z][A-Z0-9_]*)\s*=`), kind: models.SymbolKindConstant, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+.*?from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]`),
		},
	}

	tsHeuristics = heuristicSet{
		symbols: append([]heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?(?:const\s+)?enum\s+([A-Za-z_$][\w$]*)`), kind: models.SymbolKindConstant, group: 1},
			{re: regexp.MustCompile(`^\s*(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*=`), kind: models.SymbolKindStruct, group: 1},
		}, jsHeuristics.symbols...),
		imports: jsHeuristics.imports,
	}

	rubyHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`), kind: models.SymbolKindFunction, group: 1},
			{re: regexp.MustCompile(`^\s*class\s+([A-Z]\w*)`), kind: models.SymbolKindClass, group: 1},
			{re: regexp.MustCompile(`^\s*module\s+([A-Z]\w*)`), kind: models.SymbolKindClass, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`),
		},
	}

	jvmHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|open|sealed|data|case)\s+)*class\s+([A-Za-z_]\w*)`), kind: models.SymbolKindClass, group: 1},
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|sealed)\s+)*interface\s+([A-Za-z_]\w*)`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|open|override|suspend)\s+)*fun\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 1},
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|protected)\s+)*def\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+([\w.]+)`),
		},
	}

	csharpHeuristics = heuristicSet{
		symbols: jvmHeuristics.symbols,
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*using\s+([\w.]+)\s*;`),
		},
	}

	rustHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(async\s+)?fn\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 2, async: 1},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?const\s+([A-Z][A-Z0-9_]*)`), kind: models.SymbolKindConstant, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*use\s+([\w:]+)`),
		},
	}

	cHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:typedef\s+)?(?:class|struct)\s+([A-Za-z_]\w*)`), kind: models.SymbolKindStruct, group: 1},
			{re: regexp.MustCompile(`^#define\s+([A-Z][A-Z0-9_]*)`), kind: models.SymbolKindConstant, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*#include\s*[<"]([^>"]+)[>"]`),
		},
	}

	phpHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract)\s+)*function\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 1},
			{re: regexp.MustCompile(`^\s*(?:abstract\s+|final\s+)?class\s+([A-Za-z_]\w*)`), kind: models.SymbolKindClass, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*use\s+([\w\\]+)`),
			regexp.MustCompile(`(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`),
		},
	}

	swiftHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|internal|open|fileprivate|static|final|override)\s+)*func\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 1},
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|internal|open|final)\s+)*class\s+([A-Za-z_]\w*)`), kind: models.SymbolKindClass, group: 1},
			{re: regexp.MustCompile(`^\s*(?:(?:public|private|internal)\s+)*struct\s+([A-Za-z_]\w*)`), kind: models.SymbolKindStruct, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*import\s+(\w+)`),
		},
	}

	shellHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(?:function\s+)?([A-Za-z_]\w*)\s*\(\)\s*\{?`), kind: models.SymbolKindFunction, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*source\s+(\S+)`),
		},
	}

	genericHeuristics = heuristicSet{
		symbols: []heuristicRule{
			{re: regexp.MustCompile(`^\s*(async\s+)?(?:def|function|func|fn)\s+([A-Za-z_]\w*)`), kind: models.SymbolKindFunction, group: 2, async: 1},
			{re: regexp.MustCompile(`^\s*(?:class|struct|interface|trait)\s+([A-Za-z_]\w*)`), kind: models.SymbolKindClass, group: 1},
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:import|require|use|include)\s+['"<]?([\w./:-]+)`),
		},
	}

	goImportBlockOpen = regexp.MustCompile(`^import\s*\($`)
	goImportBlockLine = regexp.MustCompile(`^(?:\w+\s+|\.\s+|_\s+)?"([^"]+)"`)

	decisionKeywords = regexp.MustCompile(`\b(?:if|elif|elsif|for|foreach|while|case|when|catch|except|rescue|match)\b`)
)

func heuristicsFor(lang string) heuristicSet {
	switch lang {
	case "python":
		return pythonHeuristics
	case "go":
		return goHeuristics
	case "javascript", "jsx":
		return jsHeuristics
	case "typescript", "tsx":
		return tsHeuristics
	case "ruby":
		return rubyHeuristics
	case "java", "kotlin", "scala":
		return jvmHeuristics
	case "csharp":
		return csharpHeuristics
	case "rust":
		return rustHeuristics
	case "c", "cpp":
		return cHeuristics
	case "php":
		return phpHeuristics
	case "swift":
		return swiftHeuristics
	case "shell":
		return shellHeuristics
	default:
		return genericHeuristics
	}
}

// analyzeHeuristic extracts declarations with line patterns when no
// grammar is available or a grammar pass failed. Complexity is a
// keyword count over the whole file. This path never records parsing
// errors: reduced capability is not a failure.
func analyzeHeuristic(fa *models.FileAnalysis, lang string, content []byte) {
	rules := heuristicsFor(lang)
	sourceModule := ModuleName(fa.FilePath, lang)

	decisions := 0
	inGoImports := false

	for idx, raw := range strings.Split(string(content), "\n") {
		lineNo := idx + 1
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}

		decisions += countDecisions(trimmed, lang)

		if lang == "go" {
			if goImportBlockOpen.MatchString(trimmed) {
				inGoImports = true
				continue
			}
			if inGoImports {
				if strings.HasPrefix(trimmed, ")") {
					inGoImports = false
					continue
				}
				if m := goImportBlockLine.FindStringSubmatch(trimmed); m != nil {
					appendHeuristicImport(fa, sourceModule, m[1], trimmed, lineNo)
				}
				continue
			}
		}

		matched := false
		for _, rule := range rules.symbols {
			m := rule.re.FindStringSubmatch(line)
			if m == nil || rule.group >= len(m) || m[rule.group] == "" {
				continue
			}
			sym := models.Symbol{
				Name:      m[rule.group],
				Kind:      rule.kind,
				LineStart: lineNo,
				LineEnd:   lineNo,
				Scope:     "module",
			}
			if rule.async > 0 && rule.async < len(m) && strings.TrimSpace(m[rule.async]) != "" {
				sym.IsAsync = true
			}
			fa.Symbols = append(fa.Symbols, sym)
			matched = true
			break
		}
		if matched {
			continue
		}

		for _, impRe := range rules.imports {
			m := impRe.FindStringSubmatch(line)
			if m == nil || m[1] == "" {
				continue
			}
			appendHeuristicImport(fa, sourceModule, m[1], trimmed, lineNo)
			break
		}
	}

	fa.Complexity.Cyclomatic = 1 + decisions
}

func appendHeuristicImport(fa *models.FileAnalysis, sourceModule, target, stmt string, line int) {
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
		ImportStatement: stmt,
		Line:            line,
	})
}

// isCommentLine filters full-line comments so commented-out code does
// not produce symbols or inflate complexity.
func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#include") && !strings.HasPrefix(trimmed, "#define") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "--")
}

func countDecisions(trimmed, lang string) int {
	n := len(decisionKeywords.FindAllString(trimmed, -1))
	n += strings.Count(trimmed, "&&")
	n += strings.Count(trimmed, "||")
	if lang == "python" || lang == "ruby" {
		n += strings.Count(trimmed, " and ")
		n += strings.Count(trimmed, " or ")
	}
	return n
}
