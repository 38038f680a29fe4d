package analyzer

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/codescope/codescope-go/internal/models"
)

// DefaultMaxFileSize bounds grammar parsing; larger files fall back to
// line heuristics so a single generated file cannot stall an index run.
const DefaultMaxFileSize = 2 * 1024 * 1024

// Analyzer turns file content into a structural FileAnalysis. It is
// stateless and safe for concurrent use; each Analyze call creates and
// closes its own parser.
type Analyzer struct {
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithMaxFileSize overrides the grammar-parse size bound
func WithMaxFileSize(n int64) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxFileSize = n
		}
	}
}

// New creates an Analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default().With("component", "analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces the structural analysis of one file. It never returns
// an error: unsupported languages degrade to line heuristics, and broken
// syntax keeps whatever the grammar recovered plus a parsing_errors entry.
func (a *Analyzer) Analyze(filePath string, content []byte) *models.FileAnalysis {
	lang := DetectLanguage(filePath)

	fa := &models.FileAnalysis{
		FilePath:      filePath,
		Language:      lang,
		Symbols:       []models.Symbol{},
		Dependencies:  []models.Dependency{},
		ParsingErrors: []string{},
		ContentHash:   ContentHash(content),
		AnalyzedAt:    time.Now(),
	}

	if len(content) == 0 {
		fa.Complexity = models.ComplexityMetrics{Cyclomatic: 1}
		return fa
	}

	useGrammar := GrammarSupported(lang) && int64(len(content)) <= a.maxFileSize

	if useGrammar {
		a.analyzeWithGrammar(fa, lang, content)
	} else {
		// Heuristic-only analysis is degraded capability, not failure:
		// parsing_errors stays empty.
		analyzeHeuristic(fa, lang, content)
	}

	finalizeAnalysis(fa, content)
	return fa
}

// analyzeWithGrammar runs the tree-sitter path, merging in heuristic
// results when the grammar reports syntax errors.
func (a *Analyzer) analyzeWithGrammar(fa *models.FileAnalysis, lang string, content []byte) {
	lp, err := NewLanguageParser(lang)
	if err != nil {
		// Grammar unavailable at runtime behaves like an unsupported
		// language: heuristics without a recorded error.
		a.logger.Debug("grammar unavailable, using heuristics", "language", lang, "error", err)
		analyzeHeuristic(fa, lang, content)
		return
	}
	defer lp.Close()

	tree, err := lp.Parse(content)
	if err != nil {
		fa.ParsingErrors = append(fa.ParsingErrors, fmt.Sprintf("parse failed: %v", err))
		analyzeHeuristic(fa, lang, content)
		return
	}
	defer tree.Close()

	root := tree.RootNode()

	switch lang {
	case "python":
		extractPython(fa, root, content)
	case "go":
		extractGo(fa, root, content)
	case "javascript", "jsx":
		extractJavaScript(fa, root, content)
	case "typescript", "tsx":
		extractTypeScript(fa, root, content)
	}

	if root.HasError() {
		lines := errorLines(root, 5)
		fa.ParsingErrors = append(fa.ParsingErrors,
			fmt.Sprintf("syntax errors near lines %s", formatLines(lines)))

		// Recover declarations the broken regions swallowed.
		mergeHeuristicSymbols(fa, lang, content)
	}
}

// finalizeAnalysis assigns symbol IDs, sorts symbols, and aggregates
// complexity. Runs for both grammar and heuristic paths.
func finalizeAnalysis(fa *models.FileAnalysis, content []byte) {
	sort.SliceStable(fa.Symbols, func(i, j int) bool {
		if fa.Symbols[i].LineStart != fa.Symbols[j].LineStart {
			return fa.Symbols[i].LineStart < fa.Symbols[j].LineStart
		}
		return fa.Symbols[i].Name < fa.Symbols[j].Name
	})

	for i := range fa.Symbols {
		s := &fa.Symbols[i]
		s.FilePath = fa.FilePath
		s.ID = models.SymbolID(s.Kind, s.FilePath, s.Name, s.LineStart)
	}

	totalFn := 0
	totalClass := 0
	sumComplexity := 0
	for _, s := range fa.Symbols {
		switch s.Kind {
		case models.SymbolKindFunction, models.SymbolKindMethod:
			totalFn++
			sumComplexity += s.Complexity
		case models.SymbolKindClass, models.SymbolKindStruct:
			totalClass++
		}
	}

	fa.Complexity.FunctionCount = totalFn
	fa.Complexity.ClassCount = totalClass
	fa.Complexity.LineCount = countLines(content)
	if fa.Complexity.Cyclomatic == 0 {
		fa.Complexity.Cyclomatic = 1 + maxInt(sumComplexity-totalFn, 0)
	}
	if totalFn > 0 {
		fa.Complexity.AveragePerFn = float64(sumComplexity) / float64(totalFn)
	}
}

// mergeHeuristicSymbols adds heuristic findings the grammar pass missed,
// keyed by kind, name, and start line.
func mergeHeuristicSymbols(fa *models.FileAnalysis, lang string, content []byte) {
	seen := make(map[string]bool, len(fa.Symbols))
	for _, s := range fa.Symbols {
		seen[fmt.Sprintf("%s|%s|%d", s.Kind, s.Name, s.LineStart)] = true
	}

	recovered := &models.FileAnalysis{FilePath: fa.FilePath}
	analyzeHeuristic(recovered, lang, content)

	for _, s := range recovered.Symbols {
		key := fmt.Sprintf("%s|%s|%d", s.Kind, s.Name, s.LineStart)
		if !seen[key] {
			fa.Symbols = append(fa.Symbols, s)
			seen[key] = true
		}
	}

	depSeen := make(map[string]bool, len(fa.Dependencies))
	for _, d := range fa.Dependencies {
		depSeen[d.TargetModule] = true
	}
	for _, d := range recovered.Dependencies {
		if !depSeen[d.TargetModule] {
			fa.Dependencies = append(fa.Dependencies, d)
			depSeen[d.TargetModule] = true
		}
	}
}

// ContentHash returns the stable hash used for change detection
func ContentHash(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// ModuleName derives the importable module name for a file path.
// Python paths use dotted form, Go files collapse to their package
// directory, and other languages keep the slash form without extension.
func ModuleName(filePath, lang string) string {
	p := strings.TrimSuffix(filePath, filepath.Ext(filePath))
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")

	switch lang {
	case "python":
		p = strings.TrimSuffix(p, "/__init__")
		return strings.ReplaceAll(p, "/", ".")
	case "go":
		if dir := path.Dir(p); dir != "." {
			return dir
		}
		return p
	default:
		return p
	}
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if content[len(content)-1] == '\n' {
		n--
	}
	return n
}

func formatLines(lines []int) string {
	if len(lines) == 0 {
		return "?"
	}
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
