package indexer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/config"
)

var skipDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	"node_modules":  {},
	"vendor":        {},
	"__pycache__":   {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	"build":         {},
	"dist":          {},
	"out":           {},
	"target":        {},
	"coverage":      {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	".next":         {},
	".nuxt":         {},
	".idea":         {},
	".vscode":       {},
}

var generatedSuffixes = []string{
	".min.js",
	".bundle.js",
	".generated.ts",
	".generated.js",
	".pb.go",
	".pb.js",
	".pb.ts",
	"_pb.js",
	"_pb.ts",
	".d.ts",
}

// discoverFiles walks root and returns the relative paths of analyzable
// source files, sorted for deterministic runs. Hidden entries, generated
// files, skip directories, exclude globs, and gitignored paths are all
// filtered here so the analysis fan-out only ever sees real work.
func discoverFiles(root string, cfg config.IndexerConfig) ([]string, error) {
	var gi *ignore.GitIgnore
	if cfg.UseGitignore {
		gi = loadGitignore(root)
	}

	extraSkip := make(map[string]struct{}, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		extraSkip[d] = struct{}{}
	}

	var results []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if _, skip := extraSkip[name]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if analyzer.DetectLanguage(rel) == "" {
			return nil
		}
		if isGeneratedFile(rel) {
			return nil
		}
		if matchesAny(cfg.ExcludePatterns, rel) {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

func isGeneratedFile(rel string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(rel, suffix) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
