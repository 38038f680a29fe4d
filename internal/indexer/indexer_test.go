package indexer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(tmp string) config.IndexerConfig {
	return config.IndexerConfig{
		Workers:      4,
		MaxFileSize:  2 * 1024 * 1024,
		SnapshotPath: filepath.Join(tmp, "snapshots.db"),
		UseGitignore: true,
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, "app/__init__.py", "")
	writeFile(t, root, "app/main.py", `import os
from app.util import helper

def main():
    helper()
`)
	writeFile(t, root, "app/util.py", `def helper():
    return 1
`)
	writeFile(t, root, "README.md", "docs\n")
	writeFile(t, root, "node_modules/junk.py", "def junk(): pass\n")
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "generated/gen.py", "def gen(): pass\n")

	return root
}

func TestIndexProject(t *testing.T) {
	root := fixtureProject(t)
	ix := New(testConfig(t.TempDir()), testLogger())
	defer ix.Close()

	index, err := ix.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("IndexProject: %v", err)
	}

	if len(index.Files) != 3 {
		t.Fatalf("indexed %d files, want 3: %v", len(index.Files), fileKeys(index.Files))
	}
	for _, skipped := range []string{"node_modules/junk.py", "generated/gen.py", "README.md"} {
		if _, ok := index.Files[skipped]; ok {
			t.Errorf("%s should have been skipped", skipped)
		}
	}

	if len(index.SymbolTable["helper"]) == 0 {
		t.Error("helper missing from symbol table")
	}

	if len(index.Edges) != 2 {
		t.Fatalf("edge count = %d, want 2: %+v", len(index.Edges), index.Edges)
	}
	util := findEdge(t, index.Edges, "app/main.py", "app.util")
	if util.IsExternal {
		t.Error("app.util should resolve as internal")
	}
	osEdge := findEdge(t, index.Edges, "app/main.py", "os")
	if !osEdge.IsExternal {
		t.Error("os should stay external")
	}
}

func TestIndexProjectMissingRoot(t *testing.T) {
	ix := New(testConfig(t.TempDir()), testLogger())
	defer ix.Close()

	index, err := ix.IndexProject(context.Background(), "demo", filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing root should not error, got %v", err)
	}
	if index == nil || len(index.Files) != 0 {
		t.Fatalf("want empty index, got %+v", index)
	}
}

func TestIndexProjectUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}

	root := fixtureProject(t)
	blocked := filepath.Join(root, "app", "blocked.py")
	writeFile(t, root, "app/blocked.py", "def hidden(): pass\n")
	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatal(err)
	}

	ix := New(testConfig(t.TempDir()), testLogger())
	defer ix.Close()

	index, err := ix.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("unreadable file should not fail the run: %v", err)
	}

	fa, ok := index.Files["app/blocked.py"]
	if !ok {
		t.Fatal("unreadable file missing from index")
	}
	if len(fa.Symbols) != 0 {
		t.Errorf("unreadable file has %d symbols, want 0", len(fa.Symbols))
	}
	if len(fa.ParsingErrors) == 0 {
		t.Error("unreadable file should record a parsing error")
	}
}

func TestReindexFileChanged(t *testing.T) {
	root := fixtureProject(t)
	ix := New(testConfig(t.TempDir()), testLogger())
	defer ix.Close()

	index, err := ix.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("IndexProject: %v", err)
	}
	mainBefore := index.Files["app/main.py"]

	writeFile(t, root, "app/util.py", `def helper():
    return 1

def helper_two():
    return 2
`)

	fa, err := ix.ReindexFile(context.Background(), "app/util.py")
	if err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}
	if fa == nil {
		t.Fatal("ReindexFile returned nil analysis for an existing file")
	}

	if len(index.SymbolTable["helper_two"]) == 0 {
		t.Error("helper_two missing from symbol table after reindex")
	}
	if index.Files["app/main.py"] != mainBefore {
		t.Error("untouched file was replaced during single-file reindex")
	}

	// Unchanged content takes the fast path and returns the held analysis.
	again, err := ix.ReindexFile(context.Background(), "app/util.py")
	if err != nil {
		t.Fatalf("ReindexFile (unchanged): %v", err)
	}
	if again != index.Files["app/util.py"] {
		t.Error("unchanged reindex should return the existing analysis")
	}
}

func TestReindexFileDeleted(t *testing.T) {
	root := fixtureProject(t)
	ix := New(testConfig(t.TempDir()), testLogger())
	defer ix.Close()

	index, err := ix.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("IndexProject: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "app", "util.py")); err != nil {
		t.Fatal(err)
	}

	fa, err := ix.ReindexFile(context.Background(), "app/util.py")
	if err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}
	if fa != nil {
		t.Fatal("deleted file should report a nil analysis")
	}

	if _, ok := index.Files["app/util.py"]; ok {
		t.Error("deleted file still present in index")
	}
	if len(index.SymbolTable["helper"]) != 0 {
		t.Error("deleted file's symbols still in symbol table")
	}

	// The import edge survives but can no longer resolve internally.
	edge := findEdge(t, index.Edges, "app/main.py", "app.util.helper")
	if !edge.IsExternal {
		t.Error("edge to deleted module should flip external")
	}
}

func TestReindexFileBeforeIndex(t *testing.T) {
	ix := New(testConfig(t.TempDir()), testLogger())
	defer ix.Close()

	if _, err := ix.ReindexFile(context.Background(), "app/util.py"); err == nil {
		t.Fatal("expected an error before the first IndexProject")
	}
}

func TestSnapshotReuse(t *testing.T) {
	root := fixtureProject(t)
	cfg := testConfig(t.TempDir())

	first := New(cfg, testLogger())
	index1, err := first.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("first IndexProject: %v", err)
	}
	analyzedAt := index1.Files["app/util.py"].AnalyzedAt
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := New(cfg, testLogger())
	defer second.Close()
	index2, err := second.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("second IndexProject: %v", err)
	}

	if !index2.Files["app/util.py"].AnalyzedAt.Equal(analyzedAt) {
		t.Error("unchanged file was re-analyzed instead of served from the snapshot")
	}
}

func TestIndexProjectExcludePatterns(t *testing.T) {
	root := fixtureProject(t)
	writeFile(t, root, "app/util_test.py", "def test_helper(): pass\n")

	cfg := testConfig(t.TempDir())
	cfg.ExcludePatterns = []string{"**/*_test.py"}

	ix := New(cfg, testLogger())
	defer ix.Close()

	index, err := ix.IndexProject(context.Background(), "demo", root)
	if err != nil {
		t.Fatalf("IndexProject: %v", err)
	}
	if _, ok := index.Files["app/util_test.py"]; ok {
		t.Error("exclude pattern was not applied")
	}
}

func findEdge(t *testing.T, edges []models.Dependency, sourceFile, target string) models.Dependency {
	t.Helper()
	for _, e := range edges {
		if e.SourceFile == sourceFile && e.TargetModule == target {
			return e
		}
	}
	t.Fatalf("edge %s -> %s not found in %+v", sourceFile, target, edges)
	return models.Dependency{}
}

func fileKeys(files map[string]*models.FileAnalysis) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	return keys
}
