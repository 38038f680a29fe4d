package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codescope/codescope-go/internal/models"
)

func TestBuildFileEmbeddings(t *testing.T) {
	root := t.TempDir()
	content := "import os\n\ndef helper(u):\n    return u.name\n"
	if err := os.WriteFile(filepath.Join(root, "utils.py"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fa := &models.FileAnalysis{
		FilePath: "utils.py",
		Language: "python",
		Symbols: []models.Symbol{
			symbol(models.SymbolKindImport, "utils.py", "os", 1, 1),
			symbol(models.SymbolKindFunction, "utils.py", "helper", 3, 4),
		},
	}

	embeddings := buildFileEmbeddings(root, "demo", fa)
	if len(embeddings) != 2 {
		t.Fatalf("embeddings = %d, want 2 (file + helper; imports skipped)", len(embeddings))
	}

	file := embeddings[0]
	if file.ID != models.FileID("demo", "utils.py") {
		t.Errorf("file fragment id = %s, want stable file id", file.ID)
	}
	if file.SymbolType != "file" || file.SymbolName != "utils" {
		t.Errorf("file fragment = %s/%s, want file/utils", file.SymbolType, file.SymbolName)
	}
	if file.StartLine != 1 || file.EndLine != 5 {
		t.Errorf("file fragment range = %d-%d, want 1-5", file.StartLine, file.EndLine)
	}

	fn := embeddings[1]
	if fn.SymbolName != "helper" || fn.SymbolType != string(models.SymbolKindFunction) {
		t.Errorf("symbol fragment = %s/%s", fn.SymbolType, fn.SymbolName)
	}
	want := "def helper(u):\n    return u.name"
	if fn.Content != want {
		t.Errorf("symbol fragment content = %q, want %q", fn.Content, want)
	}
}

func TestBuildFileEmbeddingsUnreadableFile(t *testing.T) {
	fa := &models.FileAnalysis{FilePath: "missing.py", Language: "python"}
	if got := buildFileEmbeddings(t.TempDir(), "demo", fa); got != nil {
		t.Errorf("unreadable file produced %d fragments, want none", len(got))
	}
}

func TestSliceLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{"full range", 1, 4, "a\nb\nc\nd"},
		{"inner range", 2, 3, "b\nc"},
		{"end clamped", 3, 99, "c\nd"},
		{"zero start clamped", 0, 1, "a"},
		{"missing end falls back to start", 2, 0, "b"},
		{"start past eof", 9, 12, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sliceLines(lines, tt.start, tt.end); got != tt.want {
				t.Errorf("sliceLines(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}
}
