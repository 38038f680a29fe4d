package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/codescope/codescope-go/internal/analyzer"
	"github.com/codescope/codescope-go/internal/models"
)

// buildFileEmbeddings reads one source file and cuts embedding
// fragments: one per function/method/class/struct symbol plus one for
// the file as a whole. Fragment ids reuse the stable symbol and file
// ids, so re-embedding an unchanged file upserts in place. An
// unreadable file yields no fragments.
func buildFileEmbeddings(root, projectID string, fa *models.FileAnalysis) []models.CodeEmbedding {
	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(fa.FilePath)))
	if err != nil {
		return nil
	}
	lines := strings.Split(string(content), "\n")

	embeddings := make([]models.CodeEmbedding, 0, len(fa.Symbols)+1)
	embeddings = append(embeddings, models.CodeEmbedding{
		ID:         models.FileID(projectID, fa.FilePath),
		Content:    string(content),
		FilePath:   fa.FilePath,
		Language:   fa.Language,
		SymbolType: "file",
		SymbolName: analyzer.ModuleName(fa.FilePath, fa.Language),
		StartLine:  1,
		EndLine:    len(lines),
	})

	for _, s := range fa.Symbols {
		if symbolLabel(s.Kind) == "" {
			continue
		}
		fragment := sliceLines(lines, s.LineStart, s.LineEnd)
		if fragment == "" {
			continue
		}
		embeddings = append(embeddings, models.CodeEmbedding{
			ID:         s.ID,
			Content:    fragment,
			FilePath:   s.FilePath,
			Language:   fa.Language,
			SymbolType: string(s.Kind),
			SymbolName: s.Name,
			StartLine:  s.LineStart,
			EndLine:    s.LineEnd,
		})
	}
	return embeddings
}

// sliceLines joins the 1-based inclusive line range, clamped to the
// file. Heuristic analyses sometimes report a start without a real end;
// a zero-length range falls back to the single start line.
func sliceLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	if start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}
