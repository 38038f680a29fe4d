package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/models"
)

var (
	searchLimit    int
	searchFile     string
	searchType     string
	searchLanguage string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over indexed code fragments",
	Long: `Searches embedded code fragments by meaning rather than exact text.
The current directory is indexed first, so results always reflect the
working tree.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 10, "maximum results")
	searchCmd.Flags().StringVar(&searchFile, "file", "", "only fragments from this file")
	searchCmd.Flags().StringVar(&searchType, "type", "", "only this symbol type (function, method, class, struct, file)")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "only this language")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	root, err := workingRoot()
	if err != nil {
		return err
	}

	eng, done := newEngine(ctx)
	defer done()

	if err := ensureIndexed(ctx, eng, root); err != nil {
		return err
	}

	results, err := eng.SearchCode(ctx, query, searchLimit, models.SearchFilters{
		FilePath:   searchFile,
		SymbolType: searchType,
		Language:   searchLanguage,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No matching fragments found")
		return nil
	}

	fmt.Printf("🔎 %d results for %q\n\n", len(results), query)
	for i, r := range results {
		emb := r.Embedding
		fmt.Printf("%2d. %s:%d-%d  (%s %s)  score %.3f\n",
			i+1, emb.FilePath, emb.StartLine, emb.EndLine, emb.SymbolType, emb.SymbolName, r.Similarity)
		if head := firstContentLine(emb.Content); head != "" {
			fmt.Printf("    %s\n", head)
		}
	}
	return nil
}

// firstContentLine returns the first non-blank line, truncated for
// terminal display.
func firstContentLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > 100 {
			trimmed = trimmed[:100] + "…"
		}
		return trimmed
	}
	return ""
}
