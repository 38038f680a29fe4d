package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a project into the graph and semantic stores",
	Long: `Walks the project tree, extracts symbols and dependencies, projects
them into the relationship graph and embeds code fragments for semantic
search. Re-running converges: unchanged files are served from the
snapshot cache and stale entities are removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "print the report as JSON")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	eng, done := newEngine(ctx)
	defer done()

	report, err := eng.IndexProject(ctx, root)
	if err != nil {
		return err
	}

	if indexJSON {
		return printJSON(report)
	}

	fmt.Printf("🔍 Indexed %s\n", report.ProjectID)
	fmt.Printf("%s\n", strings.Repeat("═", 50))
	fmt.Printf("  Files:          %d\n", report.Files)
	fmt.Printf("  Symbols:        %d\n", report.Symbols)
	fmt.Printf("  Internal edges: %d\n", report.InternalEdges)
	fmt.Printf("  External edges: %d\n", report.ExternalEdges)
	fmt.Printf("  Graph nodes:    %d\n", report.GraphNodes)
	fmt.Printf("  Graph edges:    %d\n", report.GraphEdges)
	fmt.Printf("  Embeddings:     %d\n", report.Embeddings)
	if report.StaleRemoved > 0 {
		fmt.Printf("  Stale removed:  %d\n", report.StaleRemoved)
	}
	if report.DegradedFiles > 0 {
		fmt.Printf("  Degraded files: %d\n", report.DegradedFiles)
	}
	fmt.Printf("  Duration:       %s\n", report.Duration.Round(time.Millisecond))

	if len(report.Diagnostics) > 0 {
		fmt.Printf("\n⚠️  Diagnostics:\n")
		for _, d := range report.Diagnostics {
			fmt.Printf("  - %s\n", d)
		}
	}

	fmt.Println("\n💡 Try 'codescope search <query>' or 'codescope overview'")
	return nil
}
