package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/engine"
)

var overviewJSON bool

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize the project's architecture from the relationship graph",
	Long: `Reads the persisted relationship graph for the current directory's
project: entity counts, relationship counts and the most-coupled
entities. Run 'codescope index' first to populate the graph.`,
	RunE: runOverview,
}

func init() {
	overviewCmd.Flags().BoolVar(&overviewJSON, "json", false, "print the overview as JSON")
}

func runOverview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := workingRoot()
	if err != nil {
		return err
	}

	eng, done := newEngine(ctx)
	defer done()
	eng.UseProject(engine.DeriveProjectID(root), root)

	overview, err := eng.GetArchitectureOverview(ctx)
	if err != nil {
		return err
	}

	if overviewJSON {
		return printJSON(overview)
	}

	fmt.Printf("🏛  Architecture of %s\n", overview.ProjectID)
	fmt.Printf("%s\n", strings.Repeat("═", 50))

	if overview.TotalNodes == 0 {
		fmt.Println("  No graph data found.")
		fmt.Println("\n💡 Run 'codescope index' with the graph backend running")
		return nil
	}

	fmt.Printf("\n📦 Entities (%d total):\n", overview.TotalNodes)
	for _, label := range sortedKeys(overview.NodeCounts) {
		fmt.Printf("  %-10s %d\n", label, overview.NodeCounts[label])
	}

	fmt.Printf("\n🔗 Relationships (%d total):\n", overview.TotalRelationships)
	for _, rel := range sortedKeys(overview.RelationshipCounts) {
		fmt.Printf("  %-15s %d\n", rel, overview.RelationshipCounts[rel])
	}

	if len(overview.Hotspots) > 0 {
		fmt.Printf("\n🔥 Most coupled:\n")
		for _, h := range overview.Hotspots {
			marker := " "
			if h.IsHotspot {
				marker = "!"
			}
			fmt.Printf("  %s %-30s in:%-4d out:%-4d (%s)\n",
				marker, h.Name, h.InDegree, h.OutDegree, strings.ToLower(h.Label))
		}
	}
	return nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
