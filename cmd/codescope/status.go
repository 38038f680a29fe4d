package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/engine"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health and index state",
	Long:  `Displays graph, vector, cache and inference backend health for the current directory's project.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := workingRoot()
	if err != nil {
		return err
	}

	eng, done := newEngine(ctx)
	defer done()
	eng.UseProject(engine.DeriveProjectID(root), root)

	st := eng.Status(ctx)

	if statusJSON {
		return printJSON(st)
	}

	fmt.Printf("🔍 CodeScope Status\n")
	fmt.Printf("%s\n", strings.Repeat("═", 50))

	fmt.Printf("\n📋 Project:\n")
	fmt.Printf("  ID:   %s\n", st.ProjectID)
	fmt.Printf("  Root: %s\n", st.RootPath)
	if st.IndexedFiles > 0 {
		fmt.Printf("  Indexed files: %d\n", st.IndexedFiles)
	}

	fmt.Printf("\n🕸  Graph:\n")
	if st.Graph.Connected {
		fmt.Printf("  Status: ✅ Connected\n")
		fmt.Printf("  Nodes: %d, relationships: %d\n", st.Graph.Nodes, st.Graph.Relationships)
	} else {
		fmt.Printf("  Status: ❌ Disconnected (graph features degraded)\n")
	}

	fmt.Printf("\n🧠 Vector store:\n")
	fmt.Printf("  Backend: %s (%s, %d dims)\n", st.Vector.Backend, st.Vector.Embedder, st.Vector.Dimensions)
	fmt.Printf("  Fragments: %d\n", st.Vector.Count)

	fmt.Printf("\n🤖 Inference:\n")
	fmt.Printf("  State: %s\n", st.Inference.State)
	for _, strat := range st.Inference.Strategies {
		mark := "  "
		switch {
		case strat.Active:
			mark = "▶ "
		case strat.Available:
			mark = "○ "
		default:
			mark = "✗ "
		}
		fmt.Printf("  %s%s\n", mark, strat.Name)
	}

	fmt.Printf("\n💾 Cache: ")
	if st.CacheEnabled {
		fmt.Println("✅ Enabled")
	} else {
		fmt.Println("➖ Disabled")
	}

	fmt.Println("\n💡 Run 'codescope index' to refresh the project index")
	return nil
}
