package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/analytics"
	"github.com/codescope/codescope-go/internal/engine"
)

var cyclesJSON bool

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Detect circular module dependencies",
	Long: `Searches the relationship graph for dependency cycles between modules.
Long cycles are flagged high severity; they are the hardest to unwind.`,
	RunE: runCycles,
}

func init() {
	cyclesCmd.Flags().BoolVar(&cyclesJSON, "json", false, "print cycles as JSON")
}

func runCycles(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := workingRoot()
	if err != nil {
		return err
	}

	eng, done := newEngine(ctx)
	defer done()
	eng.UseProject(engine.DeriveProjectID(root), root)

	cycles, err := eng.FindCircularDependencies(ctx)
	if err != nil {
		return err
	}

	if cyclesJSON {
		return printJSON(cycles)
	}

	if len(cycles) == 0 {
		fmt.Println("✅ No circular dependencies found")
		return nil
	}

	noun := "dependencies"
	if len(cycles) == 1 {
		noun = "dependency"
	}
	fmt.Printf("⚠️  %d circular %s found\n\n", len(cycles), noun)
	for i, cycle := range cycles {
		fmt.Printf("%2d. [%s] %s\n", i+1, severityBadge(cycle.Severity), renderCycle(cycle))
	}

	fmt.Println("\n💡 Break a cycle by inverting one edge or extracting a shared module")
	return nil
}

func renderCycle(c analytics.Cycle) string {
	if len(c.Nodes) == 0 {
		return "(empty)"
	}
	return strings.Join(c.Nodes, " → ") + " → " + c.Nodes[0]
}

func severityBadge(s analytics.Severity) string {
	if s == analytics.SeverityHigh {
		return "HIGH"
	}
	return "MED "
}
