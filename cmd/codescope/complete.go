package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/engine"
)

var (
	completeFile     string
	completeIntent   string
	completeStrategy string
	completeJSON     bool
)

var completeCmd = &cobra.Command{
	Use:   "complete <prompt>",
	Short: "Generate a grounded code suggestion, explanation or refactor plan",
	Long: `Routes the prompt through the configured inference strategies
(OpenAI → Gemini → mock → fallback), grounding it in the indexed
context of --file when given. Works offline: without API keys the mock
or fallback strategy answers at reduced confidence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVarP(&completeFile, "file", "f", "", "file to ground the request in")
	completeCmd.Flags().StringVarP(&completeIntent, "intent", "i", "suggest", "intent: suggest, explain, refactor, debug, optimize")
	completeCmd.Flags().StringVar(&completeStrategy, "strategy", "", "force an inference strategy (openai, gemini, mock, fallback)")
	completeCmd.Flags().BoolVar(&completeJSON, "json", false, "print the result as JSON")
}

func runComplete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	prompt := strings.Join(args, " ")

	root, err := workingRoot()
	if err != nil {
		return err
	}

	eng, done := newEngine(ctx)
	defer done()

	if err := ensureIndexed(ctx, eng, root); err != nil {
		return err
	}

	if completeStrategy != "" {
		if err := eng.SwitchStrategy(ctx, completeStrategy); err != nil {
			return fmt.Errorf("switch strategy: %w", err)
		}
	}

	result, genErr := eng.GenerateCompletion(ctx, engine.CompletionRequest{
		Prompt:   prompt,
		FilePath: completeFile,
		Intent:   completeIntent,
	})

	if completeJSON {
		return printJSON(result)
	}

	if result.Response != "" {
		fmt.Println(result.Response)
	}

	if len(result.Suggestions) > 0 {
		fmt.Println("\n💡 Suggestions:")
		for _, s := range result.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}

	fmt.Printf("\n── %s · confidence %.2f", result.StrategyUsed, result.Confidence)
	if result.ContextUsed {
		fmt.Printf(" · grounded")
	}
	fmt.Println()

	if result.Error != "" {
		fmt.Printf("⚠️  %s\n", result.Error)
	}
	if genErr != nil {
		return genErr
	}
	return nil
}
