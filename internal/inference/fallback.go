package inference

import (
	"context"
	"fmt"

	"github.com/codescope/codescope-go/internal/models"
)

// FallbackStrategy is the terminal strategy: always available, never
// fails, answers with static guidance at minimal confidence. Its job is
// to keep the router's contract intact when every real backend is down.
type FallbackStrategy struct{}

func NewFallbackStrategy() *FallbackStrategy { return &FallbackStrategy{} }

func (s *FallbackStrategy) Name() string { return StrategyFallback }

func (s *FallbackStrategy) IsAvailable(ctx context.Context) bool { return true }

func (s *FallbackStrategy) Initialize(ctx context.Context) error { return nil }

func (s *FallbackStrategy) GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	response := fmt.Sprintf(
		"No inference backend is currently available. Static guidance for %s:\n%s",
		intent, fallbackGuidance(intent))

	return models.CompletionResult{
		Status:       models.CompletionStatusSuccess,
		Response:     response,
		Confidence:   scoreConfidence(confidenceFallback, cctx.HasContext()),
		StrategyUsed: StrategyFallback,
		ContextUsed:  cctx.HasContext(),
		Suggestions: []string{
			"Configure an OpenAI or Gemini API key to enable model-backed completions",
			"Run the status command to inspect backend availability",
		},
	}, nil
}

func fallbackGuidance(intent models.Intent) string {
	switch intent {
	case models.IntentExplain:
		return "Read the symbol definitions and their callers; the dependency overview shows which modules participate."
	case models.IntentRefactor:
		return "Look for functions with high coupling in the hotspot report; those are the safest high-value refactoring targets."
	case models.IntentDebug:
		return "Trace the failing call path through the relationship graph and check error handling at each hop."
	case models.IntentOptimize:
		return "Start from the architecture hotspots; heavily-coupled symbols dominate runtime more often than leaf code."
	default:
		return "Search the index for similar fragments and mirror their structure."
	}
}
