package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/models"
)

// MockStrategy returns deterministic, template-driven responses keyed by
// intent. It exists so development and tests never depend on a remote
// backend; availability is controlled by config.
type MockStrategy struct {
	enabled bool
}

func NewMockStrategy(cfg config.InferenceConfig) *MockStrategy {
	return &MockStrategy{enabled: cfg.EnableMock}
}

func (s *MockStrategy) Name() string { return StrategyMock }

func (s *MockStrategy) IsAvailable(ctx context.Context) bool { return s.enabled }

func (s *MockStrategy) Initialize(ctx context.Context) error {
	if !s.enabled {
		return fmt.Errorf("mock strategy is disabled")
	}
	return nil
}

func (s *MockStrategy) GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	if !s.enabled {
		return models.CompletionResult{}, fmt.Errorf("mock strategy is disabled")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[mock:%s]", intent)
	if cctx.FilePath != "" {
		fmt.Fprintf(&sb, " %s", cctx.FilePath)
	}
	sb.WriteString("\n")
	sb.WriteString(mockBody(cctx, intent))

	return models.CompletionResult{
		Status:       models.CompletionStatusSuccess,
		Response:     sb.String(),
		Confidence:   scoreConfidence(confidenceMock, cctx.HasContext()),
		StrategyUsed: StrategyMock,
		ContextUsed:  cctx.HasContext(),
		Suggestions:  mockSuggestions(intent),
	}, nil
}

func mockBody(cctx models.CompletionContext, intent models.Intent) string {
	scope := "no indexed context"
	if len(cctx.SymbolExcerpts) > 0 {
		scope = fmt.Sprintf("%d symbols in scope, first: %s", len(cctx.SymbolExcerpts), cctx.SymbolExcerpts[0])
	}

	switch intent {
	case models.IntentExplain:
		return fmt.Sprintf("This code (%s) would be explained here. Prompt: %q", scope, cctx.Prompt)
	case models.IntentRefactor:
		return fmt.Sprintf("Refactoring proposals for %q would appear here (%s).", cctx.Prompt, scope)
	case models.IntentDebug:
		return fmt.Sprintf("Defect analysis for %q would appear here (%s).", cctx.Prompt, scope)
	case models.IntentOptimize:
		return fmt.Sprintf("Performance notes for %q would appear here (%s).", cctx.Prompt, scope)
	default:
		return fmt.Sprintf("A completion for %q would appear here (%s).", cctx.Prompt, scope)
	}
}

func mockSuggestions(intent models.Intent) []string {
	switch intent {
	case models.IntentExplain:
		return []string{"Ask about a specific symbol for a narrower explanation"}
	case models.IntentRefactor:
		return []string{"Extract repeated logic into a helper", "Split the function at its largest branch"}
	case models.IntentDebug:
		return []string{"Check error returns on the call path", "Add a failing test that reproduces the symptom"}
	case models.IntentOptimize:
		return []string{"Profile before optimizing", "Preallocate slices with known capacity"}
	default:
		return []string{"Index the project first for context-aware completions"}
	}
}
