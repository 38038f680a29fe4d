package inference

import (
	"context"

	"github.com/codescope/codescope-go/internal/models"
)

// Strategy names, in preference order from most to least capable.
const (
	StrategyOpenAI   = "openai"
	StrategyGemini   = "gemini"
	StrategyMock     = "mock"
	StrategyFallback = "fallback"
)

// Base confidence per strategy tier. Responses produced without any
// project context are discounted so callers can tell a grounded answer
// from a generic one.
const (
	confidenceFull     = 0.90
	confidenceReduced  = 0.75
	confidenceMock     = 0.45
	confidenceFallback = 0.15
)

// Strategy is one inference backend. IsAvailable is a cheap local probe
// (credentials present, feature enabled); Initialize may dial out and is
// re-run on every explicit switch.
type Strategy interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	Initialize(ctx context.Context) error
	GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error)
}

// StrategyInfo reports the probe state of one strategy.
type StrategyInfo struct {
	Name        string `json:"name"`
	Available   bool   `json:"available"`
	Initialized bool   `json:"initialized"`
	Active      bool   `json:"active"`
}

// scoreConfidence discounts a strategy's base confidence when the
// request carried no project context, clamped to [0, 1].
func scoreConfidence(base float64, hasContext bool) float64 {
	if !hasContext {
		base *= 0.8
	}
	if base < 0 {
		return 0
	}
	if base > 1 {
		return 1
	}
	return base
}
