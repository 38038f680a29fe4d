package inference

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/models"
)

// GeminiStrategy is the reduced-capability backend. Same prompt surface
// as OpenAI, lower base confidence.
type GeminiStrategy struct {
	cfg     config.InferenceConfig
	logger  *slog.Logger
	limiter *rate.Limiter
	client  *genai.Client
	model   string
}

func NewGeminiStrategy(cfg config.InferenceConfig) *GeminiStrategy {
	return &GeminiStrategy{
		cfg:     cfg,
		logger:  slog.Default().With("component", "inference", "strategy", StrategyGemini),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		model:   cfg.GeminiModel,
	}
}

func (s *GeminiStrategy) Name() string { return StrategyGemini }

// IsAvailable probes for credentials only; no network traffic.
func (s *GeminiStrategy) IsAvailable(ctx context.Context) bool {
	return s.cfg.GeminiKey != ""
}

func (s *GeminiStrategy) Initialize(ctx context.Context) error {
	if s.cfg.GeminiKey == "" {
		return fmt.Errorf("gemini api key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  s.cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	s.client = client
	s.logger.Debug("gemini strategy initialized", "model", s.model)
	return nil
}

func (s *GeminiStrategy) GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	if s.client == nil {
		return models.CompletionResult{}, fmt.Errorf("gemini strategy not initialized")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return models.CompletionResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(systemPrompt(intent))[0],
		Temperature:       ptrFloat32(0.1), // Low temperature for consistency
		MaxOutputTokens:   int32(s.cfg.MaxOutputTokens),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(userPrompt(cctx)), genConfig)
	if err != nil {
		return models.CompletionResult{}, fmt.Errorf("gemini completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return models.CompletionResult{}, fmt.Errorf("gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return models.CompletionResult{}, fmt.Errorf("gemini returned no content parts")
	}

	text := candidate.Content.Parts[0].Text
	s.logger.Debug("completion generated",
		"intent", string(intent),
		"response_length", len(text))

	return models.CompletionResult{
		Status:       models.CompletionStatusSuccess,
		Response:     text,
		Confidence:   scoreConfidence(confidenceReduced, cctx.HasContext()),
		StrategyUsed: StrategyGemini,
		ContextUsed:  cctx.HasContext(),
	}, nil
}

// ptrFloat32 returns a pointer to a float32 value
func ptrFloat32(f float32) *float32 {
	return &f
}
