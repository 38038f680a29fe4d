package inference

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go/v3"
	"golang.org/x/time/rate"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/models"
)

// OpenAIStrategy is the full-capability backend. It requires an API key
// and produces the highest-confidence completions.
type OpenAIStrategy struct {
	cfg     config.InferenceConfig
	logger  *slog.Logger
	limiter *rate.Limiter
	client  openai.Client
	model   openai.ChatModel
	ready   bool
}

// NewOpenAIStrategy creates the strategy without dialing anything.
// Initialize builds the client.
func NewOpenAIStrategy(cfg config.InferenceConfig) *OpenAIStrategy {
	return &OpenAIStrategy{
		cfg:     cfg,
		logger:  slog.Default().With("component", "inference", "strategy", StrategyOpenAI),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		model:   openai.ChatModel(cfg.OpenAIModel),
	}
}

func (s *OpenAIStrategy) Name() string { return StrategyOpenAI }

// IsAvailable probes for credentials only; no network traffic.
func (s *OpenAIStrategy) IsAvailable(ctx context.Context) bool {
	return s.cfg.OpenAIKey != ""
}

func (s *OpenAIStrategy) Initialize(ctx context.Context) error {
	if s.cfg.OpenAIKey == "" {
		return fmt.Errorf("openai API key is required")
	}

	// Set API key in environment for the official SDK
	os.Setenv("OPENAI_API_KEY", s.cfg.OpenAIKey)
	s.client = openai.NewClient()
	s.ready = true

	s.logger.Debug("openai strategy initialized", "model", string(s.model))
	return nil
}

func (s *OpenAIStrategy) GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	if !s.ready {
		return models.CompletionResult{}, fmt.Errorf("openai strategy not initialized")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return models.CompletionResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(intent)),
			openai.UserMessage(userPrompt(cctx)),
		},
		Model:               s.model,
		Temperature:         openai.Float(0.1),
		MaxCompletionTokens: openai.Int(int64(s.cfg.MaxOutputTokens)),
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.CompletionResult{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return models.CompletionResult{}, fmt.Errorf("openai returned no choices")
	}

	s.logger.Debug("completion generated",
		"intent", string(intent),
		"tokens_used", completion.Usage.TotalTokens)

	return models.CompletionResult{
		Status:       models.CompletionStatusSuccess,
		Response:     completion.Choices[0].Message.Content,
		Confidence:   scoreConfidence(confidenceFull, cctx.HasContext()),
		StrategyUsed: StrategyOpenAI,
		ContextUsed:  cctx.HasContext(),
	}, nil
}
