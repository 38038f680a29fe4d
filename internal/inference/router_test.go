package inference

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/errors"
	"github.com/codescope/codescope-go/internal/models"
)

// fakeStrategy is a scriptable strategy for router tests.
type fakeStrategy struct {
	name      string
	available bool
	initErr   error
	genErr    error
	blockGen  bool
	initCalls int
	genCalls  int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) IsAvailable(ctx context.Context) bool { return f.available }

func (f *fakeStrategy) Initialize(ctx context.Context) error {
	f.initCalls++
	return f.initErr
}

func (f *fakeStrategy) GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	f.genCalls++
	if f.blockGen {
		<-ctx.Done()
		return models.CompletionResult{}, ctx.Err()
	}
	if f.genErr != nil {
		return models.CompletionResult{}, f.genErr
	}
	return models.CompletionResult{
		Status:       models.CompletionStatusSuccess,
		Response:     "ok from " + f.name,
		Confidence:   0.5,
		StrategyUsed: f.name,
		ContextUsed:  cctx.HasContext(),
	}, nil
}

func testInferenceConfig() config.InferenceConfig {
	return config.InferenceConfig{
		EnableMock:      true,
		RequestTimeout:  2 * time.Second,
		MaxOutputTokens: 256,
		RequestsPerSec:  100,
	}
}

func TestInitializePrefersFirstUsable(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true}
	b := &fakeStrategy{name: "b", available: true}
	r := NewRouterWith(testInferenceConfig(), a, b)

	require.NoError(t, r.Initialize(context.Background()))

	status := r.Status(context.Background())
	assert.Equal(t, StateReady, status.State)
	assert.Equal(t, "a", status.Active)
	assert.Equal(t, 1, a.initCalls)
	assert.Equal(t, 0, b.initCalls)
}

func TestInitializeSkipsUnavailableAndFailing(t *testing.T) {
	a := &fakeStrategy{name: "a", available: false}
	b := &fakeStrategy{name: "b", available: true, initErr: fmt.Errorf("dial failed")}
	c := &fakeStrategy{name: "c", available: true}
	r := NewRouterWith(testInferenceConfig(), a, b, c)

	require.NoError(t, r.Initialize(context.Background()))

	status := r.Status(context.Background())
	assert.Equal(t, "c", status.Active)
	assert.Equal(t, 0, a.initCalls)
	assert.Equal(t, 1, b.initCalls)
	assert.Equal(t, 1, c.initCalls)
}

func TestInitializeNoUsableStrategy(t *testing.T) {
	a := &fakeStrategy{name: "a", available: false}
	r := NewRouterWith(testInferenceConfig(), a)

	err := r.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeBackendUnavailable))
	assert.Equal(t, StateUninitialized, r.State())
}

func TestGenerateBeforeInitialize(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true}
	r := NewRouterWith(testInferenceConfig(), a)

	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "x"}, models.IntentSuggest)

	// Contract: a structured error result, not a Go error.
	require.NoError(t, err)
	assert.Equal(t, models.CompletionStatusError, result.Status)
	assert.Contains(t, result.Error, "not initialized")
	assert.Equal(t, 0, a.genCalls)
}

func TestGenerateSuccess(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true}
	r := NewRouterWith(testInferenceConfig(), a)
	require.NoError(t, r.Initialize(context.Background()))

	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "x"}, models.IntentSuggest)

	require.NoError(t, err)
	assert.Equal(t, models.CompletionStatusSuccess, result.Status)
	assert.Equal(t, "a", result.StrategyUsed)
	assert.Equal(t, StateReady, r.State())
	assert.Equal(t, 1, a.genCalls)
}

func TestGenerateFallsBackOnce(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true, genErr: fmt.Errorf("backend down")}
	b := &fakeStrategy{name: "b", available: true}
	r := NewRouterWith(testInferenceConfig(), a, b)
	require.NoError(t, r.Initialize(context.Background()))

	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "x"}, models.IntentSuggest)

	require.NoError(t, err)
	assert.Equal(t, models.CompletionStatusSuccess, result.Status)
	assert.Equal(t, "b", result.StrategyUsed)
	assert.Equal(t, 1, a.genCalls)
	assert.Equal(t, 1, b.genCalls)

	// The successful hop promotes b to active.
	status := r.Status(context.Background())
	assert.Equal(t, StateReady, status.State)
	assert.Equal(t, "b", status.Active)
}

func TestGenerateExhaustsAfterOneHop(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true, genErr: fmt.Errorf("a down")}
	b := &fakeStrategy{name: "b", available: true, genErr: fmt.Errorf("b down")}
	c := &fakeStrategy{name: "c", available: true}
	r := NewRouterWith(testInferenceConfig(), a, b, c)
	require.NoError(t, r.Initialize(context.Background()))

	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "x"}, models.IntentSuggest)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStrategyExhausted))
	assert.Equal(t, models.CompletionStatusError, result.Status)

	// Exactly one fallback hop: c is never consulted in the same call.
	assert.Equal(t, 1, a.genCalls)
	assert.Equal(t, 1, b.genCalls)
	assert.Equal(t, 0, c.genCalls)
}

func TestGenerateSkipsUnusableDuringFallback(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true, genErr: fmt.Errorf("a down")}
	b := &fakeStrategy{name: "b", available: false}
	c := &fakeStrategy{name: "c", available: true, initErr: fmt.Errorf("no creds")}
	d := &fakeStrategy{name: "d", available: true}
	r := NewRouterWith(testInferenceConfig(), a, b, c, d)
	require.NoError(t, r.Initialize(context.Background()))

	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "x"}, models.IntentSuggest)

	// Selection skips b and c; the single generation hop lands on d.
	require.NoError(t, err)
	assert.Equal(t, "d", result.StrategyUsed)
	assert.Equal(t, 0, b.genCalls)
	assert.Equal(t, 0, c.genCalls)
	assert.Equal(t, 1, d.genCalls)
}

func TestGenerateTimeoutTriggersFallback(t *testing.T) {
	cfg := testInferenceConfig()
	cfg.RequestTimeout = 50 * time.Millisecond

	a := &fakeStrategy{name: "a", available: true, blockGen: true}
	b := &fakeStrategy{name: "b", available: true}
	r := NewRouterWith(cfg, a, b)
	require.NoError(t, r.Initialize(context.Background()))

	start := time.Now()
	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "x"}, models.IntentSuggest)

	require.NoError(t, err)
	assert.Equal(t, "b", result.StrategyUsed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSwitchStrategyReinitializes(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true}
	b := &fakeStrategy{name: "b", available: true}
	r := NewRouterWith(testInferenceConfig(), a, b)
	require.NoError(t, r.Initialize(context.Background()))
	require.Equal(t, 1, a.initCalls)

	// Switching to the already-active strategy still re-runs Initialize.
	require.NoError(t, r.SwitchStrategy(context.Background(), "a"))
	assert.Equal(t, 2, a.initCalls)

	require.NoError(t, r.SwitchStrategy(context.Background(), "b"))
	assert.Equal(t, 1, b.initCalls)
	assert.Equal(t, "b", r.Status(context.Background()).Active)
}

func TestSwitchStrategyUnknown(t *testing.T) {
	r := NewRouterWith(testInferenceConfig(), &fakeStrategy{name: "a", available: true})
	err := r.SwitchStrategy(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestSwitchStrategyUnavailable(t *testing.T) {
	a := &fakeStrategy{name: "a", available: true}
	b := &fakeStrategy{name: "b", available: false}
	r := NewRouterWith(testInferenceConfig(), a, b)
	require.NoError(t, r.Initialize(context.Background()))

	err := r.SwitchStrategy(context.Background(), "b")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeBackendUnavailable))
	// Previous strategy stays active after a failed switch.
	assert.Equal(t, "a", r.Status(context.Background()).Active)
}

func TestDefaultRouterSelectsMock(t *testing.T) {
	// No API keys configured: openai and gemini are unavailable, mock is
	// enabled, so the router lands on the mock strategy.
	r := NewRouter(testInferenceConfig())
	require.NoError(t, r.Initialize(context.Background()))

	status := r.Status(context.Background())
	assert.Equal(t, StrategyMock, status.Active)

	byName := map[string]StrategyInfo{}
	for _, info := range status.Strategies {
		byName[info.Name] = info
	}
	assert.False(t, byName[StrategyOpenAI].Available)
	assert.False(t, byName[StrategyGemini].Available)
	assert.True(t, byName[StrategyMock].Available)
	assert.True(t, byName[StrategyFallback].Available)
}

func TestDefaultRouterFallbackWhenMockDisabled(t *testing.T) {
	cfg := testInferenceConfig()
	cfg.EnableMock = false

	r := NewRouter(cfg)
	require.NoError(t, r.Initialize(context.Background()))
	assert.Equal(t, StrategyFallback, r.Status(context.Background()).Active)

	result, err := r.GenerateCompletion(context.Background(), models.CompletionContext{Prompt: "help"}, models.IntentDebug)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionStatusSuccess, result.Status)
	assert.Equal(t, StrategyFallback, result.StrategyUsed)
	assert.LessOrEqual(t, result.Confidence, 0.2)
}

func TestMockCompletionDeterministic(t *testing.T) {
	r := NewRouter(testInferenceConfig())
	require.NoError(t, r.Initialize(context.Background()))

	cctx := models.CompletionContext{
		FilePath: "pkg/server.go",
		Language: "go",
		Prompt:   "add graceful shutdown",
	}
	first, err := r.GenerateCompletion(context.Background(), cctx, models.IntentSuggest)
	require.NoError(t, err)
	second, err := r.GenerateCompletion(context.Background(), cctx, models.IntentSuggest)
	require.NoError(t, err)

	assert.Equal(t, first.Response, second.Response)
	assert.Contains(t, first.Response, "pkg/server.go")
	assert.NotEmpty(t, first.Suggestions)
	assert.False(t, first.ContextUsed)
}

func TestConfidenceDiscountWithoutContext(t *testing.T) {
	withCtx := scoreConfidence(confidenceMock, true)
	withoutCtx := scoreConfidence(confidenceMock, false)
	assert.Greater(t, withCtx, withoutCtx)
	assert.InDelta(t, confidenceMock*0.8, withoutCtx, 1e-9)
}
