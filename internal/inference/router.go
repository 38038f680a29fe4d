package inference

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/errors"
	"github.com/codescope/codescope-go/internal/models"
)

// State is the router lifecycle phase.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateDegraded      State = "degraded"
)

// Status is a point-in-time snapshot of the router.
type Status struct {
	State      State          `json:"state"`
	Active     string         `json:"active_strategy"`
	Strategies []StrategyInfo `json:"strategies"`
}

// Router selects an inference strategy by preference order and keeps
// serving completions when backends fail. A generation failure on the
// active strategy triggers exactly one fallback hop within the same
// call; if that hop also fails the call surfaces a strategy-exhausted
// error alongside a structured error result.
type Router struct {
	cfg    config.InferenceConfig
	logger *slog.Logger

	mu          sync.Mutex
	strategies  []Strategy // preference order
	initialized map[string]bool
	current     Strategy
	state       State
}

// NewRouter builds a router over the standard strategy set:
// openai, gemini, mock, fallback.
func NewRouter(cfg config.InferenceConfig) *Router {
	return NewRouterWith(cfg,
		NewOpenAIStrategy(cfg),
		NewGeminiStrategy(cfg),
		NewMockStrategy(cfg),
		NewFallbackStrategy(),
	)
}

// NewRouterWith builds a router over an explicit strategy list, ordered
// by preference. Tests use this to inject fakes.
func NewRouterWith(cfg config.InferenceConfig, strategies ...Strategy) *Router {
	return &Router{
		cfg:         cfg,
		logger:      slog.Default().With("component", "inference"),
		strategies:  strategies,
		initialized: make(map[string]bool),
		state:       StateUninitialized,
	}
}

// Initialize walks the preference order and activates the first strategy
// that is available and initializes cleanly. With the standard set this
// cannot fail: the fallback strategy is always available.
func (r *Router) Initialize(ctx context.Context) error {
	r.mu.Lock()
	r.state = StateInitializing
	r.mu.Unlock()

	for _, s := range r.strategies {
		if !s.IsAvailable(ctx) {
			r.logger.Debug("strategy unavailable, skipping", "strategy", s.Name())
			continue
		}
		if err := s.Initialize(ctx); err != nil {
			r.logger.Warn("strategy failed to initialize, skipping",
				"strategy", s.Name(), "error", err)
			continue
		}

		r.mu.Lock()
		r.initialized[s.Name()] = true
		r.current = s
		r.state = StateReady
		r.mu.Unlock()

		r.logger.Info("inference strategy selected", "strategy", s.Name())
		return nil
	}

	r.mu.Lock()
	r.state = StateUninitialized
	r.mu.Unlock()
	return errors.BackendUnavailable(fmt.Errorf("no inference strategy could be initialized"), "inference")
}

// GenerateCompletion runs one completion through the active strategy.
// Calling before Initialize yields a structured error result, not a Go
// error. A mid-flight strategy failure (including a timeout) degrades
// the router and retries once on the next usable strategy in preference
// order; success there promotes that strategy to active.
func (r *Router) GenerateCompletion(ctx context.Context, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	start := time.Now()

	r.mu.Lock()
	active := r.current
	state := r.state
	r.mu.Unlock()

	if state == StateUninitialized || state == StateInitializing || active == nil {
		return models.CompletionResult{
			Status:   models.CompletionStatusError,
			Error:    "inference router not initialized",
			Duration: time.Since(start),
		}, nil
	}

	result, err := r.attempt(ctx, active, cctx, intent)
	if err == nil {
		r.setState(StateReady)
		result.Duration = time.Since(start)
		return result, nil
	}

	r.setState(StateDegraded)
	r.logger.Warn("active strategy failed, attempting fallback",
		"strategy", active.Name(), "error", err)

	next, selErrs := r.nextUsable(ctx, active)
	if next == nil {
		exhausted := errors.StrategyExhausted(err, active.Name())
		return models.CompletionResult{
			Status:       models.CompletionStatusError,
			StrategyUsed: active.Name(),
			ContextUsed:  cctx.HasContext(),
			Error:        fmt.Sprintf("%v (no fallback strategy usable: %v)", err, selErrSummary(selErrs)),
			Duration:     time.Since(start),
		}, exhausted
	}

	result, hopErr := r.attempt(ctx, next, cctx, intent)
	if hopErr != nil {
		exhausted := errors.StrategyExhausted(hopErr, next.Name())
		return models.CompletionResult{
			Status:       models.CompletionStatusError,
			StrategyUsed: next.Name(),
			ContextUsed:  cctx.HasContext(),
			Error:        hopErr.Error(),
			Duration:     time.Since(start),
		}, exhausted
	}

	r.mu.Lock()
	r.current = next
	r.state = StateReady
	r.mu.Unlock()
	r.logger.Info("switched inference strategy after failure",
		"from", active.Name(), "to", next.Name())

	result.Duration = time.Since(start)
	return result, nil
}

// attempt runs one strategy call under the configured request timeout.
func (r *Router) attempt(ctx context.Context, s Strategy, cctx models.CompletionContext, intent models.Intent) (models.CompletionResult, error) {
	callCtx := ctx
	if r.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.RequestTimeout)
		defer cancel()
	}
	return s.GenerateCompletion(callCtx, cctx, intent)
}

// nextUsable finds the first strategy after the failed one, in
// preference order, that probes available and is (or becomes)
// initialized. Initialization failures are collected, not fatal.
func (r *Router) nextUsable(ctx context.Context, failed Strategy) (Strategy, []error) {
	var errs []error
	past := false
	for _, s := range r.strategies {
		if s == failed {
			past = true
			continue
		}
		if !past {
			continue
		}
		if !s.IsAvailable(ctx) {
			continue
		}

		r.mu.Lock()
		ready := r.initialized[s.Name()]
		r.mu.Unlock()
		if !ready {
			if err := s.Initialize(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
				continue
			}
			r.mu.Lock()
			r.initialized[s.Name()] = true
			r.mu.Unlock()
		}
		return s, nil
	}
	return nil, errs
}

// SwitchStrategy activates a strategy by name. Initialize is re-run even
// if the strategy was active before, so a switch doubles as a reconnect.
// On failure the previous strategy stays active.
func (r *Router) SwitchStrategy(ctx context.Context, name string) error {
	var target Strategy
	for _, s := range r.strategies {
		if s.Name() == name {
			target = s
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown strategy %q", name)
	}

	if !target.IsAvailable(ctx) {
		return errors.BackendUnavailable(fmt.Errorf("strategy %q is not available", name), name)
	}
	if err := target.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize strategy %q: %w", name, err)
	}

	r.mu.Lock()
	r.initialized[name] = true
	r.current = target
	r.state = StateReady
	r.mu.Unlock()

	r.logger.Info("inference strategy switched", "strategy", name)
	return nil
}

// AvailableStrategies probes every registered strategy. The fallback
// strategy always reports available.
func (r *Router) AvailableStrategies(ctx context.Context) []StrategyInfo {
	r.mu.Lock()
	var activeName string
	if r.current != nil {
		activeName = r.current.Name()
	}
	inits := make(map[string]bool, len(r.initialized))
	for k, v := range r.initialized {
		inits[k] = v
	}
	r.mu.Unlock()

	infos := make([]StrategyInfo, 0, len(r.strategies))
	for _, s := range r.strategies {
		infos = append(infos, StrategyInfo{
			Name:        s.Name(),
			Available:   s.IsAvailable(ctx),
			Initialized: inits[s.Name()],
			Active:      s.Name() == activeName,
		})
	}
	return infos
}

// Status reports the router state, the active strategy, and the probe
// results for every strategy.
func (r *Router) Status(ctx context.Context) Status {
	infos := r.AvailableStrategies(ctx)

	r.mu.Lock()
	st := r.state
	var activeName string
	if r.current != nil {
		activeName = r.current.Name()
	}
	r.mu.Unlock()

	return Status{State: st, Active: activeName, Strategies: infos}
}

// State returns the current lifecycle phase.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Router) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func selErrSummary(errs []error) string {
	if len(errs) == 0 {
		return "none remaining"
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return fmt.Sprintf("%v", out)
}
