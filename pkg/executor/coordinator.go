package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/adapter"
	"github.com/zen-systems/routegate/pkg/metrics"
	"github.com/zen-systems/routegate/pkg/models"
)

// FallbackNotice prefixes content served by a model other than the primary.
const FallbackNotice = "[Response from fallback model due to primary model failure]\n\n"

// Code classifies an execution failure.
type Code string

const (
	CodeModelNotFound   Code = "MODEL_NOT_FOUND"
	CodeExecutionError  Code = "EXECUTION_ERROR"
	CodeAllModelsFailed Code = "ALL_MODELS_FAILED"
	CodeCanceled        Code = "CANCELED"
)

const allModelsFailedMessage = "All models failed to generate a response"

// Attempt records one model invocation within a run.
type Attempt struct {
	ModelID string `json:"modelId"`
	Code    Code   `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	// Transient marks failures adapter.IsTransient expects to clear on retry.
	Transient bool          `json:"transient,omitempty"`
	Latency   time.Duration `json:"latency"`
}

// Failed reports whether the attempt did not produce a response.
func (a Attempt) Failed() bool {
	return a.Code != ""
}

// OutcomeError is the terminal error classification of a run.
type OutcomeError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Outcome is the result of ExecuteWithFallback.
type Outcome struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	// ModelID is the model that produced Content, which differs from
	// PrimaryModelID when a fallback served the request.
	ModelID        string        `json:"modelId,omitempty"`
	PrimaryModelID string        `json:"primaryModelId"`
	FallbackUsed   bool          `json:"fallbackUsed"`
	Latency        time.Duration `json:"executionTime"`
	Elapsed        time.Duration `json:"elapsed"`
	Usage          adapter.Usage `json:"tokens"`
	Cost           adapter.Cost  `json:"cost"`
	Attempts       []Attempt     `json:"attempts"`
	Error          *OutcomeError `json:"error,omitempty"`
}

// Err converts a failed outcome into an error. Successful outcomes return nil.
func (o *Outcome) Err() error {
	if o == nil || o.Success {
		return nil
	}
	if o.Error != nil && o.Error.Code == CodeCanceled {
		return fmt.Errorf("execution canceled: %s", o.Error.Message)
	}
	return &AllModelsFailedError{Attempts: o.Attempts}
}

// AllModelsFailedError reports that every model in a chain failed.
type AllModelsFailedError struct {
	Attempts []Attempt
}

func (e *AllModelsFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all models failed: empty model chain"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.ModelID, a.Error))
	}
	return fmt.Sprintf("all models failed (%d attempts: %s)", len(e.Attempts), strings.Join(parts, "; "))
}

// Coordinator runs a prompt across a primary model and its fallbacks,
// one model at a time.
type Coordinator struct {
	invoker        adapter.Invoker
	registry       *models.Registry
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAttemptTimeout bounds each attempt. A timed-out attempt counts as an
// ordinary failure and advances the chain.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.attemptTimeout = d
		}
	}
}

// WithRegistry enables per-outcome cost estimates.
func WithRegistry(registry *models.Registry) Option {
	return func(c *Coordinator) {
		c.registry = registry
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a coordinator invoking models through invoker.
func NewCoordinator(invoker adapter.Invoker, opts ...Option) *Coordinator {
	c := &Coordinator{
		invoker: invoker,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecuteWithFallback tries primary, then each fallback in order, and
// returns the first success. Each distinct model is attempted at most once.
// Only cancellation of ctx stops the chain early.
func (c *Coordinator) ExecuteWithFallback(ctx context.Context, primary string, fallbacks []string, prompt string, history []adapter.Message) *Outcome {
	start := time.Now()
	chain := buildChain(primary, fallbacks)
	out := &Outcome{PrimaryModelID: primary}

	state := Start()
	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			return c.fail(out, start, CodeCanceled, err.Error())
		}

		modelID := chain[state.Index]
		if state.Index > 0 {
			c.logger.Info("trying fallback model",
				zap.String("primary", primary),
				zap.String("model", modelID),
				zap.Int("position", state.Index),
			)
		}

		inv, attempt := c.attempt(ctx, modelID, prompt, history)
		if attempt.Failed() && ctx.Err() != nil {
			attempt.Code = CodeCanceled
			out.Attempts = append(out.Attempts, attempt)
			metrics.ExecutionAttempts.WithLabelValues(modelID, "canceled").Inc()
			return c.fail(out, start, CodeCanceled, ctx.Err().Error())
		}
		out.Attempts = append(out.Attempts, attempt)
		c.recordAttempt(attempt)

		state = Next(state, !attempt.Failed(), len(chain))
		if state.Phase == PhaseSucceeded {
			return c.succeed(out, start, inv, state.Index > 0)
		}
		if state.Phase == PhaseAttempting && state.Index == 1 {
			c.logger.Warn("primary model failed, trying fallbacks",
				zap.String("primary", primary),
				zap.Strings("fallbacks", chain[1:]),
				zap.String("error", attempt.Error),
			)
		}
	}

	c.logger.Error("all models failed",
		zap.String("primary", primary),
		zap.Int("attempts", len(out.Attempts)),
	)
	return c.fail(out, start, CodeAllModelsFailed, allModelsFailedMessage)
}

func (c *Coordinator) attempt(ctx context.Context, modelID, prompt string, history []adapter.Message) (*adapter.Invocation, Attempt) {
	attemptCtx := ctx
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	inv, err := c.invoker.Invoke(attemptCtx, modelID, prompt, history)
	attempt := Attempt{ModelID: modelID, Latency: time.Since(start)}
	if err == nil && inv == nil {
		err = errors.New("invoker returned no result")
	}
	if err != nil {
		attempt.Code = classify(err)
		attempt.Error = err.Error()
		attempt.Transient = adapter.IsTransient(err)
		c.logger.Warn("model attempt failed",
			zap.String("model", modelID),
			zap.String("code", string(attempt.Code)),
			zap.Bool("transient", attempt.Transient),
			zap.Duration("latency", attempt.Latency),
			zap.Error(err),
		)
		return nil, attempt
	}
	attempt.Latency = inv.Latency
	return inv, attempt
}

func classify(err error) Code {
	if errors.Is(err, models.ErrModelNotFound) {
		return CodeModelNotFound
	}
	return CodeExecutionError
}

func (c *Coordinator) recordAttempt(a Attempt) {
	outcome := "success"
	if a.Failed() {
		outcome = strings.ToLower(string(a.Code))
		if a.Transient {
			outcome += "_transient"
		}
	}
	metrics.ExecutionAttempts.WithLabelValues(a.ModelID, outcome).Inc()
	metrics.ExecutionDuration.WithLabelValues(a.ModelID).Observe(float64(a.Latency.Milliseconds()))
}

func (c *Coordinator) succeed(out *Outcome, start time.Time, inv *adapter.Invocation, fallback bool) *Outcome {
	out.Success = true
	out.ModelID = inv.ModelID
	out.Content = inv.Content
	out.Latency = inv.Latency
	out.Usage = inv.Usage
	out.Elapsed = time.Since(start)
	if c.registry != nil {
		if model, ok := c.registry.Get(inv.ModelID); ok {
			out.Cost = EstimateCost(model, inv.Usage)
		}
	}
	if fallback {
		out.FallbackUsed = true
		out.Content = FallbackNotice + out.Content
		metrics.FallbacksUsed.WithLabelValues(out.PrimaryModelID, inv.ModelID).Inc()
	}
	metrics.ExecutionTokens.Observe(float64(inv.Usage.TotalTokens))
	return out
}

func (c *Coordinator) fail(out *Outcome, start time.Time, code Code, message string) *Outcome {
	out.Success = false
	out.Error = &OutcomeError{Code: code, Message: message}
	out.Elapsed = time.Since(start)
	metrics.ExecutionFailures.WithLabelValues(string(code)).Inc()
	return out
}

// buildChain returns primary followed by fallbacks with empty and repeated
// ids removed. The primary always leads the chain, even when empty, so an
// unusable primary is recorded as a failed attempt.
func buildChain(primary string, fallbacks []string) []string {
	chain := make([]string, 0, len(fallbacks)+1)
	chain = append(chain, primary)
	seen := map[string]bool{primary: true}
	for _, id := range fallbacks {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		chain = append(chain, id)
	}
	return chain
}
