package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/models"
)

// Invoker executes a prompt against one registry model.
type Invoker interface {
	Invoke(ctx context.Context, modelID, prompt string, history []Message) (*Invocation, error)
}

// Dispatcher resolves registry models to provider adapters.
type Dispatcher struct {
	registry   *models.Registry
	byProvider map[string]Adapter
	fallback   Adapter
	counter    TokenCounter
	logger     *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithProvider serves models whose provider matches name (case-insensitive).
func WithProvider(name string, a Adapter) DispatcherOption {
	return func(d *Dispatcher) {
		if a != nil {
			d.byProvider[strings.ToLower(name)] = a
		}
	}
}

// WithDefaultAdapter serves models with no provider-specific adapter.
func WithDefaultAdapter(a Adapter) DispatcherOption {
	return func(d *Dispatcher) {
		d.fallback = a
	}
}

// WithUsageCounter estimates usage when an adapter reports none.
func WithUsageCounter(counter TokenCounter) DispatcherOption {
	return func(d *Dispatcher) {
		if counter != nil {
			d.counter = counter
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *models.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:   registry,
		byProvider: make(map[string]Adapter),
		counter:    CharCounter{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AdapterFor returns the adapter serving model.
func (d *Dispatcher) AdapterFor(model models.ModelConfig) (Adapter, error) {
	if a, ok := d.byProvider[strings.ToLower(model.Provider)]; ok {
		return a, nil
	}
	if d.fallback != nil {
		return d.fallback, nil
	}
	return nil, fmt.Errorf("%w %q (model %s)", ErrNoAdapter, model.Provider, model.ID)
}

// Invoke runs prompt on modelID. Unknown ids return models.ErrModelNotFound.
func (d *Dispatcher) Invoke(ctx context.Context, modelID, prompt string, history []Message) (*Invocation, error) {
	model, err := d.registry.Lookup(modelID)
	if err != nil {
		return nil, err
	}
	a, err := d.AdapterFor(model)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := a.Generate(ctx, Request{Model: model, Prompt: prompt, History: history})
	latency := time.Since(start)
	if err != nil {
		d.logger.Debug("model invocation failed",
			zap.String("model", modelID),
			zap.String("adapter", a.Name()),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return nil, err
	}

	usage := normalizeUsage(resp.Usage)
	if usage.IsZero() {
		usage = estimateUsage(d.counter, prompt, resp.Content)
	}

	return &Invocation{
		ModelID: model.ID,
		Adapter: a.Name(),
		Content: resp.Content,
		Usage:   usage,
		Latency: latency,
	}, nil
}
