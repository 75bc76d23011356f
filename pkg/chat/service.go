package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/executor"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/router"
	"github.com/zen-systems/routegate/pkg/scoring"
	"github.com/zen-systems/routegate/pkg/transcript"
)

// DefaultFallbackCount is the number of fallbacks tried after the primary.
const DefaultFallbackCount = 2

var (
	// ErrNotReady is returned while required evaluations are still loading.
	ErrNotReady = errors.New("evaluations are still loading, try again shortly")
	// ErrEmptyPrompt is returned for blank prompts.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Reply is the transcript pair produced for one prompt.
type Reply struct {
	User      transcript.Message
	Assistant transcript.Message
	Result    *router.Result
	Outcome   *executor.Outcome
}

// Service runs prompts end to end: route, build the fallback chain,
// execute and record transcript metadata.
type Service struct {
	router        *router.Router
	coordinator   *executor.Coordinator
	registry      *models.Registry
	importer      *evaluation.Importer
	tier          scoring.UserTier
	fallbackCount int
	requireEvals  bool
	ready         atomic.Bool
	logger        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithUserTier sets the tier used for scoring.
func WithUserTier(tier scoring.UserTier) Option {
	return func(s *Service) {
		s.tier = tier
	}
}

// WithFallbackCount sets how many ranked models back up the primary.
func WithFallbackCount(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.fallbackCount = n
		}
	}
}

// WithImporter sets the importer used by LoadEvaluations.
func WithImporter(importer *evaluation.Importer) Option {
	return func(s *Service) {
		s.importer = importer
	}
}

// RequireEvaluations makes Process fail with ErrNotReady until
// LoadEvaluations has succeeded once.
func RequireEvaluations() Option {
	return func(s *Service) {
		s.requireEvals = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a chat service.
func NewService(r *router.Router, c *executor.Coordinator, registry *models.Registry, opts ...Option) *Service {
	s := &Service{
		router:        r,
		coordinator:   c,
		registry:      registry,
		tier:          scoring.TierFree,
		fallbackCount: DefaultFallbackCount,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether Process will accept prompts.
func (s *Service) Ready() bool {
	return !s.requireEvals || s.ready.Load()
}

// LoadEvaluations imports src and marks the service ready on success.
func (s *Service) LoadEvaluations(ctx context.Context, src evaluation.Source) (int, error) {
	if s.importer == nil {
		return 0, fmt.Errorf("no evaluation importer configured")
	}
	n, err := s.importer.Import(ctx, src)
	if err != nil {
		return 0, err
	}
	s.ready.Store(true)
	s.logger.Info("evaluations loaded", zap.String("source", src.Name()), zap.Int("records", n))
	return n, nil
}

// Route returns the routing decision for prompt without executing it.
func (s *Service) Route(prompt string) *router.Result {
	return s.router.Route(prompt, s.tier)
}

// Process answers prompt given the prior transcript. When every model fails
// the reply is still returned alongside an *executor.AllModelsFailedError.
func (s *Service) Process(ctx context.Context, prompt string, history []transcript.Message) (*Reply, error) {
	return s.process(ctx, prompt, history, "")
}

// ProcessPinned is Process with modelID as the primary. The routing ranking
// still supplies the fallbacks.
func (s *Service) ProcessPinned(ctx context.Context, modelID, prompt string, history []transcript.Message) (*Reply, error) {
	if _, err := s.registry.Lookup(modelID); err != nil {
		return nil, err
	}
	return s.process(ctx, prompt, history, modelID)
}

func (s *Service) process(ctx context.Context, prompt string, history []transcript.Message, pinned string) (*Reply, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if !s.Ready() {
		return nil, ErrNotReady
	}

	result := s.router.Route(prompt, s.tier)
	if pinned != "" {
		result.SelectedModelID = pinned
	}
	user := transcript.NewUserMessage(prompt)
	fallbacks := result.Fallbacks(s.fallbackCount)

	outcome := s.coordinator.ExecuteWithFallback(ctx, result.SelectedModelID, fallbacks, prompt, transcript.History(history))
	reply := &Reply{
		User:      user,
		Assistant: transcript.NewAssistantMessage(result, fallbacks, outcome, s.registry),
		Result:    result,
		Outcome:   outcome,
	}

	if err := outcome.Err(); err != nil {
		s.logger.Warn("prompt failed",
			zap.String("selected", result.SelectedModelID),
			zap.Strings("fallbacks", fallbacks),
			zap.String("code", string(outcome.Error.Code)),
		)
		return reply, err
	}

	s.logger.Info("prompt served",
		zap.String("task_type", string(result.TaskType)),
		zap.String("selected", result.SelectedModelID),
		zap.String("served_by", outcome.ModelID),
		zap.Bool("fallback", outcome.FallbackUsed),
		zap.Int("tokens", outcome.Usage.TotalTokens),
	)
	return reply, nil
}
