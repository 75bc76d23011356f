package router

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/metrics"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/scoring"
)

// Policy selects how the primary model is chosen from the ranking.
type Policy string

const (
	// PolicyRank picks the highest ranked model.
	PolicyRank Policy = "rank"
	// PolicyEvaluation picks the evaluation store's best model for the task
	// when it names a registered model, and falls back to rank otherwise.
	PolicyEvaluation Policy = "evaluation"
)

// ParsePolicy converts a string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyRank:
		return PolicyRank, nil
	case PolicyEvaluation:
		return PolicyEvaluation, nil
	default:
		return PolicyRank, fmt.Errorf("unknown selection policy %q", s)
	}
}

// BestModelLookup names the best evaluated model for a task type.
type BestModelLookup interface {
	GetBestModel(taskType models.TaskType) (string, bool)
}

// Router classifies prompts and ranks every registry model for them.
type Router struct {
	registry *models.Registry
	engine   *scoring.Engine
	best     BestModelLookup
	policy   Policy
	logger   *zap.Logger
	now      func() time.Time
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithPolicy sets the primary selection policy.
func WithPolicy(policy Policy) RouterOption {
	return func(r *Router) {
		r.policy = policy
	}
}

// WithBestModel sets the lookup used by PolicyEvaluation.
func WithBestModel(best BestModelLookup) RouterOption {
	return func(r *Router) {
		r.best = best
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *zap.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router over a non-empty registry.
func NewRouter(registry *models.Registry, engine *scoring.Engine, opts ...RouterOption) *Router {
	r := &Router{
		registry: registry,
		engine:   engine,
		policy:   PolicyRank,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the active selection policy.
func (r *Router) Policy() Policy {
	return r.policy
}

// Route classifies the prompt, scores every model and selects a primary.
func (r *Router) Route(prompt string, tier scoring.UserTier) *Result {
	start := r.now()

	class := Classify(prompt)
	candidates := r.registry.List()
	scores := make([]RoutingScore, 0, len(candidates))
	for _, m := range candidates {
		score, factors := r.engine.Score(m, class.TaskType, class.Complexity, tier)
		scores = append(scores, RoutingScore{ModelID: m.ID, Score: score, Factors: factors})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	selected := scores[0].ModelID
	if r.policy == PolicyEvaluation && r.best != nil {
		if best, ok := r.best.GetBestModel(class.TaskType); ok {
			if _, known := r.registry.Get(best); known {
				selected = best
			} else {
				r.logger.Warn("best evaluated model not in registry",
					zap.String("model", best),
					zap.String("task_type", string(class.TaskType)),
				)
			}
		}
	}

	elapsed := r.now().Sub(start)
	metrics.RoutingDecisions.WithLabelValues(string(class.TaskType), selected, string(r.policy)).Inc()
	metrics.RoutingDuration.Observe(elapsed.Seconds())

	r.logger.Debug("routed prompt",
		zap.String("task_type", string(class.TaskType)),
		zap.Float64("complexity", class.Complexity),
		zap.String("selected", selected),
		zap.String("top_ranked", scores[0].ModelID),
		zap.String("policy", string(r.policy)),
		zap.Stringer("blend", r.engine.Mode()),
		zap.Duration("elapsed", elapsed),
	)

	return &Result{
		SelectedModelID: selected,
		TaskType:        class.TaskType,
		Complexity:      class.Complexity,
		Reason:          class.Reason,
		Scores:          scores,
		Policy:          r.policy,
		RoutingTime:     elapsed,
	}
}
