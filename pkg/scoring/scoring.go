// Package scoring computes model suitability scores for a classified prompt.
package scoring

import (
	"fmt"
	"strings"

	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/models"
)

const (
	// worstLatencyMs is the latency at which the latency factor reaches zero.
	worstLatencyMs = 5000.0

	traditionalShare = 0.3
	evaluationShare  = 0.7

	// neutralEvaluation stands in for a missing evaluation, on the 0-1 scale.
	neutralEvaluation = 0.5
)

// BlendMode selects how evaluation data enters the final score.
type BlendMode int

const (
	// BlendAlways mixes every score with evaluation data, using a neutral
	// value when the model has no evaluation for the task.
	BlendAlways BlendMode = iota
	// BlendOff uses the traditional score alone.
	BlendOff
)

func (m BlendMode) String() string {
	if m == BlendOff {
		return "off"
	}
	return "always"
}

// ParseBlendMode converts a string into a BlendMode.
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return BlendAlways, nil
	case "off":
		return BlendOff, nil
	default:
		return BlendAlways, fmt.Errorf("unknown blend mode %q", s)
	}
}

// Signals are live operational inputs. Without monitoring they are constants.
type Signals struct {
	// Sentiment is public sentiment toward the model, 0-1, higher is better.
	Sentiment float64
	// Load is the current provider load, 0-1; the factor uses 1-Load.
	Load float64
}

// DefaultSignals returns the stand-in values used without live monitoring.
func DefaultSignals() Signals {
	return Signals{Sentiment: 0.8, Load: 0.5}
}

// Factors is the per-factor breakdown kept for diagnostics.
type Factors struct {
	TaskTypeMatch     float64  `json:"taskTypeMatch"`
	ComplexityFit     float64  `json:"complexityFit"`
	CostEfficiency    float64  `json:"costEfficiency"`
	PerformanceRating float64  `json:"performanceRating"`
	LatencyRating     float64  `json:"latencyRating"`
	Sentiment         float64  `json:"sentiment"`
	Load              float64  `json:"load"`
	Traditional       float64  `json:"traditionalScore"`
	EvaluationScore   *float64 `json:"evaluationScore,omitempty"`
}

// Input describes one scoring request.
type Input struct {
	Model      models.ModelConfig
	TaskType   models.TaskType
	Complexity float64
	UserTier   UserTier
	Signals    Signals
}

// Traditional computes the weighted heuristic score and its breakdown.
func Traditional(in Input) (float64, Factors) {
	f := Factors{
		TaskTypeMatch:     taskMatch(in.Model, in.TaskType),
		ComplexityFit:     in.Model.Tier.ComplexityFit(in.Complexity),
		CostEfficiency:    costEfficiency(in.Model, in.UserTier),
		PerformanceRating: in.Model.SuccessRate,
		LatencyRating:     1 - in.Model.AverageLatency/worstLatencyMs,
		Sentiment:         in.Signals.Sentiment,
		Load:              1 - in.Signals.Load,
	}

	w := WeightsFor(in.UserTier)
	score := f.TaskTypeMatch*w.TaskMatch +
		f.ComplexityFit*w.ComplexityFit +
		f.CostEfficiency*w.CostEfficiency +
		f.PerformanceRating*w.SuccessRate +
		f.LatencyRating*w.Latency +
		f.Sentiment*w.Sentiment +
		f.Load*w.Load
	f.Traditional = score
	return score, f
}

// Score computes the final score. evaluationScore is on the 0-10 scale and may
// be nil when no evaluation exists for the model and task.
func Score(in Input, evaluationScore *float64, mode BlendMode) (float64, Factors) {
	traditional, f := Traditional(in)
	if evaluationScore != nil {
		v := *evaluationScore
		f.EvaluationScore = &v
	}
	if mode == BlendOff {
		return traditional, f
	}

	normalized := neutralEvaluation
	if evaluationScore != nil {
		normalized = *evaluationScore / evaluation.MaxScore
	}
	return traditionalShare*traditional + evaluationShare*normalized, f
}

func taskMatch(m models.ModelConfig, task models.TaskType) float64 {
	if m.Prefers(task) {
		return 1.0
	}
	return 0.5
}

// costEfficiency is unclamped for free users: expensive models
// go negative on this factor.
func costEfficiency(m models.ModelConfig, tier UserTier) float64 {
	if tier == TierPaid {
		return 0.8
	}
	return 1 - m.CostPerToken*10000
}

// EvaluationLookup provides stored evaluation scores.
type EvaluationLookup interface {
	GetScore(modelID string, taskType models.TaskType) (float64, bool)
}

// Engine scores models against an evaluation table.
type Engine struct {
	evaluations EvaluationLookup
	mode        BlendMode
	signals     Signals
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithBlendMode sets the blend mode.
func WithBlendMode(mode BlendMode) EngineOption {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithSignals overrides the operational signals.
func WithSignals(s Signals) EngineOption {
	return func(e *Engine) {
		e.signals = s
	}
}

// NewEngine creates a scoring engine. evaluations may be nil.
func NewEngine(evaluations EvaluationLookup, opts ...EngineOption) *Engine {
	e := &Engine{
		evaluations: evaluations,
		mode:        BlendAlways,
		signals:     DefaultSignals(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the configured blend mode.
func (e *Engine) Mode() BlendMode {
	return e.mode
}

// Score computes the final score for one model.
func (e *Engine) Score(model models.ModelConfig, task models.TaskType, complexity float64, tier UserTier) (float64, Factors) {
	in := Input{
		Model:      model,
		TaskType:   task,
		Complexity: complexity,
		UserTier:   tier,
		Signals:    e.signals,
	}

	var evalScore *float64
	if e.evaluations != nil {
		if s, ok := e.evaluations.GetScore(model.ID, task); ok {
			evalScore = &s
		}
	}
	return Score(in, evalScore, e.mode)
}
