package router

import (
	"time"

	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/scoring"
)

// RoutingScore is the ranking score of one candidate model.
type RoutingScore struct {
	ModelID string          `json:"modelId"`
	Score   float64         `json:"score"`
	Factors scoring.Factors `json:"factors"`
}

// Result captures one routing decision.
type Result struct {
	SelectedModelID string          `json:"selectedModelId"`
	TaskType        models.TaskType `json:"taskType"`
	Complexity      float64         `json:"complexity"`
	Reason          string          `json:"reason,omitempty"`
	// Scores holds one entry per registry model, highest score first.
	Scores      []RoutingScore `json:"scores"`
	Policy      Policy         `json:"policy"`
	RoutingTime time.Duration  `json:"routingTime"`
}

// Classification returns the classification that drove the decision.
func (r *Result) Classification() Classification {
	return Classification{TaskType: r.TaskType, Complexity: r.Complexity, Reason: r.Reason}
}

// Fallbacks returns up to n model ids ranked below the selection, best first.
func (r *Result) Fallbacks(n int) []string {
	return FallbackChain(r.Scores, r.SelectedModelID, n)
}

// FallbackChain returns up to n ids from ranked, skipping primary, in order.
func FallbackChain(ranked []RoutingScore, primary string, n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for _, s := range ranked {
		if s.ModelID == primary {
			continue
		}
		out = append(out, s.ModelID)
		if len(out) == n {
			break
		}
	}
	return out
}
