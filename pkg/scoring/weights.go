package scoring

import (
	"fmt"
	"strings"
)

// UserTier is the service tier of the requesting user.
type UserTier string

const (
	TierFree UserTier = "free"
	TierPaid UserTier = "paid"
)

// ParseUserTier converts a string into a UserTier.
func ParseUserTier(s string) (UserTier, error) {
	switch UserTier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierPaid:
		return TierPaid, nil
	default:
		return "", fmt.Errorf("unknown user tier %q", s)
	}
}

// Weights are the per-factor multipliers of the traditional score.
type Weights struct {
	TaskMatch      float64
	ComplexityFit  float64
	CostEfficiency float64
	SuccessRate    float64
	Latency        float64
	Sentiment      float64
	Load           float64
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.TaskMatch + w.ComplexityFit + w.CostEfficiency + w.SuccessRate +
		w.Latency + w.Sentiment + w.Load
}

// WeightsFor returns the weight set for a user tier. Paid users halve the
// cost weight; the freed 0.10 goes to complexity fit so the set still sums to 1.
func WeightsFor(tier UserTier) Weights {
	w := Weights{
		TaskMatch:      0.25,
		ComplexityFit:  0.20,
		CostEfficiency: 0.20,
		SuccessRate:    0.15,
		Latency:        0.10,
		Sentiment:      0.05,
		Load:           0.05,
	}
	if tier == TierPaid {
		w.CostEfficiency = 0.10
		w.ComplexityFit = 0.30
	}
	return w
}
