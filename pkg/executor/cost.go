package executor

import (
	"github.com/zen-systems/routegate/pkg/adapter"
	"github.com/zen-systems/routegate/pkg/models"
)

const pricingModel = "per_token"

// EstimateCost prices usage at the model's catalog cost per token.
func EstimateCost(model models.ModelConfig, usage adapter.Usage) adapter.Cost {
	total := usage.TotalTokens
	if total == 0 {
		total = usage.PromptTokens + usage.CompletionTokens
	}
	return adapter.Cost{
		Currency:     "USD",
		Amount:       float64(total) * model.CostPerToken,
		IsEstimate:   true,
		PricingModel: pricingModel,
	}
}
