package adapter

import "time"

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"input"`
	CompletionTokens int `json:"output"`
	TotalTokens      int `json:"total"`
}

// IsZero reports whether no token counts were recorded.
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Cost captures normalized cost estimates.
type Cost struct {
	Currency     string  `json:"currency"`
	Amount       float64 `json:"amount"`
	IsEstimate   bool    `json:"is_estimate"`
	PricingModel string  `json:"pricing_model,omitempty"`
}

// Invocation is a successful call of one registry model.
type Invocation struct {
	ModelID string
	Adapter string
	Content string
	Usage   Usage
	Latency time.Duration
}

func normalizeUsage(u *Usage) Usage {
	if u == nil {
		return Usage{}
	}
	usage := *u
	if usage.TotalTokens == 0 && (usage.PromptTokens > 0 || usage.CompletionTokens > 0) {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}
