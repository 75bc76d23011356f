package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryOrder(t *testing.T) {
	r := DefaultRegistry()
	require.Equal(t, 5, r.Len())

	var ids []string
	for _, m := range r.List() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{
		"local-mistral-7b",
		"openai-gpt-3.5-turbo",
		"deepseek-coder",
		"anthropic-claude-3-sonnet",
		"openai-gpt-4o",
	}, ids)
}

func TestRegistryReturnsCopies(t *testing.T) {
	r := DefaultRegistry()
	m, ok := r.Get("deepseek-coder")
	require.True(t, ok)
	m.PreferredTasks[0] = TaskCreative

	again, _ := r.Get("deepseek-coder")
	assert.Equal(t, TaskCoding, again.PreferredTasks[0])
}

func TestRegistryLookupNotFound(t *testing.T) {
	_, err := DefaultRegistry().Lookup("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelNotFound))
}

func TestNewRegistryValidation(t *testing.T) {
	valid := ModelConfig{ID: "a", Tier: TierFast, AverageLatency: 100, SuccessRate: 0.9}

	tests := []struct {
		name    string
		configs []ModelConfig
	}{
		{"empty", nil},
		{"missing id", []ModelConfig{{Tier: TierFast, AverageLatency: 1, SuccessRate: 1}}},
		{"unknown tier", []ModelConfig{{ID: "x", AverageLatency: 1, SuccessRate: 1}}},
		{"negative cost", []ModelConfig{{ID: "x", Tier: TierFast, CostPerToken: -1, AverageLatency: 1, SuccessRate: 1}}},
		{"zero latency", []ModelConfig{{ID: "x", Tier: TierFast, SuccessRate: 1}}},
		{"success rate above one", []ModelConfig{{ID: "x", Tier: TierFast, AverageLatency: 1, SuccessRate: 1.2}}},
		{"duplicate", []ModelConfig{valid, valid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.configs)
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := []byte(`models:
  - id: tiny
    name: Tiny
    provider: Local
    tier: local
    cost_per_token: 0
    average_latency_ms: 200
    success_rate: 0.9
    preferred_tasks: [simple_query]
  - id: big
    name: Big
    provider: OpenAI
    tier: premium
    cost_per_token: 0.001
    average_latency_ms: 3000
    success_rate: 0.99
    preferred_tasks: [reasoning, math]
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	r, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	big, ok := r.Get("big")
	require.True(t, ok)
	assert.Equal(t, TierPremium, big.Tier)
	assert.True(t, big.Prefers(TaskMath))
	assert.False(t, big.Prefers(TaskCoding))
}

func TestLoadRegistryRejectsUnknownTaskType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := []byte("models:\n  - id: x\n    tier: fast\n    average_latency_ms: 1\n    success_rate: 1\n    preferred_tasks: [poetry]\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}

func TestComplexityFit(t *testing.T) {
	tests := []struct {
		tier       Tier
		complexity float64
		want       float64
	}{
		{TierLocal, 0.3, 0.7},
		{TierFast, 0.5, 0.9},
		{TierFast, 0.6, 0.6},
		{TierBalanced, 0.79, 0.8},
		{TierBalanced, 0.8, 0.7},
		{TierAdvanced, 0.5, 0.7},
		{TierAdvanced, 0.51, 0.9},
		{TierPremium, 0.7, 0.8},
		{TierPremium, 0.71, 1.0},
		{TierUnknown, 0.9, 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.tier.ComplexityFit(tt.complexity), 1e-9, "%s at %.2f", tt.tier, tt.complexity)
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" Premium ")
	require.NoError(t, err)
	assert.Equal(t, TierPremium, tier)

	_, err = ParseTier("ultra")
	assert.Error(t, err)
}

func TestPerformanceLabel(t *testing.T) {
	assert.Equal(t, "Excellent", PerformanceLabel(0.99))
	assert.Equal(t, "Very Good", PerformanceLabel(0.95))
	assert.Equal(t, "Good", PerformanceLabel(0.9))
	assert.Equal(t, "Fair", PerformanceLabel(0.86))
	assert.Equal(t, "Needs Improvement", PerformanceLabel(0.5))
}
