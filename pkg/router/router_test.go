package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/models"
	"github.com/zen-systems/routegate/pkg/scoring"
)

func seededStore(t *testing.T) *evaluation.Store {
	t.Helper()
	store := evaluation.NewStore()
	_, err := evaluation.NewImporter(store).Import(context.Background(), evaluation.NewStaticSource())
	require.NoError(t, err)
	return store
}

func TestRouteScoresEveryModel(t *testing.T) {
	registry := models.DefaultRegistry()
	store := seededStore(t)
	r := NewRouter(registry, scoring.NewEngine(store), WithLogger(zap.NewNop()))

	result := r.Route("Can you write a function to reverse a string?", scoring.TierFree)

	assert.Equal(t, models.TaskCoding, result.TaskType)
	assert.Equal(t, 0.7, result.Complexity)
	require.Len(t, result.Scores, registry.Len())
	for i := 1; i < len(result.Scores); i++ {
		assert.GreaterOrEqual(t, result.Scores[i-1].Score, result.Scores[i].Score)
	}
	assert.Equal(t, result.Scores[0].ModelID, result.SelectedModelID)
	assert.Equal(t, PolicyRank, result.Policy)
	assert.GreaterOrEqual(t, result.RoutingTime, time.Duration(0))

	for _, s := range result.Scores {
		assert.NotNil(t, s.Factors.EvaluationScore, "model %s should carry its evaluation", s.ModelID)
	}
}

func TestRouteStableOnTies(t *testing.T) {
	base := models.ModelConfig{Tier: models.TierFast, AverageLatency: 800, SuccessRate: 0.9}
	var configs []models.ModelConfig
	for _, id := range []string{"c", "a", "b"} {
		m := base
		m.ID = id
		configs = append(configs, m)
	}
	registry, err := models.NewRegistry(configs)
	require.NoError(t, err)

	result := NewRouter(registry, scoring.NewEngine(nil)).Route("hi", scoring.TierFree)

	var order []string
	for _, s := range result.Scores {
		order = append(order, s.ModelID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, order)
	assert.Equal(t, "c", result.SelectedModelID)
}

func TestRoutePolicies(t *testing.T) {
	registry := models.DefaultRegistry()
	store := evaluation.NewStore()
	store.Update("openai-gpt-4o", models.TaskCoding, 10)
	engine := scoring.NewEngine(store, scoring.WithBlendMode(scoring.BlendOff))
	prompt := "write some code for me"

	rankRouter := NewRouter(registry, engine, WithBestModel(store))
	assert.Equal(t, PolicyRank, rankRouter.Policy())
	ranked := rankRouter.Route(prompt, scoring.TierFree)
	assert.Equal(t, "local-mistral-7b", ranked.SelectedModelID)

	evalRouter := NewRouter(registry, engine, WithBestModel(store), WithPolicy(PolicyEvaluation))
	assert.Equal(t, PolicyEvaluation, evalRouter.Policy())
	override := evalRouter.Route(prompt, scoring.TierFree)
	assert.Equal(t, "openai-gpt-4o", override.SelectedModelID)
	assert.Equal(t, "local-mistral-7b", override.Scores[0].ModelID)
	assert.Equal(t, PolicyEvaluation, override.Policy)
}

func TestRouteEvaluationPolicyFallsBackToRank(t *testing.T) {
	registry := models.DefaultRegistry()
	store := evaluation.NewStore()
	store.Update("retired-model", models.TaskCoding, 10)
	engine := scoring.NewEngine(store, scoring.WithBlendMode(scoring.BlendOff))

	r := NewRouter(registry, engine, WithBestModel(store), WithPolicy(PolicyEvaluation))

	unknown := r.Route("write some code for me", scoring.TierFree)
	assert.Equal(t, unknown.Scores[0].ModelID, unknown.SelectedModelID)

	noEvals := r.Route("Generate a short poem about autumn leaves", scoring.TierFree)
	assert.Equal(t, noEvals.Scores[0].ModelID, noEvals.SelectedModelID)
}

func TestRoutePaidTierShiftsTowardCapableModels(t *testing.T) {
	registry := models.DefaultRegistry()
	engine := scoring.NewEngine(nil, scoring.WithBlendMode(scoring.BlendOff))
	r := NewRouter(registry, engine)

	free := r.Route("write some code for me", scoring.TierFree)
	paid := r.Route("write some code for me", scoring.TierPaid)

	assert.Equal(t, "local-mistral-7b", free.SelectedModelID)
	assert.NotEqual(t, free.SelectedModelID, paid.SelectedModelID)
}

func TestFallbackChain(t *testing.T) {
	ranked := []RoutingScore{{ModelID: "a"}, {ModelID: "b"}, {ModelID: "c"}, {ModelID: "d"}}

	assert.Equal(t, []string{"b", "c"}, FallbackChain(ranked, "a", 2))
	assert.Equal(t, []string{"a", "b"}, FallbackChain(ranked, "c", 2))
	assert.Equal(t, []string{"a", "b", "d"}, FallbackChain(ranked, "c", 10))
	assert.Empty(t, FallbackChain(ranked, "a", 0))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyRank, p)

	p, err = ParsePolicy("Evaluation")
	require.NoError(t, err)
	assert.Equal(t, PolicyEvaluation, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}
