package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/routegate/pkg/evaluation"
	"github.com/zen-systems/routegate/pkg/models"
)

func testModel(id string, tier models.Tier, cost, latency, success float64, prefers ...models.TaskType) models.ModelConfig {
	return models.ModelConfig{
		ID:             id,
		Tier:           tier,
		CostPerToken:   cost,
		AverageLatency: latency,
		SuccessRate:    success,
		PreferredTasks: prefers,
	}
}

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, WeightsFor(TierFree).Sum(), 1e-9)
	assert.InDelta(t, 1.0, WeightsFor(TierPaid).Sum(), 1e-9)
	assert.Equal(t, 0.20, WeightsFor(TierFree).CostEfficiency)
	assert.Equal(t, 0.10, WeightsFor(TierPaid).CostEfficiency)
}

func TestCostEfficiencyFreeTier(t *testing.T) {
	a := testModel("A", models.TierLocal, 0, 500, 0.95)
	b := testModel("B", models.TierPremium, 0.0005, 2000, 0.99)

	_, fa := Traditional(Input{Model: a, TaskType: models.TaskSimpleQuery, Complexity: 0.3, UserTier: TierFree, Signals: DefaultSignals()})
	_, fb := Traditional(Input{Model: b, TaskType: models.TaskSimpleQuery, Complexity: 0.3, UserTier: TierFree, Signals: DefaultSignals()})

	assert.Equal(t, 1.0, fa.CostEfficiency)
	assert.InDelta(t, -4.0, fb.CostEfficiency, 1e-9)
}

func TestCostEfficiencyPaidTierConstant(t *testing.T) {
	b := testModel("B", models.TierPremium, 0.0005, 2000, 0.99)
	_, f := Traditional(Input{Model: b, TaskType: models.TaskMath, Complexity: 0.6, UserTier: TierPaid, Signals: DefaultSignals()})
	assert.Equal(t, 0.8, f.CostEfficiency)
}

func TestTraditionalScoreBreakdown(t *testing.T) {
	m := testModel("local", models.TierLocal, 0, 500, 0.95, models.TaskSimpleQuery)
	score, f := Traditional(Input{
		Model:      m,
		TaskType:   models.TaskSimpleQuery,
		Complexity: 0.3,
		UserTier:   TierFree,
		Signals:    DefaultSignals(),
	})

	assert.Equal(t, 1.0, f.TaskTypeMatch)
	assert.InDelta(t, 0.7, f.ComplexityFit, 1e-9)
	assert.InDelta(t, 0.9, f.LatencyRating, 1e-9)
	assert.InDelta(t, 0.5, f.Load, 1e-9)

	want := 1.0*0.25 + 0.7*0.20 + 1.0*0.20 + 0.95*0.15 + 0.9*0.10 + 0.8*0.05 + 0.5*0.05
	assert.InDelta(t, want, score, 1e-9)
	assert.InDelta(t, want, f.Traditional, 1e-9)
}

func TestTaskMismatchHalvesMatch(t *testing.T) {
	m := testModel("coder", models.TierBalanced, 0.0002, 1000, 0.97, models.TaskCoding)
	_, f := Traditional(Input{Model: m, TaskType: models.TaskCreative, UserTier: TierFree})
	assert.Equal(t, 0.5, f.TaskTypeMatch)
}

func TestScoreBlendsEvaluation(t *testing.T) {
	m := testModel("m", models.TierAdvanced, 0.0003, 1200, 0.985, models.TaskReasoning)
	in := Input{Model: m, TaskType: models.TaskReasoning, Complexity: 0.8, UserTier: TierFree, Signals: DefaultSignals()}
	traditional, _ := Traditional(in)

	eval := 9.4
	score, f := Score(in, &eval, BlendAlways)
	assert.InDelta(t, 0.3*traditional+0.7*0.94, score, 1e-9)
	require.NotNil(t, f.EvaluationScore)
	assert.Equal(t, 9.4, *f.EvaluationScore)

	neutral, f := Score(in, nil, BlendAlways)
	assert.InDelta(t, 0.3*traditional+0.7*0.5, neutral, 1e-9)
	assert.Nil(t, f.EvaluationScore)

	off, _ := Score(in, &eval, BlendOff)
	assert.InDelta(t, traditional, off, 1e-9)
}

func TestScoreTotality(t *testing.T) {
	tiers := []models.Tier{models.TierUnknown, models.TierLocal, models.TierFast, models.TierBalanced, models.TierAdvanced, models.TierPremium}
	for _, tier := range tiers {
		for _, task := range models.AllTaskTypes() {
			for _, c := range []float64{0, 0.3, 0.5, 0.7, 0.9, 1} {
				for _, ut := range []UserTier{TierFree, TierPaid} {
					m := testModel("m", tier, 0.001, 9000, 0.5, task)
					score, _ := Score(Input{Model: m, TaskType: task, Complexity: c, UserTier: ut, Signals: DefaultSignals()}, nil, BlendAlways)
					assert.False(t, math.IsNaN(score) || math.IsInf(score, 0))
				}
			}
		}
	}
}

func TestEngineUsesStore(t *testing.T) {
	store := evaluation.NewStore()
	store.Update("m", models.TaskCoding, 10)

	m := testModel("m", models.TierFast, 0.0001, 800, 0.98, models.TaskCoding)
	engine := NewEngine(store)
	assert.Equal(t, BlendAlways, engine.Mode())

	score, f := engine.Score(m, models.TaskCoding, 0.7, TierFree)
	require.NotNil(t, f.EvaluationScore)
	assert.InDelta(t, 0.3*f.Traditional+0.7, score, 1e-9)

	off := NewEngine(store, WithBlendMode(BlendOff))
	assert.Equal(t, BlendOff, off.Mode())
	score, f = off.Score(m, models.TaskCoding, 0.7, TierFree)
	assert.InDelta(t, f.Traditional, score, 1e-9)
}

func TestParseModes(t *testing.T) {
	mode, err := ParseBlendMode("OFF")
	require.NoError(t, err)
	assert.Equal(t, BlendOff, mode)

	_, err = ParseBlendMode("sometimes")
	assert.Error(t, err)

	tier, err := ParseUserTier("Paid")
	require.NoError(t, err)
	assert.Equal(t, TierPaid, tier)
}
