package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dilemma-lab/pkg/types"
)

type agentSpec struct {
	coop, defect   int
	trust, anxiety int
	hope, empathy  int
}

func half(s agentSpec) types.AgentRound {
	state := types.DynamicPersonalityState{
		EmotionalState: types.EmotionalState{
			Trust:   s.trust,
			Anxiety: s.anxiety,
			Hope:    s.hope,
			Empathy: s.empathy,
		},
		CooperationCount: s.coop,
		DefectionCount:   s.defect,
	}
	return types.NewAgentRound(types.Cooperate, types.AgentMessage{Move: types.Cooperate}, 0, state)
}

func record(round int, left, right agentSpec) types.RoundRecord {
	return types.RoundRecord{Round: round, Left: half(left), Right: half(right)}
}

func TestStability(t *testing.T) {
	assert.Equal(t, 1.0, Stability(5, 5))
	assert.InDelta(t, 0.8, Stability(3, 1), 1e-9)
	assert.Equal(t, 0.0, Stability(10, 0))
	assert.Equal(t, 0.0, Stability(-10, 10))
}

func TestDominantEmotion(t *testing.T) {
	assert.Equal(t, types.Trust, DominantEmotion(types.EmotionalState{}))
	assert.Equal(t, types.Empathy, DominantEmotion(types.EmotionalState{Hope: 3, Empathy: 9}))
	// Negative trust counts by magnitude and wins ties by order.
	assert.Equal(t, types.Trust, DominantEmotion(types.EmotionalState{Trust: -8, Pride: 8}))
	assert.Equal(t, types.Grudge, DominantEmotion(types.EmotionalState{Trust: 2, Grudge: 6, Regret: 6}))
}

func TestTransitions(t *testing.T) {
	records := []types.RoundRecord{
		record(1, agentSpec{trust: 5}, agentSpec{trust: 4}),
		record(2, agentSpec{trust: 1, hope: 6}, agentSpec{trust: 4, hope: 2}),
		record(3, agentSpec{trust: 1, hope: 8}, agentSpec{trust: -7}),
	}
	got := Transitions(records)
	require.Len(t, got, 3)

	assert.Equal(t, "trust→trust", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 0.5, got[0].Probability, 1e-9)

	assert.Equal(t, "hope→hope", got[1].Label)
	assert.Equal(t, types.Hope, got[1].From)
	assert.Equal(t, "trust→hope", got[2].Label)
	assert.InDelta(t, 0.25, got[2].Probability, 1e-9)

	assert.Empty(t, Transitions(records[:1]))
	assert.Empty(t, Transitions(nil))
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.True(t, ok)
	assert.InDelta(t, 1, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	require.True(t, ok)
	assert.InDelta(t, -1, r, 1e-12)

	_, ok = Pearson([]float64{1, 2}, []float64{1, 2})
	assert.False(t, ok)

	_, ok = Pearson([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestSignificance(t *testing.T) {
	assert.Equal(t, 1.0, Significance(0.9, 2))
	assert.Equal(t, 0.001, Significance(1, 10))
	assert.Equal(t, 1.0, Significance(0, 10))
	// t = 0.5·sqrt(8/0.75) ≈ 1.633
	assert.InDelta(t, 0.2045, Significance(0.5, 10), 1e-3)
	assert.InDelta(t, Significance(0.5, 10), Significance(-0.5, 10), 1e-12)
	assert.Equal(t, 0.001, Significance(0.99, 200))
}

func TestCorrelations(t *testing.T) {
	records := []types.RoundRecord{
		record(1, agentSpec{coop: 1, trust: 6, anxiety: 2}, agentSpec{defect: 1, trust: -2, anxiety: 5}),
		record(2, agentSpec{coop: 2, trust: 7, anxiety: 2}, agentSpec{coop: 1, defect: 1, trust: 0, anxiety: 4}),
		record(3, agentSpec{coop: 2, defect: 1, trust: 4, anxiety: 3}, agentSpec{coop: 1, defect: 2, trust: -1, anxiety: 6}),
	}
	got := Correlations(Samples(records))
	require.Len(t, got, len(Metrics))

	self := got[0]
	assert.Equal(t, MetricCooperationRate, self.Metric)
	assert.InDelta(t, 1, self.R, 1e-12)
	assert.Equal(t, 0.001, self.Significance)
	assert.Equal(t, 6, self.Samples)

	trust := got[1]
	assert.Equal(t, MetricTrust, trust.Metric)
	assert.Greater(t, trust.R, 0.5)
	assert.Greater(t, trust.Significance, 0.0)
	assert.LessOrEqual(t, trust.Significance, 1.0)

	for _, c := range Correlations(Samples(records[:1])) {
		assert.Equal(t, 0.0, c.R, c.Metric)
		assert.Equal(t, 1.0, c.Significance, c.Metric)
	}
}

func TestCorrelationsZeroVariance(t *testing.T) {
	records := []types.RoundRecord{
		record(1, agentSpec{coop: 1, trust: 3}, agentSpec{coop: 1, trust: 3}),
		record(2, agentSpec{coop: 2, trust: 3}, agentSpec{coop: 2, trust: 3}),
	}
	// Every sample cooperated always: cooperation rate has no variance.
	for _, c := range Correlations(Samples(records)) {
		assert.Equal(t, 0.0, c.R, c.Metric)
		assert.Equal(t, 1.0, c.Significance, c.Metric)
	}
}

func TestPredict(t *testing.T) {
	records := []types.RoundRecord{
		record(1, agentSpec{coop: 1, trust: 4, anxiety: 4}, agentSpec{defect: 1, trust: 0, anxiety: 10}),
		record(2, agentSpec{coop: 2, trust: 6, anxiety: 4}, agentSpec{coop: 1, defect: 1, trust: 2, anxiety: 2}),
	}
	p := Predict(records, 10)
	assert.Equal(t, 2, p.Samples)
	assert.InDelta(t, 0.58, p.Confidence, 1e-9)
	// left averages 1.0, right averages 0.25
	assert.InDelta(t, 0.625, p.CooperationRate, 1e-9)
	// left averages 5, right averages 1
	assert.InDelta(t, 3, p.Trust, 1e-9)
	// left (1 + 0.8)/2, right (0 + 1)/2
	assert.InDelta(t, 0.7, p.EmotionalStability, 1e-9)

	assert.Equal(t, 0.95, Predict(records, 1).Confidence)
	assert.InDelta(t, 0.9, Predict(records, 0).Confidence, 1e-9)

	empty := Predict(nil, 50)
	assert.Equal(t, 0, empty.Samples)
	assert.Equal(t, 0.5, empty.Confidence)
}

func TestAnalyze(t *testing.T) {
	records := []types.RoundRecord{
		record(1, agentSpec{coop: 1, trust: 5}, agentSpec{defect: 1, trust: 1}),
		record(2, agentSpec{coop: 2, trust: 6}, agentSpec{defect: 2, trust: -3}),
		record(3, agentSpec{coop: 2, defect: 1, trust: 2, hope: 9}, agentSpec{defect: 3, trust: -4}),
	}
	rep := Analyze(records, 3)
	assert.Equal(t, 3, rep.Rounds)
	assert.Len(t, rep.Correlations, 3)
	assert.NotEmpty(t, rep.Transitions)
	assert.InDelta(t, 0.9, rep.Prediction.Confidence, 1e-9)

	total := 0
	for _, tr := range rep.Transitions {
		total += tr.Count
	}
	assert.Equal(t, 4, total)
}
