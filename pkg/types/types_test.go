package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeFor(t *testing.T) {
	assert.Equal(t, OutcomeMutualCooperation, OutcomeFor(Cooperate, Cooperate))
	assert.Equal(t, OutcomeMutualDefection, OutcomeFor(Defect, Defect))
	assert.Equal(t, OutcomeBetrayed, OutcomeFor(Cooperate, Defect))
	assert.Equal(t, OutcomeBetrayer, OutcomeFor(Defect, Cooperate))
}

func TestWinnerOf(t *testing.T) {
	assert.Equal(t, WinnerLeft, WinnerOf(Scores{Left: 5, Right: 0}))
	assert.Equal(t, WinnerRight, WinnerOf(Scores{Left: 1, Right: 6}))
	assert.Equal(t, WinnerDraw, WinnerOf(Scores{Left: 15, Right: 15}))
}

func TestEmotionAccessors(t *testing.T) {
	var e EmotionalState
	e = e.With(Trust, -4).With(Vindication, 9)
	assert.Equal(t, -4, e.Trust)
	assert.Equal(t, 9, e.Get(Vindication))
	assert.Equal(t, 0, e.Get("curiosity"))

	list := e.Emotions()
	require.Len(t, list, 12)
	assert.Equal(t, Trust, list[0].Name)
	assert.Equal(t, Vindication, list[11].Name)
	assert.Equal(t, 9, list[11].Value)
}

func TestCloneSharesNothing(t *testing.T) {
	orig := DynamicPersonalityState{
		CulturalContext: CulturalContext{SocialNorms: []string{"reciprocity"}},
		SocialLearning: SocialLearning{
			ObservedStrategies:  []ObservedStrategy{{Strategy: "tit for tat", Effectiveness: 5}},
			StrategicRepertoire: []string{"tit for tat"},
		},
		PersonalityEvolution: PersonalityEvolution{
			BaselineTraits:   map[string]int{"openness": 7},
			ExperienceImpact: []ExperienceImpact{{Round: 1, Event: "betrayal", TraitChanges: map[string]int{"trust": -2}}},
		},
		MoralCompass:    MoralCompass{PrimaryValues: []string{"honesty"}},
		CognitiveBiases: []string{"anchoring"},
	}
	c := orig.Clone()
	c.CulturalContext.SocialNorms[0] = "x"
	c.SocialLearning.ObservedStrategies[0].Strategy = "x"
	c.SocialLearning.StrategicRepertoire[0] = "x"
	c.PersonalityEvolution.BaselineTraits["openness"] = 0
	c.PersonalityEvolution.ExperienceImpact[0].TraitChanges["trust"] = 0
	c.MoralCompass.PrimaryValues[0] = "x"
	c.CognitiveBiases[0] = "x"

	assert.Equal(t, "reciprocity", orig.CulturalContext.SocialNorms[0])
	assert.Equal(t, "tit for tat", orig.SocialLearning.ObservedStrategies[0].Strategy)
	assert.Equal(t, "tit for tat", orig.SocialLearning.StrategicRepertoire[0])
	assert.Equal(t, 7, orig.PersonalityEvolution.BaselineTraits["openness"])
	assert.Equal(t, -2, orig.PersonalityEvolution.ExperienceImpact[0].TraitChanges["trust"])
	assert.Equal(t, "honesty", orig.MoralCompass.PrimaryValues[0])
	assert.Equal(t, "anchoring", orig.CognitiveBiases[0])
}

func TestCooperationRate(t *testing.T) {
	var s DynamicPersonalityState
	assert.Zero(t, s.CooperationRate())
	s.CooperationCount, s.DefectionCount = 3, 1
	assert.InDelta(t, 0.75, s.CooperationRate(), 1e-9)
}
