package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

func TestDecisionPrompt(t *testing.T) {
	a := mustArchetype(t, archetype.Diplomat)
	s := Seed(a)
	history := []types.RoundRecord{
		{
			Round: 1,
			Left:  types.AgentRound{Cooperated: true, Message: types.AgentMessage{Move: types.Cooperate, Reflection: "Felt right."}},
			Right: types.AgentRound{Message: types.AgentMessage{Move: types.Defect, Reflection: "Easy points."}},
		},
	}
	p := DecisionPrompt(DecisionInput{Archetype: a, State: s, Side: types.Right, Round: 2, Topic: "water rights", History: history})

	assert.True(t, strings.HasPrefix(p, "You are Ambassador Elena Vasquez."))
	assert.Contains(t, p, "Topic: water rights")
	assert.Contains(t, p, "Current round: 2")
	assert.Contains(t, p, "Round 1: You defected. Easy points.")
	assert.Contains(t, p, "Round 1: Other player cooperated. Felt right.")
	assert.Contains(t, p, "Your cooperation rate: 0%")
	assert.Contains(t, p, "Their cooperation rate: 100%")

	first := DecisionPrompt(DecisionInput{Archetype: a, State: s, Side: types.Left})
	assert.Contains(t, first, "No previous rounds.")
	assert.Contains(t, first, "Your cooperation rate: N/A")
}

func TestStateUpdatePrompt(t *testing.T) {
	a := mustArchetype(t, archetype.Skeptic)
	p := StateUpdatePrompt(a, Seed(a), 4, types.Cooperate, types.Defect)
	assert.Contains(t, p, "In round 4 the outcome was: you were betrayed")
	assert.Contains(t, p, "You chose to cooperate")
	assert.Contains(t, p, "The other player chose to defect")
}

func roundsOf(n int, leftCoop func(i int) bool) []types.RoundRecord {
	out := make([]types.RoundRecord, n)
	for i := range out {
		l := types.Defect
		if leftCoop(i) {
			l = types.Cooperate
		}
		out[i] = types.RoundRecord{
			Round: i + 1,
			Left:  types.AgentRound{Cooperated: l == types.Cooperate, Trust: i, Message: types.AgentMessage{Move: l}},
			Right: types.AgentRound{Cooperated: true, Message: types.AgentMessage{Move: types.Cooperate}},
		}
	}
	return out
}

func TestNarrativePromptKeyRounds(t *testing.T) {
	a := mustArchetype(t, archetype.Altruist)
	p := NarrativePrompt(a, types.Left, roundsOf(25, func(int) bool { return true }))
	assert.Contains(t, p, "Round 10: I cooperated, they cooperated. Trust: 9/10")
	assert.Contains(t, p, "Round 20:")
	assert.Contains(t, p, "Round 25:")
	assert.NotContains(t, p, "Round 11:")
}

func TestMetaReflectionPrompt(t *testing.T) {
	a := mustArchetype(t, archetype.Opportunist)
	records := roundsOf(30, func(i int) bool { return i < 5 })
	p := MetaReflectionPrompt(a, types.Left, records, types.Scores{Left: 40, Right: 90})
	assert.Contains(t, p, "Your cooperation rate: 16%")
	assert.Contains(t, p, "Their cooperation rate: 100%")
	assert.Contains(t, p, "Mutual cooperation rounds: 5")
	assert.Contains(t, p, "Your final score: 40")
	assert.Contains(t, p, "Their final score: 90")
	assert.Contains(t, p, "Early cooperation (first 10 rounds): 5/10")
	assert.Contains(t, p, "Late cooperation (last 10 rounds): 0/10")
}
