package agent

import (
	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/protocol"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// DefaultHistoryLimit bounds every append-only list in a personality state.
const DefaultHistoryLimit = 50

// Fixed sub-scores for entries the protocol gives no numbers for.
const (
	defaultStrategyScore = 5
	defaultPermanence    = 5
)

// StateUpdater merges state-update replies into personality states.
type StateUpdater struct {
	// HistoryLimit keeps only the last N entries of each append-only list.
	// Zero means unbounded.
	HistoryLimit int
	// ClampEmotions clamps parsed emotions to trust [-10,10] and [0,10]
	// for the rest. Off by default: backend numbers are taken as given.
	ClampEmotions bool
}

// DefaultStateUpdater returns an updater with DefaultHistoryLimit and no clamping.
func DefaultStateUpdater() StateUpdater {
	return StateUpdater{HistoryLimit: DefaultHistoryLimit}
}

// Seed builds the starting state for an archetype before any reply is seen.
func Seed(a *archetype.Archetype) types.DynamicPersonalityState {
	s := a.Seeds
	evolution := s.Evolution
	evolution.CurrentTraits = evolution.BaselineTraits
	state := types.DynamicPersonalityState{
		EmotionalState:       s.Emotions,
		CulturalContext:      s.Culture,
		SocialLearning:       s.Learning,
		PersonalityEvolution: evolution,
		MoralCompass: types.MoralCompass{
			Strength:    s.MoralStrength,
			Flexibility: s.MoralFlexibility,
		},
		SocialIdentity:       s.Identity,
		EmotionVsLogicWeight: types.EmotionLogicWeight{Emotion: protocol.DefaultEmotionWeight, Logic: 100 - protocol.DefaultEmotionWeight},
	}
	// Clone detaches every slice and map from the shared archetype.
	return state.Clone()
}

// InitialState seeds a state from the archetype and overlays the round-0
// decision. Emotions the decision did not report keep their seed value.
func (u StateUpdater) InitialState(a *archetype.Archetype, d protocol.Decision) types.DynamicPersonalityState {
	next := Seed(a)
	defaulted := make(map[string]bool, len(d.Defaulted))
	for _, k := range d.Defaulted {
		defaulted[k] = true
	}
	for _, e := range types.EmotionOrder {
		if defaulted[protocol.EmotionKey(e)] {
			continue
		}
		next.EmotionalState = next.EmotionalState.With(e, u.clamp(e, d.Emotions.Get(e)))
	}
	setIfPresent(&next.MemoryNarrative, d.MemoryNarrative)
	setIfPresent(&next.MoodInfluence, d.MoodInfluence)
	setIfPresent(&next.PastEventInfluence, d.PastEventInfluence)
	next.CognitiveBiases = append([]string(nil), d.Biases...)
	next.EmotionVsLogicWeight = d.Weights
	return next
}

// ApplyDecision records a move: it bumps the matching counter, sets the last
// move and copies the decision's biases, past-event influence and weights.
// Emotions are left to the state update that follows.
func ApplyDecision(prev types.DynamicPersonalityState, d protocol.Decision) types.DynamicPersonalityState {
	next := prev.Clone()
	if d.Move == types.Cooperate {
		next.CooperationCount++
	} else {
		next.DefectionCount++
	}
	next.LastMove = d.Move
	next.CognitiveBiases = append([]string(nil), d.Biases...)
	setIfPresent(&next.PastEventInfluence, d.PastEventInfluence)
	next.EmotionVsLogicWeight = d.Weights
	return next
}

// Merge applies a parsed state-update reply to prev and returns the new
// state. prev is never modified.
//
// Emotions update field by field and keep their previous value when a key
// is missing or not numeric. Narrative scalars change only when present and
// non-empty. List fields only ever grow by one entry per present key, then
// are trimmed to HistoryLimit. Seeded numeric dimensions pass through.
func (u StateUpdater) Merge(prev types.DynamicPersonalityState, f protocol.Fields) types.DynamicPersonalityState {
	next := prev.Clone()

	for _, e := range types.EmotionOrder {
		if v, ok := f.LookupInt(protocol.EmotionKey(e)); ok {
			next.EmotionalState = next.EmotionalState.With(e, u.clamp(e, v))
		}
	}

	setIfPresent(&next.MemoryNarrative, f.Text(protocol.KeyMemoryNarrative))
	setIfPresent(&next.MoodInfluence, f.Text(protocol.KeyMoodShift))
	setIfPresent(&next.PersonalityFluctuation, f.Text(protocol.KeyPersonalityFluctuation))

	if v := f.Text(protocol.KeyCulturalContextShift); v != "" {
		next.CulturalContext.SocialNorms = trim(append(next.CulturalContext.SocialNorms, v), u.HistoryLimit)
	}
	if v := f.Text(protocol.KeySocialLearningUpdate); v != "" {
		sl := &next.SocialLearning
		sl.ObservedStrategies = trim(append(sl.ObservedStrategies, types.ObservedStrategy{
			Strategy:          v,
			Effectiveness:     defaultStrategyScore,
			ContextSimilarity: defaultStrategyScore,
			Trustworthiness:   defaultStrategyScore,
		}), u.HistoryLimit)
		sl.StrategicRepertoire = trim(append(sl.StrategicRepertoire, v), u.HistoryLimit)
		sl.LastSuccessfulStrategy = v
	}
	if v := f.Text(protocol.KeyPersonalityEvolutionUpdate); v != "" {
		pe := &next.PersonalityEvolution
		pe.ExperienceImpact = trim(append(pe.ExperienceImpact, types.ExperienceImpact{
			Round:        next.Rounds(),
			Event:        v,
			TraitChanges: map[string]int{},
			Permanence:   defaultPermanence,
		}), u.HistoryLimit)
	}
	if v := f.Text(protocol.KeyMoralCompassShift); v != "" {
		next.MoralCompass.PrimaryValues = trim(append(next.MoralCompass.PrimaryValues, v), u.HistoryLimit)
	}
	return next
}

func (u StateUpdater) clamp(e types.Emotion, v int) int {
	if !u.ClampEmotions {
		return v
	}
	lo := 0
	if e == types.Trust {
		lo = -10
	}
	return max(lo, min(10, v))
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// trim keeps the last limit entries; limit <= 0 keeps everything.
func trim[T any](list []T, limit int) []T {
	if limit <= 0 || len(list) <= limit {
		return list
	}
	return append([]T(nil), list[len(list)-limit:]...)
}
