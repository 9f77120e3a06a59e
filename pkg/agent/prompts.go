package agent

import (
	"fmt"
	"strings"

	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/protocol"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// Generation settings per response kind.
var generation = map[protocol.ResponseKind]struct {
	temperature float32
	maxTokens   int
}{
	protocol.KindDecision:       {0.8, 500},
	protocol.KindStateUpdate:    {0.8, 500},
	protocol.KindNarrative:      {0.8, 200},
	protocol.KindMetaReflection: {0.8, 150},
}

var systemPrompts = map[protocol.ResponseKind]string{
	protocol.KindDecision: `You are a person playing a repeated prisoner's dilemma. Decide like a real human would:
your emotions (basic and moral), your cognitive biases, your cultural background, what you have learned
from watching the other player, how the game is changing you, and your moral compass all matter.

In round 0 set your emotions from your personality alone. In later rounds update every emotion from the history.

` + formatSpec(protocol.DecisionKeys, map[string]string{
		protocol.KeyDecision:              "C or D",
		protocol.KeyReasoning:             "short logical explanation",
		protocol.KeyReflection:            "2-3 natural sentences about the choice and how you feel",
		protocol.KeyBiases:                "comma-separated biases at work",
		protocol.KeyMemoryNarrative:       "the story you tell yourself about the game so far",
		protocol.KeyMoodInfluence:         "how your mood pushes you",
		protocol.KeyPastEventInfluence:    "the past event weighing most on you",
		protocol.KeyEmotionWeight:         "0-100, share of emotion in this decision",
		protocol.KeyLogicWeight:           "0-100, the remaining share for logic",
		protocol.KeyCulturalInfluence:     "how your culture shapes this choice",
		protocol.KeySocialLearningInsight: "what you learned from the other player",
		protocol.KeyPersonalityEvolution:  "how this is changing you",
		protocol.KeyMoralReflection:       "the moral reasoning behind the choice",
	}),
	protocol.KindStateUpdate: `You are updating your inner state after the round that just finished. Consider its emotional impact,
what it means for your cultural values, what strategy you learned, how your personality is shifting,
and whether your moral reasoning changed.

` + formatSpec(protocol.StateUpdateKeys, map[string]string{
		protocol.KeyMemoryNarrative:            "how you now read the whole history",
		protocol.KeyMoodShift:                  "how this round moved your mood",
		protocol.KeyPersonalityFluctuation:     "any temporary change in how you usually behave",
		protocol.KeyCulturalContextShift:       "how this challenged or confirmed your cultural values",
		protocol.KeySocialLearningUpdate:       "a strategy or pattern you picked up",
		protocol.KeyPersonalityEvolutionUpdate: "how your core traits are drifting",
		protocol.KeyMoralCompassShift:          "changes in your values or moral reasoning",
	}),
	protocol.KindNarrative: "You are writing a private journal entry looking back on a long run of prisoner's dilemma rounds. " +
		"Write in the first person, 3-4 sentences, plain prose.",
	protocol.KindMetaReflection: "You are analysing your own decision making after a long run of prisoner's dilemma rounds. " +
		"Be candid about strengths and weaknesses in 2-3 sentences of plain prose.",
}

// formatSpec renders the "Respond in this EXACT format" block.
func formatSpec(keys []string, hints map[string]string) string {
	var b strings.Builder
	b.WriteString("Respond in this EXACT format, one KEY: value per line:\n\n")
	for _, k := range keys {
		hint, ok := hints[k]
		if !ok {
			hint = "number from 0 to 10"
			if k == protocol.EmotionKey(types.Trust) {
				hint = "number from -10 to 10"
			}
		}
		fmt.Fprintf(&b, "%s: [%s]\n", k, hint)
	}
	return b.String()
}

// level picks a descriptor for v: high above hi, low below lo, mid otherwise.
func level(v, hi, lo int, high, low, mid string) string {
	switch {
	case v > hi:
		return high
	case v < lo:
		return low
	default:
		return mid
	}
}

func lastN(list []string, n int) []string {
	if len(list) > n {
		return list[len(list)-n:]
	}
	return list
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func percent(n, total int) string {
	if total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", n*100/total)
}

// DecisionInput is everything a decision prompt is built from.
type DecisionInput struct {
	Archetype *archetype.Archetype
	State     types.DynamicPersonalityState
	Side      types.Side
	Round     int // 0 for the initial decision
	Topic     string
	History   []types.RoundRecord
}

// DecisionPrompt renders the per-round decision prompt.
func DecisionPrompt(in DecisionInput) string {
	a, s := in.Archetype, in.State
	p := a.Profile
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s. %s\n\n", a.Persona, p.Background)
	fmt.Fprintf(&b, "CORE PERSONALITY: %s\n", p.CorePersonality)
	fmt.Fprintf(&b, "COMMUNICATION STYLE: %s\n", p.CommunicationStyle)
	fmt.Fprintf(&b, "BIASES YOU ARE PRONE TO: %s\n", strings.Join(p.CognitiveBiases, "; "))
	fmt.Fprintf(&b, "EMOTIONAL TENDENCIES: %s\n", p.EmotionalTendencies)
	fmt.Fprintf(&b, "STRESS TRIGGERS: %s\n", strings.Join(p.StressTriggers, "; "))
	fmt.Fprintf(&b, "WHAT MAKES YOU COOPERATE: %s\n", strings.Join(p.CooperationMotivations, "; "))
	fmt.Fprintf(&b, "WHAT MAKES YOU DEFECT: %s\n", strings.Join(p.DefectionTriggers, "; "))
	fmt.Fprintf(&b, "MEMORY STYLE: %s\n", p.MemoryStyle)
	fmt.Fprintf(&b, "MOOD VARIABILITY: %s\n", p.MoodVariability)
	fmt.Fprintf(&b, "CULTURAL BACKGROUND: %s\n", p.CulturalBackground)
	fmt.Fprintf(&b, "MORAL FRAMEWORK: %s\n\n", p.MoralFramework)

	b.WriteString("=== SITUATION ===\n")
	fmt.Fprintf(&b, "Topic: %s\n", orDefault(in.Topic, "an open-ended negotiation"))
	fmt.Fprintf(&b, "Current round: %d\n\n", in.Round)

	e := s.EmotionalState
	b.WriteString("=== YOUR STATE ===\n")
	fmt.Fprintf(&b, "Trust: %d/10 (%s)\n", e.Trust, level(e.Trust, 5, -5, "generally trusting", "deeply suspicious", "cautiously neutral"))
	fmt.Fprintf(&b, "Grudge: %d/10 (%s)\n", e.Grudge, level(e.Grudge, 7, 4, "strong resentment", "no real grudge", "some lingering resentment"))
	fmt.Fprintf(&b, "Hope: %d/10 (%s)\n", e.Hope, level(e.Hope, 7, 3, "very hopeful", "pessimistic", "moderately hopeful"))
	fmt.Fprintf(&b, "Anxiety: %d/10 (%s)\n", e.Anxiety, level(e.Anxiety, 7, 3, "afraid of betrayal", "calm", "somewhat nervous"))
	fmt.Fprintf(&b, "Frustration: %d/10\n", e.Frustration)
	fmt.Fprintf(&b, "Optimism: %d/10\n", e.Optimism)
	fmt.Fprintf(&b, "Guilt: %d/10, Shame: %d/10, Pride: %d/10\n", e.Guilt, e.Shame, e.Pride)
	fmt.Fprintf(&b, "Empathy: %d/10, Regret: %d/10, Vindication: %d/10\n\n", e.Empathy, e.Regret, e.Vindication)

	c := s.CulturalContext
	fmt.Fprintf(&b, "Collectivism: %d/10 (%s)\n", c.Collectivism, level(c.Collectivism, 7, 3, "group first", "individual first", "balanced"))
	fmt.Fprintf(&b, "Power distance comfort: %d/10, Uncertainty avoidance: %d/10, Competitiveness: %d/10\n",
		c.PowerDistanceComfort, c.UncertaintyAvoidance, c.CompetitivenessOrientation)
	fmt.Fprintf(&b, "Time orientation: %d/10 (%s)\n", c.TimeOrientation, level(c.TimeOrientation, 7, 3, "long term", "short term", "balanced"))
	fmt.Fprintf(&b, "Recent cultural influences: %s\n", orDefault(strings.Join(lastN(c.SocialNorms, 2), "; "), "none"))

	l := s.SocialLearning
	fmt.Fprintf(&b, "Adaptation: %d/10, Innovation: %d/10\n", l.AdaptationTendency, l.InnovationTendency)
	fmt.Fprintf(&b, "Strategies observed: %d, repertoire: %d\n", len(l.ObservedStrategies), len(l.StrategicRepertoire))
	fmt.Fprintf(&b, "Last successful strategy: %s\n", orDefault(l.LastSuccessfulStrategy, "none yet"))

	pe := s.PersonalityEvolution
	fmt.Fprintf(&b, "Core stability: %d/10, Adaptive capacity: %d/10\n", pe.CoreStability, pe.AdaptiveCapacity)
	fmt.Fprintf(&b, "Formative experiences: %d\n", len(pe.ExperienceImpact))
	fmt.Fprintf(&b, "Current fluctuation: %s\n", orDefault(s.PersonalityFluctuation, "stable"))

	m := s.MoralCompass
	fmt.Fprintf(&b, "Moral strength: %d/10, Moral flexibility: %d/10\n", m.Strength, m.Flexibility)
	fmt.Fprintf(&b, "Values in play: %s\n\n", orDefault(strings.Join(lastN(m.PrimaryValues, 3), ", "), "still forming"))

	fmt.Fprintf(&b, "Memory narrative: %s\n", orDefault(s.MemoryNarrative, "none yet"))
	fmt.Fprintf(&b, "Mood influence: %s\n", orDefault(s.MoodInfluence, "none yet"))
	fmt.Fprintf(&b, "Active biases: %s\n", orDefault(strings.Join(s.CognitiveBiases, ", "), "none identified"))
	fmt.Fprintf(&b, "Past event influence: %s\n\n", orDefault(s.PastEventInfluence, "none yet"))

	b.WriteString("=== HISTORY ===\n")
	if len(in.History) == 0 {
		b.WriteString("No previous rounds.\n")
	}
	mine, theirs := 0, 0
	for _, r := range in.History {
		me, other := r.Agent(in.Side), r.Agent(in.Side.Other())
		fmt.Fprintf(&b, "Round %d: You %s. %s\n", r.Round, me.Message.Move.Past(), me.Message.Reflection)
		fmt.Fprintf(&b, "Round %d: Other player %s. %s\n", r.Round, other.Message.Move.Past(), other.Message.Reflection)
		if me.Cooperated {
			mine++
		}
		if other.Cooperated {
			theirs++
		}
	}
	fmt.Fprintf(&b, "\nYour cooperation rate: %s\n", percent(mine, len(in.History)))
	fmt.Fprintf(&b, "Their cooperation rate: %s\n", percent(theirs, len(in.History)))
	fmt.Fprintf(&b, "Rounds played: %d\n\n", len(in.History))

	b.WriteString("=== TASK ===\n")
	b.WriteString("Decide whether to cooperate (C) or defect (D) this round. Let the choice come out of your emotions, " +
		"biases, culture, what you have learned, how you are changing, and your morals.\n")
	return b.String()
}

// StateUpdatePrompt renders the post-round update prompt for one agent.
func StateUpdatePrompt(a *archetype.Archetype, s types.DynamicPersonalityState, round int, mine, theirs types.Move) string {
	p := a.Profile
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n\n", a.Persona, p.Background)
	fmt.Fprintf(&b, "In round %d the outcome was: %s\n", round, types.OutcomeFor(mine, theirs))
	fmt.Fprintf(&b, "- You chose to %s\n", mine.Verb())
	fmt.Fprintf(&b, "- The other player chose to %s\n\n", theirs.Verb())

	b.WriteString("Your traits:\n")
	fmt.Fprintf(&b, "- Stress triggers: %s\n", strings.Join(p.StressTriggers, "; "))
	fmt.Fprintf(&b, "- Emotional tendencies: %s\n", p.EmotionalTendencies)
	fmt.Fprintf(&b, "- Biases: %s\n", strings.Join(p.CognitiveBiases, "; "))
	fmt.Fprintf(&b, "- Social learning: %s\n", p.SocialLearningStyle)
	fmt.Fprintf(&b, "- Evolution pattern: %s\n", p.EvolutionPattern)
	fmt.Fprintf(&b, "- Conflict style: %s\n", p.ConflictStyle)
	fmt.Fprintf(&b, "- Trust building: %s\n", p.TrustBuilding)
	fmt.Fprintf(&b, "- Stress response: %s\n\n", p.StressResponse)

	b.WriteString("Your current state:\n")
	fmt.Fprintf(&b, "- Memory narrative: %s\n", s.MemoryNarrative)
	fmt.Fprintf(&b, "- Mood influence: %s\n", s.MoodInfluence)
	fmt.Fprintf(&b, "- Personality fluctuation: %s\n", s.PersonalityFluctuation)
	fmt.Fprintf(&b, "- Past event influence: %s\n", s.PastEventInfluence)
	fmt.Fprintf(&b, "- Cooperated %d times, defected %d times\n\n", s.CooperationCount, s.DefectionCount)

	b.WriteString("Update your psychological state to reflect this round.\n")
	return b.String()
}

// keyRounds picks every 10th round plus the final one.
func keyRounds(records []types.RoundRecord) []types.RoundRecord {
	var out []types.RoundRecord
	for i, r := range records {
		if i%10 == 9 || i == len(records)-1 {
			out = append(out, r)
		}
	}
	return out
}

// NarrativePrompt asks an agent for a journal-style retelling of the run.
func NarrativePrompt(a *archetype.Archetype, side types.Side, records []types.RoundRecord) string {
	p := a.Profile
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n\n", a.Persona, p.Background)
	fmt.Fprintf(&b, "You have just finished %d rounds. Key moments:\n", len(records))
	for _, r := range keyRounds(records) {
		me, other := r.Agent(side), r.Agent(side.Other())
		fmt.Fprintf(&b, "Round %d: I %s, they %s. Trust: %d/10\n",
			r.Round, me.Message.Move.Past(), other.Message.Move.Past(), me.Trust)
	}
	fmt.Fprintf(&b, "\nCore personality: %s\n", p.CorePersonality)
	fmt.Fprintf(&b, "Emotional tendencies: %s\n", p.EmotionalTendencies)
	fmt.Fprintf(&b, "Memory style: %s\n\n", p.MemoryStyle)
	b.WriteString("Tell the story of how your trust and approach changed, the turning points, and what you learned.\n")
	return b.String()
}

// MetaReflectionPrompt asks an agent to critique its own play.
func MetaReflectionPrompt(a *archetype.Archetype, side types.Side, records []types.RoundRecord, scores types.Scores) string {
	p := a.Profile
	n := len(records)
	mine, theirs, mutual := 0, 0, 0
	early, late := 0, 0
	for i, r := range records {
		me, other := r.Agent(side), r.Agent(side.Other())
		if me.Cooperated {
			mine++
			if i < 10 {
				early++
			}
			if i >= n-10 {
				late++
			}
		}
		if other.Cooperated {
			theirs++
		}
		if me.Cooperated && other.Cooperated {
			mutual++
		}
	}
	window := min(10, n)

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n\n", a.Persona, p.Background)
	fmt.Fprintf(&b, "You have completed %d rounds. Step back and review how you decided.\n\n", n)
	b.WriteString("PERFORMANCE:\n")
	fmt.Fprintf(&b, "- Your cooperation rate: %s\n", percent(mine, n))
	fmt.Fprintf(&b, "- Their cooperation rate: %s\n", percent(theirs, n))
	fmt.Fprintf(&b, "- Mutual cooperation rounds: %d\n", mutual)
	fmt.Fprintf(&b, "- Your final score: %d\n", scores.Of(side))
	fmt.Fprintf(&b, "- Their final score: %d\n", scores.Of(side.Other()))
	fmt.Fprintf(&b, "- Early cooperation (first %d rounds): %d/%d\n", window, early, window)
	fmt.Fprintf(&b, "- Late cooperation (last %d rounds): %d/%d\n\n", window, late, window)
	fmt.Fprintf(&b, "Biases: %s\n", strings.Join(p.CognitiveBiases, "; "))
	fmt.Fprintf(&b, "Cooperation motivations: %s\n", strings.Join(p.CooperationMotivations, "; "))
	fmt.Fprintf(&b, "Defection triggers: %s\n\n", strings.Join(p.DefectionTriggers, "; "))
	b.WriteString("What patterns do you see, how did your biases help or hurt, and what would you change?\n")
	return b.String()
}
