// Package protocol decodes the line-oriented "KEY: value" replies produced by
// the generation backend.
package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cpunion/dilemma-lab/pkg/types"
)

// ErrMalformedDecision is returned when a decision reply has no usable choice token.
var ErrMalformedDecision = errors.New("malformed decision")

// ResponseKind selects the reply schema a caller expects.
type ResponseKind string

const (
	KindDecision       ResponseKind = "decision"
	KindStateUpdate    ResponseKind = "state_update"
	KindNarrative      ResponseKind = "narrative"       // free text
	KindMetaReflection ResponseKind = "meta_reflection" // free text
)

// Structured reports whether replies of this kind are parsed into fields.
func (k ResponseKind) Structured() bool {
	return k == KindDecision || k == KindStateUpdate
}

// Keys returns the recognised field keys for k, nil for free-text kinds.
func (k ResponseKind) Keys() []string {
	switch k {
	case KindDecision:
		return DecisionKeys
	case KindStateUpdate:
		return StateUpdateKeys
	}
	return nil
}

// Field keys.
const (
	KeyDecision              = "DECISION"
	KeyReasoning             = "REASONING"
	KeyReflection            = "REFLECTION"
	KeyBiases                = "BIASES"
	KeyMemoryNarrative       = "MEMORY_NARRATIVE"
	KeyMoodInfluence         = "MOOD_INFLUENCE"
	KeyPastEventInfluence    = "PAST_EVENT_INFLUENCE"
	KeyEmotionWeight         = "EMOTION_WEIGHT"
	KeyLogicWeight           = "LOGIC_WEIGHT"
	KeyCulturalInfluence     = "CULTURAL_INFLUENCE"
	KeySocialLearningInsight = "SOCIAL_LEARNING_INSIGHT"
	KeyPersonalityEvolution  = "PERSONALITY_EVOLUTION"
	KeyMoralReflection       = "MORAL_REFLECTION"

	KeyMoodShift                  = "MOOD_SHIFT"
	KeyPersonalityFluctuation     = "PERSONALITY_FLUCTUATION"
	KeyCulturalContextShift       = "CULTURAL_CONTEXT_SHIFT"
	KeySocialLearningUpdate       = "SOCIAL_LEARNING_UPDATE"
	KeyPersonalityEvolutionUpdate = "PERSONALITY_EVOLUTION_UPDATE"
	KeyMoralCompassShift          = "MORAL_COMPASS_SHIFT"
)

// EmotionKeys are the twelve emotion keys in enumeration order.
var EmotionKeys = func() []string {
	keys := make([]string, len(types.EmotionOrder))
	for i, e := range types.EmotionOrder {
		keys[i] = EmotionKey(e)
	}
	return keys
}()

// EmotionKey maps an emotion to its upper-case wire key.
func EmotionKey(e types.Emotion) string {
	return strings.ToUpper(string(e))
}

var DecisionKeys = concat(
	[]string{KeyDecision, KeyReasoning, KeyReflection},
	EmotionKeys,
	[]string{
		KeyBiases, KeyMemoryNarrative, KeyMoodInfluence, KeyPastEventInfluence,
		KeyEmotionWeight, KeyLogicWeight, KeyCulturalInfluence,
		KeySocialLearningInsight, KeyPersonalityEvolution, KeyMoralReflection,
	},
)

var StateUpdateKeys = concat(
	EmotionKeys,
	[]string{
		KeyMemoryNarrative, KeyMoodShift, KeyPersonalityFluctuation,
		KeyCulturalContextShift, KeySocialLearningUpdate,
		KeyPersonalityEvolutionUpdate, KeyMoralCompassShift,
	},
)

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Fields maps upper-case keys to their trimmed values.
type Fields map[string]string

// Parse splits text into fields. Each non-blank line containing a colon
// contributes one entry; the key is the text before the first colon. Lines
// without a colon or with an empty key are ignored, and a later duplicate
// key replaces an earlier one.
func Parse(text string) Fields {
	f := Fields{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		f[key] = strings.TrimSpace(value)
	}
	return f
}

// Has reports whether key is present with a non-empty value.
func (f Fields) Has(key string) bool {
	return f[key] != ""
}

// Text returns the value for key or "".
func (f Fields) Text(key string) string {
	return f[key]
}

// Int returns the leading integer of the value for key, or def if the
// key is absent or the value does not start with a number.
func (f Fields) Int(key string, def int) int {
	v, ok := f.LookupInt(key)
	if !ok {
		return def
	}
	return v
}

// LookupInt is like Int but reports whether a number was found.
func (f Fields) LookupInt(key string) (int, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	return leadingInt(raw)
}

// List splits the value on commas, dropping empty entries.
func (f Fields) List(key string) []string {
	raw := f[key]
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// leadingInt accepts an optional sign followed by digits and ignores
// anything after them, so "7/10" is 7 and "6.5" is 6.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i, neg := 0, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n < 1<<30 {
			n = n*10 + int(s[i]-'0')
		}
		i++
	}
	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Decision is a parsed decision reply.
type Decision struct {
	Move                  types.Move
	Reasoning             string
	Reflection            string
	MoralReflection       string
	Emotions              types.EmotionalState
	Biases                []string
	MemoryNarrative       string
	MoodInfluence         string
	PastEventInfluence    string
	Weights               types.EmotionLogicWeight
	CulturalInfluence     string
	SocialLearningInsight string
	PersonalityEvolution  string

	// Defaulted lists keys that were absent or unparseable and fell back to
	// a default. This is informational, never an error.
	Defaulted []string
}

// Default emotion/logic split when the reply omits it.
const DefaultEmotionWeight = 50

// ParseDecision parses a decision reply. Only DECISION is mandatory.
func ParseDecision(text string) (Decision, error) {
	f := Parse(text)
	choice := strings.ToUpper(f.Text(KeyDecision))
	move := types.Move(choice)
	if !move.Valid() {
		if choice == "" {
			return Decision{}, fmt.Errorf("%w: missing %s", ErrMalformedDecision, KeyDecision)
		}
		return Decision{}, fmt.Errorf("%w: unrecognised choice %q", ErrMalformedDecision, choice)
	}

	d := Decision{
		Move:                  move,
		Reasoning:             f.Text(KeyReasoning),
		Reflection:            f.Text(KeyReflection),
		MoralReflection:       f.Text(KeyMoralReflection),
		Biases:                f.List(KeyBiases),
		MemoryNarrative:       f.Text(KeyMemoryNarrative),
		MoodInfluence:         f.Text(KeyMoodInfluence),
		PastEventInfluence:    f.Text(KeyPastEventInfluence),
		CulturalInfluence:     f.Text(KeyCulturalInfluence),
		SocialLearningInsight: f.Text(KeySocialLearningInsight),
		PersonalityEvolution:  f.Text(KeyPersonalityEvolution),
	}
	for _, e := range types.EmotionOrder {
		v, ok := f.LookupInt(EmotionKey(e))
		if !ok {
			d.Defaulted = append(d.Defaulted, EmotionKey(e))
		}
		d.Emotions = d.Emotions.With(e, v)
	}
	emotion, ok := f.LookupInt(KeyEmotionWeight)
	if !ok {
		emotion = DefaultEmotionWeight
		d.Defaulted = append(d.Defaulted, KeyEmotionWeight)
	}
	logic, ok := f.LookupInt(KeyLogicWeight)
	if !ok {
		logic = 100 - emotion
		d.Defaulted = append(d.Defaulted, KeyLogicWeight)
	}
	d.Weights = types.EmotionLogicWeight{Emotion: emotion, Logic: logic}
	for _, key := range []string{
		KeyReasoning, KeyReflection, KeyMoralReflection, KeyBiases,
		KeyMemoryNarrative, KeyMoodInfluence, KeyPastEventInfluence,
		KeyCulturalInfluence, KeySocialLearningInsight, KeyPersonalityEvolution,
	} {
		if !f.Has(key) {
			d.Defaulted = append(d.Defaulted, key)
		}
	}
	return d, nil
}
