// Package archetype holds the five personality templates agents are built from.
package archetype

import (
	"errors"
	"fmt"

	"github.com/cpunion/dilemma-lab/pkg/types"
)

// ErrUnknownArchetype is returned by Lookup for an unrecognised id.
var ErrUnknownArchetype = errors.New("unknown archetype")

// ID identifies an archetype.
type ID string

const (
	Diplomat    ID = "diplomat"
	Opportunist ID = "opportunist"
	Skeptic     ID = "skeptic"
	Altruist    ID = "altruist"
	Pragmatist  ID = "pragmatist"
)

// Profile is the narrative half of an archetype; it is only ever rendered
// into prompts.
type Profile struct {
	Background             string   `json:"background"`
	CorePersonality        string   `json:"core_personality"`
	CommunicationStyle     string   `json:"communication_style"`
	CognitiveBiases        []string `json:"cognitive_biases"`
	EmotionalTendencies    string   `json:"emotional_tendencies"`
	StressTriggers         []string `json:"stress_triggers"`
	CooperationMotivations []string `json:"cooperation_motivations"`
	DefectionTriggers      []string `json:"defection_triggers"`
	MemoryStyle            string   `json:"memory_style"`
	MoodVariability        string   `json:"mood_variability"`
	CulturalBackground     string   `json:"cultural_background"`
	SocialLearningStyle    string   `json:"social_learning_style"`
	MoralFramework         string   `json:"moral_framework"`
	EvolutionPattern       string   `json:"evolution_pattern"`
	ConflictStyle          string   `json:"conflict_style"`
	TrustBuilding          string   `json:"trust_building"`
	StressResponse         string   `json:"stress_response"`
}

// Seeds are the numeric starting values copied into a fresh state. They are
// never changed by later rounds.
type Seeds struct {
	Culture          types.CulturalContext      `json:"culture"`
	Learning         types.SocialLearning       `json:"learning"`
	Evolution        types.PersonalityEvolution `json:"evolution"`
	MoralStrength    int                        `json:"moral_strength"`
	MoralFlexibility int                        `json:"moral_flexibility"`
	Identity         types.SocialIdentity       `json:"identity"`
	Emotions         types.EmotionalState       `json:"emotions"`
}

// Archetype is a named personality template.
type Archetype struct {
	ID      ID      `json:"id"`
	Label   string  `json:"label"`
	Persona string  `json:"persona"` // character name used in prompts
	Profile Profile `json:"profile"`
	Seeds   Seeds   `json:"seeds"`
}

// Lookup returns the archetype with the given id.
func Lookup(id ID) (*Archetype, error) {
	for _, a := range registry {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, id)
}

// All lists the archetypes in a stable order.
func All() []*Archetype {
	out := make([]*Archetype, len(registry))
	copy(out, registry)
	return out
}

// IDs lists the known ids in the same order as All.
func IDs() []ID {
	out := make([]ID, len(registry))
	for i, a := range registry {
		out[i] = a.ID
	}
	return out
}

func traits(openness, conscientiousness, agreeableness, neuroticism, extraversion int) map[string]int {
	return map[string]int{
		"openness":          openness,
		"conscientiousness": conscientiousness,
		"agreeableness":     agreeableness,
		"neuroticism":       neuroticism,
		"extraversion":      extraversion,
	}
}
