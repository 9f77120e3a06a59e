package types

// Emotion names one of the twelve EmotionalState intensities.
type Emotion string

const (
	Trust       Emotion = "trust" // -10..10
	Grudge      Emotion = "grudge"
	Hope        Emotion = "hope"
	Anxiety     Emotion = "anxiety"
	Frustration Emotion = "frustration"
	Optimism    Emotion = "optimism"
	Guilt       Emotion = "guilt"
	Shame       Emotion = "shame"
	Pride       Emotion = "pride"
	Empathy     Emotion = "empathy"
	Regret      Emotion = "regret"
	Vindication Emotion = "vindication"
)

// EmotionOrder is the fixed enumeration order used for tie-breaking and
// prompt rendering.
var EmotionOrder = [12]Emotion{
	Trust, Grudge, Hope, Anxiety, Frustration, Optimism,
	Guilt, Shame, Pride, Empathy, Regret, Vindication,
}

// EmotionalState holds an agent's instantaneous affect. Trust is nominally
// in [-10,10] and everything else in [0,10]; ranges are not enforced here.
type EmotionalState struct {
	Trust       int `json:"trust"`
	Grudge      int `json:"grudge"`
	Hope        int `json:"hope"`
	Anxiety     int `json:"anxiety"`
	Frustration int `json:"frustration"`
	Optimism    int `json:"optimism"`
	Guilt       int `json:"guilt"`
	Shame       int `json:"shame"`
	Pride       int `json:"pride"`
	Empathy     int `json:"empathy"`
	Regret      int `json:"regret"`
	Vindication int `json:"vindication"`
}

// EmotionValue pairs an emotion with its intensity.
type EmotionValue struct {
	Name  Emotion
	Value int
}

func (e *EmotionalState) field(name Emotion) *int {
	switch name {
	case Trust:
		return &e.Trust
	case Grudge:
		return &e.Grudge
	case Hope:
		return &e.Hope
	case Anxiety:
		return &e.Anxiety
	case Frustration:
		return &e.Frustration
	case Optimism:
		return &e.Optimism
	case Guilt:
		return &e.Guilt
	case Shame:
		return &e.Shame
	case Pride:
		return &e.Pride
	case Empathy:
		return &e.Empathy
	case Regret:
		return &e.Regret
	case Vindication:
		return &e.Vindication
	}
	return nil
}

// Get returns the intensity of one emotion; unknown names yield 0.
func (e EmotionalState) Get(name Emotion) int {
	if p := e.field(name); p != nil {
		return *p
	}
	return 0
}

// With returns a copy of e with one emotion replaced.
func (e EmotionalState) With(name Emotion, v int) EmotionalState {
	if p := e.field(name); p != nil {
		*p = v
	}
	return e
}

// Emotions lists all twelve values in EmotionOrder.
func (e EmotionalState) Emotions() []EmotionValue {
	out := make([]EmotionValue, 0, len(EmotionOrder))
	for _, name := range EmotionOrder {
		out = append(out, EmotionValue{Name: name, Value: e.Get(name)})
	}
	return out
}

// CulturalContext dimensions are seeded once; only SocialNorms grows.
type CulturalContext struct {
	Collectivism               int      `json:"collectivism"`
	PowerDistanceComfort       int      `json:"power_distance_comfort"`
	UncertaintyAvoidance       int      `json:"uncertainty_avoidance"`
	CompetitivenessOrientation int      `json:"competitiveness_orientation"`
	TimeOrientation            int      `json:"time_orientation"`
	SocialNorms                []string `json:"social_norms"`
	RoleExpectations           string   `json:"role_expectations"`
}

// ObservedStrategy is a strategy the agent picked up by watching the other player.
type ObservedStrategy struct {
	Strategy          string `json:"strategy"`
	Effectiveness     int    `json:"effectiveness"`
	ContextSimilarity int    `json:"context_similarity"`
	Trustworthiness   int    `json:"trustworthiness"`
}

type SocialLearning struct {
	AdaptationTendency     int                `json:"adaptation_tendency"`
	InnovationTendency     int                `json:"innovation_tendency"`
	SocialProofSensitivity int                `json:"social_proof_sensitivity"`
	AuthorityInfluence     int                `json:"authority_influence"`
	ObservedStrategies     []ObservedStrategy `json:"observed_strategies"`
	StrategicRepertoire    []string           `json:"strategic_repertoire"`
	LastSuccessfulStrategy string             `json:"last_successful_strategy"`
}

// ExperienceImpact records one formative event.
type ExperienceImpact struct {
	Round        int            `json:"round"`
	Event        string         `json:"event"`
	TraitChanges map[string]int `json:"trait_changes"`
	Permanence   int            `json:"permanence"`
}

type PersonalityEvolution struct {
	BaselineTraits   map[string]int     `json:"baseline_traits"`
	CurrentTraits    map[string]int     `json:"current_traits"`
	TraitFlexibility map[string]int     `json:"trait_flexibility"`
	ExperienceImpact []ExperienceImpact `json:"experience_impact"`
	CoreStability    int                `json:"core_stability"`
	AdaptiveCapacity int                `json:"adaptive_capacity"`
	StressThreshold  int                `json:"stress_threshold"`
	RecoveryRate     int                `json:"recovery_rate"`
}

// MoralCompass.PrimaryValues is a log of value commentary, not a set.
type MoralCompass struct {
	Strength      int      `json:"strength"`
	Flexibility   int      `json:"flexibility"`
	PrimaryValues []string `json:"primary_values"`
}

type SocialIdentity struct {
	InGroupLoyalty    int `json:"in_group_loyalty"`
	OutGroupSuspicion int `json:"out_group_suspicion"`
	StatusConcern     int `json:"status_concern"`
	ReputationWeight  int `json:"reputation_weight"`
}

// DynamicPersonalityState is the full per-agent state. One value exists per
// agent per run and it is replaced, never mutated, each round.
type DynamicPersonalityState struct {
	EmotionalState         EmotionalState       `json:"emotional_state"`
	CulturalContext        CulturalContext      `json:"cultural_context"`
	SocialLearning         SocialLearning       `json:"social_learning"`
	PersonalityEvolution   PersonalityEvolution `json:"personality_evolution"`
	MoralCompass           MoralCompass         `json:"moral_compass"`
	SocialIdentity         SocialIdentity       `json:"social_identity"`
	MemoryNarrative        string               `json:"memory_narrative"`
	MoodInfluence          string               `json:"mood_influence"`
	PersonalityFluctuation string               `json:"personality_fluctuation"`
	PastEventInfluence     string               `json:"past_event_influence"`
	CognitiveBiases        []string             `json:"cognitive_biases"`
	CooperationCount       int                  `json:"cooperation_count"`
	DefectionCount         int                  `json:"defection_count"`
	LastMove               Move                 `json:"last_move,omitempty"` // empty before the first round
	EmotionVsLogicWeight   EmotionLogicWeight   `json:"emotion_vs_logic_weight"`
}

// Rounds is the number of moves the agent has made so far.
func (s DynamicPersonalityState) Rounds() int {
	return s.CooperationCount + s.DefectionCount
}

// CooperationRate is cooperations over moves made, 0 before any move.
func (s DynamicPersonalityState) CooperationRate() float64 {
	n := s.Rounds()
	if n == 0 {
		return 0
	}
	return float64(s.CooperationCount) / float64(n)
}

// Clone returns a deep copy; no slice or map is shared with s.
func (s DynamicPersonalityState) Clone() DynamicPersonalityState {
	out := s
	out.CulturalContext.SocialNorms = cloneStrings(s.CulturalContext.SocialNorms)
	if s.SocialLearning.ObservedStrategies != nil {
		out.SocialLearning.ObservedStrategies = append([]ObservedStrategy(nil), s.SocialLearning.ObservedStrategies...)
	}
	out.SocialLearning.StrategicRepertoire = cloneStrings(s.SocialLearning.StrategicRepertoire)
	out.PersonalityEvolution.BaselineTraits = cloneTraits(s.PersonalityEvolution.BaselineTraits)
	out.PersonalityEvolution.CurrentTraits = cloneTraits(s.PersonalityEvolution.CurrentTraits)
	out.PersonalityEvolution.TraitFlexibility = cloneTraits(s.PersonalityEvolution.TraitFlexibility)
	if s.PersonalityEvolution.ExperienceImpact != nil {
		impacts := make([]ExperienceImpact, len(s.PersonalityEvolution.ExperienceImpact))
		for i, imp := range s.PersonalityEvolution.ExperienceImpact {
			imp.TraitChanges = cloneTraits(imp.TraitChanges)
			impacts[i] = imp
		}
		out.PersonalityEvolution.ExperienceImpact = impacts
	}
	out.MoralCompass.PrimaryValues = cloneStrings(s.MoralCompass.PrimaryValues)
	out.CognitiveBiases = cloneStrings(s.CognitiveBiases)
	return out
}

func cloneTraits(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
