// Package types defines core types for the dilemma simulation.
package types

// Move is an agent's choice for one round.
type Move string

const (
	Cooperate Move = "C"
	Defect    Move = "D"
)

// Valid reports whether m is one of the two recognised moves.
func (m Move) Valid() bool {
	return m == Cooperate || m == Defect
}

// Verb returns "cooperate" or "defect".
func (m Move) Verb() string {
	if m == Cooperate {
		return "cooperate"
	}
	return "defect"
}

// Past returns "cooperated" or "defected".
func (m Move) Past() string {
	if m == Cooperate {
		return "cooperated"
	}
	return "defected"
}

// Side identifies one of the two seats at the table.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Sides lists both seats in a stable order.
var Sides = [2]Side{Left, Right}

// Outcome classifies a round from one agent's point of view.
type Outcome string

const (
	OutcomeMutualCooperation Outcome = "mutual cooperation"
	OutcomeMutualDefection   Outcome = "mutual defection"
	OutcomeBetrayed          Outcome = "you were betrayed"
	OutcomeBetrayer          Outcome = "you betrayed them"
)

// OutcomeFor returns the outcome seen by the agent that played mine.
func OutcomeFor(mine, theirs Move) Outcome {
	switch {
	case mine == Cooperate && theirs == Cooperate:
		return OutcomeMutualCooperation
	case mine == Defect && theirs == Defect:
		return OutcomeMutualDefection
	case mine == Cooperate && theirs == Defect:
		return OutcomeBetrayed
	default:
		return OutcomeBetrayer
	}
}

// Scores holds cumulative points per side.
type Scores struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Of returns the score for one side.
func (s Scores) Of(side Side) int {
	if side == Left {
		return s.Left
	}
	return s.Right
}

// Winner is the final label derived from cumulative scores.
type Winner string

const (
	WinnerLeft  Winner = "Left"
	WinnerRight Winner = "Right"
	WinnerDraw  Winner = "Draw"
)

// WinnerOf compares cumulative scores; equal scores are a draw.
func WinnerOf(s Scores) Winner {
	switch {
	case s.Left > s.Right:
		return WinnerLeft
	case s.Right > s.Left:
		return WinnerRight
	default:
		return WinnerDraw
	}
}

// EmotionLogicWeight splits a decision between emotion and logic.
// The two values are meant to sum to 100 but nothing enforces it.
type EmotionLogicWeight struct {
	Emotion int `json:"emotion"`
	Logic   int `json:"logic"`
}

// AgentMessage is what an agent said alongside its move in one round.
type AgentMessage struct {
	Move                  Move               `json:"move"`
	Decision              string             `json:"decision"` // human readable, e.g. "Round 3: cooperated"
	Reasoning             string             `json:"reasoning"`
	MoralReasoning        string             `json:"moral_reasoning"`
	Reflection            string             `json:"reflection"`
	Biases                []string           `json:"biases"`
	EmotionLogic          EmotionLogicWeight `json:"emotion_logic"`
	Emotions              EmotionalState     `json:"emotions"` // as reported with the decision
	CulturalInfluence     string             `json:"cultural_influence,omitempty"`
	SocialLearningInsight string             `json:"social_learning_insight,omitempty"`
	PersonalityEvolution  string             `json:"personality_evolution,omitempty"`
}

// Clone returns a copy that shares no slices with m.
func (m AgentMessage) Clone() AgentMessage {
	out := m
	out.Biases = cloneStrings(m.Biases)
	return out
}

// AgentRound is the per-side half of a RoundRecord.
type AgentRound struct {
	Trust        int                     `json:"trust"`
	Hope         int                     `json:"hope"`
	Anxiety      int                     `json:"anxiety"`
	Cooperated   bool                    `json:"cooperated"`
	EmotionWeigh int                     `json:"emotion_weight"`
	Message      AgentMessage            `json:"message"`
	Score        int                     `json:"score"`
	State        DynamicPersonalityState `json:"state"`
}

// RoundRecord is the immutable snapshot of one completed round.
type RoundRecord struct {
	Round int        `json:"round"`
	Left  AgentRound `json:"left"`
	Right AgentRound `json:"right"`
}

// Agent returns the half of the record belonging to side.
func (r RoundRecord) Agent(side Side) AgentRound {
	if side == Left {
		return r.Left
	}
	return r.Right
}

// Clone deep-copies the record.
func (r RoundRecord) Clone() RoundRecord {
	out := r
	out.Left = r.Left.clone()
	out.Right = r.Right.clone()
	return out
}

func (a AgentRound) clone() AgentRound {
	out := a
	out.Message = a.Message.Clone()
	out.State = a.State.Clone()
	return out
}

// NewAgentRound denormalises the fields analytics reads most often.
func NewAgentRound(move Move, msg AgentMessage, score int, state DynamicPersonalityState) AgentRound {
	return AgentRound{
		Trust:        state.EmotionalState.Trust,
		Hope:         state.EmotionalState.Hope,
		Anxiety:      state.EmotionalState.Anxiety,
		Cooperated:   move == Cooperate,
		EmotionWeigh: state.EmotionVsLogicWeight.Emotion,
		Message:      msg.Clone(),
		Score:        score,
		State:        state.Clone(),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
