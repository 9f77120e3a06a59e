package simulation

import (
	"time"

	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// RoundEvent is published once per completed round, in round order.
type RoundEvent struct {
	RunID  string            `json:"run_id"`
	Round  int               `json:"round"`
	Scores types.Scores      `json:"scores"`
	Record types.RoundRecord `json:"record"`
}

func (e RoundEvent) clone() RoundEvent {
	e.Record = e.Record.Clone()
	return e
}

// AgentEpilogue holds one agent's closing texts.
type AgentEpilogue struct {
	Narrative           string `json:"narrative,omitempty"`
	NarrativeError      string `json:"narrative_error,omitempty"`
	MetaReflection      string `json:"meta_reflection,omitempty"`
	MetaReflectionError string `json:"meta_reflection_error,omitempty"`
}

// Epilogue is produced after a completed run when enabled.
type Epilogue struct {
	Left  AgentEpilogue `json:"left"`
	Right AgentEpilogue `json:"right"`
}

// Summary describes a finished (or in-progress) run.
type Summary struct {
	RunID         string       `json:"run_id"`
	Left          archetype.ID `json:"left"`
	Right         archetype.ID `json:"right"`
	Topic         string       `json:"topic,omitempty"`
	Status        Status       `json:"status"`
	RoundsPlanned int          `json:"rounds_planned"`
	RoundsPlayed  int          `json:"rounds_played"`
	Scores        types.Scores `json:"scores"`
	Winner        types.Winner `json:"winner,omitempty"` // set once terminal
	Error         string       `json:"error,omitempty"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Epilogue      *Epilogue    `json:"epilogue,omitempty"`
}

// Observer receives progress from an Orchestrator. Calls happen on the run
// goroutine, so a slow observer delays the next round.
type Observer interface {
	RoundCompleted(RoundEvent)
	RunFinished(Summary)
}

// ObserverFunc adapts a function to an Observer that ignores RunFinished.
type ObserverFunc func(RoundEvent)

func (f ObserverFunc) RoundCompleted(ev RoundEvent) { f(ev) }
func (f ObserverFunc) RunFinished(Summary)          {}
