// Package site exports finished runs as static JSON files that a static
// viewer can load without a server API.
package site

import (
	"time"

	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// Manifest is manifest.json at the root of one exported run.
type Manifest struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`

	RunID  string            `json:"run_id"`
	Topic  string            `json:"topic,omitempty"`
	Status simulation.Status `json:"status"`
	Winner types.Winner      `json:"winner,omitempty"`
	Scores types.Scores      `json:"scores"`
	Rounds int               `json:"rounds"`

	// Relative paths, anchored at the directory holding this file.
	SummaryPath   string `json:"summary_path"`
	AgentsPath    string `json:"agents_path"`
	RoundsPath    string `json:"rounds_path"`
	AnalyticsPath string `json:"analytics_path,omitempty"` // completed runs only
}

// AgentCatalog lists both players with what the viewer shows next to them.
type AgentCatalog struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Agents      []Agent   `json:"agents"`
}

// Agent mirrors the fields a viewer needs for one side.
type Agent struct {
	Side            types.Side     `json:"side"`
	ArchetypeID     archetype.ID   `json:"archetype_id"`
	Label           string         `json:"label"`
	Persona         string         `json:"persona"`
	CorePersonality string         `json:"core_personality"`
	BaselineTraits  map[string]int `json:"baseline_traits,omitempty"`
	FinalTraits     map[string]int `json:"final_traits,omitempty"`
	Score           int            `json:"score"`
	CooperationRate float64        `json:"cooperation_rate"`
}

// RunsIndex is index.json at the export root, listing every exported run.
type RunsIndex struct {
	Version     int        `json:"version"`
	GeneratedAt time.Time  `json:"generated_at"`
	Runs        []RunEntry `json:"runs"`
}

// RunEntry points at one run directory.
type RunEntry struct {
	RunID      string            `json:"run_id"`
	Dir        string            `json:"dir"`
	Status     simulation.Status `json:"status"`
	Winner     types.Winner      `json:"winner,omitempty"`
	FinishedAt time.Time         `json:"finished_at"`
}
