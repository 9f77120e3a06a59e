package site

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

const (
	manifestFile  = "manifest.json"
	summaryFile   = "summary.json"
	agentsFile    = "agents.json"
	roundsFile    = "rounds.json"
	analyticsFile = "analytics.json"
	indexFile     = "index.json"
)

// writeJSON replaces path through a temp file in the same directory, so a
// viewer polling the export never reads a half-written file.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Export writes one run into dir. Analytics are only written for completed
// runs.
func Export(dir string, summary simulation.Summary, records []types.RoundRecord) (*Manifest, error) {
	now := time.Now()
	if records == nil {
		records = []types.RoundRecord{}
	}

	m := &Manifest{
		Version:     1,
		GeneratedAt: now,
		RunID:       summary.RunID,
		Topic:       summary.Topic,
		Status:      summary.Status,
		Winner:      summary.Winner,
		Scores:      summary.Scores,
		Rounds:      len(records),
		SummaryPath: summaryFile,
		AgentsPath:  agentsFile,
		RoundsPath:  roundsFile,
	}

	if err := writeJSON(filepath.Join(dir, summaryFile), summary); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(dir, agentsFile), catalog(now, summary, records)); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(dir, roundsFile), records); err != nil {
		return nil, err
	}
	if summary.Status == simulation.StatusCompleted {
		report := analytics.Analyze(records, summary.RoundsPlanned)
		if err := writeJSON(filepath.Join(dir, analyticsFile), report); err != nil {
			return nil, err
		}
		m.AnalyticsPath = analyticsFile
	}
	if err := writeJSON(filepath.Join(dir, manifestFile), m); err != nil {
		return nil, err
	}
	return m, nil
}

func catalog(now time.Time, summary simulation.Summary, records []types.RoundRecord) AgentCatalog {
	cat := AgentCatalog{Version: 1, GeneratedAt: now, Agents: []Agent{}}
	ids := map[types.Side]archetype.ID{types.Left: summary.Left, types.Right: summary.Right}
	for _, side := range types.Sides {
		a, err := archetype.Lookup(ids[side])
		if err != nil {
			continue
		}
		agent := Agent{
			Side:            side,
			ArchetypeID:     a.ID,
			Label:           a.Label,
			Persona:         a.Persona,
			CorePersonality: a.Profile.CorePersonality,
			BaselineTraits:  a.Seeds.Evolution.BaselineTraits,
			Score:           summary.Scores.Of(side),
		}
		if n := len(records); n > 0 {
			state := records[n-1].Agent(side).State
			agent.FinalTraits = state.PersonalityEvolution.CurrentTraits
			agent.CooperationRate = state.CooperationRate()
		}
		cat.Agents = append(cat.Agents, agent)
	}
	return cat
}

// WriteRunsIndex scans root for exported runs and writes root/index.json,
// oldest run first.
func WriteRunsIndex(root string) (*RunsIndex, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	idx := &RunsIndex{Version: 1, GeneratedAt: time.Now(), Runs: []RunEntry{}}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := simulation.LoadSummary(filepath.Join(root, e.Name(), summaryFile))
		if err != nil {
			continue
		}
		idx.Runs = append(idx.Runs, RunEntry{
			RunID:      s.RunID,
			Dir:        e.Name(),
			Status:     s.Status,
			Winner:     s.Winner,
			FinishedAt: s.FinishedAt,
		})
	}
	sort.Slice(idx.Runs, func(i, j int) bool {
		a, b := idx.Runs[i], idx.Runs[j]
		if !a.FinishedAt.Equal(b.FinishedAt) {
			return a.FinishedAt.Before(b.FinishedAt)
		}
		return a.RunID < b.RunID
	})
	if err := writeJSON(filepath.Join(root, indexFile), idx); err != nil {
		return nil, err
	}
	return idx, nil
}
