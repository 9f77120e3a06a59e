package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

func runOffline(t *testing.T, id string, rounds int) (simulation.Summary, *simulation.Orchestrator) {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.Rounds = rounds
	o, err := simulation.New(cfg, simulation.Options{ID: id, Generator: llm.NewOfflineProvider(llm.OfflineConfig{Seed: 2})})
	require.NoError(t, err)
	s, err := o.Run(context.Background())
	require.NoError(t, err)
	return s, o
}

func readJSON[T any](t *testing.T, path string) T {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestExport(t *testing.T) {
	root := t.TempDir()
	summary, o := runOffline(t, "r1", 4)

	m, err := Export(filepath.Join(root, "r1"), summary, o.Records())
	require.NoError(t, err)
	assert.Equal(t, 4, m.Rounds)
	assert.Equal(t, analyticsFile, m.AnalyticsPath)

	got := readJSON[Manifest](t, filepath.Join(root, "r1", manifestFile))
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, summary.Scores, got.Scores)

	cat := readJSON[AgentCatalog](t, filepath.Join(root, "r1", agentsFile))
	require.Len(t, cat.Agents, 2)
	assert.Equal(t, summary.Left, cat.Agents[0].ArchetypeID)
	assert.Equal(t, summary.Scores.Right, cat.Agents[1].Score)
	assert.NotEmpty(t, cat.Agents[0].BaselineTraits)

	report := readJSON[analytics.Report](t, filepath.Join(root, "r1", analyticsFile))
	assert.Equal(t, 4, report.Rounds)
}

func TestWriteJSONReplacesWithoutTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", summaryFile)

	require.NoError(t, writeJSON(path, map[string]int{"round": 1}))
	require.NoError(t, writeJSON(path, map[string]int{"round": 2}))

	got := readJSON[map[string]int](t, path)
	assert.Equal(t, 2, got["round"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, summaryFile, entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestExportSkipsAnalyticsForAbortedRun(t *testing.T) {
	dir := t.TempDir()
	m, err := Export(dir, simulation.Summary{RunID: "x", Status: simulation.StatusAborted}, nil)
	require.NoError(t, err)
	assert.Empty(t, m.AnalyticsPath)
	_, err = os.Stat(filepath.Join(dir, analyticsFile))
	assert.True(t, os.IsNotExist(err))

	cat := readJSON[AgentCatalog](t, filepath.Join(dir, agentsFile))
	assert.Empty(t, cat.Agents)
}

func TestWriteRunsIndex(t *testing.T) {
	root := t.TempDir()
	late := simulation.Summary{RunID: "late", Status: simulation.StatusCompleted, FinishedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	early := simulation.Summary{RunID: "early", Status: simulation.StatusAborted, FinishedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	_, err := Export(filepath.Join(root, "b"), late, nil)
	require.NoError(t, err)
	_, err = Export(filepath.Join(root, "a"), early, nil)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "stray"), 0755))

	idx, err := WriteRunsIndex(root)
	require.NoError(t, err)
	require.Len(t, idx.Runs, 2)
	assert.Equal(t, "early", idx.Runs[0].RunID)
	assert.Equal(t, "late", idx.Runs[1].RunID)
	assert.Equal(t, "b", idx.Runs[1].Dir)

	disk := readJSON[RunsIndex](t, filepath.Join(root, indexFile))
	assert.Len(t, disk.Runs, 2)
}
