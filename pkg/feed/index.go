package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

const indexFile = "index.json"

// Index describes an archive directory: its shards, oldest first, and where
// each archived run lives in them.
type Index struct {
	Version           int       `json:"version"`
	GeneratedAt       time.Time `json:"generated_at"`
	MaxEventsPerShard int       `json:"max_events_per_shard,omitempty"`
	Shards            []Shard   `json:"shards"`
	TotalEvents       int       `json:"total_events,omitempty"`
	Runs              []RunSpan `json:"runs,omitempty"`
}

// Shard is one JSONL file of the archive.
type Shard struct {
	Seq    int    `json:"seq"`
	File   string `json:"file"` // e.g. "events-000001.jsonl"
	Events int    `json:"events"`
}

// RunSpan locates one run's events. Runs interleave when several play at
// once, so a span may cover shards holding other runs too.
type RunSpan struct {
	RunID      string            `json:"run_id"`
	FirstShard int               `json:"first_shard"`
	LastShard  int               `json:"last_shard"`
	Rounds     int               `json:"rounds"`
	Status     simulation.Status `json:"status,omitempty"` // set once the run finished
}

// Run returns the span of runID, or nil.
func (idx *Index) Run(runID string) *RunSpan {
	i := slices.IndexFunc(idx.Runs, func(r RunSpan) bool { return r.RunID == runID })
	if i < 0 {
		return nil
	}
	return &idx.Runs[i]
}

// note accounts for e having been written to shard seq.
func (idx *Index) note(seq int, e Entry) {
	if e.RunID == "" {
		return
	}
	span := idx.Run(e.RunID)
	if span == nil {
		idx.Runs = append(idx.Runs, RunSpan{RunID: e.RunID, FirstShard: seq})
		span = &idx.Runs[len(idx.Runs)-1]
	}
	span.LastShard = seq
	switch {
	case e.Type == TypeRound:
		span.Rounds++
	case e.Type == TypeFinished && e.Summary != nil:
		span.Status = e.Summary.Status
	}
}

// shardsOf returns the shards a span covers.
func (idx *Index) shardsOf(span RunSpan) []Shard {
	var out []Shard
	for _, s := range idx.Shards {
		if s.Seq >= span.FirstShard && s.Seq <= span.LastShard {
			out = append(out, s)
		}
	}
	return out
}

func (idx *Index) total() int {
	n := 0
	for _, s := range idx.Shards {
		n += s.Events
	}
	return n
}

// LoadIndex reads an archive index.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, err
	}
	if idx.Version == 0 {
		idx.Version = 1
	}
	return idx, nil
}

// SaveIndexAtomic writes idx through a temp file and rename.
func SaveIndexAtomic(path string, idx *Index) error {
	if idx.Version <= 0 {
		idx.Version = 1
	}
	idx.GeneratedAt = time.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
