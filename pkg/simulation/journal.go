package simulation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/types"
)

// journalEntry is one JSONL line: either a round or the closing summary.
type journalEntry struct {
	Type    string             `json:"type"`
	Round   *types.RoundRecord `json:"round,omitempty"`
	Summary *Summary           `json:"summary,omitempty"`
}

const (
	entryRound   = "round"
	entrySummary = "summary"
)

// Journal is an Observer that appends every round, then the summary, to a
// JSONL file.
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	logger *zap.Logger
	err    error
}

// OpenJournal creates or truncates the journal at path.
func OpenJournal(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		logger: logger.With(zap.String("journal", path)),
	}, nil
}

func (j *Journal) write(e journalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	data, err := json.Marshal(e)
	if err == nil {
		_, err = j.writer.Write(append(data, '\n'))
	}
	if err == nil {
		err = j.writer.Flush()
	}
	if err != nil {
		j.err = fmt.Errorf("write journal: %w", err)
		j.logger.Error("journal write failed", zap.Error(err))
	}
}

// RoundCompleted appends one round.
func (j *Journal) RoundCompleted(ev RoundEvent) {
	j.write(journalEntry{Type: entryRound, Round: &ev.Record})
}

// RunFinished appends the summary line.
func (j *Journal) RunFinished(s Summary) {
	j.write(journalEntry{Type: entrySummary, Summary: &s})
}

// Err returns the first write failure, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Close flushes and closes the file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.writer.Flush()
	return j.file.Close()
}

// ReadJournal replays a journal. The summary is nil when the run never
// finished writing it.
func ReadJournal(path string) ([]types.RoundRecord, *Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var (
		records []types.RoundRecord
		summary *Summary
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e journalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		switch e.Type {
		case entryRound:
			if e.Round != nil {
				records = append(records, *e.Round)
			}
		case entrySummary:
			summary = e.Summary
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return records, summary, nil
}
