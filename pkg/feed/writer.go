// Package feed archives the events of many runs into size-capped JSONL
// shards with an index.json manifest.
package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

// ErrUnknownRun is returned by ReadRun for a run the archive never saw.
var ErrUnknownRun = errors.New("run not archived")

// DefaultMaxEventsPerShard caps a shard when the config leaves it at zero.
const DefaultMaxEventsPerShard = 200

// Entry is one archived line.
type Entry struct {
	RunID   string                 `json:"run_id"`
	Type    string                 `json:"type"` // "round" | "finished"
	Time    time.Time              `json:"time"`
	Round   *simulation.RoundEvent `json:"round,omitempty"`
	Summary *simulation.Summary    `json:"summary,omitempty"`
}

const (
	TypeRound    = "round"
	TypeFinished = "finished"
)

// Config configures a Writer.
type Config struct {
	Dir               string
	MaxEventsPerShard int
	// Append resumes an existing feed instead of starting over.
	Append bool
	Logger *zap.Logger
}

// Writer appends entries to the newest shard, rotating when it is full.
// It is a simulation.Observer, so one Writer can archive every run of a
// server.
type Writer struct {
	mu        sync.Mutex
	dir       string
	indexPath string
	max       int
	idx       *Index
	logger    *zap.Logger

	file   *os.File
	buf    *bufio.Writer
	seq    int
	events int
}

// Open prepares dir and the shard to append to.
func Open(cfg Config) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, errors.New("feed dir is required")
	}
	if cfg.MaxEventsPerShard <= 0 {
		cfg.MaxEventsPerShard = DefaultMaxEventsPerShard
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}
	if !cfg.Append {
		if err := removeShards(cfg.Dir); err != nil {
			return nil, err
		}
	}

	w := &Writer{
		dir:       cfg.Dir,
		indexPath: filepath.Join(cfg.Dir, indexFile),
		max:       cfg.MaxEventsPerShard,
		idx:       &Index{Version: 1, MaxEventsPerShard: cfg.MaxEventsPerShard},
		logger:    cfg.Logger.With(zap.String("feed", cfg.Dir)),
	}
	if cfg.Append {
		if idx, err := LoadIndex(w.indexPath); err == nil {
			w.idx = idx
		} else if seqs := shardSeqs(cfg.Dir); len(seqs) > 0 {
			w.idx = rebuildIndex(cfg.Dir, seqs, cfg.MaxEventsPerShard)
		}
		if w.idx.MaxEventsPerShard == 0 {
			w.idx.MaxEventsPerShard = cfg.MaxEventsPerShard
		}
		w.idx.TotalEvents = max(w.idx.TotalEvents, w.idx.total())
	}

	if n := len(w.idx.Shards); n > 0 {
		last := w.idx.Shards[n-1]
		if err := w.openShard(last.Seq, last.Events); err != nil {
			return nil, err
		}
		return w, nil
	}
	if err := w.openShard(1, 0); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openShard(seq, events int) error {
	if w.buf != nil {
		_ = w.buf.Flush()
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	name := shardFileName(seq)
	f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.file, w.buf, w.seq, w.events = f, bufio.NewWriter(f), seq, events

	if n := len(w.idx.Shards); n == 0 || w.idx.Shards[n-1].Seq != seq {
		w.idx.Shards = append(w.idx.Shards, Shard{Seq: seq, File: name})
	}
	return SaveIndexAtomic(w.indexPath, w.idx)
}

// Append writes one entry and updates the index.
func (w *Writer) Append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return errors.New("feed writer closed")
	}
	// Rotate only when about to write into a full shard, so the index never
	// lists an empty trailing shard.
	if w.events >= w.max {
		if err := w.openShard(w.seq+1, 0); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(append(data, '\n')); err != nil {
		return err
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}

	w.events++
	w.idx.TotalEvents++
	w.idx.Shards[len(w.idx.Shards)-1].Events = w.events
	w.idx.note(w.seq, e)
	return SaveIndexAtomic(w.indexPath, w.idx)
}

func (w *Writer) record(e Entry) {
	e.Time = time.Now()
	if err := w.Append(e); err != nil {
		w.logger.Error("feed append failed", zap.String("run_id", e.RunID), zap.Error(err))
	}
}

// RoundCompleted archives a round event.
func (w *Writer) RoundCompleted(ev simulation.RoundEvent) {
	w.record(Entry{RunID: ev.RunID, Type: TypeRound, Round: &ev})
}

// RunFinished archives a run summary.
func (w *Writer) RunFinished(s simulation.Summary) {
	w.record(Entry{RunID: s.RunID, Type: TypeFinished, Summary: &s})
}

// Close flushes the current shard and saves the index.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return nil
	}
	err := w.buf.Flush()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.buf, w.file = nil, nil
	if serr := SaveIndexAtomic(w.indexPath, w.idx); err == nil {
		err = serr
	}
	return err
}

// ReadRun replays one run's rounds and summary from the shards its span
// covers. It returns ErrUnknownRun when the index has no such run.
func ReadRun(dir, runID string) ([]simulation.RoundEvent, *simulation.Summary, error) {
	idx, err := LoadIndex(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, nil, err
	}
	span := idx.Run(runID)
	if span == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	var (
		rounds  []simulation.RoundEvent
		summary *simulation.Summary
	)
	for _, s := range idx.shardsOf(*span) {
		err := scanShard(filepath.Join(dir, s.File), func(e Entry) {
			if e.RunID != runID {
				return
			}
			switch {
			case e.Type == TypeRound && e.Round != nil:
				rounds = append(rounds, *e.Round)
			case e.Type == TypeFinished && e.Summary != nil:
				summary = e.Summary
			}
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return rounds, summary, nil
}

func scanShard(path string, fn func(Entry)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 32*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		fn(e)
	}
	return scanner.Err()
}

func shardFileName(seq int) string {
	return fmt.Sprintf("events-%06d.jsonl", seq)
}

// parseShardSeq returns 123 for "events-000123.jsonl", 0 otherwise.
func parseShardSeq(name string) int {
	if !strings.HasPrefix(name, "events-") || !strings.HasSuffix(name, ".jsonl") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "events-"), ".jsonl"))
	if err != nil {
		return 0
	}
	return n
}

func shardSeqs(dir string) []int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var seqs []int
	for _, e := range entries {
		if seq := parseShardSeq(e.Name()); seq > 0 && !e.IsDir() {
			seqs = append(seqs, seq)
		}
	}
	sort.Ints(seqs)
	return seqs
}

func removeShards(dir string) error {
	for _, seq := range shardSeqs(dir) {
		if err := os.Remove(filepath.Join(dir, shardFileName(seq))); err != nil {
			return err
		}
	}
	err := os.Remove(filepath.Join(dir, indexFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// rebuildIndex recovers a lost index.json by scanning the shards on disk.
func rebuildIndex(dir string, seqs []int, maxEvents int) *Index {
	idx := &Index{Version: 1, MaxEventsPerShard: maxEvents}
	for _, seq := range seqs {
		name := shardFileName(seq)
		n := 0
		_ = scanShard(filepath.Join(dir, name), func(e Entry) {
			n++
			idx.note(seq, e)
		})
		idx.Shards = append(idx.Shards, Shard{Seq: seq, File: name, Events: n})
	}
	idx.TotalEvents = idx.total()
	return idx
}
