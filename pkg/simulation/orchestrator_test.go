package simulation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/cpunion/dilemma-lab/pkg/agent"
	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/protocol"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// scriptedGenerator answers by kind. decide receives the index of the
// decision call, 0 being the initial decision. failUpdate, when set, is
// consulted with the index of each state-update call, 0 being round 1's.
type scriptedGenerator struct {
	mu         sync.Mutex
	decisions  int
	updates    int
	decide     func(n int) (string, error)
	update     string
	failUpdate func(n int) error
	free      func(kind protocol.ResponseKind) (string, error)

	inflight    atomic.Int32
	maxInflight atomic.Int32
	delay       time.Duration
}

func constant(reply string) func(int) (string, error) {
	return func(int) (string, error) { return reply, nil }
}

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	for {
		m := g.maxInflight.Load()
		if n <= m || g.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	switch req.Kind {
	case protocol.KindDecision:
		g.mu.Lock()
		idx := g.decisions
		g.decisions++
		g.mu.Unlock()
		return g.decide(idx)
	case protocol.KindStateUpdate:
		g.mu.Lock()
		idx := g.updates
		g.updates++
		g.mu.Unlock()
		if g.failUpdate != nil {
			if err := g.failUpdate(idx); err != nil {
				return "", err
			}
		}
		return g.update, nil
	default:
		if g.free != nil {
			return g.free(req.Kind)
		}
		return "free text for " + string(req.Kind), nil
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	rounds   []int
	summary  []Summary
	lastEvts []RoundEvent
}

func (r *recordingObserver) RoundCompleted(ev RoundEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, ev.Round)
	r.lastEvts = append(r.lastEvts, ev)
}

func (r *recordingObserver) RunFinished(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = append(r.summary, s)
}

func testConfig(rounds int) Config {
	cfg := DefaultConfig()
	cfg.Rounds = rounds
	cfg.Topic = "shared fishing grounds"
	return cfg
}

func newTestRun(t *testing.T, cfg Config, left, right agent.Generator, observers ...Observer) *Orchestrator {
	t.Helper()
	o, err := New(cfg, Options{
		ID: "run-test",
		GeneratorForSide: func(side types.Side) agent.Generator {
			if side == types.Left {
				return left
			}
			return right
		},
		Logger:    zaptest.NewLogger(t),
		Observers: observers,
	})
	require.NoError(t, err)
	return o
}

func TestPayoffTable(t *testing.T) {
	cases := []struct {
		l, r   types.Move
		lp, rp int
	}{
		{types.Cooperate, types.Cooperate, 3, 3},
		{types.Cooperate, types.Defect, 0, 5},
		{types.Defect, types.Cooperate, 5, 0},
		{types.Defect, types.Defect, 1, 1},
	}
	for _, c := range cases {
		lp, rp := Payoff(c.l, c.r)
		assert.Equal(t, [2]int{c.lp, c.rp}, [2]int{lp, rp}, "%s/%s", c.l, c.r)
	}
	// Swapping roles swaps payoffs.
	for _, a := range []types.Move{types.Cooperate, types.Defect} {
		for _, b := range []types.Move{types.Cooperate, types.Defect} {
			x1, y1 := Payoff(a, b)
			y2, x2 := Payoff(b, a)
			assert.Equal(t, x1, x2)
			assert.Equal(t, y1, y2)
		}
	}
}

func TestRunMutualCooperation(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &scriptedGenerator{decide: constant("DECISION: C"), update: "TRUST: 5"}
	obs := &recordingObserver{}
	o := newTestRun(t, testConfig(5), gen, gen, obs)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, summary.Status)
	assert.Equal(t, types.Scores{Left: 15, Right: 15}, summary.Scores)
	assert.Equal(t, types.WinnerDraw, summary.Winner)
	assert.Equal(t, 5, summary.RoundsPlayed)
	assert.Nil(t, summary.Epilogue)

	records := o.Records()
	require.Len(t, records, 5)
	for i, r := range records {
		assert.Equal(t, i+1, r.Round)
		assert.True(t, r.Left.Cooperated)
		assert.True(t, r.Right.Cooperated)
		assert.Equal(t, 5, r.Left.Trust)
		assert.Equal(t, 5, r.Right.State.EmotionalState.Trust)
		assert.Equal(t, 3*(i+1), r.Left.Score)
		assert.Equal(t, i+1, r.Left.State.CooperationCount)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, obs.rounds)
	require.Len(t, obs.summary, 1)
	assert.Equal(t, StatusCompleted, obs.summary[0].Status)
	assert.Equal(t, types.Scores{Left: 6, Right: 6}, obs.lastEvts[1].Scores)

	select {
	case <-o.Done():
	default:
		t.Fatal("Done not closed after Run")
	}
}

func TestRunDefectorAgainstCooperator(t *testing.T) {
	defer goleak.VerifyNone(t)

	defector := &scriptedGenerator{decide: constant("DECISION: D"), update: "TRUST: -2"}
	cooperator := &scriptedGenerator{decide: constant("DECISION: C"), update: "TRUST: 1"}
	o := newTestRun(t, testConfig(3), defector, cooperator)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Scores{Left: 15, Right: 0}, summary.Scores)
	assert.Equal(t, types.WinnerLeft, summary.Winner)

	left := o.State(types.Left)
	assert.Equal(t, 0, left.CooperationCount)
	assert.Equal(t, 3, left.DefectionCount)
	assert.Equal(t, types.Defect, left.LastMove)

	right := o.State(types.Right)
	assert.Equal(t, 3, right.CooperationCount)
	assert.Equal(t, 0, right.DefectionCount)
}

func TestRunAbortsOnMalformedDecision(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Decision index 3 is round 3 (index 0 is the initial decision).
	left := &scriptedGenerator{
		decide: func(n int) (string, error) {
			if n == 3 {
				return "REASONING: I will not say", nil
			}
			return "DECISION: C", nil
		},
		update: "TRUST: 5",
	}
	right := &scriptedGenerator{decide: constant("DECISION: C"), update: "TRUST: 5"}
	obs := &recordingObserver{}
	o := newTestRun(t, testConfig(5), left, right, obs)

	summary, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, protocol.ErrMalformedDecision))
	assert.Equal(t, StatusAborted, o.Status())
	assert.Equal(t, StatusAborted, summary.Status)
	assert.Equal(t, 2, summary.RoundsPlayed)
	assert.NotEmpty(t, summary.Error)
	assert.Equal(t, types.WinnerDraw, summary.Winner)

	records := o.Records()
	require.Len(t, records, 2)
	for i, r := range records {
		assert.Equal(t, i+1, r.Round)
		assert.Equal(t, 5, r.Left.Trust)
		assert.Equal(t, 3*(i+1), r.Right.Score)
	}
	assert.Equal(t, []int{1, 2}, obs.rounds)
	require.Len(t, obs.summary, 1)
	assert.Equal(t, StatusAborted, obs.summary[0].Status)
}

func TestRunAbortsOnBackendFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	broken := &scriptedGenerator{decide: func(int) (string, error) { return "", errors.New("dial tcp: refused") }}
	fine := &scriptedGenerator{decide: constant("DECISION: C"), update: "TRUST: 1"}
	o := newTestRun(t, testConfig(3), fine, broken)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrBackendUnavailable))
	assert.Empty(t, o.Records())
	assert.Equal(t, StatusAborted, o.Status())
	assert.Equal(t, err, o.Err())
}

func TestRunAbortsOnStateUpdateFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	cooperator := &scriptedGenerator{decide: constant("DECISION: C"), update: "TRUST: 4"}
	defector := &scriptedGenerator{
		decide: constant("DECISION: D"),
		update: "TRUST: 6",
		failUpdate: func(n int) error {
			if n == 2 {
				return errors.New("connection reset by peer")
			}
			return nil
		},
	}
	obs := &recordingObserver{}
	o := newTestRun(t, testConfig(5), cooperator, defector, obs)

	summary, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrBackendUnavailable)
	assert.Equal(t, StatusAborted, o.Status())
	assert.Equal(t, StatusAborted, summary.Status)
	assert.Equal(t, 2, summary.RoundsPlayed)

	// Round 3's payoff never lands.
	assert.Equal(t, types.Scores{Left: 0, Right: 10}, o.Scores())
	assert.Equal(t, types.Scores{Left: 0, Right: 10}, summary.Scores)

	records := o.Records()
	require.Len(t, records, 2)
	for i, r := range records {
		assert.Equal(t, i+1, r.Round)
		assert.Equal(t, 4, r.Left.Trust)
		assert.Equal(t, 6, r.Right.Trust)
		assert.Equal(t, 5*(i+1), r.Right.Score)
	}
	assert.Equal(t, []int{1, 2}, obs.rounds)
}

func TestRunTwice(t *testing.T) {
	gen := &scriptedGenerator{decide: constant("DECISION: C"), update: ""}
	o := newTestRun(t, testConfig(1), gen, gen)
	_, err := o.Run(context.Background())
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestRunFansOutInPairs(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &scriptedGenerator{decide: constant("DECISION: D"), update: "TRUST: 0", delay: 20 * time.Millisecond}
	o := newTestRun(t, testConfig(2), gen, gen)
	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), gen.maxInflight.Load())
}

func TestRunEpilogue(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &scriptedGenerator{
		decide: constant("DECISION: C"),
		update: "TRUST: 2",
		free: func(kind protocol.ResponseKind) (string, error) {
			if kind == protocol.KindNarrative {
				return "", errors.New("quota exceeded")
			}
			return "I trusted too slowly.", nil
		},
	}
	cfg := testConfig(2)
	cfg.Epilogue = true
	o := newTestRun(t, cfg, gen, gen)

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, summary.Status)
	require.NotNil(t, summary.Epilogue)
	assert.Equal(t, "I trusted too slowly.", summary.Epilogue.Left.MetaReflection)
	assert.Equal(t, "I trusted too slowly.", summary.Epilogue.Right.MetaReflection)
	assert.Contains(t, summary.Epilogue.Left.NarrativeError, "quota exceeded")
	assert.Empty(t, summary.Epilogue.Right.Narrative)
}

func TestRunWithOfflineProvider(t *testing.T) {
	defer goleak.VerifyNone(t)

	provider := llm.NewOfflineProvider(llm.OfflineConfig{Seed: 3})
	cfg := testConfig(10)
	cfg.Left, cfg.Right = archetype.Skeptic, archetype.Altruist
	o, err := New(cfg, Options{Generator: provider, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID())

	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.RoundsPlayed)

	left, right := 0, 0
	for _, r := range o.Records() {
		lp, rp := Payoff(r.Left.Message.Move, r.Right.Message.Move)
		left += lp
		right += rp
	}
	assert.Equal(t, types.Scores{Left: left, Right: right}, summary.Scores)
}

func TestRecordsAreSnapshots(t *testing.T) {
	gen := &scriptedGenerator{decide: constant("DECISION: C\nBIASES: anchoring"), update: "MORAL_COMPASS_SHIFT: honesty"}
	o := newTestRun(t, testConfig(2), gen, gen)
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	first := o.Records()
	first[0].Left.Message.Biases[0] = "tampered"
	first[0].Left.State.MoralCompass.PrimaryValues[0] = "tampered"

	again := o.Records()
	assert.Equal(t, "anchoring", again[0].Left.Message.Biases[0])
	assert.Equal(t, "honesty", again[0].Left.State.MoralCompass.PrimaryValues[0])
	assert.Len(t, again[1].Left.State.MoralCompass.PrimaryValues, 2)
	assert.Len(t, again[0].Left.State.MoralCompass.PrimaryValues, 1)
}

func TestNewRejectsBadConfig(t *testing.T) {
	gen := &scriptedGenerator{}
	cfg := testConfig(0)
	_, err := New(cfg, Options{Generator: gen})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig(3)
	cfg.Right = "zealot"
	_, err = New(cfg, Options{Generator: gen})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, archetype.ErrUnknownArchetype)

	_, err = New(testConfig(3), Options{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestJournalReplay(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "runs", "replay.jsonl")
	journal, err := OpenJournal(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	gen := llm.NewOfflineProvider(llm.OfflineConfig{Seed: 11})
	o, err := New(testConfig(4), Options{Generator: gen, Observers: []Observer{journal}})
	require.NoError(t, err)
	summary, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, journal.Err())
	require.NoError(t, journal.Close())

	records, replayed, err := ReadJournal(path)
	require.NoError(t, err)
	if diff := cmp.Diff(o.Records(), records, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("journal differs from memory (-want +got):\n%s", diff)
	}
	require.NotNil(t, replayed)
	assert.Equal(t, summary.RunID, replayed.RunID)
	assert.Equal(t, summary.Scores, replayed.Scores)
	assert.Equal(t, summary.Winner, replayed.Winner)
	assert.Equal(t, StatusCompleted, replayed.Status)
}

func TestObserverFunc(t *testing.T) {
	var got []int
	gen := &scriptedGenerator{decide: constant("DECISION: D"), update: "TRUST: 0"}
	o := newTestRun(t, testConfig(3), gen, gen)
	o.AddObserver(ObserverFunc(func(ev RoundEvent) { got = append(got, ev.Round) }))
	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}
