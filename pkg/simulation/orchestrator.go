// Package simulation runs the repeated prisoner's dilemma between two agents.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cpunion/dilemma-lab/pkg/agent"
	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/protocol"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// ErrAlreadyStarted is returned when Run is called twice.
var ErrAlreadyStarted = errors.New("run already started")

// Status is the run lifecycle state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Terminal reports whether the run has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Payoff returns the points for the left and right moves.
func Payoff(left, right types.Move) (int, int) {
	switch {
	case left == types.Cooperate && right == types.Cooperate:
		return 3, 3
	case left == types.Cooperate && right == types.Defect:
		return 0, 5
	case left == types.Defect && right == types.Cooperate:
		return 5, 0
	default:
		return 1, 1
	}
}

// Options wires an Orchestrator to its collaborators.
type Options struct {
	// ID names the run. Empty means a fresh uuid.
	ID string
	// Generator serves both sides unless GeneratorForSide returns non-nil.
	Generator        agent.Generator
	GeneratorForSide func(types.Side) agent.Generator
	Logger           *zap.Logger
	Observers        []Observer
}

// Orchestrator drives one run. Rounds are strictly sequential; within a
// round the two decision calls, and then the two update calls, run
// concurrently.
type Orchestrator struct {
	id         string
	cfg        Config
	archetypes [2]*archetype.Archetype
	clients    [2]*agent.Client
	updater    agent.StateUpdater
	logger     *zap.Logger

	mu        sync.RWMutex
	observers []Observer
	status    Status
	records   []types.RoundRecord
	states    [2]types.DynamicPersonalityState
	scores    types.Scores
	err       error
	epilogue  *Epilogue
	started   time.Time
	finished  time.Time
	done      chan struct{}
}

// New validates cfg and prepares an idle run.
func New(cfg Config, opts Options) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	left, _ := archetype.Lookup(cfg.Left)
	right, _ := archetype.Lookup(cfg.Right)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	logger = logger.With(zap.String("run_id", id))

	o := &Orchestrator{
		id:         id,
		cfg:        cfg,
		archetypes: [2]*archetype.Archetype{left, right},
		updater:    cfg.Updater(),
		logger:     logger,
		observers:  append([]Observer(nil), opts.Observers...),
		status:     StatusIdle,
		done:       make(chan struct{}),
	}
	for i, side := range types.Sides {
		gen := opts.Generator
		if opts.GeneratorForSide != nil {
			if g := opts.GeneratorForSide(side); g != nil {
				gen = g
			}
		}
		if gen == nil {
			return nil, fmt.Errorf("%w: no generator for %s", ErrInvalidConfig, side)
		}
		o.clients[i] = agent.NewClient(gen, logger.With(zap.String("side", string(side))))
	}
	return o, nil
}

// AddObserver registers obs. Observers added after Run starts may miss
// earlier rounds.
func (o *Orchestrator) AddObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// Run plays every round and returns the final summary. On a backend
// failure or malformed decision the run aborts; rounds finished before the
// failure stay available.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	o.mu.Lock()
	if o.status != StatusIdle {
		o.mu.Unlock()
		return Summary{}, ErrAlreadyStarted
	}
	o.status = StatusRunning
	o.started = time.Now()
	o.mu.Unlock()

	o.logger.Info("run started",
		zap.String("left", string(o.cfg.Left)),
		zap.String("right", string(o.cfg.Right)),
		zap.Int("rounds", o.cfg.Rounds))

	if err := o.initialise(ctx); err != nil {
		return o.abort(0, err)
	}
	for round := 1; round <= o.cfg.Rounds; round++ {
		if err := o.playRound(ctx, round); err != nil {
			return o.abort(round, err)
		}
	}

	var epilogue *Epilogue
	if o.cfg.Epilogue {
		epilogue = o.runEpilogue(ctx)
	}
	return o.finish(StatusCompleted, nil, epilogue), nil
}

// pair runs fn for both sides concurrently and waits for both.
func pair[T any](ctx context.Context, fn func(ctx context.Context, i int, side types.Side) (T, error)) ([2]T, error) {
	var out [2]T
	g, ctx := errgroup.WithContext(ctx)
	for i, side := range types.Sides {
		g.Go(func() error {
			v, err := fn(ctx, i, side)
			if err != nil {
				return fmt.Errorf("%s: %w", side, err)
			}
			out[i] = v
			return nil
		})
	}
	return out, g.Wait()
}

func (o *Orchestrator) initialise(ctx context.Context) error {
	decisions, err := pair(ctx, func(ctx context.Context, i int, side types.Side) (protocol.Decision, error) {
		return o.clients[i].RequestDecision(ctx, agent.DecisionPrompt(agent.DecisionInput{
			Archetype: o.archetypes[i],
			State:     agent.Seed(o.archetypes[i]),
			Side:      side,
			Round:     0,
			Topic:     o.cfg.Topic,
		}))
	})
	if err != nil {
		return fmt.Errorf("initial decision: %w", err)
	}

	o.mu.Lock()
	for i := range types.Sides {
		o.states[i] = o.updater.InitialState(o.archetypes[i], decisions[i])
	}
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) playRound(ctx context.Context, round int) error {
	// Only this goroutine writes states and records, so reading them
	// without the lock is safe here.
	states := o.states
	history := o.records

	decisions, err := pair(ctx, func(ctx context.Context, i int, side types.Side) (protocol.Decision, error) {
		return o.clients[i].RequestDecision(ctx, agent.DecisionPrompt(agent.DecisionInput{
			Archetype: o.archetypes[i],
			State:     states[i],
			Side:      side,
			Round:     round,
			Topic:     o.cfg.Topic,
			History:   history,
		}))
	})
	if err != nil {
		return fmt.Errorf("decision: %w", err)
	}

	moves := [2]types.Move{decisions[0].Move, decisions[1].Move}
	lp, rp := Payoff(moves[0], moves[1])
	scores := types.Scores{Left: o.scores.Left + lp, Right: o.scores.Right + rp}

	for i := range types.Sides {
		states[i] = agent.ApplyDecision(states[i], decisions[i])
	}

	updates, err := pair(ctx, func(ctx context.Context, i int, side types.Side) (protocol.Fields, error) {
		return o.clients[i].RequestStateUpdate(ctx,
			agent.StateUpdatePrompt(o.archetypes[i], states[i], round, moves[i], moves[1-i]))
	})
	if err != nil {
		return fmt.Errorf("state update: %w", err)
	}
	for i := range types.Sides {
		states[i] = o.updater.Merge(states[i], updates[i])
	}

	var halves [2]types.AgentRound
	for i := range types.Sides {
		halves[i] = types.NewAgentRound(moves[i], message(round, decisions[i]), scores.Of(types.Sides[i]), states[i])
	}
	record := types.RoundRecord{Round: round, Left: halves[0], Right: halves[1]}

	o.mu.Lock()
	o.states = states
	o.scores = scores
	o.records = append(o.records, record)
	observers := append([]Observer(nil), o.observers...)
	o.mu.Unlock()

	o.logger.Info("round completed",
		zap.Int("round", round),
		zap.String("left_move", string(moves[0])),
		zap.String("right_move", string(moves[1])),
		zap.Int("left_score", scores.Left),
		zap.Int("right_score", scores.Right))

	ev := RoundEvent{RunID: o.id, Round: round, Scores: scores, Record: record}
	for _, obs := range observers {
		obs.RoundCompleted(ev.clone())
	}
	return nil
}

func message(round int, d protocol.Decision) types.AgentMessage {
	return types.AgentMessage{
		Move:                  d.Move,
		Decision:              fmt.Sprintf("Round %d: %s", round, d.Move.Past()),
		Reasoning:             d.Reasoning,
		MoralReasoning:        d.MoralReflection,
		Reflection:            d.Reflection,
		Biases:                append([]string(nil), d.Biases...),
		EmotionLogic:          d.Weights,
		Emotions:              d.Emotions,
		CulturalInfluence:     d.CulturalInfluence,
		SocialLearningInsight: d.SocialLearningInsight,
		PersonalityEvolution:  d.PersonalityEvolution,
	}
}

func (o *Orchestrator) runEpilogue(ctx context.Context) *Epilogue {
	o.mu.RLock()
	records := o.records
	scores := o.scores
	o.mu.RUnlock()

	var ep Epilogue
	halves := [2]*AgentEpilogue{&ep.Left, &ep.Right}
	var g errgroup.Group
	for i, side := range types.Sides {
		a, c, h := o.archetypes[i], o.clients[i], halves[i]
		g.Go(func() error {
			text, err := c.RequestNarrative(ctx, agent.NarrativePrompt(a, side, records))
			if err != nil {
				h.NarrativeError = err.Error()
				o.logger.Warn("narrative failed", zap.String("side", string(side)), zap.Error(err))
				return nil
			}
			h.Narrative = text
			return nil
		})
		g.Go(func() error {
			text, err := c.RequestMetaReflection(ctx, agent.MetaReflectionPrompt(a, side, records, scores))
			if err != nil {
				h.MetaReflectionError = err.Error()
				o.logger.Warn("meta-reflection failed", zap.String("side", string(side)), zap.Error(err))
				return nil
			}
			h.MetaReflection = text
			return nil
		})
	}
	_ = g.Wait()
	return &ep
}

func (o *Orchestrator) abort(round int, err error) (Summary, error) {
	o.logger.Error("run aborted", zap.Int("round", round), zap.Error(err))
	err = fmt.Errorf("round %d: %w", round, err)
	return o.finish(StatusAborted, err, nil), err
}

func (o *Orchestrator) finish(status Status, err error, epilogue *Epilogue) Summary {
	o.mu.Lock()
	o.status = status
	o.err = err
	o.epilogue = epilogue
	o.finished = time.Now()
	summary := o.summaryLocked()
	observers := append([]Observer(nil), o.observers...)
	o.mu.Unlock()

	o.logger.Info("run finished",
		zap.String("status", string(status)),
		zap.Int("rounds_played", summary.RoundsPlayed),
		zap.String("winner", string(summary.Winner)))

	for _, obs := range observers {
		obs.RunFinished(summary)
	}
	close(o.done)
	return summary
}

func (o *Orchestrator) summaryLocked() Summary {
	s := Summary{
		RunID:         o.id,
		Left:          o.cfg.Left,
		Right:         o.cfg.Right,
		Topic:         o.cfg.Topic,
		Status:        o.status,
		RoundsPlanned: o.cfg.Rounds,
		RoundsPlayed:  len(o.records),
		Scores:        o.scores,
		StartedAt:     o.started,
		FinishedAt:    o.finished,
		Epilogue:      o.epilogue,
	}
	if o.status.Terminal() {
		s.Winner = types.WinnerOf(o.scores)
	}
	if o.err != nil {
		s.Error = o.err.Error()
	}
	return s
}

// ID returns the run id.
func (o *Orchestrator) ID() string { return o.id }

// Config returns the run configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Done is closed once the run has completed or aborted.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Status returns the current lifecycle state.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// Err returns the abort cause, or nil.
func (o *Orchestrator) Err() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

// Scores returns the cumulative scores so far.
func (o *Orchestrator) Scores() types.Scores {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scores
}

// Summary returns a snapshot of the run as it stands.
func (o *Orchestrator) Summary() Summary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.summaryLocked()
}

// Records returns deep copies of every completed round, in order.
func (o *Orchestrator) Records() []types.RoundRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]types.RoundRecord, len(o.records))
	for i, r := range o.records {
		out[i] = r.Clone()
	}
	return out
}

// State returns a deep copy of one side's current personality state.
func (o *Orchestrator) State(side types.Side) types.DynamicPersonalityState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if side == types.Left {
		return o.states[0].Clone()
	}
	return o.states[1].Clone()
}
