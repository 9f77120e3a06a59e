// Package server exposes runs over HTTP: start a run, poll it, fetch its
// rounds and analytics, or stream its progress over a websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/agent"
	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

// GeneratorFactory builds the generator for a new run.
type GeneratorFactory func(ctx context.Context, cfg llm.Config) (agent.Generator, error)

// Options configures a Server.
type Options struct {
	// Defaults is the run configuration that request fields override.
	Defaults simulation.Config
	// NewGenerator defaults to llm.New.
	NewGenerator GeneratorFactory
	// Observers are attached to every run, e.g. an events.Publisher.
	Observers []simulation.Observer
	Logger    *zap.Logger
}

// Server owns every run started through it.
type Server struct {
	engine   *gin.Engine
	defaults simulation.Config
	newGen   GeneratorFactory
	shared   []simulation.Observer
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	runs map[string]*run
}

type run struct {
	orch *simulation.Orchestrator
	feed *feed
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := opts.Defaults
	if defaults.Rounds == 0 {
		defaults = simulation.DefaultConfig()
	}
	newGen := opts.NewGenerator
	if newGen == nil {
		newGen = func(ctx context.Context, cfg llm.Config) (agent.Generator, error) {
			return llm.New(ctx, cfg, logger)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		defaults: defaults,
		newGen:   newGen,
		shared:   opts.Observers,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		runs:     make(map[string]*run),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	s.routes(r)
	s.engine = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/archetypes", withJSON(s.listArchetypes))
		api.GET("/runs", withJSON(s.listRuns))
		api.POST("/runs", withJSON(s.startRun))
		api.GET("/runs/:id", withJSON(s.getRun))
		api.GET("/runs/:id/rounds", withJSON(s.getRounds))
		api.GET("/runs/:id/analytics", withJSON(s.getAnalytics))
		api.GET("/runs/:id/stream", s.stream)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Close cancels every run in flight and waits for them to stop.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// withJSON turns a handler that returns (payload, status, error) into a gin
// handler. Errors are rendered as {"error": "..."}.
func withJSON(fn func(c *gin.Context) (any, int, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, status, err := fn(c)
		if err != nil {
			if status == 0 {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, payload)
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) listArchetypes(c *gin.Context) (any, int, error) {
	return gin.H{"archetypes": archetype.All()}, http.StatusOK, nil
}

// StartRequest is the body of POST /api/runs. Zero fields keep the server
// defaults.
type StartRequest struct {
	Left     archetype.ID `json:"left"`
	Right    archetype.ID `json:"right"`
	Topic    string       `json:"topic"`
	Rounds   int          `json:"rounds"`
	Epilogue *bool        `json:"epilogue"`
	Backend  llm.Backend  `json:"backend"`
	Model    string       `json:"model"`
	Seed     *uint64      `json:"seed"`
}

func (req StartRequest) apply(cfg simulation.Config) simulation.Config {
	if req.Left != "" {
		cfg.Left = req.Left
	}
	if req.Right != "" {
		cfg.Right = req.Right
	}
	if req.Topic != "" {
		cfg.Topic = req.Topic
	}
	if req.Rounds != 0 {
		cfg.Rounds = req.Rounds
	}
	if req.Epilogue != nil {
		cfg.Epilogue = *req.Epilogue
	}
	if req.Backend != "" && req.Backend != cfg.LLM.Backend {
		cfg.LLM = llm.Config{Backend: req.Backend}
	}
	if req.Model != "" {
		cfg.LLM.Model = req.Model
	}
	if req.Seed != nil {
		cfg.LLM.Seed = *req.Seed
	}
	// Journals are a CLI concern; concurrent runs would share one file.
	cfg.Journal = ""
	return cfg
}

func (s *Server) startRun(c *gin.Context) (any, int, error) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid run request: %w", err)
	}
	cfg := req.apply(s.defaults)
	if err := cfg.Validate(); err != nil {
		return nil, http.StatusBadRequest, err
	}

	gen, err := s.newGen(c.Request.Context(), cfg.LLM)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("backend: %w", err)
	}

	f := newFeed()
	observers := append([]simulation.Observer{f}, s.shared...)
	orch, err := simulation.New(cfg, simulation.Options{
		Generator: gen,
		Logger:    s.logger,
		Observers: observers,
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	s.mu.Lock()
	s.runs[orch.ID()] = &run{orch: orch, feed: f}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Aborts are recorded on the run itself.
		_, _ = orch.Run(s.ctx)
	}()

	return gin.H{"id": orch.ID(), "config": cfg}, http.StatusAccepted, nil
}

var errRunNotFound = errors.New("run not found")

func (s *Server) lookup(c *gin.Context) (*run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[c.Param("id")]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errRunNotFound, c.Param("id"))
	}
	return r, nil
}

func (s *Server) listRuns(c *gin.Context) (any, int, error) {
	s.mu.RLock()
	summaries := make([]simulation.Summary, 0, len(s.runs))
	for _, r := range s.runs {
		summaries = append(summaries, r.orch.Summary())
	}
	s.mu.RUnlock()
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.Before(summaries[j].StartedAt)
	})
	return gin.H{"runs": summaries}, http.StatusOK, nil
}

func (s *Server) getRun(c *gin.Context) (any, int, error) {
	r, err := s.lookup(c)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	return r.orch.Summary(), http.StatusOK, nil
}

func (s *Server) getRounds(c *gin.Context) (any, int, error) {
	r, err := s.lookup(c)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	return gin.H{"rounds": r.orch.Records()}, http.StatusOK, nil
}

func (s *Server) getAnalytics(c *gin.Context) (any, int, error) {
	r, err := s.lookup(c)
	if err != nil {
		return nil, http.StatusNotFound, err
	}
	if st := r.orch.Status(); st != simulation.StatusCompleted {
		return nil, http.StatusConflict, fmt.Errorf("analytics need a completed run, status is %s", st)
	}
	return analytics.Analyze(r.orch.Records(), r.orch.Config().Rounds), http.StatusOK, nil
}
