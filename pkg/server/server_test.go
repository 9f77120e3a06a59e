package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cpunion/dilemma-lab/pkg/agent"
	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// gatedGenerator holds every call until gate is closed.
type gatedGenerator struct {
	gate  chan struct{}
	inner agent.Generator
}

func (g *gatedGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.inner.Generate(ctx, req)
}

func newTestServer(t *testing.T, factory GeneratorFactory) *Server {
	t.Helper()
	s := New(Options{Logger: zaptest.NewLogger(t), NewGenerator: factory})
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func start(t *testing.T, s *Server, req StartRequest) string {
	t.Helper()
	rec := do(t, s.Handler(), http.MethodPost, "/api/runs", req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	out := decode[struct {
		ID string `json:"id"`
	}](t, rec)
	require.NotEmpty(t, out.ID)
	return out.ID
}

func wait(t *testing.T, s *Server, id string) {
	t.Helper()
	s.mu.RLock()
	r := s.runs[id]
	s.mu.RUnlock()
	require.NotNil(t, r)
	select {
	case <-r.orch.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("run %s did not finish", id)
	}
}

func TestListArchetypes(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/archetypes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode[struct {
		Archetypes []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"archetypes"`
	}](t, rec)
	require.Len(t, out.Archetypes, 5)
	assert.Equal(t, "diplomat", out.Archetypes[0].ID)
}

func TestRunLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	seed := uint64(9)
	id := start(t, s, StartRequest{Left: "skeptic", Right: "altruist", Rounds: 6, Backend: llm.BackendOffline, Seed: &seed})
	wait(t, s, id)

	rec := do(t, s.Handler(), http.MethodGet, "/api/runs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[simulation.Summary](t, rec)
	assert.Equal(t, simulation.StatusCompleted, summary.Status)
	assert.Equal(t, 6, summary.RoundsPlayed)
	assert.NotEmpty(t, summary.Winner)

	rec = do(t, s.Handler(), http.MethodGet, "/api/runs/"+id+"/rounds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rounds := decode[struct {
		Rounds []types.RoundRecord `json:"rounds"`
	}](t, rec)
	require.Len(t, rounds.Rounds, 6)
	assert.Equal(t, 6, rounds.Rounds[5].Round)

	rec = do(t, s.Handler(), http.MethodGet, "/api/runs/"+id+"/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[analytics.Report](t, rec)
	assert.Equal(t, 6, report.Rounds)
	assert.Len(t, report.Correlations, 3)

	rec = do(t, s.Handler(), http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Runs []simulation.Summary `json:"runs"`
	}](t, rec)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, id, list.Runs[0].RunID)
}

func TestAnalyticsConflictWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	s := newTestServer(t, func(ctx context.Context, cfg llm.Config) (agent.Generator, error) {
		return &gatedGenerator{gate: gate, inner: llm.NewOfflineProvider(llm.OfflineConfig{Seed: cfg.Seed})}, nil
	})
	id := start(t, s, StartRequest{Rounds: 2})

	rec := do(t, s.Handler(), http.MethodGet, "/api/runs/"+id+"/analytics", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(gate)
	wait(t, s, id)
	rec = do(t, s.Handler(), http.MethodGet, "/api/runs/"+id+"/analytics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCloseAbortsRunsInFlight(t *testing.T) {
	gate := make(chan struct{})
	s := New(Options{NewGenerator: func(ctx context.Context, cfg llm.Config) (agent.Generator, error) {
		return &gatedGenerator{gate: gate, inner: llm.NewOfflineProvider(llm.OfflineConfig{})}, nil
	}})
	id := start(t, s, StartRequest{Rounds: 3})
	s.Close()

	rec := do(t, s.Handler(), http.MethodGet, "/api/runs/"+id, nil)
	summary := decode[simulation.Summary](t, rec)
	assert.Equal(t, simulation.StatusAborted, summary.Status)
	assert.Contains(t, summary.Error, "context canceled")
}

func TestStartRunRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/runs", StartRequest{Left: "zealot"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown archetype")

	rec = do(t, h, http.MethodPost, "/api/runs", StartRequest{Rounds: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/runs", StartRequest{Backend: "carrier-pigeon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestUnknownRun(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/api/runs/nope", "/api/runs/nope/rounds", "/api/runs/nope/analytics", "/api/runs/nope/stream"} {
		rec := do(t, s.Handler(), http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestStreamDeliversRoundsInOrder(t *testing.T) {
	gate := make(chan struct{})
	s := newTestServer(t, func(ctx context.Context, cfg llm.Config) (agent.Generator, error) {
		return &gatedGenerator{gate: gate, inner: llm.NewOfflineProvider(llm.OfflineConfig{Seed: 4})}, nil
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := start(t, s, StartRequest{Rounds: 4})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/runs/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	close(gate)

	next := 1
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "summary" {
			require.NotNil(t, msg.Summary)
			assert.Equal(t, simulation.StatusCompleted, msg.Summary.Status)
			assert.Equal(t, 4, msg.Summary.RoundsPlayed)
			break
		}
		require.Equal(t, "round", msg.Type)
		require.NotNil(t, msg.Round)
		assert.Equal(t, next, msg.Round.Round)
		next++
	}
	assert.Equal(t, 5, next)
}

func TestStreamReplaysFinishedRun(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := start(t, s, StartRequest{Rounds: 2})
	wait(t, s, id)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/runs/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var kinds []string
	for range 3 {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		kinds = append(kinds, msg.Type)
	}
	assert.Equal(t, []string{"round", "round", "summary"}, kinds)
}
