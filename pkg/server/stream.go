package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

// StreamMessage is one websocket frame: a round event or the final summary.
type StreamMessage struct {
	Type    string                 `json:"type"` // "round" | "summary"
	Round   *simulation.RoundEvent `json:"round,omitempty"`
	Summary *simulation.Summary    `json:"summary,omitempty"`
}

// feed keeps every event of a run so late subscribers can catch up.
type feed struct {
	mu      sync.Mutex
	events  []simulation.RoundEvent
	summary *simulation.Summary
	changed chan struct{}
}

func newFeed() *feed {
	return &feed{changed: make(chan struct{})}
}

func (f *feed) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *feed) RoundCompleted(ev simulation.RoundEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	f.notifyLocked()
}

func (f *feed) RunFinished(s simulation.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = &s
	f.notifyLocked()
}

// since returns the events after the first n, the summary if the run is
// over, and a channel closed on the next change.
func (f *feed) since(n int) ([]simulation.RoundEvent, *simulation.Summary, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var evs []simulation.RoundEvent
	if n < len(f.events) {
		evs = append(evs, f.events[n:]...)
	}
	return evs, f.summary, f.changed
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

func (s *Server) stream(c *gin.Context) {
	r, err := s.lookup(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The reader only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sent := 0
	for {
		evs, summary, changed := r.feed.since(sent)
		for i := range evs {
			if err := write(conn, StreamMessage{Type: "round", Round: &evs[i]}); err != nil {
				return
			}
			sent++
		}
		if summary != nil {
			if err := write(conn, StreamMessage{Type: "summary", Summary: summary}); err != nil {
				return
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"),
				time.Now().Add(writeWait))
			return
		}
		select {
		case <-changed:
		case <-gone:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

func write(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
