// Package events publishes run progress to NATS.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "dilemma.runs"

const (
	kindRound    = "round"
	kindFinished = "finished"
)

// RoundSubject is where round events for runID are published.
func RoundSubject(prefix, runID string) string {
	return fmt.Sprintf("%s.%s.%s", orDefault(prefix), runID, kindRound)
}

// FinishedSubject is where the final summary for runID is published.
func FinishedSubject(prefix, runID string) string {
	return fmt.Sprintf("%s.%s.%s", orDefault(prefix), runID, kindFinished)
}

func orDefault(prefix string) string {
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

// Publisher is a simulation.Observer that forwards events as JSON.
type Publisher struct {
	conn   *nats.Conn
	owned  bool
	prefix string
	logger *zap.Logger

	mu  sync.Mutex
	err error
}

// Connect dials url and returns a Publisher that owns the connection.
func Connect(url, prefix string, logger *zap.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("dilemma-lab"),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	p := NewPublisher(nc, prefix, logger)
	p.owned = true
	return p, nil
}

// NewPublisher wraps an existing connection. Close leaves it open.
func NewPublisher(nc *nats.Conn, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{conn: nc, prefix: orDefault(prefix), logger: logger}
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = p.conn.Publish(subject, data)
	}
	if err != nil {
		p.logger.Warn("publish failed", zap.String("subject", subject), zap.Error(err))
		p.mu.Lock()
		p.err = errors.Join(p.err, err)
		p.mu.Unlock()
	}
}

// RoundCompleted publishes ev on RoundSubject.
func (p *Publisher) RoundCompleted(ev simulation.RoundEvent) {
	p.publish(RoundSubject(p.prefix, ev.RunID), ev)
}

// RunFinished publishes s on FinishedSubject and flushes.
func (p *Publisher) RunFinished(s simulation.Summary) {
	p.publish(FinishedSubject(p.prefix, s.RunID), s)
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("flush failed", zap.Error(err))
	}
}

// Err returns every publish failure seen so far.
func (p *Publisher) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close drains the connection if the Publisher opened it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}

// Embedded is an in-process NATS server for local runs.
type Embedded struct {
	*server.Server
}

// StartEmbedded starts a NATS server on host:port (port -1 picks a free one)
// and waits until it accepts clients.
func StartEmbedded(host string, port int) (*Embedded, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("nats server not ready")
	}
	return &Embedded{Server: ns}, nil
}

// URL is the client URL of the embedded server.
func (e *Embedded) URL() string { return e.ClientURL() }

// Stop shuts the server down and waits for it.
func (e *Embedded) Stop() {
	e.Shutdown()
	e.WaitForShutdown()
}
