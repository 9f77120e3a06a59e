// Package agent turns archetypes and backend replies into evolving
// personality states.
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/protocol"
)

// ErrBackendUnavailable wraps any transport or backend failure.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Generator is the text generation backend. llm.Provider satisfies it.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Client sends prompts of a known kind and decodes the replies.
// It never retries.
type Client struct {
	gen    Generator
	logger *zap.Logger
}

// NewClient creates a client. A nil logger is replaced with a no-op logger.
func NewClient(gen Generator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{gen: gen, logger: logger}
}

// RequestDecision asks for a move and parses the reply. A reply without a
// recognised DECISION fails with protocol.ErrMalformedDecision.
func (c *Client) RequestDecision(ctx context.Context, prompt string) (protocol.Decision, error) {
	text, err := c.generate(ctx, protocol.KindDecision, prompt)
	if err != nil {
		return protocol.Decision{}, err
	}
	d, err := protocol.ParseDecision(text)
	if err != nil {
		c.logger.Warn("rejected decision reply", zap.Error(err), zap.String("reply", text))
		return protocol.Decision{}, err
	}
	if len(d.Defaulted) > 0 {
		c.logger.Debug("decision fields defaulted", zap.Strings("keys", d.Defaulted))
	}
	return d, nil
}

// RequestStateUpdate asks for a state update and returns the raw fields.
func (c *Client) RequestStateUpdate(ctx context.Context, prompt string) (protocol.Fields, error) {
	text, err := c.generate(ctx, protocol.KindStateUpdate, prompt)
	if err != nil {
		return nil, err
	}
	return protocol.Parse(text), nil
}

// RequestNarrative returns the free-text journal entry.
func (c *Client) RequestNarrative(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, protocol.KindNarrative, prompt)
}

// RequestMetaReflection returns the free-text self critique.
func (c *Client) RequestMetaReflection(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, protocol.KindMetaReflection, prompt)
}

func (c *Client) generate(ctx context.Context, kind protocol.ResponseKind, prompt string) (string, error) {
	settings := generation[kind]
	text, err := c.gen.Generate(ctx, llm.Request{
		Kind:        kind,
		System:      systemPrompts[kind],
		Prompt:      prompt,
		Temperature: settings.temperature,
		MaxTokens:   settings.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, kind, err)
	}
	return text, nil
}
