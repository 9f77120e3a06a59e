// Package llm provides text generation backends.
package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/cpunion/dilemma-lab/pkg/protocol"
)

// Request is one prompt sent to a backend.
type Request struct {
	Kind        protocol.ResponseKind
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Provider generates a reply for a request. Implementations must be safe
// for concurrent use; the orchestrator calls two at a time.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// contentText joins the text parts of a genai content block.
func contentText(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// generateConfig maps request settings onto a genai config.
func generateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		t := req.Temperature
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}
