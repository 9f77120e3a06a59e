package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ADKProvider adapts an ADK model.LLM, such as adk/model/gemini, to Provider.
type ADKProvider struct {
	llm    model.LLM
	logger *zap.Logger
}

// NewADKProvider wraps llm. A nil logger disables usage logging.
func NewADKProvider(llm model.LLM, logger *zap.Logger) *ADKProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ADKProvider{llm: llm, logger: logger}
}

// Generate runs one non-streaming call and concatenates the text of every
// response it yields.
func (p *ADKProvider) Generate(ctx context.Context, req Request) (string, error) {
	llmReq := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		Config:   generateConfig(req),
	}

	var b strings.Builder
	for resp, err := range p.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", fmt.Errorf("%s generate failed: %w", p.llm.Name(), err)
		}
		if resp == nil {
			continue
		}
		if usage := resp.UsageMetadata; usage != nil {
			p.logger.Debug("token usage",
				zap.String("model", p.llm.Name()),
				zap.String("kind", string(req.Kind)),
				zap.Int32("prompt_tokens", usage.PromptTokenCount),
				zap.Int32("output_tokens", usage.CandidatesTokenCount),
				zap.Int32("total_tokens", usage.TotalTokenCount),
			)
		}
		b.WriteString(contentText(resp.Content))
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no response from %s", p.llm.Name())
	}
	return b.String(), nil
}

// Model returns the wrapped model's name.
func (p *ADKProvider) Model() string {
	return p.llm.Name()
}
