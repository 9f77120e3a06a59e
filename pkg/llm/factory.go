package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/adk/model/gemini"
)

// Backend names a generation backend.
type Backend string

const (
	BackendOpenAI  Backend = "openai"
	BackendGemini  Backend = "gemini"
	BackendADK     Backend = "adk"
	BackendOffline Backend = "offline"
)

// Config selects and configures a backend.
type Config struct {
	Backend Backend `yaml:"backend" json:"backend"`
	Model   string  `yaml:"model" json:"model,omitempty"`
	APIKey  string  `yaml:"api_key" json:"-"`
	BaseURL string  `yaml:"base_url" json:"base_url,omitempty"`
	Seed    uint64  `yaml:"seed" json:"seed,omitempty"` // offline only
}

// New builds the provider named by cfg.Backend. An empty backend means offline.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Provider, error) {
	switch cfg.Backend {
	case BackendOpenAI:
		return NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case BackendGemini:
		return NewGeminiProvider(ctx, GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model})
	case BackendADK:
		clientCfg, err := geminiClientConfig(cfg.APIKey)
		if err != nil {
			return nil, err
		}
		m, err := gemini.NewModel(ctx, geminiModel(cfg.Model), clientCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create adk gemini model: %w", err)
		}
		return NewADKProvider(m, logger), nil
	case BackendOffline, "":
		return NewOfflineProvider(OfflineConfig{Seed: cfg.Seed}), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
