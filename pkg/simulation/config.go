package simulation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cpunion/dilemma-lab/pkg/agent"
	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/llm"
)

// ErrInvalidConfig is returned by Validate and by New for a bad Config.
var ErrInvalidConfig = errors.New("invalid simulation config")

// DefaultRounds is the length of a standard run.
const DefaultRounds = 50

// Config is everything a run needs, fixed when the run starts.
type Config struct {
	Left   archetype.ID `yaml:"left" json:"left"`
	Right  archetype.ID `yaml:"right" json:"right"`
	Topic  string       `yaml:"topic" json:"topic"`
	Rounds int          `yaml:"rounds" json:"rounds"`

	// HistoryLimit caps each append-only list in a personality state.
	// Zero selects agent.DefaultHistoryLimit; negative means unbounded.
	HistoryLimit  int  `yaml:"history_limit" json:"history_limit,omitempty"`
	ClampEmotions bool `yaml:"clamp_emotions" json:"clamp_emotions,omitempty"`

	// Epilogue requests a narrative and a meta-reflection from each agent
	// once all rounds are done.
	Epilogue bool `yaml:"epilogue" json:"epilogue,omitempty"`

	// Journal, when set, is a JSONL file receiving every round.
	Journal string `yaml:"journal" json:"journal,omitempty"`

	LLM llm.Config `yaml:"llm" json:"llm"`
}

// DefaultConfig returns a diplomat-versus-opportunist run of DefaultRounds.
func DefaultConfig() Config {
	return Config{
		Left:   archetype.Diplomat,
		Right:  archetype.Opportunist,
		Rounds: DefaultRounds,
		LLM:    llm.Config{Backend: llm.BackendOffline},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks archetypes and round count.
func (c Config) Validate() error {
	if _, err := archetype.Lookup(c.Left); err != nil {
		return fmt.Errorf("%w: left: %w", ErrInvalidConfig, err)
	}
	if _, err := archetype.Lookup(c.Right); err != nil {
		return fmt.Errorf("%w: right: %w", ErrInvalidConfig, err)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be at least 1, got %d", ErrInvalidConfig, c.Rounds)
	}
	return nil
}

// Updater returns the state updater configured by c.
func (c Config) Updater() agent.StateUpdater {
	u := agent.StateUpdater{HistoryLimit: c.HistoryLimit, ClampEmotions: c.ClampEmotions}
	switch {
	case c.HistoryLimit == 0:
		u.HistoryLimit = agent.DefaultHistoryLimit
	case c.HistoryLimit < 0:
		u.HistoryLimit = 0
	}
	return u
}
