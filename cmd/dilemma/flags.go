package main

import (
	"github.com/spf13/cobra"

	"github.com/cpunion/dilemma-lab/pkg/archetype"
	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

// configFlags overlay a loaded Config; only flags set on the command line
// win over the file.
type configFlags struct {
	left, right  string
	topic        string
	rounds       int
	historyLimit int
	clamp        bool
	epilogue     bool
	backend      string
	model        string
	baseURL      string
	seed         uint64
}

func (f *configFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.left, "left", string(archetype.Diplomat), "Archetype for the left agent")
	fs.StringVar(&f.right, "right", string(archetype.Opportunist), "Archetype for the right agent")
	fs.StringVar(&f.topic, "topic", "", "Negotiation topic woven into the prompts")
	fs.IntVar(&f.rounds, "rounds", simulation.DefaultRounds, "Number of rounds")
	fs.IntVar(&f.historyLimit, "history-limit", 0, "Cap on each state history list (0 = default, <0 = unbounded)")
	fs.BoolVar(&f.clamp, "clamp", false, "Clamp emotions to their documented ranges")
	fs.BoolVar(&f.epilogue, "epilogue", false, "Ask each agent for a narrative and meta-reflection at the end")
	fs.StringVar(&f.backend, "backend", string(llm.BackendOffline), "Generation backend (openai, gemini, adk, offline)")
	fs.StringVar(&f.model, "model", "", "Model name (backend default when empty)")
	fs.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible base URL")
	fs.Uint64Var(&f.seed, "seed", 0, "Seed for the offline backend")
}

func (f *configFlags) load(cmd *cobra.Command, path string) (simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if path != "" {
		loaded, err := simulation.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	fs := cmd.Flags()
	if fs.Changed("left") {
		cfg.Left = archetype.ID(f.left)
	}
	if fs.Changed("right") {
		cfg.Right = archetype.ID(f.right)
	}
	if fs.Changed("topic") {
		cfg.Topic = f.topic
	}
	if fs.Changed("rounds") {
		cfg.Rounds = f.rounds
	}
	if fs.Changed("history-limit") {
		cfg.HistoryLimit = f.historyLimit
	}
	if fs.Changed("clamp") {
		cfg.ClampEmotions = f.clamp
	}
	if fs.Changed("epilogue") {
		cfg.Epilogue = f.epilogue
	}
	if fs.Changed("backend") {
		cfg.LLM.Backend = llm.Backend(f.backend)
	}
	if fs.Changed("model") {
		cfg.LLM.Model = f.model
	}
	if fs.Changed("base-url") {
		cfg.LLM.BaseURL = f.baseURL
	}
	if fs.Changed("seed") {
		cfg.LLM.Seed = f.seed
	}
	return cfg, cfg.Validate()
}
